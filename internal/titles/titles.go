// Package titles assigns every downloaded PDF a title, either by asking a
// language model about its first page or by bulk-loading the crawl index.
package titles

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/docstore"
	"github.com/settlementwatch/settlement-pipeline/internal/llm"
	"github.com/settlementwatch/settlement-pipeline/internal/metrics"
	"github.com/settlementwatch/settlement-pipeline/internal/pdf"
	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

// Completer is the LLM surface this stage needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// PageReader extracts the first page of text from a PDF on disk.
// The default implementation opens the file with the pdf package.
type PageReader func(path string) (string, error)

// Stage walks the document tree and records one title per PDF.
type Stage struct {
	docs      *docstore.Store
	store     pipeline.Store
	completer Completer
	readPage  PageReader
	logger    *zap.Logger
}

// New builds the titling stage.
func New(docs *docstore.Store, store pipeline.Store, completer Completer, logger *zap.Logger) *Stage {
	return &Stage{
		docs:      docs,
		store:     store,
		completer: completer,
		readPage:  defaultPageReader,
		logger:    logger,
	}
}

// WithPageReader overrides PDF page extraction (used by tests).
func (s *Stage) WithPageReader(r PageReader) *Stage {
	s.readPage = r
	return s
}

func defaultPageReader(path string) (string, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	return doc.FirstPageText(), nil
}

// Run titles every PDF under every case folder. Documents already recorded
// are skipped without any model call; each title commits on its own so an
// interrupted run resumes where it stopped.
func (s *Stage) Run(ctx context.Context) error {
	cases, err := s.docs.ListCases()
	if err != nil {
		return fmt.Errorf("list case folders: %w", err)
	}

	for _, caseName := range cases {
		pdfs, err := s.docs.ListPDFs(caseName)
		if err != nil {
			return fmt.Errorf("list pdfs for %s: %w", caseName, err)
		}
		for _, filename := range pdfs {
			if err := s.titleOne(ctx, caseName, filename); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Stage) titleOne(ctx context.Context, caseName, filename string) error {
	done, err := s.store.DocumentExists(ctx, caseName, filename)
	if err != nil {
		return fmt.Errorf("check document %s/%s: %w", caseName, filename, err)
	}
	if done {
		s.logger.Debug("document already titled",
			zap.String("case", caseName), zap.String("filename", filename))
		return nil
	}

	title, err := s.title(ctx, caseName, filename)
	if err != nil {
		return err
	}

	doc := pipeline.Document{Case: caseName, Filename: filename, Title: title}
	if err := s.store.InsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("insert document %s/%s: %w", caseName, filename, err)
	}
	metrics.DocumentsTitled.Inc()
	s.logger.Info("titled document",
		zap.String("case", caseName),
		zap.String("filename", filename),
		zap.String("title", title),
	)
	return nil
}

// title extracts the first page and asks the model for the document title.
// An unreadable or empty first page yields the sentinel title so the document
// is still recorded and never retried.
func (s *Stage) title(ctx context.Context, caseName, filename string) (string, error) {
	text, err := s.readPage(s.docs.PDFPath(caseName, filename))
	if err != nil {
		s.logger.Warn("pdf parse failed, recording sentinel title",
			zap.String("case", caseName),
			zap.String("filename", filename),
			zap.Error(err),
		)
		return llm.NoTitleSentinel, nil
	}
	if strings.TrimSpace(text) == "" {
		return llm.NoTitleSentinel, nil
	}

	title, err := s.completer.Complete(ctx, llm.TitleSystemPrompt, fmt.Sprintf(llm.TitleUserPrompt, text))
	if err != nil {
		return "", fmt.Errorf("title %s/%s: %w", caseName, filename, err)
	}
	return strings.TrimSpace(title), nil
}

// RunFromIndex records titles from each case folder's crawl index instead of
// the model, using the link text the site showed for each document. Cases
// without an index file are skipped.
func (s *Stage) RunFromIndex(ctx context.Context) error {
	cases, err := s.docs.ListCases()
	if err != nil {
		return fmt.Errorf("list case folders: %w", err)
	}

	for _, caseName := range cases {
		entries, err := s.docs.ReadIndex(caseName)
		if err != nil {
			s.logger.Warn("no index for case", zap.String("case", caseName), zap.Error(err))
			continue
		}
		for _, entry := range entries {
			filename := strings.TrimSuffix(entry.Filename, ".pdf")
			done, err := s.store.DocumentExists(ctx, caseName, filename)
			if err != nil {
				return fmt.Errorf("check document %s/%s: %w", caseName, filename, err)
			}
			if done {
				continue
			}
			doc := pipeline.Document{Case: caseName, Filename: filename, Title: entry.FullName}
			if err := s.store.InsertDocument(ctx, doc); err != nil {
				return fmt.Errorf("insert document %s/%s: %w", caseName, filename, err)
			}
			metrics.DocumentsTitled.Inc()
		}
	}
	return nil
}
