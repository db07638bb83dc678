// Package summary produces one natural-language summary per sub-document of
// each filing. Short sections are summarized directly; long ones are chunked,
// clustered by embedding, and summarized from one representative chunk per
// cluster so model input stays bounded for arbitrarily long documents.
package summary

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/docstore"
	"github.com/settlementwatch/settlement-pipeline/internal/embed"
	"github.com/settlementwatch/settlement-pipeline/internal/english"
	"github.com/settlementwatch/settlement-pipeline/internal/llm"
	"github.com/settlementwatch/settlement-pipeline/internal/metrics"
	"github.com/settlementwatch/settlement-pipeline/internal/pdf"
	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

// NotEnglishSentinel is stored for sub-documents that fail the language gate.
const NotEnglishSentinel = "Not English"

// chunkSeparator joins representative chunks for the reduction prompt.
const chunkSeparator = "\n\n----\n"

// Completer is the LLM surface this stage needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// PagesReader extracts per-page text from a PDF on disk.
type PagesReader func(path string) ([]string, error)

// Config controls the summarization thresholds.
type Config struct {
	DirectLimitChars int
	ChunkChars       int
	Clusters         int
	EnglishThreshold float64
}

// Stage summarizes every document not yet in the summaries table.
type Stage struct {
	docs      *docstore.Store
	store     pipeline.Store
	completer Completer
	embedder  embed.Embedder
	cfg       Config
	readPages PagesReader
	logger    *zap.Logger
}

// New builds the summary stage.
func New(docs *docstore.Store, store pipeline.Store, completer Completer, embedder embed.Embedder, cfg Config, logger *zap.Logger) *Stage {
	if cfg.DirectLimitChars <= 0 {
		cfg.DirectLimitChars = 10000
	}
	if cfg.ChunkChars <= 0 {
		cfg.ChunkChars = 1000
	}
	if cfg.Clusters <= 0 {
		cfg.Clusters = 8
	}
	if cfg.EnglishThreshold <= 0 {
		cfg.EnglishThreshold = english.DefaultThreshold
	}
	return &Stage{
		docs:      docs,
		store:     store,
		completer: completer,
		embedder:  embedder,
		cfg:       cfg,
		readPages: defaultPagesReader,
		logger:    logger,
	}
}

// WithPagesReader overrides PDF page extraction (used by tests).
func (s *Stage) WithPagesReader(r PagesReader) *Stage {
	s.readPages = r
	return s
}

func defaultPagesReader(path string) ([]string, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, doc.PageCount())
	for nr := 1; nr <= doc.PageCount(); nr++ {
		pages = append(pages, doc.PageText(nr))
	}
	return pages, nil
}

// Run summarizes every document without summary rows. Each document's rows
// commit together; an interrupted run resumes at the next unsummarized
// document.
func (s *Stage) Run(ctx context.Context) error {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	for _, doc := range docs {
		done, err := s.store.SummaryExists(ctx, doc.Case, doc.Filename)
		if err != nil {
			return fmt.Errorf("check summaries %s/%s: %w", doc.Case, doc.Filename, err)
		}
		if done {
			s.logger.Debug("document already summarized",
				zap.String("case", doc.Case), zap.String("filename", doc.Filename))
			continue
		}
		if err := s.summarizeDocument(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) summarizeDocument(ctx context.Context, doc pipeline.Document) error {
	pages, err := s.readPages(s.docs.PDFPath(doc.Case, doc.Filename))
	if err != nil {
		s.logger.Warn("pdf unreadable, skipping document",
			zap.String("case", doc.Case),
			zap.String("filename", doc.Filename),
			zap.Error(err),
		)
		return nil
	}

	subs := SplitSubDocuments(pages)
	rows := make([]pipeline.Summary, 0, len(subs))
	for _, sub := range subs {
		text, err := s.summarize(ctx, doc.Case, sub)
		if err != nil {
			return fmt.Errorf("summarize %s/%s %s: %w", doc.Case, doc.Filename, sub.Name, err)
		}
		rows = append(rows, pipeline.Summary{
			Case:        doc.Case,
			Filename:    doc.Filename,
			SubDocument: sub.Name,
			Summary:     text,
		})
	}
	if len(rows) == 0 {
		s.logger.Warn("document has no text to summarize",
			zap.String("case", doc.Case), zap.String("filename", doc.Filename))
		return nil
	}

	if err := s.store.InsertSummaries(ctx, rows); err != nil {
		return fmt.Errorf("insert summaries %s/%s: %w", doc.Case, doc.Filename, err)
	}
	metrics.SummariesWritten.Add(float64(len(rows)))
	s.logger.Info("summarized document",
		zap.String("case", doc.Case),
		zap.String("filename", doc.Filename),
		zap.Int("sub_documents", len(rows)),
	)
	return nil
}

// summarize gates on language, then summarizes directly or through the
// cluster reduction depending on length.
func (s *Stage) summarize(ctx context.Context, caseName string, sub SubDocument) (string, error) {
	if !english.IsEnglish(sub.Text, s.cfg.EnglishThreshold) {
		return NotEnglishSentinel, nil
	}
	if len(sub.Text) <= s.cfg.DirectLimitChars {
		return s.completer.Complete(ctx, llm.SummarySystemPrompt,
			fmt.Sprintf(llm.SummaryUserPrompt, caseName, sub.Text))
	}

	reduced, err := s.reduce(ctx, sub.Text)
	if err != nil {
		return "", err
	}
	return s.completer.Complete(ctx, llm.ChunkSummarySystemPrompt,
		fmt.Sprintf(llm.SummaryUserPrompt, caseName, reduced))
}

// reduce chunks the text, clusters the chunk embeddings and concatenates one
// representative chunk per cluster.
func (s *Stage) reduce(ctx context.Context, text string) (string, error) {
	chunks := ChunkText(text, s.cfg.ChunkChars)
	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return "", fmt.Errorf("embed chunks: %w", err)
	}

	reps := embed.ClusterRepresentatives(vectors, s.cfg.Clusters)
	picked := make([]string, 0, len(reps))
	for _, i := range reps {
		picked = append(picked, chunks[i])
	}
	return strings.Join(picked, chunkSeparator), nil
}
