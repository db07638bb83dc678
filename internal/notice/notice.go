// Package notice extracts three facts from each case's notice of proposed
// settlement: the legal team, the average distribution per damaged share, and
// the requested attorney fees. Notices run long, so each fact is pulled from
// the top retrieval hits of an ephemeral per-document index rather than the
// whole filing.
package notice

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/docstore"
	"github.com/settlementwatch/settlement-pipeline/internal/embed"
	"github.com/settlementwatch/settlement-pipeline/internal/llm"
	"github.com/settlementwatch/settlement-pipeline/internal/metrics"
	"github.com/settlementwatch/settlement-pipeline/internal/pdf"
	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
	"github.com/settlementwatch/settlement-pipeline/internal/rag"
)

// Extractor is the LLM surface this stage needs.
type Extractor interface {
	ExtractStructured(ctx context.Context, system, user string, schema map[string]any, out any) error
}

// TextReader extracts the full text of a PDF on disk.
type TextReader func(path string) (string, error)

// Config holds the retrieval parameters.
type Config struct {
	WindowTokens  int
	OverlapTokens int
	TopK          int
}

// Stage finds each case's notice document and extracts the notice facts.
type Stage struct {
	docs      *docstore.Store
	store     pipeline.Store
	extractor Extractor
	embedder  embed.Embedder
	cfg       Config
	readText  TextReader
	logger    *zap.Logger
}

// New builds the notice extraction stage.
func New(docs *docstore.Store, store pipeline.Store, extractor Extractor, embedder embed.Embedder, cfg Config, logger *zap.Logger) *Stage {
	if cfg.WindowTokens <= 0 {
		cfg.WindowTokens = 100
	}
	if cfg.OverlapTokens <= 0 || cfg.OverlapTokens >= cfg.WindowTokens {
		cfg.OverlapTokens = cfg.WindowTokens / 2
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	return &Stage{
		docs:      docs,
		store:     store,
		extractor: extractor,
		embedder:  embedder,
		cfg:       cfg,
		readText:  defaultTextReader,
		logger:    logger,
	}
}

// WithTextReader overrides PDF text extraction (used by tests).
func (s *Stage) WithTextReader(r TextReader) *Stage {
	s.readText = r
	return s
}

func defaultTextReader(path string) (string, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}

// IsNotice reports whether a document title identifies the notice of
// proposed settlement.
func IsNotice(title string) bool {
	u := strings.ToUpper(title)
	return strings.Contains(u, "NOTICE OF") && strings.Contains(u, "PROPOSED SETTLEMENT")
}

// Run extracts notice facts for every case that has a titled notice document
// and no notice row yet. Each case commits on its own.
func (s *Stage) Run(ctx context.Context) error {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	// first notice per case, in listing order
	notices := make(map[string]pipeline.Document)
	for _, doc := range docs {
		if !IsNotice(doc.Title) {
			continue
		}
		if _, ok := notices[doc.Case]; !ok {
			notices[doc.Case] = doc
		}
	}

	for caseName, doc := range notices {
		done, err := s.store.NoticeInfoExists(ctx, caseName)
		if err != nil {
			return fmt.Errorf("check notice info %s: %w", caseName, err)
		}
		if done {
			s.logger.Debug("notice already extracted", zap.String("case", caseName))
			continue
		}
		if err := s.extractOne(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) extractOne(ctx context.Context, doc pipeline.Document) error {
	text, err := s.readText(s.docs.PDFPath(doc.Case, doc.Filename))
	if err != nil {
		s.logger.Warn("notice pdf unreadable, skipping case",
			zap.String("case", doc.Case),
			zap.String("filename", doc.Filename),
			zap.Error(err),
		)
		return nil
	}

	windows := rag.SplitTokenWindows(text, s.cfg.WindowTokens, s.cfg.OverlapTokens)
	index, err := rag.BuildIndex(ctx, s.embedder, windows)
	if err != nil {
		return fmt.Errorf("index notice %s/%s: %w", doc.Case, doc.Filename, err)
	}

	info := pipeline.NoticeInfo{Case: doc.Case}

	var legal llm.LegalTeamFact
	if err := s.extractFact(ctx, index, llm.LegalTeamQuery, llm.LegalTeamSchema(), &legal); err != nil {
		return fmt.Errorf("legal team %s: %w", doc.Case, err)
	}
	info.LegalTeam = legal.LegalTeam

	var adps llm.ADPSFact
	if err := s.extractFact(ctx, index, llm.ADPSQuery, llm.ADPSSchema(), &adps); err != nil {
		return fmt.Errorf("adps %s: %w", doc.Case, err)
	}
	info.ADPS = adps.ADPS

	var fees llm.AttorneyFeesFact
	if err := s.extractFact(ctx, index, llm.FeesQuery, llm.AttorneyFeesSchema(), &fees); err != nil {
		return fmt.Errorf("attorney fees %s: %w", doc.Case, err)
	}
	info.AttorneyFees = fees.AttorneyFees

	if err := s.store.InsertNoticeInfo(ctx, info); err != nil {
		return fmt.Errorf("insert notice info %s: %w", doc.Case, err)
	}
	metrics.NoticesExtracted.Inc()
	s.logger.Info("extracted notice info",
		zap.String("case", doc.Case),
		zap.String("filename", doc.Filename),
	)
	return nil
}

// extractFact retrieves the top windows for one query and extracts the fact
// from their concatenation.
func (s *Stage) extractFact(ctx context.Context, index *rag.Index, query string, schema map[string]any, out any) error {
	chunks, err := index.Retrieve(ctx, query, s.cfg.TopK)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}
	user := query + rag.JoinChunks(chunks)
	return s.extractor.ExtractStructured(ctx, llm.ChunkExtractionSystemPrompt, user, schema, out)
}
