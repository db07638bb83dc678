// Package expense extracts line items from expense filings. Table regions
// are parsed deterministically when they match a known shape; anything else
// falls back to vision transcription of the rendered page. Extracted rows
// must reconcile against the stated total before anything is persisted.
package expense

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/settlementwatch/settlement-pipeline/internal/docstore"
	"github.com/settlementwatch/settlement-pipeline/internal/llm"
	"github.com/settlementwatch/settlement-pipeline/internal/metrics"
	"github.com/settlementwatch/settlement-pipeline/internal/pdf"
	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
	"github.com/settlementwatch/settlement-pipeline/internal/render"
)

// Transcriber is the vision-model surface used for fallback transcription.
type Transcriber interface {
	TranscribeTable(ctx context.Context, png []byte) (llm.ExpenseTranscript, error)
}

// TablePager is the per-document PDF surface the stage walks.
type TablePager interface {
	PageCount() int
	FindExpenseTables(nr int) []pdf.Table
}

// Opener opens a PDF from disk for table extraction.
type Opener func(path string) (TablePager, error)

// PageExtractor writes page nr of a PDF as a standalone one-page PDF under
// outDir and returns its path.
type PageExtractor func(inPath string, nr int, outDir string) (string, error)

// Config controls the document fan-out.
type Config struct {
	Workers int
}

// Stage extracts and reconciles expense tables.
type Stage struct {
	docs        *docstore.Store
	store       pipeline.Store
	transcriber Transcriber
	renderer    render.Renderer
	cfg         Config
	open        Opener
	extractPage PageExtractor
	logger      *zap.Logger
}

// New builds the expense extraction stage. The renderer may be nil, in which
// case pages that defeat deterministic parsing fail the document.
func New(docs *docstore.Store, store pipeline.Store, transcriber Transcriber, renderer render.Renderer, cfg Config, logger *zap.Logger) *Stage {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Stage{
		docs:        docs,
		store:       store,
		transcriber: transcriber,
		renderer:    renderer,
		cfg:         cfg,
		open:        defaultOpener,
		extractPage: pdf.ExtractPage,
		logger:      logger,
	}
}

// WithOpener overrides PDF opening (used by tests).
func (s *Stage) WithOpener(o Opener) *Stage {
	s.open = o
	return s
}

// WithPageExtractor overrides single-page PDF extraction (used by tests).
func (s *Stage) WithPageExtractor(e PageExtractor) *Stage {
	s.extractPage = e
	return s
}

func defaultOpener(path string) (TablePager, error) {
	return pdf.Open(path)
}

// IsExpenseFiling reports whether a document title identifies an expense
// filing.
func IsExpenseFiling(title string) bool {
	return strings.Contains(strings.ToLower(title), "expense")
}

// Run fans extraction out over the expense documents of cases that have no
// expense rows yet. Workers only parse; all inserts happen after every
// worker finishes. A reconciliation failure aborts the whole run.
func (s *Stage) Run(ctx context.Context) error {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	var pending []pipeline.Document
	seen := map[string]bool{}
	for _, doc := range docs {
		if !IsExpenseFiling(doc.Title) {
			continue
		}
		if done, ok := seen[doc.Case]; ok && done {
			continue
		}
		done, err := s.store.ExpensesExist(ctx, doc.Case)
		if err != nil {
			return fmt.Errorf("check expenses %s: %w", doc.Case, err)
		}
		seen[doc.Case] = done
		if done {
			s.logger.Debug("expenses already extracted", zap.String("case", doc.Case))
			continue
		}
		pending = append(pending, doc)
	}

	var (
		mu      sync.Mutex
		batches [][]pipeline.ExpenseLine
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, doc := range pending {
		g.Go(func() error {
			lines, err := s.extractDocument(gctx, doc)
			if err != nil {
				return err
			}
			mu.Lock()
			batches = append(batches, lines)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, lines := range batches {
		if len(lines) == 0 {
			continue
		}
		if err := s.store.InsertExpenseLines(ctx, lines); err != nil {
			return fmt.Errorf("insert expense lines: %w", err)
		}
		metrics.ExpenseRowsParsed.Add(float64(len(lines)))
	}
	return nil
}

// extractDocument parses every table page of one filing and reconciles each
// page group. An unreadable PDF yields no rows rather than an error.
func (s *Stage) extractDocument(ctx context.Context, doc pipeline.Document) ([]pipeline.ExpenseLine, error) {
	path := s.docs.PDFPath(doc.Case, doc.Filename)
	pdfDoc, err := s.open(path)
	if err != nil {
		s.logger.Warn("expense pdf unreadable, skipping",
			zap.String("case", doc.Case),
			zap.String("filename", doc.Filename),
			zap.Error(err),
		)
		return nil, nil
	}

	var all []pipeline.ExpenseLine
	for nr := 1; nr <= pdfDoc.PageCount(); nr++ {
		tables := pdfDoc.FindExpenseTables(nr)
		if len(tables) == 0 {
			continue
		}
		rows, err := s.pageRows(ctx, path, nr, tables)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s/%s: %w", nr, doc.Case, doc.Filename, err)
		}
		lines, err := reconcile(rows, doc.Case, doc.Filename, nr)
		if err != nil {
			return nil, err
		}
		all = append(all, lines...)
	}
	s.logger.Info("extracted expense filing",
		zap.String("case", doc.Case),
		zap.String("filename", doc.Filename),
		zap.Int("rows", len(all)),
	)
	return all, nil
}

// pageRows parses every table on a page deterministically. When any table on
// the page defeats the known shapes or a currency value fails coercion, the
// deterministic rows are discarded and the whole page is transcribed by the
// vision model instead, so a page group never mixes the two sources.
func (s *Stage) pageRows(ctx context.Context, path string, nr int, tables []pdf.Table) ([]rawRow, error) {
	var rows []rawRow
	for _, t := range tables {
		parsed, err := parseTable(t)
		if err != nil {
			s.logger.Info("deterministic parse failed, using vision fallback",
				zap.String("path", path),
				zap.Int("page", nr),
				zap.Error(err),
			)
			return s.transcribePage(ctx, path, nr)
		}
		rows = append(rows, parsed...)
	}
	return rows, nil
}

// transcribePage extracts the page as a one-page PDF, renders it to PNG and
// asks the vision model for the rows.
func (s *Stage) transcribePage(ctx context.Context, path string, nr int) ([]rawRow, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("no renderer for vision fallback: %w", pipeline.ErrUnrecognizedTable)
	}

	tmp, err := os.MkdirTemp("", "expense-page-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	pagePath, err := s.extractPage(path, nr, tmp)
	if err != nil {
		return nil, fmt.Errorf("extract page: %w", err)
	}
	png, err := s.renderer.RenderPDF(ctx, pagePath)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	metrics.ExpenseVisionFallbacks.Inc()
	transcript, err := s.transcriber.TranscribeTable(ctx, png)
	if err != nil {
		return nil, fmt.Errorf("transcribe page: %w", err)
	}

	rows := make([]rawRow, 0, len(transcript.Rows))
	for _, tr := range transcript.Rows {
		var r rawRow
		if tr.Category != nil {
			r.Category = *tr.Category
		}
		if tr.Amount != nil {
			r.Amount = *tr.Amount
		}
		if tr.SubAmount != nil {
			r.SubAmount = *tr.SubAmount
		}
		// spacer rows from the transcript carry no data
		if strings.TrimSpace(r.Category) == "" && tr.Amount == nil && tr.SubAmount == nil {
			continue
		}
		rows = append(rows, r)
	}
	return rows, nil
}
