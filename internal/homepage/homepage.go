// Package homepage turns each saved settlement homepage into a case row:
// settlement date, settlement amount, class period and allegations.
package homepage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/docstore"
	"github.com/settlementwatch/settlement-pipeline/internal/llm"
	"github.com/settlementwatch/settlement-pipeline/internal/metrics"
	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

// Extractor is the LLM surface this stage needs.
type Extractor interface {
	ExtractStructured(ctx context.Context, system, user string, schema map[string]any, out any) error
}

// Stage reads saved homepage HTML and writes one row per case.
type Stage struct {
	docs      *docstore.Store
	store     pipeline.Store
	extractor Extractor
	sites     []pipeline.Site
	logger    *zap.Logger
}

// New builds the homepage extraction stage. The site catalog supplies each
// case's website URL for the row.
func New(docs *docstore.Store, store pipeline.Store, extractor Extractor, sites []pipeline.Site, logger *zap.Logger) *Stage {
	return &Stage{
		docs:      docs,
		store:     store,
		extractor: extractor,
		sites:     sites,
		logger:    logger,
	}
}

// Run extracts case facts for every case folder that has a saved homepage and
// no case row yet. One model call per case; each row commits on its own.
func (s *Stage) Run(ctx context.Context) error {
	cases, err := s.docs.ListCases()
	if err != nil {
		return fmt.Errorf("list case folders: %w", err)
	}

	for _, caseName := range cases {
		done, err := s.store.CaseExists(ctx, caseName)
		if err != nil {
			return fmt.Errorf("check case %s: %w", caseName, err)
		}
		if done {
			s.logger.Debug("case already extracted", zap.String("case", caseName))
			continue
		}
		if err := s.extractOne(ctx, caseName); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) extractOne(ctx context.Context, caseName string) error {
	text, err := s.homepageText(caseName)
	if err != nil {
		s.logger.Warn("no usable homepage, skipping case",
			zap.String("case", caseName), zap.Error(err))
		return nil
	}

	var facts llm.HomepageFacts
	err = s.extractor.ExtractStructured(ctx, llm.ExtractionSystemPrompt, text, llm.HomepageSchema(), &facts)
	if err != nil {
		return fmt.Errorf("extract case %s: %w", caseName, err)
	}

	row := pipeline.Case{
		Case:             caseName,
		Website:          s.websiteFor(caseName),
		SettlementDate:   facts.SettlementDate,
		SettlementAmount: facts.SettlementAmount,
		ClassPeriod:      facts.ClassPeriod,
		Allegations:      facts.Allegations,
	}
	if err := s.store.InsertCase(ctx, row); err != nil {
		return fmt.Errorf("insert case %s: %w", caseName, err)
	}
	metrics.CasesExtracted.Inc()
	s.logger.Info("extracted case", zap.String("case", caseName))
	return nil
}

// homepageText loads the saved homepage and reduces it to the main content
// block's text. When no content block exists the whole body text is used.
func (s *Stage) homepageText(caseName string) (string, error) {
	raw, err := os.ReadFile(s.docs.HomePagePath(caseName))
	if err != nil {
		return "", fmt.Errorf("read homepage: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return "", fmt.Errorf("parse homepage: %w", err)
	}

	text := strings.TrimSpace(doc.Find(".content_body").Text())
	if text == "" {
		text = strings.TrimSpace(doc.Find("body").Text())
	}
	if text == "" {
		return "", fmt.Errorf("homepage has no text content")
	}
	return text, nil
}

func (s *Stage) websiteFor(caseName string) string {
	for _, site := range s.sites {
		if site.Name == caseName {
			return site.URL
		}
	}
	return ""
}
