// Package cmd defines the CLI commands for the settlements executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/catalog"
	"github.com/settlementwatch/settlement-pipeline/internal/config"
	"github.com/settlementwatch/settlement-pipeline/internal/docstore"
	"github.com/settlementwatch/settlement-pipeline/internal/embed"
	"github.com/settlementwatch/settlement-pipeline/internal/llm"
	"github.com/settlementwatch/settlement-pipeline/internal/logging"
	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
	"github.com/settlementwatch/settlement-pipeline/internal/store"
)

var cfgFile string

type appKeyType string

const appKey appKeyType = "app"

// app bundles the shared collaborators every stage command needs.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *store.Postgres
	docs     *docstore.Store
	sites    []pipeline.Site
	llm      *llm.Client
	embedder *embed.Client
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := store.New(ctx, store.Config{DSN: cfg.DB.DSN, MaxConns: int32(cfg.DB.MaxOpenConns)})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	docs, err := docstore.New(cfg.Data.Root)
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("init docstore: %w", err)
	}
	sites, err := catalog.Load(cfg.Data.Catalog)
	if err != nil {
		pg.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  pg,
		docs:   docs,
		sites:  sites,
		llm: llm.New(llm.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			VisionModel: cfg.OpenAI.VisionModel,
			Temperature: cfg.OpenAI.Temperature,
			Timeout:     cfg.OpenAITimeout(),
		}, logger),
		embedder: embed.New(embed.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.EmbeddingModel,
			Timeout: cfg.OpenAITimeout(),
		}),
	}, nil
}

func resolveApp(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKey).(*app)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settlements",
		Short: "Securities class-action settlement scraping and extraction pipeline",
		Long: `settlements drives the document pipeline for tracked securities
class-action settlements: scraping settlement websites, titling the downloaded
filings, and extracting case facts, notice facts, expense tables and
summaries into the shared store.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app); ok && a != nil {
				a.close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(
		newInitDBCmd(),
		newScrapeCmd(),
		newTitlesCmd(),
		newHomepageCmd(),
		newNoticeCmd(),
		newExpensesCmd(),
		newSummariesCmd(),
		newServeCmd(),
	)
	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "settlements: %v\n", err)
		os.Exit(1)
	}
}
