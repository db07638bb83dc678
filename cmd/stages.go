package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/settlementwatch/settlement-pipeline/internal/expense"
	"github.com/settlementwatch/settlement-pipeline/internal/fetch"
	"github.com/settlementwatch/settlement-pipeline/internal/homepage"
	"github.com/settlementwatch/settlement-pipeline/internal/notice"
	"github.com/settlementwatch/settlement-pipeline/internal/render"
	"github.com/settlementwatch/settlement-pipeline/internal/scrape"
	"github.com/settlementwatch/settlement-pipeline/internal/summary"
	"github.com/settlementwatch/settlement-pipeline/internal/titles"
)

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the pipeline tables if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.store.CreateSchema(cmd.Context())
		},
	}
}

func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Download document sets from the settlement websites in the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			fetcher := fetch.New(fetch.Config{
				UserAgent: a.cfg.HTTP.UserAgent,
				Timeout:   a.cfg.HTTPTimeout(),
			})
			return scrape.New(fetcher, a.docs, a.logger).Run(cmd.Context(), a.sites)
		},
	}
}

func newTitlesCmd() *cobra.Command {
	var fromIndex bool
	cmd := &cobra.Command{
		Use:   "titles",
		Short: "Assign a title to every downloaded PDF not yet recorded",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			stage := titles.New(a.docs, a.store, a.llm, a.logger)
			if fromIndex {
				return stage.RunFromIndex(cmd.Context())
			}
			return stage.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&fromIndex, "from-index", false,
		"take titles from each case's crawl index instead of the model")
	return cmd
}

func newHomepageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "homepage",
		Short: "Extract settlement facts from each case's saved homepage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return homepage.New(a.docs, a.store, a.llm, a.sites, a.logger).Run(cmd.Context())
		},
	}
}

func newNoticeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notice",
		Short: "Extract notice facts from each case's notice of proposed settlement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			stage := notice.New(a.docs, a.store, a.llm, a.embedder, notice.Config{
				WindowTokens:  a.cfg.Notice.WindowTokens,
				OverlapTokens: a.cfg.Notice.OverlapTokens,
				TopK:          a.cfg.Notice.TopK,
			}, a.logger)
			return stage.Run(cmd.Context())
		},
	}
}

func newExpensesCmd() *cobra.Command {
	var noVision bool
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Extract and reconcile expense tables from expense filings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			var renderer render.Renderer
			if !noVision {
				r, rerr := render.NewChromedpRenderer(render.Config{Enabled: true}, a.logger)
				switch {
				case rerr == nil:
					defer r.Close()
					renderer = r
				case errors.Is(rerr, render.ErrRendererDisabled):
					a.logger.Warn("renderer disabled, vision fallback unavailable")
				default:
					return fmt.Errorf("init renderer: %w", rerr)
				}
			}

			stage := expense.New(a.docs, a.store, a.llm, renderer,
				expense.Config{Workers: a.cfg.Expense.Workers}, a.logger)
			return stage.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&noVision, "no-vision", false,
		"disable the vision fallback for unrecognized tables")
	return cmd
}

func newSummariesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summaries",
		Short: "Summarize every document section not yet summarized",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			stage := summary.New(a.docs, a.store, a.llm, a.embedder, summary.Config{
				DirectLimitChars: a.cfg.Summary.DirectLimitChars,
				ChunkChars:       a.cfg.Summary.ChunkChars,
				Clusters:         a.cfg.Summary.Clusters,
			}, a.logger)
			return stage.Run(cmd.Context())
		},
	}
}
