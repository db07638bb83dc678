// Package metrics exposes the pipeline's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SitesScraped tracks the number of settlement sites fully scraped.
	SitesScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_sites_scraped_total",
		Help: "The total number of settlement sites fully scraped.",
	})
	// SitesFailed tracks sites skipped because of a fetch failure.
	SitesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_sites_failed_total",
		Help: "The total number of sites skipped after a fetch failure.",
	})
	// DocumentsTitled tracks PDF documents assigned a title.
	DocumentsTitled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_documents_titled_total",
		Help: "The total number of documents recorded with a title.",
	})
	// CasesExtracted tracks homepages reduced to case rows.
	CasesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_cases_extracted_total",
		Help: "The total number of case rows extracted from homepages.",
	})
	// NoticesExtracted tracks notice documents reduced to notice_info rows.
	NoticesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_notices_extracted_total",
		Help: "The total number of notice info rows extracted.",
	})
	// ExpenseRowsParsed tracks persisted expense line items.
	ExpenseRowsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_expense_rows_total",
		Help: "The total number of expense line items persisted.",
	})
	// ExpenseVisionFallbacks tracks table pages sent to the vision model.
	ExpenseVisionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_expense_vision_fallbacks_total",
		Help: "The total number of table pages transcribed via the vision model.",
	})
	// SummariesWritten tracks persisted sub-document summaries.
	SummariesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_summaries_total",
		Help: "The total number of sub-document summaries persisted.",
	})
	// LLMCalls tracks chat completion requests by kind.
	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_llm_calls_total",
		Help: "The total number of model calls, labeled by call kind.",
	}, []string{"kind"})
)
