// Package api exposes the read-only dashboard interface over the five
// pipeline tables. There is no write path.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

const queryTimeout = 5 * time.Second

// Server wires the HTTP handlers to the store.
type Server struct {
	router chi.Router
	store  pipeline.Store
	logger *zap.Logger
}

// NewServer constructs the dashboard server.
func NewServer(store pipeline.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/cases", s.listCases)
		r.Get("/cases/{case}", s.getCase)
		r.Get("/documents", s.listDocuments)
		r.Get("/notice-info", s.listNoticeInfo)
		r.Get("/expenses", s.listExpenses)
		r.Get("/summaries", s.listSummaries)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listCases(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	cases, err := s.store.ListCases(ctx)
	if err != nil {
		s.fail(w, "list cases", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": cases})
}

// caseDetail joins the five tables for one case.
type caseDetail struct {
	Case       *pipeline.Case         `json:"case"`
	Documents  []pipeline.Document    `json:"documents"`
	NoticeInfo *pipeline.NoticeInfo   `json:"notice_info,omitempty"`
	Expenses   []pipeline.ExpenseLine `json:"expenses"`
	Summaries  []pipeline.Summary     `json:"summaries"`
}

func (s *Server) getCase(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	name := chi.URLParam(r, "case")

	cases, err := s.store.ListCases(ctx)
	if err != nil {
		s.fail(w, "list cases", err)
		return
	}
	detail := caseDetail{
		Documents: []pipeline.Document{},
		Expenses:  []pipeline.ExpenseLine{},
		Summaries: []pipeline.Summary{},
	}
	for i := range cases {
		if cases[i].Case == name {
			detail.Case = &cases[i]
			break
		}
	}
	if detail.Case == nil {
		writeError(w, http.StatusNotFound, "unknown case")
		return
	}

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		s.fail(w, "list documents", err)
		return
	}
	for _, d := range docs {
		if d.Case == name {
			detail.Documents = append(detail.Documents, d)
		}
	}

	infos, err := s.store.ListNoticeInfo(ctx)
	if err != nil {
		s.fail(w, "list notice info", err)
		return
	}
	for i := range infos {
		if infos[i].Case == name {
			detail.NoticeInfo = &infos[i]
			break
		}
	}

	lines, err := s.store.ListExpenseLines(ctx)
	if err != nil {
		s.fail(w, "list expenses", err)
		return
	}
	for _, l := range lines {
		if l.Case == name {
			detail.Expenses = append(detail.Expenses, l)
		}
	}

	sums, err := s.store.ListSummaries(ctx)
	if err != nil {
		s.fail(w, "list summaries", err)
		return
	}
	for _, sum := range sums {
		if sum.Case == name {
			detail.Summaries = append(detail.Summaries, sum)
		}
	}

	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		s.fail(w, "list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) listNoticeInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	infos, err := s.store.ListNoticeInfo(ctx)
	if err != nil {
		s.fail(w, "list notice info", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notice_info": infos})
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	lines, err := s.store.ListExpenseLines(ctx)
	if err != nil {
		s.fail(w, "list expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": lines})
}

func (s *Server) listSummaries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	sums, err := s.store.ListSummaries(ctx)
	if err != nil {
		s.fail(w, "list summaries", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": sums})
}

func (s *Server) fail(w http.ResponseWriter, what string, err error) {
	s.logger.Error(what+" failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, what+" failed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
