// Package store provides the Postgres-backed implementation of the shared
// five-table store the pipeline stages synchronize through.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Config controls the Postgres connection pool.
type Config struct {
	DSN      string
	MaxConns int32
}

// Postgres implements pipeline.Store.
type Postgres struct {
	db DB
}

// New connects a pool and returns the store.
func New(ctx context.Context, cfg Config) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{db: pool}, nil
}

// NewWithDB constructs a store from an existing pool (primarily for testing).
func NewWithDB(db DB) (*Postgres, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &Postgres{db: db}, nil
}

// Close releases the underlying pool resources.
func (s *Postgres) Close() {
	if s == nil || s.db == nil {
		return
	}
	s.db.Close()
}

// CreateSchema creates the five tables when they do not exist yet.
func (s *Postgres) CreateSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
	"case" TEXT NOT NULL,
	filename TEXT NOT NULL,
	title TEXT
)`,
		`CREATE TABLE IF NOT EXISTS cases (
	"case" TEXT NOT NULL,
	website TEXT,
	settlement_date TEXT,
	settlement_amount BIGINT,
	class_period TEXT,
	allegations TEXT
)`,
		`CREATE TABLE IF NOT EXISTS notice_info (
	"case" TEXT NOT NULL,
	adps DOUBLE PRECISION,
	legal_team TEXT,
	attorney_fees DOUBLE PRECISION
)`,
		`CREATE TABLE IF NOT EXISTS expenses (
	"case" TEXT NOT NULL,
	filename TEXT NOT NULL,
	page INTEGER NOT NULL,
	category TEXT,
	amount DOUBLE PRECISION,
	sub_amount DOUBLE PRECISION
)`,
		`CREATE TABLE IF NOT EXISTS summaries (
	"case" TEXT NOT NULL,
	filename TEXT NOT NULL,
	sub_document TEXT,
	summary TEXT
)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// InsertDocument persists one document row.
func (s *Postgres) InsertDocument(ctx context.Context, doc pipeline.Document) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO documents ("case", filename, title) VALUES ($1, $2, $3)`,
		doc.Case, doc.Filename, doc.Title,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// DocumentExists reports whether a (case, filename) row is present.
func (s *Postgres) DocumentExists(ctx context.Context, caseName, filename string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM documents WHERE "case" = $1 AND filename = $2)`,
		caseName, filename,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("document exists: %w", err)
	}
	return exists, nil
}

// ListDocuments returns all document rows.
func (s *Postgres) ListDocuments(ctx context.Context) ([]pipeline.Document, error) {
	rows, err := s.db.Query(ctx, `SELECT "case", filename, title FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []pipeline.Document
	for rows.Next() {
		var d pipeline.Document
		if err := rows.Scan(&d.Case, &d.Filename, &d.Title); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// InsertCase persists one case row.
func (s *Postgres) InsertCase(ctx context.Context, c pipeline.Case) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO cases ("case", website, settlement_date, settlement_amount, class_period, allegations)
VALUES ($1, $2, $3, $4, $5, $6)`,
		c.Case, c.Website, c.SettlementDate, c.SettlementAmount, c.ClassPeriod, c.Allegations,
	)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

// CaseExists reports whether a case row is present.
func (s *Postgres) CaseExists(ctx context.Context, caseName string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM cases WHERE "case" = $1)`, caseName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("case exists: %w", err)
	}
	return exists, nil
}

// ListCases returns all case rows.
func (s *Postgres) ListCases(ctx context.Context) ([]pipeline.Case, error) {
	rows, err := s.db.Query(ctx,
		`SELECT "case", website, settlement_date, settlement_amount, class_period, allegations FROM cases`)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []pipeline.Case
	for rows.Next() {
		var c pipeline.Case
		if err := rows.Scan(&c.Case, &c.Website, &c.SettlementDate, &c.SettlementAmount, &c.ClassPeriod, &c.Allegations); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

// InsertNoticeInfo persists one notice row.
func (s *Postgres) InsertNoticeInfo(ctx context.Context, info pipeline.NoticeInfo) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO notice_info ("case", adps, legal_team, attorney_fees) VALUES ($1, $2, $3, $4)`,
		info.Case, info.ADPS, info.LegalTeam, info.AttorneyFees,
	)
	if err != nil {
		return fmt.Errorf("insert notice info: %w", err)
	}
	return nil
}

// NoticeInfoExists reports whether a notice row is present for a case.
func (s *Postgres) NoticeInfoExists(ctx context.Context, caseName string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM notice_info WHERE "case" = $1)`, caseName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("notice info exists: %w", err)
	}
	return exists, nil
}

// ListNoticeInfo returns all notice rows.
func (s *Postgres) ListNoticeInfo(ctx context.Context) ([]pipeline.NoticeInfo, error) {
	rows, err := s.db.Query(ctx, `SELECT "case", adps, legal_team, attorney_fees FROM notice_info`)
	if err != nil {
		return nil, fmt.Errorf("list notice info: %w", err)
	}
	defer rows.Close()

	var infos []pipeline.NoticeInfo
	for rows.Next() {
		var info pipeline.NoticeInfo
		if err := rows.Scan(&info.Case, &info.ADPS, &info.LegalTeam, &info.AttorneyFees); err != nil {
			return nil, fmt.Errorf("scan notice info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// InsertExpenseLines persists a batch of expense line rows.
func (s *Postgres) InsertExpenseLines(ctx context.Context, lines []pipeline.ExpenseLine) error {
	for _, l := range lines {
		_, err := s.db.Exec(ctx,
			`INSERT INTO expenses ("case", filename, page, category, amount, sub_amount)
VALUES ($1, $2, $3, $4, $5, $6)`,
			l.Case, l.Filename, l.Page, l.Category, l.Amount, l.SubAmount,
		)
		if err != nil {
			return fmt.Errorf("insert expense line: %w", err)
		}
	}
	return nil
}

// ExpensesExist reports whether any expense rows exist for a case.
func (s *Postgres) ExpensesExist(ctx context.Context, caseName string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM expenses WHERE "case" = $1)`, caseName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("expenses exist: %w", err)
	}
	return exists, nil
}

// ListExpenseLines returns all expense rows.
func (s *Postgres) ListExpenseLines(ctx context.Context) ([]pipeline.ExpenseLine, error) {
	rows, err := s.db.Query(ctx,
		`SELECT "case", filename, page, category, amount, sub_amount FROM expenses`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var lines []pipeline.ExpenseLine
	for rows.Next() {
		var l pipeline.ExpenseLine
		if err := rows.Scan(&l.Case, &l.Filename, &l.Page, &l.Category, &l.Amount, &l.SubAmount); err != nil {
			return nil, fmt.Errorf("scan expense line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// InsertSummaries persists the summary rows of one document.
func (s *Postgres) InsertSummaries(ctx context.Context, rows []pipeline.Summary) error {
	for _, r := range rows {
		_, err := s.db.Exec(ctx,
			`INSERT INTO summaries ("case", filename, sub_document, summary) VALUES ($1, $2, $3, $4)`,
			r.Case, r.Filename, r.SubDocument, r.Summary,
		)
		if err != nil {
			return fmt.Errorf("insert summary: %w", err)
		}
	}
	return nil
}

// SummaryExists reports whether a document already has summary rows.
func (s *Postgres) SummaryExists(ctx context.Context, caseName, filename string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM summaries WHERE "case" = $1 AND filename = $2)`,
		caseName, filename,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("summary exists: %w", err)
	}
	return exists, nil
}

// ListSummaries returns all summary rows.
func (s *Postgres) ListSummaries(ctx context.Context) ([]pipeline.Summary, error) {
	rows, err := s.db.Query(ctx, `SELECT "case", filename, sub_document, summary FROM summaries`)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []pipeline.Summary
	for rows.Next() {
		var r pipeline.Summary
		if err := rows.Scan(&r.Case, &r.Filename, &r.SubDocument, &r.Summary); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, r)
	}
	return summaries, rows.Err()
}

var _ pipeline.Store = (*Postgres)(nil)
