package pipeline

import "context"

// Store is the shared relational store the stages synchronize through.
// Each stage reads prior tables to find unprocessed work and writes its own
// table; inserts commit per row or per small batch, never per whole stage.
type Store interface {
	// documents
	InsertDocument(ctx context.Context, doc Document) error
	DocumentExists(ctx context.Context, caseName, filename string) (bool, error)
	ListDocuments(ctx context.Context) ([]Document, error)

	// cases
	InsertCase(ctx context.Context, c Case) error
	CaseExists(ctx context.Context, caseName string) (bool, error)
	ListCases(ctx context.Context) ([]Case, error)

	// notice_info
	InsertNoticeInfo(ctx context.Context, info NoticeInfo) error
	NoticeInfoExists(ctx context.Context, caseName string) (bool, error)
	ListNoticeInfo(ctx context.Context) ([]NoticeInfo, error)

	// expenses
	InsertExpenseLines(ctx context.Context, lines []ExpenseLine) error
	ExpensesExist(ctx context.Context, caseName string) (bool, error)
	ListExpenseLines(ctx context.Context) ([]ExpenseLine, error)

	// summaries
	InsertSummaries(ctx context.Context, rows []Summary) error
	SummaryExists(ctx context.Context, caseName, filename string) (bool, error)
	ListSummaries(ctx context.Context) ([]Summary, error)

	Close()
}
