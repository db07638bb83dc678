package pipeline

import (
	"errors"
	"fmt"
)

// FetchError reports a non-200 HTTP response. Callers decide per site
// template whether it is case-fatal or per-document-recoverable.
type FetchError struct {
	StatusCode int
	URL        string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error %d, page: %s", e.StatusCode, e.URL)
}

// AsFetchError unwraps err into a FetchError if it carries one.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// ErrUnrecognizedTable signals a table whose header shape is outside the
// closed set of known expense-table layouts. It triggers the vision fallback.
var ErrUnrecognizedTable = errors.New("unrecognized table format")

// ReconciliationError is the fatal data-quality failure raised when expense
// line items do not reconcile against the stated total, or when a page group
// does not contain exactly one total row. It halts the batch.
type ReconciliationError struct {
	Case     string
	Filename string
	Page     int
	Reason   string
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("expense reconciliation failed for %s/%s page %d: %s",
		e.Case, e.Filename, e.Page, e.Reason)
}
