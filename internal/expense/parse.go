package expense

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/settlementwatch/settlement-pipeline/internal/pdf"
	"github.com/settlementwatch/settlement-pipeline/internal/pipeline"
)

// rawRow is one table row with its currency values already coerced.
type rawRow struct {
	Category  string
	Amount    float64
	SubAmount float64
}

// tableShape is the closed set of deterministically parseable layouts.
type tableShape int

const (
	shapeUnknown tableShape = iota
	// [CATEGORY, AMOUNT] or [EXPENSE, AMOUNT]
	shapeCategoryAmount
	// [CATEGORY, <sub amount>, AMOUNT]
	shapeCategorySubAmount
)

// classify matches the header row against the known shapes.
func classify(headers []string) tableShape {
	up := make([]string, len(headers))
	for i, h := range headers {
		up[i] = strings.ToUpper(strings.TrimSpace(h))
	}
	switch len(up) {
	case 2:
		if (up[0] == "CATEGORY" || up[0] == "EXPENSE") && up[1] == "AMOUNT" {
			return shapeCategoryAmount
		}
	case 3:
		if up[0] == "CATEGORY" && up[2] == "AMOUNT" {
			return shapeCategorySubAmount
		}
	}
	return shapeUnknown
}

// isBlankRow reports whether every cell of the row is blank. Spacer rows
// carry no data and are dropped before total identification.
func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseTable converts a detected table into coerced rows. An unrecognized
// header shape or a malformed currency value returns an error wrapping
// pipeline.ErrUnrecognizedTable so the caller can fall back to vision.
func parseTable(t pdf.Table) ([]rawRow, error) {
	shape := classify(t.Headers)
	if shape == shapeUnknown {
		return nil, fmt.Errorf("headers %v: %w", t.Headers, pipeline.ErrUnrecognizedTable)
	}

	rows := make([]rawRow, 0, len(t.Rows))
	for _, cells := range t.Rows {
		if isBlankRow(cells) {
			continue
		}
		row, err := parseRow(shape, cells)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(shape tableShape, cells []string) (rawRow, error) {
	var category, amount, subAmount string
	switch shape {
	case shapeCategoryAmount:
		switch len(cells) {
		case 2:
			category, amount = cells[0], cells[1]
		case 1:
			// amount-only row, the category cell collapsed away
			amount = cells[0]
		default:
			return rawRow{}, fmt.Errorf("row %v: %w", cells, pipeline.ErrUnrecognizedTable)
		}
	case shapeCategorySubAmount:
		switch len(cells) {
		case 3:
			category, subAmount, amount = cells[0], cells[1], cells[2]
		case 2:
			category, amount = cells[0], cells[1]
		case 1:
			amount = cells[0]
		default:
			return rawRow{}, fmt.Errorf("row %v: %w", cells, pipeline.ErrUnrecognizedTable)
		}
	default:
		return rawRow{}, fmt.Errorf("row %v: %w", cells, pipeline.ErrUnrecognizedTable)
	}

	a, err := ParseCurrency(amount)
	if err != nil {
		return rawRow{}, err
	}
	sub, err := ParseCurrency(subAmount)
	if err != nil {
		return rawRow{}, err
	}
	return rawRow{Category: category, Amount: a, SubAmount: sub}, nil
}

// ParseCurrency strips dollar formatting and coerces to a float. Blank cells
// are zero.
func ParseCurrency(s string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("currency %q: %w", s, pipeline.ErrUnrecognizedTable)
	}
	return v, nil
}

// reconciliationTolerance is the absolute tolerance for the totals check.
const reconciliationTolerance = 0.01

// isTotalRow identifies the reconciling total: an empty category or one
// containing TOTAL.
func isTotalRow(category string) bool {
	c := strings.TrimSpace(category)
	return c == "" || strings.Contains(strings.ToUpper(c), "TOTAL")
}

// reconcile checks the totals invariant of one page group and returns the
// non-total line items. Violations are fatal for the run.
func reconcile(rows []rawRow, caseName, filename string, page int) ([]pipeline.ExpenseLine, error) {
	var (
		lines    []pipeline.ExpenseLine
		total    float64
		nTotals  int
		itemsSum float64
	)
	for _, r := range rows {
		if isTotalRow(r.Category) {
			nTotals++
			total = r.Amount
			continue
		}
		itemsSum += r.Amount
		lines = append(lines, pipeline.ExpenseLine{
			Case:      caseName,
			Filename:  filename,
			Page:      page,
			Category:  strings.TrimSpace(r.Category),
			Amount:    r.Amount,
			SubAmount: r.SubAmount,
		})
	}

	if nTotals != 1 {
		return nil, &pipeline.ReconciliationError{
			Case: caseName, Filename: filename, Page: page,
			Reason: fmt.Sprintf("%d total rows, want exactly 1", nTotals),
		}
	}
	if diff := math.Abs(itemsSum - total); diff > reconciliationTolerance {
		return nil, &pipeline.ReconciliationError{
			Case: caseName, Filename: filename, Page: page,
			Reason: fmt.Sprintf("line items sum to %.2f, stated total is %.2f", itemsSum, total),
		}
	}
	return lines, nil
}
