package pdf

import (
	"regexp"
	"strings"
)

// Table is one tabular region found on a page: a header row plus data rows.
type Table struct {
	Page    int
	Headers []string
	Rows    [][]string
}

var cellSplitRe = regexp.MustCompile(`\t+|\s{2,}`)

// FindExpenseTables returns the tables on a page that carry an AMOUNT column
// and none of the columns marking non-financial tables (NARRATIVE, HOURS).
func (d *Document) FindExpenseTables(nr int) []Table {
	var out []Table
	for _, tbl := range tablesInText(d.PageText(nr)) {
		tbl.Page = nr
		if isExpenseTable(tbl) {
			out = append(out, tbl)
		}
	}
	return out
}

func isExpenseTable(t Table) bool {
	hasAmount := false
	for _, h := range t.Headers {
		switch strings.ToUpper(strings.TrimSpace(h)) {
		case "AMOUNT":
			hasAmount = true
		case "NARRATIVE", "HOURS":
			return false
		}
	}
	return hasAmount
}

// tablesInText recognizes tabular regions as maximal runs of consecutive
// lines that split into two or more cells on wide gaps, where no row has
// more cells than the header row.
func tablesInText(text string) []Table {
	var (
		out     []Table
		current [][]string
	)
	flush := func() {
		if len(current) >= 2 {
			out = append(out, Table{
				Headers: current[0],
				Rows:    current[1:],
			})
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		cells := splitCells(line)
		if len(cells) < 2 {
			flush()
			continue
		}
		if len(current) > 0 && len(cells) > len(current[0]) {
			// wider than the header row: start a new region
			flush()
		}
		current = append(current, cells)
	}
	flush()
	return out
}

func splitCells(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	parts := cellSplitRe.Split(line, -1)
	cells := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}
