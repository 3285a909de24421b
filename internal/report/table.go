package report

import (
	"cmp"
	"slices"
)

// Header is the fixed first row of every report.
var Header = []string{"source file", "output dir", "page number", "text percentage"}

// Row is one page of one source document.
type Row struct {
	SourceFile     string
	OutputDir      string
	PageNumber     int
	TextPercentage float64
}

// Table accumulates rows across a run.
type Table struct {
	rows []Row
}

func (t *Table) Add(rows ...Row) {
	t.rows = append(t.rows, rows...)
}

func (t *Table) Len() int { return len(t.rows) }

// Sorted returns the rows ordered by page number. Rows sharing a page number
// keep insertion order, but callers should treat their relative order as unspecified.
func (t *Table) Sorted() []Row {
	out := slices.Clone(t.rows)
	SortByPage(out)
	return out
}

// SortByPage orders rows by page number in place.
func SortByPage(rows []Row) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		return cmp.Compare(a.PageNumber, b.PageNumber)
	})
}
