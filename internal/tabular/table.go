// Package tabular decodes spreadsheet exports (xlsx, legacy xls, CSV) into a
// uniform in-memory table of strings. Decoding is deliberately lossy about
// presentation: every cell becomes its display string, and typing is left to
// the downstream coercion layer.
package tabular

import "strings"

// Table is a rectangular grid of cell strings with normalized headers.
// Headers are trimmed and lowercased exactly once at load time; all
// downstream matching relies on that. Every row has len(Headers) cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NormalizeHeader applies the canonical header normalization: surrounding
// whitespace removed and lowercased. Cell values are never normalized.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// NewTable builds a Table from a raw grid. The first row is treated as the
// header row. Ragged data rows are padded with empty strings or truncated to
// the header width so the rectangular invariant always holds.
func NewTable(grid [][]string) *Table {
	if len(grid) == 0 {
		return &Table{Headers: []string{}, Rows: [][]string{}}
	}

	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = NormalizeHeader(h)
	}

	rows := make([][]string, 0, len(grid)-1)
	for _, raw := range grid[1:] {
		row := make([]string, len(headers))
		for i := range row {
			if i < len(raw) {
				row[i] = raw[i]
			}
		}
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Cell returns the value at (row, col), or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Headers) {
		return ""
	}
	return t.Rows[row][col]
}

// HeaderIndex returns the position of the first header equal to name after
// normalization, or -1 when absent.
func (t *Table) HeaderIndex(name string) int {
	want := NormalizeHeader(name)
	for i, h := range t.Headers {
		if h == want {
			return i
		}
	}
	return -1
}
