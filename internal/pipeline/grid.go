package pipeline

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// RawTableGrid is one detected table from one page: ordered rows of optional
// text cells. A nil cell means the extractor found nothing at that position.
type RawTableGrid struct {
	Page int
	Rows [][]*string
}

// TableBlock is a window of rows starting at an anchor row.
type TableBlock struct {
	Anchor int
	Rows   [][]string
}

// NewGrid builds a grid from plain strings, treating every cell as present.
func NewGrid(page int, rows [][]string) RawTableGrid {
	grid := RawTableGrid{Page: page, Rows: make([][]*string, len(rows))}
	for i, row := range rows {
		cells := make([]*string, len(row))
		for j := range row {
			value := row[j]
			cells[j] = &value
		}
		grid.Rows[i] = cells
	}
	return grid
}

// Len returns the number of rows in the grid.
func (g RawTableGrid) Len() int {
	return len(g.Rows)
}

// Row returns row i with absent cells normalized to "".
func (g RawTableGrid) Row(i int) []string {
	if i < 0 || i >= len(g.Rows) {
		return nil
	}
	out := make([]string, len(g.Rows[i]))
	for j, cell := range g.Rows[i] {
		out[j] = CellText(cell)
	}
	return out
}

// CellText returns the NFKC-normalized text of a cell, "" when absent.
func CellText(cell *string) string {
	if cell == nil {
		return ""
	}
	return norm.NFKC.String(*cell)
}

// cleanValue flattens line breaks (literal and escaped) and trims.
func cleanValue(s string) string {
	s = strings.ReplaceAll(s, `\n`, " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// cleanHeader trims a header but keeps its internal line breaks, since the
// rename tables match wrapped header variants verbatim.
func cleanHeader(s string) string {
	return strings.TrimSpace(s)
}
