package pipeline

import "strings"

// DefaultRowsAfter is the number of rows kept after an anchor row.
const DefaultRowsAfter = 4

// Locate returns one block per row that contains any anchor pattern
// (case-insensitive substring match on any cell). Overlapping windows are
// all emitted; a region between two close anchors is read twice.
func Locate(grid RawTableGrid, anchors []string, rowsAfter int) []TableBlock {
	if rowsAfter < 0 {
		rowsAfter = 0
	}

	lowered := make([]string, 0, len(anchors))
	for _, a := range anchors {
		if a = strings.ToLower(a); a != "" {
			lowered = append(lowered, a)
		}
	}

	var blocks []TableBlock
	for i := 0; i < grid.Len(); i++ {
		if !rowMatches(grid.Row(i), lowered) {
			continue
		}

		end := min(i+rowsAfter+1, grid.Len())
		block := TableBlock{Anchor: i, Rows: make([][]string, 0, end-i)}
		for r := i; r < end; r++ {
			block.Rows = append(block.Rows, grid.Row(r))
		}
		blocks = append(blocks, block)
	}

	return blocks
}

func rowMatches(row []string, anchors []string) bool {
	for _, cell := range row {
		lc := strings.ToLower(cell)
		for _, a := range anchors {
			if strings.Contains(lc, a) {
				return true
			}
		}
	}
	return false
}

// Column returns the cells of column idx across the block. Rows too short to
// have that column contribute nothing.
func (b TableBlock) Column(idx int) []string {
	var out []string
	for _, row := range b.Rows {
		if idx >= 0 && idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out
}
