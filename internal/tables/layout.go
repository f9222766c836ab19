package tables

import (
	"sort"
	"strings"

	"github.com/tsawler/tabula/model"
	detect "github.com/tsawler/tabula/tables"

	"github.com/a3tai/xtractpdf/internal/pipeline"
)

// Span is a positioned run of text on a page. Y is the baseline and grows
// upwards. Size is the font size; zero means unknown.
type Span struct {
	X, Y, W float64
	Size    float64
	Text    string
}

// Layout turns the positioned text of one page into table grids. Spans on
// the same baseline are merged into word fragments, and the geometric
// detector finds the tables among them.
type Layout struct {
	// RowTolerance is the maximum baseline difference within one row.
	RowTolerance float64
	// CellGap is the horizontal gap that starts a new fragment.
	CellGap float64
	// WordGap is the gap above which a space is inserted between spans.
	WordGap float64
	// LineHeight is the fragment height used for spans without a size.
	LineHeight float64
	// Detection configures the table detector.
	Detection detect.Config
}

// DefaultLayout suits shipping forms at typical font sizes.
func DefaultLayout() Layout {
	cfg := detect.DefaultConfig()
	cfg.MinConfidence = 0.25
	cfg.DetectMergedCells = false

	return Layout{
		RowTolerance: 2.0,
		CellGap:      6.0,
		WordGap:      1.0,
		LineHeight:   10.0,
		Detection:    cfg,
	}
}

type segment struct {
	x0, x1 float64
	text   strings.Builder
}

// Grids returns one grid per table detected on the page, top to bottom.
// Caption rows above a table (a single filled cell in a wider table) are
// returned as a separate one-row grid so the table's first row is its
// header. A page without tables yields nil.
func (l Layout) Grids(page int, spans []Span) ([]pipeline.RawTableGrid, error) {
	p := model.NewPage(0, 0)
	p.Number = page
	p.RawText = l.fragments(spans)
	if len(p.RawText) == 0 {
		return nil, nil
	}

	detector := detect.NewGeometricDetector()
	if err := detector.Configure(l.Detection); err != nil {
		return nil, err
	}
	found, err := detector.Detect(p)
	if err != nil {
		return nil, err
	}

	var grids []pipeline.RawTableGrid
	for _, table := range found {
		rows := compact(table)
		captions := leadingCaptions(rows)
		for _, row := range rows[:captions] {
			grids = append(grids, pipeline.RawTableGrid{Page: page, Rows: [][]*string{row}})
		}
		if len(rows) > captions {
			grids = append(grids, pipeline.RawTableGrid{Page: page, Rows: rows[captions:]})
		}
	}
	return grids, nil
}

// fragments merges spans into positioned words. Every fragment of a row
// shares the row's baseline and height so the detector sees one text line.
func (l Layout) fragments(spans []Span) []model.TextFragment {
	var out []model.TextFragment
	for _, row := range l.groupByRow(spans) {
		height := l.LineHeight
		for _, s := range row {
			height = max(height, s.Size)
		}
		y := row[0].Y

		for _, seg := range l.segments(row) {
			text := strings.TrimSpace(seg.text.String())
			if text == "" {
				continue
			}
			out = append(out, model.TextFragment{
				Text:     text,
				BBox:     model.NewBBox(seg.x0, y, seg.x1-seg.x0, height),
				FontSize: height,
			})
		}
	}
	return out
}

// groupByRow orders spans top to bottom and splits them into rows whose
// baselines stay within RowTolerance of the row's first span.
func (l Layout) groupByRow(spans []Span) [][]Span {
	sorted := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Text != "" {
			sorted = append(sorted, s)
		}
	}
	if len(sorted) == 0 {
		return nil
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var rows [][]Span
	current := []Span{sorted[0]}
	currentY := sorted[0].Y
	for _, s := range sorted[1:] {
		if abs(s.Y-currentY) <= l.RowTolerance {
			current = append(current, s)
			continue
		}
		rows = append(rows, current)
		current = []Span{s}
		currentY = s.Y
	}
	return append(rows, current)
}

// segments merges the spans of one row into words, left to right.
func (l Layout) segments(row []Span) []*segment {
	sort.SliceStable(row, func(i, j int) bool {
		return row[i].X < row[j].X
	})

	var out []*segment
	var cur *segment
	for _, s := range row {
		if cur != nil && s.X-cur.x1 <= l.CellGap {
			if s.X-cur.x1 > l.WordGap && !strings.HasSuffix(cur.text.String(), " ") {
				cur.text.WriteByte(' ')
			}
			cur.text.WriteString(s.Text)
			cur.x1 = max(cur.x1, s.X+s.W)
			continue
		}
		cur = &segment{x0: s.X, x1: s.X + s.W}
		cur.text.WriteString(s.Text)
		out = append(out, cur)
	}
	return out
}

// compact reduces a detected table to its text: rows without text are
// dropped and adjacent columns that never hold text in the same row are
// folded together. The detector places a boundary at every fragment edge,
// so one visual column of ragged text spans several detector columns.
func compact(table *model.Table) [][]*string {
	var rows [][]string
	for _, r := range table.Rows {
		texts := make([]string, len(r))
		filled := false
		for j, cell := range r {
			texts[j] = strings.TrimSpace(cell.Text)
			filled = filled || texts[j] != ""
		}
		if filled {
			rows = append(rows, texts)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	// groups[g] lists the detector columns folded into output column g.
	var groups [][]int
	var used []bool
	for col := 0; col < table.ColCount(); col++ {
		if len(groups) > 0 && !collides(rows, used, col) {
			g := len(groups) - 1
			groups[g] = append(groups[g], col)
			for i, row := range rows {
				used[i] = used[i] || row[col] != ""
			}
			continue
		}
		groups = append(groups, []int{col})
		used = make([]bool, len(rows))
		for i, row := range rows {
			used[i] = row[col] != ""
		}
	}

	out := make([][]*string, len(rows))
	for i, row := range rows {
		cells := make([]*string, len(groups))
		for g, cols := range groups {
			var parts []string
			for _, c := range cols {
				if row[c] != "" {
					parts = append(parts, row[c])
				}
			}
			if len(parts) > 0 {
				text := strings.Join(parts, " ")
				cells[g] = &text
			}
		}
		out[i] = cells
	}
	return out
}

// collides reports whether column col has text in a row already used by
// the current group.
func collides(rows [][]string, used []bool, col int) bool {
	for i, row := range rows {
		if used[i] && row[col] != "" {
			return true
		}
	}
	return false
}

// leadingCaptions counts the rows at the top of a multi-column table that
// hold a single filled cell.
func leadingCaptions(rows [][]*string) int {
	if len(rows) == 0 || len(rows[0]) < 2 {
		return 0
	}
	n := 0
	for n < len(rows)-1 && filledCells(rows[n]) < 2 {
		n++
	}
	return n
}

func filledCells(row []*string) int {
	n := 0
	for _, c := range row {
		if c != nil {
			n++
		}
	}
	return n
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
