package tables

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsawler/tabula/model"

	"github.com/a3tai/xtractpdf/internal/pipeline"
)

// word places text at x on baseline y with a width of 5 per rune.
func word(x, y float64, text string) Span {
	return Span{X: x, Y: y, W: float64(len(text)) * 5, Text: text}
}

func rowsOf(g pipeline.RawTableGrid) [][]string {
	out := make([][]string, g.Len())
	for i := range out {
		out[i] = g.Row(i)
	}
	return out
}

func parentManifestPage() []Span {
	return []Span{
		word(50, 760, "HOUSE MANIFEST"),
		word(50, 740, "HAWB"), word(200, 740, "Pcs"),
		word(50, 725, "H1"), word(200, 725, "10"),
	}
}

func childManifestPage() []Span {
	return []Span{
		word(50, 760, "SHIPMENT MANIFEST"),
		word(50, 740, "HAWB"), word(200, 740, "Secondary Tracking Numbers"),
		word(50, 725, "H1"), word(200, 725, "S1, S2"),
	}
}

func TestLayout_Grids_CaptionAboveTable(t *testing.T) {
	grids, err := DefaultLayout().Grids(3, parentManifestPage())
	require.NoError(t, err)
	require.Len(t, grids, 2)

	assert.Equal(t, 3, grids[0].Page)
	assert.Equal(t, [][]string{{"HOUSE MANIFEST", ""}}, rowsOf(grids[0]))

	assert.Equal(t, 3, grids[1].Page)
	assert.Equal(t, [][]string{{"HAWB", "Pcs"}, {"H1", "10"}}, rowsOf(grids[1]))
}

func TestLayout_Grids_RaggedColumnsStayTogether(t *testing.T) {
	grids, err := DefaultLayout().Grids(1, childManifestPage())
	require.NoError(t, err)
	require.Len(t, grids, 2)
	assert.Equal(t, [][]string{
		{"HAWB", "Secondary Tracking Numbers"},
		{"H1", "S1, S2"},
	}, rowsOf(grids[1]))
}

func TestLayout_Grids_TwoTablesOnOnePage(t *testing.T) {
	spans := []Span{
		word(50, 740, "HAWB"), word(200, 740, "Pcs"),
		word(50, 725, "H1"), word(200, 725, "10"),

		word(50, 600, "HAWB"), word(200, 600, "Pcs"),
		word(50, 585, "H9"), word(200, 585, "2"),
	}

	grids, err := DefaultLayout().Grids(2, spans)
	require.NoError(t, err)
	require.Len(t, grids, 2)
	assert.Equal(t, [][]string{{"HAWB", "Pcs"}, {"H1", "10"}}, rowsOf(grids[0]))
	assert.Equal(t, [][]string{{"HAWB", "Pcs"}, {"H9", "2"}}, rowsOf(grids[1]))
}

func TestLayout_Grids_MergesSpansIntoWords(t *testing.T) {
	spans := []Span{
		word(10, 500, "Gross"), word(38, 500, "Mass"), word(150, 500, "Kg"),
		word(10, 485, "12.50"), word(150, 485, "3"),
	}

	grids, err := DefaultLayout().Grids(1, spans)
	require.NoError(t, err)
	require.Len(t, grids, 1)
	assert.Equal(t, [][]string{{"Gross Mass", "Kg"}, {"12.50", "3"}}, rowsOf(grids[0]))
}

func TestLayout_Grids_NoTable(t *testing.T) {
	tests := []struct {
		name  string
		spans []Span
	}{
		{"empty page", []Span{{X: 1, Y: 1, Text: ""}}},
		{"single line of text", []Span{word(10, 500, "Page"), word(60, 500, "1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grids, err := DefaultLayout().Grids(1, tt.spans)
			require.NoError(t, err)
			assert.Empty(t, grids)
		})
	}
}

func TestCompact(t *testing.T) {
	table := model.NewTable(3, 4)
	table.Rows[0][0].Text = "HAWB"
	table.Rows[0][2].Text = "Pcs"
	table.Rows[2][1].Text = "H1"
	table.Rows[2][2].Text = " 10 "

	rows := compact(table)
	require.Len(t, rows, 2, "empty row dropped")
	require.Len(t, rows[0], 2, "disjoint columns folded")
	assert.Equal(t, "HAWB", *rows[0][0])
	assert.Equal(t, "Pcs", *rows[0][1])
	assert.Equal(t, "H1", *rows[1][0])
	assert.Equal(t, "10", *rows[1][1])

	assert.Nil(t, compact(model.NewTable(2, 2)))
}

func TestLeadingCaptions(t *testing.T) {
	s := func(v string) *string { return &v }

	assert.Equal(t, 0, leadingCaptions(nil))
	assert.Equal(t, 0, leadingCaptions([][]*string{{s("a")}, {s("b")}}), "single column has no captions")
	assert.Equal(t, 2, leadingCaptions([][]*string{
		{s("TITLE"), nil},
		{nil, s("Page 1")},
		{s("HAWB"), s("Pcs")},
	}))
}

// declarationPage lays out a 17-column customs declaration: a caption,
// the numbered box row, the anchor row and one data row.
func declarationPage() []Span {
	cell := func(col int, y float64, text string) Span {
		return Span{X: 10 + 50*float64(col), Y: y, W: 40, Text: text}
	}

	spans := []Span{cell(0, 760, "CUSTOMS DECLARATION")}
	for col := 0; col <= pipeline.PriceColumn; col++ {
		spans = append(spans, cell(col, 740, strconv.Itoa(col+1)))
	}
	return append(spans,
		cell(pipeline.MarksColumn, 725, "31 Packages"),
		cell(pipeline.CommodityColumn, 725, "33 Commodity (HS) Code870899"),
		cell(pipeline.MarksColumn, 710, "1Z999AA10123456784"),
		cell(pipeline.CommodityColumn, 710, "35 Gross Mass (Kg)12.50"),
		cell(pipeline.PriceColumn, 710, "99.00"),
	)
}

func TestLayout_InvoiceWorkflowFromSpans(t *testing.T) {
	grids, err := DefaultLayout().Grids(1, declarationPage())
	require.NoError(t, err)
	require.Len(t, grids, 2)
	require.Len(t, grids[1].Rows[0], pipeline.PriceColumn+1)

	set := pipeline.ExtractInvoice(grids, pipeline.DefaultInvoiceProfile())
	require.Equal(t, 1, set.Len())

	rec := set.Rows[0]
	assert.Equal(t, "1Z999AA10123456784", rec[pipeline.FieldTrackingID])
	assert.Equal(t, "8708", rec[pipeline.FieldCommodityCode])
	assert.Equal(t, "12.50", rec[pipeline.FieldGrossMass])
	assert.Equal(t, "99.00", rec[pipeline.FieldItemPrice])
}

func TestLayout_ManifestWorkflowFromSpans(t *testing.T) {
	layout := DefaultLayout()
	parents, err := layout.Grids(1, parentManifestPage())
	require.NoError(t, err)
	child, err := layout.Grids(1, childManifestPage())
	require.NoError(t, err)

	out, err := pipeline.CompareManifests(parents, child, pipeline.DefaultManifestProfile())
	require.NoError(t, err)

	assert.Equal(t, []string{"WaybillId", "Pieces", "Type"}, out.Columns)
	assert.Equal(t, [][]string{
		{"H1", "10", "Master"},
		{"S1", "10", "Baby"},
		{"S2", "10", "Baby"},
	}, out.Values())
}
