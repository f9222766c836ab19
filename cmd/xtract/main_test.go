package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/xtractpdf/internal/export"
	"github.com/a3tai/xtractpdf/internal/pipeline"
	"github.com/a3tai/xtractpdf/internal/tables"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, o *options)
	}{
		{
			name: "invoice",
			args: []string{"invoice", "inv.pdf", "-o", "out.xlsx", "--rowsafter", "2"},
			check: func(t *testing.T, o *options) {
				assert.Equal(t, "inv.pdf", o.invoice)
				assert.Equal(t, "out.xlsx", o.output)
				assert.Equal(t, 2, o.rowsAfter)
			},
		},
		{
			name: "invoice default rows after",
			args: []string{"invoice", "-o", "out", "inv.pdf"},
			check: func(t *testing.T, o *options) {
				assert.Equal(t, pipeline.DefaultRowsAfter, o.rowsAfter)
			},
		},
		{
			name: "manifest",
			args: []string{"manifest", "--parent", "a.pdf", "--parent", "b.pdf", "--child", "c.pdf", "--output", "m"},
			check: func(t *testing.T, o *options) {
				assert.Equal(t, []string{"a.pdf", "b.pdf"}, o.parents)
				assert.Equal(t, "c.pdf", o.child)
			},
		},
		{name: "no command", args: nil, wantErr: true},
		{name: "unknown command", args: []string{"merge"}, wantErr: true},
		{name: "missing output", args: []string{"invoice", "inv.pdf"}, wantErr: true},
		{name: "two invoices", args: []string{"invoice", "a.pdf", "b.pdf", "-o", "x"}, wantErr: true},
		{name: "negative rows", args: []string{"invoice", "a.pdf", "-o", "x", "--rowsafter", "-1"}, wantErr: true},
		{name: "manifest without child", args: []string{"manifest", "--parent", "a.pdf", "-o", "x"}, wantErr: true},
		{name: "manifest stray argument", args: []string{"manifest", "--parent", "a.pdf", "--child", "c.pdf", "-o", "x", "d.pdf"}, wantErr: true},
		{name: "bad log level", args: []string{"invoice", "a.pdf", "-o", "x", "--loglevel", "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseArgs(tt.args, io.Discard)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, opts)
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	_, err := parseArgs([]string{"--help"}, io.Discard)
	assert.True(t, errors.Is(err, pflag.ErrHelp))
}

func gridSource(docs map[string][]pipeline.RawTableGrid) tables.Source {
	return tables.SourceFunc(func(_ context.Context, path string) ([]pipeline.RawTableGrid, error) {
		grids, ok := docs[filepath.Base(path)]
		if !ok {
			return nil, pipeline.ExtractionFailure(path, errors.New("unreadable"))
		}
		return grids, nil
	})
}

func TestRun_Manifest(t *testing.T) {
	source := gridSource(map[string][]pipeline.RawTableGrid{
		"p.pdf": {pipeline.NewGrid(1, [][]string{{"HAWB", "Pcs"}, {"H1", "10"}, {"H2", "5"}})},
		"c.pdf": {pipeline.NewGrid(1, [][]string{{"HAWB", "Secondary Tracking Numbers"}, {"H1", "S1, S2"}})},
	})
	out := filepath.Join(t.TempDir(), "manifest")
	opts := &options{command: cmdManifest, parents: []string{"p.pdf"}, child: "c.pdf", output: out}

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), opts, source, export.NewXLSXSink(), &stdout))
	assert.Contains(t, stdout.String(), "Saved 4 rows")

	f, err := excelize.OpenFile(out + ".xlsx")
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"WaybillId", "Pieces", "Type"}, rows[0])
	assert.Equal(t, []string{"S1", "10", "Baby"}, rows[2])
}

func TestRun_InvoiceNoData(t *testing.T) {
	source := gridSource(map[string][]pipeline.RawTableGrid{
		"inv.pdf": {pipeline.NewGrid(1, [][]string{{"nothing"}})},
	})
	out := filepath.Join(t.TempDir(), "inv.xlsx")
	opts := &options{command: cmdInvoice, invoice: "inv.pdf", output: out, rowsAfter: pipeline.DefaultRowsAfter}

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), opts, source, export.NewXLSXSink(), &stdout))
	assert.Contains(t, stdout.String(), "No matching data found.")
	assert.NoFileExists(t, out)
}

func TestRun_Failure(t *testing.T) {
	source := gridSource(nil)
	opts := &options{command: cmdInvoice, invoice: "missing.pdf", output: filepath.Join(t.TempDir(), "x")}

	err := run(context.Background(), opts, source, export.NewXLSXSink(), io.Discard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrExtractionFailure))
}
