package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/xtractpdf/internal/pipeline"
)

func TestEnsureExtension(t *testing.T) {
	assert.Equal(t, "out.xlsx", EnsureExtension("out"))
	assert.Equal(t, "out.xlsx", EnsureExtension("out.xlsx"))
	assert.Equal(t, "OUT.XLSX", EnsureExtension("OUT.XLSX"))
	assert.Equal(t, "out.csv.xlsx", EnsureExtension("out.csv"))
}

func TestXLSXSink_Save(t *testing.T) {
	set := pipeline.NewRecordSet("WaybillId", "Pieces", "Type").
		Append(pipeline.Record{"WaybillId": "H1", "Pieces": "10", "Type": "Master"}).
		Append(pipeline.Record{"WaybillId": "S1", "Type": "Baby"})

	dest, err := NewXLSXSink().Save(set, filepath.Join(t.TempDir(), "nested", "result"))
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(dest))

	f, err := excelize.OpenFile(dest)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"WaybillId", "Pieces", "Type"}, rows[0])
	assert.Equal(t, []string{"H1", "10", "Master"}, rows[1])
	// GetRows trims trailing empty cells but keeps interior ones.
	assert.Equal(t, []string{"S1", "", "Baby"}, rows[2])
}

func TestXLSXSink_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewXLSXSink().Save(pipeline.NewRecordSet("A"), filepath.Join(blocker, "out.xlsx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrExportFailure)

	_, err = NewXLSXSink().Save(pipeline.NewRecordSet("A"), "")
	assert.ErrorIs(t, err, pipeline.ErrExportFailure)
}
