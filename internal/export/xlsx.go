// Package export writes record sets to spreadsheet files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/xtractpdf/internal/pipeline"
)

// Extension is the file extension every export carries.
const Extension = ".xlsx"

const sheetName = "Sheet1"

// Sink persists a record set. It returns the path actually written.
type Sink interface {
	Save(set pipeline.RecordSet, path string) (string, error)
}

// XLSXSink writes one worksheet: a header row of column names followed by
// one row per record.
type XLSXSink struct{}

// NewXLSXSink creates a spreadsheet sink.
func NewXLSXSink() *XLSXSink {
	return &XLSXSink{}
}

// EnsureExtension appends .xlsx unless path already ends with it.
func EnsureExtension(path string) string {
	if strings.EqualFold(filepath.Ext(path), Extension) {
		return path
	}
	return path + Extension
}

// Save implements Sink. Failures are reported as export failures so the
// caller can retry with another destination.
func (s *XLSXSink) Save(set pipeline.RecordSet, path string) (string, error) {
	if path == "" {
		return "", pipeline.ExportFailure(path, fmt.Errorf("output path cannot be empty"))
	}
	dest := EnsureExtension(path)

	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", pipeline.ExportFailure(dest, fmt.Errorf("failed to create directory: %w", err))
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeRows(f, set); err != nil {
		return "", pipeline.ExportFailure(dest, err)
	}

	if err := f.SaveAs(dest); err != nil {
		return "", pipeline.ExportFailure(dest, err)
	}
	return dest, nil
}

func writeRows(f *excelize.File, set pipeline.RecordSet) error {
	header := make([]interface{}, len(set.Columns))
	for i, c := range set.Columns {
		header[i] = c
	}
	if err := setRow(f, 1, header); err != nil {
		return err
	}

	for i, vals := range set.Values() {
		row := make([]interface{}, len(vals))
		for j, v := range vals {
			row[j] = v
		}
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", rowNum, err)
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
