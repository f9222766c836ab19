package tables

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/xtractpdf/internal/pipeline"
)

// Source reads every detected table grid from a document, pages in order.
type Source interface {
	ExtractGrids(ctx context.Context, path string) ([]pipeline.RawTableGrid, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, path string) ([]pipeline.RawTableGrid, error)

// ExtractGrids implements Source.
func (f SourceFunc) ExtractGrids(ctx context.Context, path string) ([]pipeline.RawTableGrid, error) {
	return f(ctx, path)
}

// PDFReader extracts the tables of every page from the text layer of a PDF.
type PDFReader struct {
	validator *Validator
	layout    Layout
}

// NewPDFReader creates a reader with the default layout.
func NewPDFReader(maxFileSize int64) *PDFReader {
	return &PDFReader{
		validator: NewValidator(maxFileSize),
		layout:    DefaultLayout(),
	}
}

// ExtractGrids implements Source. Every fault is reported as an extraction
// failure naming path. Pages without tables produce no grid.
func (r *PDFReader) ExtractGrids(ctx context.Context, path string) ([]pipeline.RawTableGrid, error) {
	info, err := r.validator.Inspect(path)
	if err != nil {
		return nil, pipeline.ExtractionFailure(path, err)
	}
	if info.Encrypted {
		return nil, pipeline.ExtractionFailure(path, fmt.Errorf("document is encrypted"))
	}

	f, doc, err := pdf.Open(path)
	if err != nil {
		return nil, pipeline.ExtractionFailure(path, fmt.Errorf("failed to open PDF: %w", err))
	}
	defer f.Close()

	var grids []pipeline.RawTableGrid
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, pipeline.ExtractionFailure(path, err)
		}

		spans, err := pageSpans(doc, i)
		if err != nil {
			return nil, pipeline.ExtractionFailure(path, err)
		}

		found, err := r.layout.Grids(i, spans)
		if err != nil {
			return nil, pipeline.ExtractionFailure(path, fmt.Errorf("page %d: %w", i, err))
		}
		grids = append(grids, found...)
	}

	return grids, nil
}

// pageSpans reads the positioned text of one page. Malformed content
// streams can panic inside the parser; that is turned into an error.
func pageSpans(doc *pdf.Reader, pageNum int) (spans []Span, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during text extraction on page %d: %v", pageNum, rec)
		}
	}()

	page := doc.Page(pageNum)
	if page.V.IsNull() {
		return nil, nil
	}

	for _, t := range page.Content().Text {
		spans = append(spans, Span{X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, Text: t.S})
	}
	return spans, nil
}
