package pipeline

import "strings"

// Extractor applies a rule table to table blocks.
type Extractor struct {
	rules []FieldRule
}

// NewExtractor returns an extractor for the given rules. A nil table selects
// DefaultInvoiceRules.
func NewExtractor(rules []FieldRule) *Extractor {
	if rules == nil {
		rules = DefaultInvoiceRules()
	}
	return &Extractor{rules: rules}
}

// Fields returns the field names the extractor produces, in rule order.
func (e *Extractor) Fields() []string {
	fields := make([]string, len(e.rules))
	for i, r := range e.rules {
		fields[i] = r.Field
	}
	return fields
}

// Extract runs every rule against the block. A rule whose steps all fail
// yields "" for its field.
func (e *Extractor) Extract(block TableBlock) Record {
	rec := make(Record, len(e.rules))
	for _, rule := range e.rules {
		value := ""
		for _, step := range rule.Steps {
			if value = step.Match.Match(step.Source.Text(block), rec); value != "" {
				break
			}
		}
		rec[rule.Field] = value
	}
	return rec
}

// Text joins the source columns of the block. Each column's cells are
// joined with spaces and trimmed, then columns are joined with a space.
func (s TextSource) Text(block TableBlock) string {
	parts := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		var cells []string
		for _, cell := range block.Column(col) {
			if s.dropped(cell) {
				continue
			}
			cells = append(cells, cell)
		}
		parts = append(parts, strings.TrimSpace(strings.Join(cells, " ")))
	}

	text := strings.Join(parts, " ")
	for _, rw := range s.Rewrites {
		text = rw.Expr.ReplaceAllString(text, rw.Replace)
	}
	return text
}

func (s TextSource) dropped(cell string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(cell))
	for _, d := range s.DropCells {
		if trimmed == strings.ToLower(d) {
			return true
		}
	}
	return false
}
