package pipeline

import (
	"regexp"
	"strings"
)

// Invoice field names.
const (
	FieldTrackingID    = "TrackingId"
	FieldDescription   = "Description"
	FieldCommodityCode = "CommodityCode"
	FieldGrossMass     = "GrossMass"
	FieldItemPrice     = "ItemPrice"
)

// InvoiceFields is the column order of an extracted invoice record set.
var InvoiceFields = []string{
	FieldTrackingID,
	FieldDescription,
	FieldCommodityCode,
	FieldGrossMass,
	FieldItemPrice,
}

// Column positions of the customs declaration layout.
const (
	MarksColumn     = 1
	CommodityColumn = 12
	PriceColumn     = 16
)

// priceArtifact is a stray token the declaration layout prints in the price
// column; it is never a price.
const priceArtifact = "42"

// FieldRule extracts one field. Steps are tried in order and the first
// non-empty value wins.
type FieldRule struct {
	Field string
	Steps []Step
}

// Step pairs the text a rule reads with the way it reads it.
type Step struct {
	Source TextSource
	Match  Matcher
}

// TextSource builds the text a step matches against from block columns.
type TextSource struct {
	Columns []int
	// DropCells lists cell values (case-insensitive, trimmed) to skip.
	DropCells []string
	Rewrites  []Rewrite
}

// Rewrite is a regexp substitution applied to the joined source text.
type Rewrite struct {
	Expr    *regexp.Regexp
	Replace string
}

// Matcher pulls a value out of source text. It returns "" for no match.
// found holds the fields already extracted from the same block.
type Matcher interface {
	Match(text string, found Record) string
}

// PatternMatch captures Group of the first match of Expr.
type PatternMatch struct {
	Expr  *regexp.Regexp
	Group int
	Clean func(string) string
}

// Match implements Matcher.
func (p PatternMatch) Match(text string, _ Record) string {
	m := p.Expr.FindStringSubmatch(text)
	if m == nil || p.Group >= len(m) {
		return ""
	}
	v := strings.TrimSpace(m[p.Group])
	if p.Clean != nil {
		v = p.Clean(v)
	}
	return v
}

// LastNumber takes the last digit/comma/dot run of the text after dropping
// runs that equal an excluded token once separators are removed. When
// Without names a field, the first run equal to that field's value is
// removed as well.
type LastNumber struct {
	Exclude []string
	Without string
}

// Match implements Matcher.
func (l LastNumber) Match(text string, found Record) string {
	runs := numberRuns(text, l.Exclude)
	if l.Without != "" {
		if v := found[l.Without]; v != "" {
			for i, r := range runs {
				if r == v {
					runs = append(runs[:i], runs[i+1:]...)
					break
				}
			}
		}
	}
	if len(runs) == 0 {
		return ""
	}
	return runs[len(runs)-1]
}

var (
	numberRunExpr = regexp.MustCompile(`[\d,.]+`)
	separators    = strings.NewReplacer(",", "", ".", "")
)

func numberRuns(text string, exclude []string) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	var runs []string
	for _, r := range numberRunExpr.FindAllString(text, -1) {
		bare := separators.Replace(r)
		skip := false
		for _, x := range exclude {
			if bare == x {
				skip = true
				break
			}
		}
		if !skip {
			runs = append(runs, r)
		}
	}
	return runs
}

var (
	trackingExpr     = regexp.MustCompile(`(?i)1Z[A-Za-z0-9]+`)
	trackingSuffix   = regexp.MustCompile(`(?i)of$`)
	numberAndKind    = regexp.MustCompile(`(?i)Number and kind\s*(\S+)`)
	descriptionExpr  = regexp.MustCompile(`(?i)Description:\s*(.+)`)
	commodityExpr    = regexp.MustCompile(`(?i)(?:\d+\s*)?Commodity \(HS\) Code(\d+)`)
	grossMassExpr    = regexp.MustCompile(`(?i)(?:\d+\s*)?Gross Mass \(Kg\)[A-Za-z]*(\d+\.\d+)`)
	trackingMarksRun = regexp.MustCompile(`(?i)(1Z[A-Za-z0-9]+)(marks)`)
)

// stripTrackingSuffix removes a trailing "of" glued to the tracking token.
func stripTrackingSuffix(s string) string {
	return strings.TrimSpace(trackingSuffix.ReplaceAllString(s, ""))
}

// dropCheckDigits removes the two trailing digits the declaration appends to
// the HS code.
func dropCheckDigits(s string) string {
	if len(s) >= 2 {
		return s[:len(s)-2]
	}
	return s
}

// DefaultInvoiceRules is the rule table for the customs declaration layout.
// Order matters: ItemPrice reads GrossMass.
func DefaultInvoiceRules() []FieldRule {
	marks := TextSource{
		Columns:   []int{MarksColumn},
		DropCells: []string{"marks"},
		Rewrites:  []Rewrite{{Expr: trackingMarksRun, Replace: "$1 Marks"}},
	}
	commodity := TextSource{Columns: []int{CommodityColumn}}
	price := TextSource{Columns: []int{PriceColumn}}

	return []FieldRule{
		{
			Field: FieldTrackingID,
			Steps: []Step{
				{Source: marks, Match: PatternMatch{Expr: trackingExpr, Clean: stripTrackingSuffix}},
				{Source: marks, Match: PatternMatch{Expr: numberAndKind, Group: 1}},
			},
		},
		{
			Field: FieldDescription,
			Steps: []Step{
				{Source: marks, Match: PatternMatch{Expr: descriptionExpr, Group: 1}},
			},
		},
		{
			Field: FieldCommodityCode,
			Steps: []Step{
				{Source: commodity, Match: PatternMatch{Expr: commodityExpr, Group: 1, Clean: dropCheckDigits}},
			},
		},
		{
			Field: FieldGrossMass,
			Steps: []Step{
				{Source: commodity, Match: PatternMatch{Expr: grossMassExpr, Group: 1}},
			},
		},
		{
			Field: FieldItemPrice,
			Steps: []Step{
				{Source: price, Match: LastNumber{Exclude: []string{priceArtifact}}},
				{
					Source: TextSource{Columns: []int{CommodityColumn, PriceColumn}},
					Match:  LastNumber{Exclude: []string{priceArtifact}, Without: FieldGrossMass},
				},
			},
		},
	}
}
