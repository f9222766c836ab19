package pipeline

import "strings"

// RecordType distinguishes the primary waybill row from the rows derived
// from its secondary tracking ids.
type RecordType string

const (
	TypeMaster RecordType = "Master"
	TypeBaby   RecordType = "Baby"

	// TypeColumn is the column carrying the RecordType.
	TypeColumn = "Type"
)

// SplitSecondary splits a comma-separated id list, trimming entries and
// dropping empty ones. Order is preserved.
func SplitSecondary(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// Expand emits, for every row, one Master copy followed by one Baby per
// secondary id with the key column replaced by that id. The secondary
// column is carried unchanged onto Baby rows.
func Expand(set RecordSet, key string) RecordSet {
	out := RecordSet{Columns: append([]string(nil), set.Columns...)}
	if !out.Has(TypeColumn) {
		out.Columns = append(out.Columns, TypeColumn)
	}

	for _, row := range set.Rows {
		master := row.Clone()
		master[TypeColumn] = string(TypeMaster)
		out.Rows = append(out.Rows, master)

		for _, id := range SplitSecondary(row[SecondaryColumn]) {
			baby := row.Clone()
			baby[key] = id
			baby[TypeColumn] = string(TypeBaby)
			out.Rows = append(out.Rows, baby)
		}
	}
	return out
}
