package pipeline

import (
	"maps"
	"slices"
	"strings"
)

// RenameTable canonicalizes header names for one document variant.
type RenameTable struct {
	// Exact maps a verbatim source header to its canonical name.
	Exact map[string]string
	// Ambiguous maps a canonical name to a case-insensitive substring. The
	// rename happens only when the canonical name is absent and exactly one
	// column contains the substring.
	Ambiguous map[string]string
}

// Normalize returns a copy of the set with columns renamed per table.
// Unresolvable ambiguous targets leave the columns as they are.
func Normalize(set RecordSet, table RenameTable) RecordSet {
	rename := make(map[string]string)
	for src, dst := range table.Exact {
		if set.Has(src) {
			rename[src] = dst
		}
	}

	for _, target := range slices.Sorted(maps.Keys(table.Ambiguous)) {
		if set.Has(target) {
			continue
		}
		needle := strings.ToLower(table.Ambiguous[target])
		var candidates []string
		for _, c := range set.Columns {
			if strings.Contains(strings.ToLower(c), needle) {
				candidates = append(candidates, c)
			}
		}
		if len(candidates) == 1 {
			if _, taken := rename[candidates[0]]; !taken {
				rename[candidates[0]] = target
			}
		}
	}

	if len(rename) == 0 {
		return set
	}
	return renameColumns(set, rename)
}

func renameColumns(set RecordSet, rename map[string]string) RecordSet {
	out := RecordSet{Columns: make([]string, len(set.Columns)), Rows: make([]Record, len(set.Rows))}
	for i, c := range set.Columns {
		if n, ok := rename[c]; ok {
			out.Columns[i] = n
		} else {
			out.Columns[i] = c
		}
	}
	for i, row := range set.Rows {
		rec := make(Record, len(row))
		for k, v := range row {
			if n, ok := rename[k]; ok {
				k = n
			}
			rec[k] = v
		}
		out.Rows[i] = rec
	}
	return out
}
