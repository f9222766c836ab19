package pipeline

import (
	"fmt"
	"slices"
)

// Record maps column names to cell values. A missing key reads as "".
type Record map[string]string

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RecordSet is an ordered set of rows sharing named columns.
type RecordSet struct {
	Columns []string
	Rows    []Record
}

// NewRecordSet returns an empty set with the given columns.
func NewRecordSet(columns ...string) RecordSet {
	return RecordSet{Columns: slices.Clone(columns)}
}

// Len returns the number of rows.
func (s RecordSet) Len() int {
	return len(s.Rows)
}

// Empty reports whether the set has no rows.
func (s RecordSet) Empty() bool {
	return len(s.Rows) == 0
}

// Has reports whether column is one of the set's columns.
func (s RecordSet) Has(column string) bool {
	return slices.Contains(s.Columns, column)
}

// Append adds a row and returns the set.
func (s RecordSet) Append(rec Record) RecordSet {
	s.Rows = append(s.Rows, rec)
	return s
}

// Values returns the rows as ordered cell slices following Columns.
func (s RecordSet) Values() [][]string {
	out := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		vals := make([]string, len(s.Columns))
		for j, col := range s.Columns {
			vals[j] = row[col]
		}
		out[i] = vals
	}
	return out
}

// withColumn returns a copy of the set guaranteed to have column, filling
// rows that lack it with def.
func (s RecordSet) withColumn(column, def string) RecordSet {
	out := RecordSet{Columns: slices.Clone(s.Columns), Rows: make([]Record, len(s.Rows))}
	if !out.Has(column) {
		out.Columns = append(out.Columns, column)
	}
	for i, row := range s.Rows {
		rec := row.Clone()
		if _, ok := rec[column]; !ok {
			rec[column] = def
		}
		out.Rows[i] = rec
	}
	return out
}

// Concat stacks sets vertically. Columns are the union in first-seen order;
// rows lacking a column read as "".
func Concat(sets ...RecordSet) RecordSet {
	var out RecordSet
	for _, s := range sets {
		for _, c := range s.Columns {
			if !out.Has(c) {
				out.Columns = append(out.Columns, c)
			}
		}
		for _, row := range s.Rows {
			out.Rows = append(out.Rows, row.Clone())
		}
	}
	return out
}

// RecordSetFromGrid reads a grid whose first row is the header. Grids with
// fewer than two rows carry no data and yield an empty set.
func RecordSetFromGrid(grid RawTableGrid) RecordSet {
	if grid.Len() < 2 {
		return RecordSet{}
	}

	header := uniqueHeaders(grid.Row(0))
	out := RecordSet{Columns: header, Rows: make([]Record, 0, grid.Len()-1)}
	for i := 1; i < grid.Len(); i++ {
		cells := grid.Row(i)
		rec := make(Record, len(header))
		for j, col := range header {
			if j < len(cells) {
				rec[col] = cleanValue(cells[j])
			} else {
				rec[col] = ""
			}
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// RecordSetFromGrids reads and concatenates every grid.
func RecordSetFromGrids(grids []RawTableGrid) RecordSet {
	sets := make([]RecordSet, 0, len(grids))
	for _, g := range grids {
		if s := RecordSetFromGrid(g); !s.Empty() {
			sets = append(sets, s)
		}
	}
	return Concat(sets...)
}

// uniqueHeaders cleans header names and suffixes repeats with .1, .2, ...
func uniqueHeaders(raw []string) []string {
	seen := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		name := cleanHeader(h)
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}
