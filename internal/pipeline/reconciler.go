package pipeline

import "slices"

const (
	// KeyColumn is the house waybill column that links parent and child
	// manifests.
	KeyColumn = "HAWB"
	// SecondaryColumn holds the comma-separated secondary tracking ids.
	SecondaryColumn = "secondary"

	parentSuffix = "_parent"
	childSuffix  = "_child"
)

// CheckKeys verifies that both sides carry key. The child side is only
// checked when it has rows.
func CheckKeys(parent, child RecordSet, key string) error {
	if !parent.Has(key) {
		return MissingKeyColumn(key, "Parent manifests")
	}
	if !child.Empty() && !child.Has(key) {
		return MissingKeyColumn(key, "Child manifest")
	}
	return nil
}

// Reconcile left-joins parent to child on key. Each parent row appears once
// per matching child row, or once with empty child fields when nothing
// matches. Non-key columns present on both sides are suffixed _parent and
// _child. The result always has a secondary column.
//
// Parent rows with an empty key never match child rows.
func Reconcile(parent, child RecordSet, key string) (RecordSet, error) {
	if err := CheckKeys(parent, child, key); err != nil {
		return RecordSet{}, err
	}

	if child.Empty() {
		return parent.withColumn(SecondaryColumn, ""), nil
	}

	parentNames, childNames, columns := joinColumns(parent.Columns, child.Columns, key)

	index := make(map[string][]int)
	for i, row := range child.Rows {
		k := row[key]
		index[k] = append(index[k], i)
	}

	out := RecordSet{Columns: columns}
	for _, prow := range parent.Rows {
		base := make(Record, len(columns))
		for _, c := range parent.Columns {
			base[parentNames[c]] = prow[c]
		}

		var matches []int
		if k := prow[key]; k != "" {
			matches = index[k]
		}

		if len(matches) == 0 {
			rec := base.Clone()
			for _, c := range child.Columns {
				if c != key {
					rec[childNames[c]] = ""
				}
			}
			out.Rows = append(out.Rows, rec)
			continue
		}

		for _, ci := range matches {
			rec := base.Clone()
			for _, c := range child.Columns {
				if c != key {
					rec[childNames[c]] = child.Rows[ci][c]
				}
			}
			out.Rows = append(out.Rows, rec)
		}
	}

	return out.withColumn(SecondaryColumn, ""), nil
}

// joinColumns resolves output names for both sides and the joined column
// order: parent columns, then child columns other than key.
func joinColumns(parentCols, childCols []string, key string) (map[string]string, map[string]string, []string) {
	pn := make(map[string]string, len(parentCols))
	cn := make(map[string]string, len(childCols))
	columns := make([]string, 0, len(parentCols)+len(childCols))

	for _, c := range parentCols {
		name := c
		if c != key && slices.Contains(childCols, c) {
			name = c + parentSuffix
		}
		pn[c] = name
		columns = append(columns, name)
	}
	for _, c := range childCols {
		if c == key {
			continue
		}
		name := c
		if slices.Contains(parentCols, c) {
			name = c + childSuffix
		}
		cn[c] = name
		columns = append(columns, name)
	}
	return pn, cn, columns
}
