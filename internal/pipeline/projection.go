package pipeline

// ProjectionColumn is one output column and the source headers it may be
// read from. A column already carrying Name is taken as is, which keeps
// projection idempotent.
type ProjectionColumn struct {
	Name    string
	Sources []string
}

// ManifestProjection is the canonical manifest output order.
var ManifestProjection = []ProjectionColumn{
	{Name: "Origin", Sources: []string{"Origin"}},
	{Name: "SequenceNo", Sources: []string{"#"}},
	{Name: "WaybillId", Sources: []string{KeyColumn}},
	{Name: "Pieces", Sources: []string{"Pcs"}},
	{Name: "Weight", Sources: []string{"Weight"}},
	{Name: "ShipperDetails", Sources: []string{"Shipper Details"}},
	{Name: "Destination", Sources: []string{"Dest"}},
	{Name: "BillTerm", Sources: []string{"Bill\nTerm", "Bill Term"}},
	{Name: "ConsigneeDetails", Sources: []string{"Consignee Details"}},
	{Name: "DescriptionOfGoods", Sources: []string{"Description\nof Goods", "Description of Goods"}},
	{Name: "TotalValue", Sources: []string{"Total\nValue", "Total Value"}},
	{Name: "TotalValueLocal", Sources: []string{"Total\nValue(LKR)", "Total Value(LKR)"}},
}

// Project selects the projection columns present in set, in projection
// order, then appends Type. Absent columns are omitted.
func Project(set RecordSet, columns []ProjectionColumn) RecordSet {
	type pick struct{ name, source string }
	var picks []pick
	for _, pc := range columns {
		if src, ok := resolveSource(set, pc); ok {
			picks = append(picks, pick{name: pc.Name, source: src})
		}
	}

	out := RecordSet{Columns: make([]string, 0, len(picks)+1), Rows: make([]Record, len(set.Rows))}
	for _, p := range picks {
		out.Columns = append(out.Columns, p.name)
	}
	out.Columns = append(out.Columns, TypeColumn)

	for i, row := range set.Rows {
		rec := make(Record, len(out.Columns))
		for _, p := range picks {
			rec[p.name] = row[p.source]
		}
		rec[TypeColumn] = row[TypeColumn]
		out.Rows[i] = rec
	}
	return out
}

func resolveSource(set RecordSet, pc ProjectionColumn) (string, bool) {
	if set.Has(pc.Name) {
		return pc.Name, true
	}
	for _, s := range pc.Sources {
		if set.Has(s) {
			return s, true
		}
	}
	return "", false
}
