package pipeline

// ManifestRecord is the typed view of one projected manifest row.
type ManifestRecord struct {
	Origin             string     `json:"origin"`
	SequenceNo         string     `json:"sequence_no"`
	WaybillID          string     `json:"waybill_id"`
	Pieces             string     `json:"pieces"`
	Weight             string     `json:"weight"`
	ShipperDetails     string     `json:"shipper_details"`
	Destination        string     `json:"destination"`
	BillTerm           string     `json:"bill_term"`
	ConsigneeDetails   string     `json:"consignee_details"`
	DescriptionOfGoods string     `json:"description_of_goods"`
	TotalValue         string     `json:"total_value"`
	TotalValueLocal    string     `json:"total_value_local"`
	SecondaryIDs       []string   `json:"secondary_ids,omitempty"`
	Type               RecordType `json:"type"`
}

// ManifestRecords converts expanded rows to typed records. Rows are
// projected first so source header variants resolve to canonical names.
// SecondaryIDs come from the secondary column when the set still has it.
func ManifestRecords(set RecordSet) []ManifestRecord {
	projected := Project(set, ManifestProjection)
	out := make([]ManifestRecord, len(projected.Rows))
	for i, row := range projected.Rows {
		out[i] = ManifestRecord{
			Origin:             row["Origin"],
			SequenceNo:         row["SequenceNo"],
			WaybillID:          row["WaybillId"],
			Pieces:             row["Pieces"],
			Weight:             row["Weight"],
			ShipperDetails:     row["ShipperDetails"],
			Destination:        row["Destination"],
			BillTerm:           row["BillTerm"],
			ConsigneeDetails:   row["ConsigneeDetails"],
			DescriptionOfGoods: row["DescriptionOfGoods"],
			TotalValue:         row["TotalValue"],
			TotalValueLocal:    row["TotalValueLocal"],
			SecondaryIDs:       SplitSecondary(set.Rows[i][SecondaryColumn]),
			Type:               RecordType(row[TypeColumn]),
		}
	}
	return out
}
