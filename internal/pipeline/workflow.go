package pipeline

import "slices"

// InvoiceProfile configures the invoice workflow.
type InvoiceProfile struct {
	Anchors   []string
	RowsAfter int
	Rules     []FieldRule
}

// DefaultInvoiceProfile returns the customs declaration configuration.
func DefaultInvoiceProfile() InvoiceProfile {
	return InvoiceProfile{
		Anchors:   []string{"31 Packages", "Description of Goods"},
		RowsAfter: DefaultRowsAfter,
		Rules:     DefaultInvoiceRules(),
	}
}

// WithRowsAfter returns a copy of the profile using n rows after anchors.
func (p InvoiceProfile) WithRowsAfter(n int) InvoiceProfile {
	p.RowsAfter = n
	p.Anchors = slices.Clone(p.Anchors)
	return p
}

// ExtractInvoice locates anchor blocks in every grid and extracts one record
// per block. An empty result means no data was found.
func ExtractInvoice(grids []RawTableGrid, profile InvoiceProfile) RecordSet {
	ex := NewExtractor(profile.Rules)
	out := NewRecordSet(ex.Fields()...)
	for _, grid := range grids {
		for _, block := range Locate(grid, profile.Anchors, profile.RowsAfter) {
			out = out.Append(ex.Extract(block))
		}
	}
	return out
}

// ManifestProfile configures the manifest comparison workflow.
type ManifestProfile struct {
	Key           string
	ParentRenames RenameTable
	ChildRenames  RenameTable
	Projection    []ProjectionColumn
}

// DefaultManifestProfile returns the house manifest configuration.
func DefaultManifestProfile() ManifestProfile {
	return ManifestProfile{
		Key: KeyColumn,
		ParentRenames: RenameTable{
			Exact: map[string]string{
				"HAWB\nNumber": KeyColumn,
				"HAWB Number":  KeyColumn,
			},
			Ambiguous: map[string]string{"Origin": "origin"},
		},
		ChildRenames: RenameTable{
			Exact: map[string]string{
				"HAWB\nShipment":             KeyColumn,
				"HAWB Shipment":              KeyColumn,
				"Secondary Tracking Numbers": SecondaryColumn,
			},
		},
		Projection: ManifestProjection,
	}
}

// ManifestSets reads parent and child record sets from their grids, already
// normalized. Parent grids from several documents are concatenated.
func ManifestSets(parents, child []RawTableGrid, profile ManifestProfile) (RecordSet, RecordSet) {
	parent := Normalize(RecordSetFromGrids(parents), profile.ParentRenames)
	kids := Normalize(RecordSetFromGrids(child), profile.ChildRenames)
	return parent, kids
}

// CompareManifests joins parent and child manifests on the waybill key,
// expands secondary ids into Master/Baby rows and projects the canonical
// columns. An empty parent set yields an empty result and no error.
func CompareManifests(parents, child []RawTableGrid, profile ManifestProfile) (RecordSet, error) {
	parent, kids := ManifestSets(parents, child, profile)
	if parent.Empty() {
		return RecordSet{}, nil
	}

	merged, err := Reconcile(parent, kids, profile.Key)
	if err != nil {
		return RecordSet{}, err
	}

	return Project(Expand(merged, profile.Key), profile.Projection), nil
}
