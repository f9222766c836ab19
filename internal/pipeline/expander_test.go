package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSecondary(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"S1", []string{"S1"}},
		{"S1, S2", []string{"S1", "S2"}},
		{" ,S1,, S2 , ", []string{"S1", "S2"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitSecondary(tt.in), tt.in)
	}
}

func TestExpand_RowCount(t *testing.T) {
	set := NewRecordSet(KeyColumn, SecondaryColumn).
		Append(Record{KeyColumn: "H1", SecondaryColumn: "A, B,, C"}).
		Append(Record{KeyColumn: "H2", SecondaryColumn: ""}).
		Append(Record{KeyColumn: "H3"})

	out := Expand(set, KeyColumn)

	// 1+3, 1+0, 1+0
	require.Equal(t, 6, out.Len())
	var babies int
	for _, row := range out.Rows {
		if row[TypeColumn] == string(TypeBaby) {
			babies++
		}
	}
	assert.Equal(t, 3, babies)
	assert.Equal(t, []string{KeyColumn, SecondaryColumn, TypeColumn}, out.Columns)
}

func TestExpand_BabyCarriesStaleSecondary(t *testing.T) {
	set := NewRecordSet(KeyColumn, "Pcs", SecondaryColumn).
		Append(Record{KeyColumn: "H1", "Pcs": "10", SecondaryColumn: "S1, S2"})

	out := Expand(set, KeyColumn)
	require.Equal(t, 3, out.Len())

	assert.Equal(t, Record{KeyColumn: "H1", "Pcs": "10", SecondaryColumn: "S1, S2", TypeColumn: "Master"}, out.Rows[0])
	assert.Equal(t, Record{KeyColumn: "S1", "Pcs": "10", SecondaryColumn: "S1, S2", TypeColumn: "Baby"}, out.Rows[1])
	assert.Equal(t, Record{KeyColumn: "S2", "Pcs": "10", SecondaryColumn: "S1, S2", TypeColumn: "Baby"}, out.Rows[2])

	// input untouched
	assert.Equal(t, "H1", set.Rows[0][KeyColumn])
	_, typed := set.Rows[0][TypeColumn]
	assert.False(t, typed)
}
