package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parentSet(keys ...string) RecordSet {
	set := NewRecordSet(KeyColumn, "Pcs")
	for i, k := range keys {
		set = set.Append(Record{KeyColumn: k, "Pcs": string(rune('1' + i))})
	}
	return set
}

func TestReconcile_FanOut(t *testing.T) {
	child := NewRecordSet(KeyColumn, SecondaryColumn).
		Append(Record{KeyColumn: "H1", SecondaryColumn: "A"}).
		Append(Record{KeyColumn: "H2", SecondaryColumn: "B"}).
		Append(Record{KeyColumn: "H1", SecondaryColumn: "C"}).
		Append(Record{KeyColumn: "H1", SecondaryColumn: "D"})

	out, err := Reconcile(parentSet("H1", "H2", "H3"), child, KeyColumn)
	require.NoError(t, err)

	// H1 matches three child rows, H2 one, H3 none.
	counts := map[string]int{}
	for _, row := range out.Rows {
		counts[row[KeyColumn]]++
	}
	assert.Equal(t, map[string]int{"H1": 3, "H2": 1, "H3": 1}, counts)

	var secondaries []string
	for _, row := range out.Rows {
		secondaries = append(secondaries, row[SecondaryColumn])
	}
	assert.Equal(t, []string{"A", "C", "D", "B", ""}, secondaries)
	assert.Equal(t, []string{KeyColumn, "Pcs", SecondaryColumn}, out.Columns)
}

func TestReconcile_EmptyChild(t *testing.T) {
	out, err := Reconcile(parentSet("H1", "H2"), RecordSet{}, KeyColumn)
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.True(t, out.Has(SecondaryColumn))
	for _, row := range out.Rows {
		v, ok := row[SecondaryColumn]
		assert.True(t, ok)
		assert.Equal(t, "", v)
	}
}

func TestReconcile_MissingKeyColumn(t *testing.T) {
	noKey := NewRecordSet("Pcs").Append(Record{"Pcs": "1"})

	_, err := Reconcile(noKey, RecordSet{}, KeyColumn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingKeyColumn))
	assert.Contains(t, err.Error(), "No 'HAWB' column found in Parent manifests.")

	_, err = Reconcile(parentSet("H1"), noKey, KeyColumn)
	require.Error(t, err)
	assert.Equal(t, KindMissingKeyColumn, KindOf(err))
	assert.Contains(t, err.Error(), "Child manifest")

	// A child without rows is not checked.
	_, err = Reconcile(parentSet("H1"), NewRecordSet("Pcs"), KeyColumn)
	assert.NoError(t, err)
}

func TestReconcile_ColumnCollisions(t *testing.T) {
	child := NewRecordSet(KeyColumn, "Pcs", SecondaryColumn).
		Append(Record{KeyColumn: "H1", "Pcs": "99", SecondaryColumn: "S1"})

	out, err := Reconcile(parentSet("H1"), child, KeyColumn)
	require.NoError(t, err)

	assert.Equal(t, []string{KeyColumn, "Pcs_parent", "Pcs_child", SecondaryColumn}, out.Columns)
	assert.Equal(t, "1", out.Rows[0]["Pcs_parent"])
	assert.Equal(t, "99", out.Rows[0]["Pcs_child"])
}

func TestReconcile_EmptyKeyNeverMatches(t *testing.T) {
	child := NewRecordSet(KeyColumn, SecondaryColumn).
		Append(Record{KeyColumn: "", SecondaryColumn: "X"}).
		Append(Record{KeyColumn: "", SecondaryColumn: "Y"})

	out, err := Reconcile(parentSet(""), child, KeyColumn)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "", out.Rows[0][SecondaryColumn])
}

func TestReconcile_SecondaryDefaultedWhenChildLacksIt(t *testing.T) {
	child := NewRecordSet(KeyColumn, "Note").Append(Record{KeyColumn: "H1", "Note": "n"})

	out, err := Reconcile(parentSet("H1"), child, KeyColumn)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyColumn, "Pcs", "Note", SecondaryColumn}, out.Columns)
	assert.Equal(t, "", out.Rows[0][SecondaryColumn])
	assert.Equal(t, "n", out.Rows[0]["Note"])
}
