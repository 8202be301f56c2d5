package etdindex

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
)

func newIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New(zap.NewNop())
	require.NoError(t, err)
	return ix
}

func TestEnsureIDCountsUpward(t *testing.T) {
	ix := newIndex(t)

	id, err := ix.EnsureID(nil, "supplierX", "huis-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = ix.EnsureID(nil, "supplierX", "huis-b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	// known households keep their id
	id, err = ix.EnsureID(nil, "supplierX", "huis-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	// same supplier id at a different supplier is a different household
	id, err = ix.EnsureID(nil, "supplierY", "huis-a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
}

func TestEnsureIDUsesAllocator(t *testing.T) {
	ix := newIndex(t)
	tr, err := NewTranslator(mustTempDir(t))
	require.NoError(t, err)
	defer tr.Close()

	id, err := ix.EnsureID(tr, "supplierX", "huis-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id) // translator id 0 maps to BSV id 1

	id, err = ix.EnsureID(tr, "supplierX", "huis-b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestEnsureIDDistinctAcrossSuppliers(t *testing.T) {
	dir := mustTempDir(t)
	ix := newIndex(t)
	tr, err := NewTranslator(filepath.Join(dir, "translator"))
	require.NoError(t, err)
	defer tr.Close()

	idA, err := ix.EnsureID(tr, "supplierA", "huis-1")
	require.NoError(t, err)
	idB, err := ix.EnsureID(tr, "supplierB", "huis-9")
	require.NoError(t, err)
	assert.Equal(t, int64(1), idA)
	assert.Equal(t, int64(2), idB)

	// both households survive a save through one store
	st, err := OpenBoltStore(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Save(ix.Entries()))
	got, err := st.Load()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "huis-1", got[0].HuisIDLeverancier)
	assert.Equal(t, "huis-9", got[1].HuisIDLeverancier)
}

func TestHouseholdIDPairs(t *testing.T) {
	ix := newIndex(t)
	pairs, err := ix.HouseholdIDPairs(nil, "supplierX", []string{"huis-a", "huis-b", "huis-a"})
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, IDPair{HuisIDLeverancier: "huis-a", HuisIDBSV: 1}, pairs[0])
	assert.Equal(t, IDPair{HuisIDLeverancier: "huis-b", HuisIDBSV: 2}, pairs[1])
	assert.Equal(t, pairs[0], pairs[2])
}

func TestUpdateComputesDatasetFlags(t *testing.T) {
	ix := newIndex(t)

	// a tiny frame: counts fail, columns missing, Diff rollups error to NA
	f := etdkit.NewFrame(2)
	require.NoError(t, f.SetColumn(etdmodel.ReadingDateColumn, etdkit.NewTimeSeries([]time.Time{
		time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 7, 1, 0, 5, 0, 0, time.UTC),
	})))

	e := ix.Update("supplierX", "huis-a", 1, f)
	require.NotNil(t, e)
	assert.Equal(t, int64(1), e.HuisIDBSV)

	assert.Equal(t, etdkit.NullFalse, e.Flags["validate_monitoring_data_counts"])
	assert.Equal(t, etdkit.NullFalse, e.Flags["validate_columns_exist"])
	assert.Equal(t, etdkit.NullTrue, e.Flags["validate_no_readingdate_gap"])

	// the record flag columns are absent, so every Diff rollup is NA
	rollup, ok := e.Flags["validate_GasgebruikDiff"]
	require.True(t, ok)
	assert.False(t, rollup.Valid)

	// and so is the meta rollup, via its NA inputs being present but NA
	meta, ok := e.Flags[MetaFlagCumulativeDiffOK]
	require.True(t, ok)
	assert.True(t, meta.Valid)
	assert.True(t, meta.Bool)
}

func TestUpdateMetaValidators(t *testing.T) {
	ix := newIndex(t)
	_, err := ix.EnsureID(nil, "supplierX", "huis-a")
	require.NoError(t, err)
	e := ix.Find("supplierX", "huis-a")
	require.NotNil(t, e)

	// all flags present and true-or-NA
	for _, col := range etdmodel.CumulativeColumns {
		e.Flags["validate_"+col+"Diff"] = etdkit.NullTrue
	}
	ix.UpdateMetaValidators()
	assert.Equal(t, etdkit.NullTrue, e.Flags[MetaFlagCumulativeDiffOK])

	// one false flips the rollup
	e.Flags["validate_GasgebruikDiff"] = etdkit.NullFalse
	ix.UpdateMetaValidators()
	assert.Equal(t, etdkit.NullFalse, e.Flags[MetaFlagCumulativeDiffOK])

	// a missing flag column makes it NA
	delete(e.Flags, "validate_GasgebruikDiff")
	ix.UpdateMetaValidators()
	assert.False(t, e.Flags[MetaFlagCumulativeDiffOK].Valid)
}

func TestEntriesSortedByID(t *testing.T) {
	ix := newIndex(t)
	ix.entries = []*Entry{{HuisIDBSV: 3}, {HuisIDBSV: 1}, {HuisIDBSV: 2}}
	got := ix.Entries()
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].HuisIDBSV)
	assert.Equal(t, int64(3), got[2].HuisIDBSV)
}
