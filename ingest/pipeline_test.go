package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit/csvsource"
	"github.com/energietransitie/etdkit/etdindex"
	"github.com/energietransitie/etdkit/etdmodel"
	"github.com/energietransitie/etdkit/file"
	"github.com/energietransitie/etdkit/mapping"
)

// writeRawExport writes one supplier CSV with a 5 minute cadence and a
// steadily increasing gas meter.
func writeRawExport(t *testing.T, dir, name, huisID string, rows int) {
	t.Helper()
	content := "ReadingDate,Gasgebruik,HuisIdLeverancier,ProjectIdLeverancier\n"
	start := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		content += fmt.Sprintf("%s,%.1f,%s,proj-1\n",
			start.Add(time.Duration(i)*5*time.Minute).Format("2006-01-02 15:04:05"),
			100+0.1*float64(i), huisID)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	rawDir := filepath.Join(dir, "raw")
	require.NoError(t, os.Mkdir(rawDir, 0755))
	writeRawExport(t, rawDir, "huis_a.csv", "huis-a", 6)
	writeRawExport(t, rawDir, "huis_b.csv", "huis-b", 6)

	rs, err := file.NewRawSource(rawDir)
	require.NoError(t, err)

	ix, err := etdindex.New(zap.NewNop())
	require.NoError(t, err)
	store, err := etdindex.OpenBoltStore(filepath.Join(dir, "index.db"))
	require.NoError(t, err)

	p := &Pipeline{
		Source:   csvsource.NewSource(rs),
		Mapper:   mapping.NewMapper(),
		Index:    ix,
		Store:    store,
		Tables:   csvsource.TableDir{Dir: filepath.Join(dir, "mapped")},
		Supplier: "supplierX",
		Log:      zap.NewNop(),
	}
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	// each household got a mapped table with the model columns, the diff
	// column, and the row flag columns
	f, err := csvsource.ReadStringFrame(filepath.Join(dir, "mapped", "household_1_table.csv"))
	require.NoError(t, err)
	require.Equal(t, 6, f.NumRows())
	for _, col := range []string{
		etdmodel.ReadingDateColumn, "Gasgebruik", "GasgebruikDiff",
		"validate_300sec", "validate_reading_date_uniek", "validate_GasgebruikDiff",
	} {
		assert.NotNil(t, f.Column(col), "missing column %s", col)
	}
	assert.Equal(t, "100", f.Column("Gasgebruik").Str(0))
	assert.Equal(t, "0.1", f.Column("GasgebruikDiff").Str(1))
	assert.Equal(t, "True", f.Column("validate_300sec").Str(1))

	_, err = os.Stat(filepath.Join(dir, "mapped", "household_2_table.csv"))
	require.NoError(t, err)

	// the index was updated and flags were computed
	e := ix.Find("supplierX", "huis-a")
	require.NotNil(t, e)
	assert.Equal(t, int64(1), e.HuisIDBSV)
	assert.Equal(t, "proj-1", e.ProjectIDLeverancier)
	assert.Equal(t, "supplierX", e.Dataleverancier)

	// six readings is far under the expected yearly count
	assert.Equal(t, false, e.Flags["validate_monitoring_data_counts"].Bool)
	require.True(t, e.Flags["validate_monitoring_data_counts"].Valid)
	assert.True(t, e.Flags["validate_no_readingdate_gap"].Bool)
	assert.True(t, e.Flags["validate_GasgebruikDiff"].Bool)
	assert.True(t, e.Flags[etdindex.MetaFlagCumulativeDiffOK].Bool)

	// the index was persisted
	store, err = etdindex.OpenBoltStore(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestPipelineSkipsUnmappableDataset(t *testing.T) {
	dir := t.TempDir()
	rawDir := filepath.Join(dir, "raw")
	require.NoError(t, os.Mkdir(rawDir, 0755))
	// no reading date column, the mapper cannot pad intervals
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "broken.csv"),
		[]byte("Gasgebruik,HuisIdLeverancier\n100,huis-x\n"), 0644))
	writeRawExport(t, rawDir, "huis_a.csv", "huis-a", 3)

	rs, err := file.NewRawSource(rawDir)
	require.NoError(t, err)
	ix, err := etdindex.New(zap.NewNop())
	require.NoError(t, err)

	p := &Pipeline{
		Source:   csvsource.NewSource(rs),
		Mapper:   mapping.NewMapper(),
		Index:    ix,
		Tables:   csvsource.TableDir{Dir: filepath.Join(dir, "mapped")},
		Supplier: "supplierX",
		Log:      zap.NewNop(),
	}
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	// the broken file still got an id, but only the good one has a table
	require.NotNil(t, ix.Find("supplierX", "huis-x"))
	require.NotNil(t, ix.Find("supplierX", "huis-a"))
	_, err = os.Stat(filepath.Join(dir, "mapped", "household_2_table.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "mapped", "household_1_table.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestPipelineDropUnvalidated(t *testing.T) {
	dir := t.TempDir()
	rawDir := filepath.Join(dir, "raw")
	require.NoError(t, os.Mkdir(rawDir, 0755))
	// a decreasing counter with no recovery fails cumulative validation
	content := "ReadingDate,Gasgebruik\n" +
		"2023-07-01 00:00:00,100\n" +
		"2023-07-01 00:05:00,90\n" +
		"2023-07-01 00:10:00,80\n"
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "huis_a.csv"), []byte(content), 0644))

	rs, err := file.NewRawSource(rawDir)
	require.NoError(t, err)
	ix, err := etdindex.New(zap.NewNop())
	require.NoError(t, err)

	p := &Pipeline{
		Source:   csvsource.NewSource(rs),
		Mapper:   mapping.NewMapper(mapping.OptDropUnvalidated()),
		Index:    ix,
		Tables:   csvsource.TableDir{Dir: filepath.Join(dir, "mapped")},
		Supplier: "supplierX",
		Log:      zap.NewNop(),
	}
	require.NoError(t, p.Run())
	require.NoError(t, p.Close())

	_, err = os.Stat(filepath.Join(dir, "mapped", "household_1_table.csv"))
	assert.True(t, os.IsNotExist(err))
}
