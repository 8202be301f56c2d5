package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
)

func datasetFlagByName(t *testing.T, name string) DatasetFlag {
	t.Helper()
	flags, err := DatasetFlags(zap.NewNop())
	require.NoError(t, err)
	for _, fl := range flags {
		if fl.Name == name {
			return fl
		}
	}
	t.Fatalf("no dataset flag %s", name)
	return DatasetFlag{}
}

// yearFrame builds a table whose dates span a jitter-proof year with a
// cumulative column rising linearly from start to end.
func yearFrame(t *testing.T, col string, start, end float64) *etdkit.Frame {
	t.Helper()
	n := 366
	dates := make([]time.Time, n)
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		dates[i] = t0.Add(time.Duration(i) * 24 * time.Hour)
		vals[i] = start + (end-start)*float64(i)/float64(n-1)
	}
	f := etdkit.NewFrame(n)
	require.NoError(t, f.SetColumn(etdmodel.ReadingDateColumn, etdkit.NewTimeSeries(dates)))
	require.NoError(t, f.SetColumn(col, etdkit.NewFloatSeries(vals)))
	return f
}

func TestAnd3(t *testing.T) {
	na := etdkit.NullBool{}
	assert.Equal(t, etdkit.NullTrue, and3(etdkit.NullTrue, etdkit.NullTrue))
	assert.Equal(t, etdkit.NullFalse, and3(etdkit.NullTrue, etdkit.NullFalse))
	assert.Equal(t, etdkit.NullFalse, and3(na, etdkit.NullFalse))
	assert.Equal(t, na, and3(na, etdkit.NullTrue))
	assert.Equal(t, na, and3(na, na))
}

func TestValidateMonitoringDataCounts(t *testing.T) {
	got, err := validateMonitoringDataCounts(etdkit.NewFrame(0))
	require.NoError(t, err)
	assert.False(t, got.Valid)

	got, err = validateMonitoringDataCounts(etdkit.NewFrame(105000))
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullTrue, got)

	got, err = validateMonitoringDataCounts(etdkit.NewFrame(50))
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullFalse, got)
}

func TestValidateApproximatelyOneYear(t *testing.T) {
	f := yearFrame(t, "Gasgebruik", 0, 100)
	got, err := validateApproximatelyOneYear(f)
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullTrue, got)

	short := etdkit.NewFrame(2)
	require.NoError(t, short.SetColumn(etdmodel.ReadingDateColumn,
		etdkit.NewTimeSeries([]time.Time{t0, t0.Add(30 * 24 * time.Hour)})))
	got, err = validateApproximatelyOneYear(short)
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullFalse, got)

	got, err = validateApproximatelyOneYear(etdkit.NewFrame(0))
	require.NoError(t, err)
	assert.False(t, got.Valid)
}

func TestValidateColumnsExist(t *testing.T) {
	f := etdkit.NewFrame(1)
	for _, col := range etdmodel.DataAnalysisColumns {
		kind, _ := etdmodel.ColumnKind(col)
		require.NoError(t, f.SetColumn(col, etdkit.NewSeries(kind, 1)))
	}
	got, err := validateColumnsExist(f)
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullTrue, got)

	f.Drop("Zon-opwekTotaal")
	got, err = validateColumnsExist(f)
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullFalse, got)
}

func TestValidateNoReadingDateGap(t *testing.T) {
	ok := etdkit.NewFrame(3)
	require.NoError(t, ok.SetColumn(etdmodel.ReadingDateColumn, etdkit.NewTimeSeries([]time.Time{
		t0, t0.Add(300 * time.Second), t0.Add(600 * time.Second),
	})))
	got, err := validateNoReadingDateGap(ok)
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullTrue, got)

	gap := etdkit.NewFrame(2)
	require.NoError(t, gap.SetColumn(etdmodel.ReadingDateColumn, etdkit.NewTimeSeries([]time.Time{
		t0, t0.Add(10 * time.Minute),
	})))
	got, err = validateNoReadingDateGap(gap)
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullFalse, got)
}

func TestCumulativeColumnFlag(t *testing.T) {
	fl := datasetFlagByName(t, "validate_Gasgebruik")

	// yearly increase of 400 m3 within [0, 5000]
	got, err := fl.Validate(yearFrame(t, "Gasgebruik", 100, 500))
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullTrue, got)

	// yearly increase beyond the threshold
	got, err = fl.Validate(yearFrame(t, "Gasgebruik", 0, 9000))
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullFalse, got)

	// a decreasing counter fails regardless of the range
	f := yearFrame(t, "Gasgebruik", 100, 500)
	f.Column("Gasgebruik").SetFloat(10, 50)
	got, err = fl.Validate(f)
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullFalse, got)

	// missing column is NA
	got, err = fl.Validate(yearFrame(t, "WatergebruikWarmtepomp", 0, 10))
	require.NoError(t, err)
	assert.False(t, got.Valid)
}

func TestEnergiegebruikWarmteopwekker(t *testing.T) {
	fl := datasetFlagByName(t, "validate_energiegebruik_warmteopwekker")

	f := yearFrame(t, "ElektriciteitsgebruikWarmtepomp", 0, 1000)
	n := f.NumRows()
	require.NoError(t, f.SetColumn("ElektriciteitsgebruikBooster", etdkit.NewFloatSeries(make([]float64, n))))
	require.NoError(t, f.SetColumn("ElektriciteitsgebruikBoilervat", etdkit.NewFloatSeries(make([]float64, n))))

	got, err := fl.Validate(f)
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullTrue, got)

	// missing input column is NA
	f.Drop("ElektriciteitsgebruikBooster")
	got, err = fl.Validate(f)
	require.NoError(t, err)
	assert.False(t, got.Valid)
}

func TestDiffRollupFlag(t *testing.T) {
	fl := datasetFlagByName(t, "validate_GasgebruikDiff")

	f := etdkit.NewFrame(3)
	s := etdkit.NewSeries(etdkit.Bool, 3)
	s.SetBool(0, true)
	// row 1 stays NA
	s.SetBool(2, true)
	require.NoError(t, f.SetColumn("validate_GasgebruikDiff", s))

	got, err := fl.Validate(f)
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullTrue, got)

	s.SetBool(1, false)
	got, err = fl.Validate(f)
	require.NoError(t, err)
	assert.Equal(t, etdkit.NullFalse, got)

	// missing flag column is an error; the index stores NA
	_, err = fl.Validate(etdkit.NewFrame(0))
	require.Error(t, err)
}
