package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
)

var t0 = time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)

func dateRange(start time.Time, n int, step time.Duration) []time.Time {
	ts := make([]time.Time, n)
	for i := range ts {
		ts[i] = start.Add(time.Duration(i) * step)
	}
	return ts
}

func newTable(t *testing.T, dates []time.Time, cols map[string][]float64) *etdkit.Frame {
	t.Helper()
	f := etdkit.NewFrame(len(dates))
	require.NoError(t, f.SetColumn(etdmodel.ReadingDateColumn, etdkit.NewTimeSeries(dates)))
	for name, vals := range cols {
		require.NoError(t, f.SetColumn(name, etdkit.NewFloatSeries(vals)))
	}
	return f
}

func TestRearrangeAddsMissingModelColumns(t *testing.T) {
	f := newTable(t, dateRange(t0, 2, 5*time.Minute), map[string][]float64{
		"Gasgebruik": {1, 2},
	})
	extra := etdkit.NewStringSeries([]string{"a", "b"})
	require.NoError(t, f.SetColumn("Leverancierskolom", extra))

	m := NewMapper()
	got, err := m.Rearrange(f, true)
	require.NoError(t, err)

	cols := got.Columns()
	require.Len(t, cols, len(etdmodel.ModelColumnOrder)+1)
	assert.Equal(t, etdmodel.ModelColumnOrder, cols[:len(etdmodel.ModelColumnOrder)])
	assert.Equal(t, "Leverancierskolom", cols[len(cols)-1])

	assert.Equal(t, 1.0, got.Column("Gasgebruik").Float(0))
	assert.True(t, got.Column("ElektriciteitsgebruikWTW").AllNA())
}

func TestRearrangeKeepMode(t *testing.T) {
	f := newTable(t, dateRange(t0, 1, 5*time.Minute), map[string][]float64{
		"Gasgebruik": {1},
	})
	m := NewMapper()
	got, err := m.Rearrange(f, false)
	require.NoError(t, err)
	assert.Equal(t, []string{etdmodel.ReadingDateColumn, "Gasgebruik"}, got.Columns())
}

func TestEnsureIntervalsPadsGaps(t *testing.T) {
	// 10:00, 10:05, 10:15: one grid slot missing
	dates := []time.Time{t0, t0.Add(5 * time.Minute), t0.Add(15 * time.Minute)}
	f := newTable(t, dates, map[string][]float64{"Gasgebruik": {1, 2, 3}})

	m := NewMapper()
	got, err := m.EnsureIntervals(f)
	require.NoError(t, err)
	require.Equal(t, 4, got.NumRows())

	rd := got.Column(etdmodel.ReadingDateColumn)
	assert.Equal(t, t0.Add(10*time.Minute), rd.Time(2))
	assert.True(t, got.Column("Gasgebruik").IsNA(2))
	assert.Equal(t, 3.0, got.Column("Gasgebruik").Float(3))
}

func TestEnsureIntervalsExactIsUntouched(t *testing.T) {
	f := newTable(t, dateRange(t0, 3, 5*time.Minute), map[string][]float64{"Gasgebruik": {1, 2, 3}})
	m := NewMapper()
	got, err := m.EnsureIntervals(f)
	require.NoError(t, err)
	assert.Same(t, f, got)
}

func TestEnsureIntervalsReducesOffGridRows(t *testing.T) {
	// 10:00, 10:02, 10:05: more rows than the cadence permits
	dates := []time.Time{t0, t0.Add(2 * time.Minute), t0.Add(5 * time.Minute)}
	f := newTable(t, dates, map[string][]float64{"Gasgebruik": {1, 2, 3}})

	m := NewMapper()
	got, err := m.EnsureIntervals(f)
	require.NoError(t, err)
	require.Equal(t, 2, got.NumRows())
	assert.Equal(t, 1.0, got.Column("Gasgebruik").Float(0))
	assert.Equal(t, 3.0, got.Column("Gasgebruik").Float(1))
}

func TestEnsureIntervalsOffGridOvershootMergesLeft(t *testing.T) {
	// 10:00, 10:07, 10:20: fewer rows than the span permits, but padding
	// would keep the off-grid 10:07 row and overshoot the expected count
	dates := []time.Time{t0, t0.Add(7 * time.Minute), t0.Add(20 * time.Minute)}
	f := newTable(t, dates, map[string][]float64{"Gasgebruik": {1, 2, 3}})

	m := NewMapper()
	got, err := m.EnsureIntervals(f)
	require.NoError(t, err)
	require.Equal(t, 5, got.NumRows())

	rd := got.Column(etdmodel.ReadingDateColumn)
	for i := 0; i < got.NumRows(); i++ {
		assert.Equal(t, t0.Add(time.Duration(i)*5*time.Minute), rd.Time(i))
	}
	gas := got.Column("Gasgebruik")
	assert.Equal(t, 1.0, gas.Float(0))
	assert.True(t, gas.IsNA(1)) // the 10:07 reading does not fit the grid
	assert.True(t, gas.IsNA(2))
	assert.True(t, gas.IsNA(3))
	assert.Equal(t, 3.0, gas.Float(4))
}

func TestEnsureIntervalsErrors(t *testing.T) {
	f := etdkit.NewFrame(2)
	require.NoError(t, f.SetColumn("x", etdkit.NewFloatSeries([]float64{1, 2})))
	m := NewMapper()
	_, err := m.EnsureIntervals(f)
	require.Error(t, err)

	f2 := etdkit.NewFrame(2)
	require.NoError(t, f2.SetColumn(etdmodel.ReadingDateColumn, etdkit.NewSeries(etdkit.Time, 2)))
	_, err = m.EnsureIntervals(f2)
	require.Error(t, err)
}

func TestFillDown(t *testing.T) {
	f := newTable(t, dateRange(t0, 5, 5*time.Minute), nil)
	s := etdkit.NewSeries(etdkit.Float, 5)
	s.SetFloat(1, 1)
	s.SetFloat(3, 2)
	require.NoError(t, f.SetColumn("ElektriciteitsgebruikBooster", s))

	allNA := etdkit.NewSeries(etdkit.Float, 5)
	require.NoError(t, f.SetColumn("ElektriciteitsgebruikBoilervat", allNA))

	m := NewMapper()
	got := m.FillDown(f)

	booster := got.Column("ElektriciteitsgebruikBooster")
	want := []float64{1, 1, 1, 2, 2}
	for i, w := range want {
		require.False(t, booster.IsNA(i))
		assert.Equal(t, w, booster.Float(i))
	}

	boiler := got.Column("ElektriciteitsgebruikBoilervat")
	for i := 0; i < 5; i++ {
		require.False(t, boiler.IsNA(i))
		assert.Equal(t, 0.0, boiler.Float(i))
	}
}

func TestOptionsApply(t *testing.T) {
	m := NewMapper(
		OptFreq(time.Minute),
		OptMaxGap(2*time.Hour),
		OptMinAvailable(0.5),
		OptDropUnvalidated(),
		OptIDColumn("HuisIdLeverancier"),
	)
	assert.Equal(t, time.Minute, m.Freq)
	assert.Equal(t, 2*time.Hour, m.MaxGap)
	assert.Equal(t, 0.5, m.MinAvailable)
	assert.True(t, m.DropUnvalidated)
	assert.Equal(t, "HuisIdLeverancier", m.IDColumn)
}
