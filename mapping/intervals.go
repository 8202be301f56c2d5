package mapping

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
)

// EnsureIntervals pads or reduces a household table to the mapper's cadence.
// When the row count already matches the span between the earliest and
// latest reading, the table is returned unchanged. Fewer rows than the span
// permits are padded with NA rows on the full date grid; more rows than the
// cadence permits are reduced to the grid, dropping what does not fit.
func (m *Mapper) EnsureIntervals(f *etdkit.Frame) (*etdkit.Frame, error) {
	dates := f.Column(etdmodel.ReadingDateColumn)
	if dates == nil {
		return nil, errors.Errorf("no %s column", etdmodel.ReadingDateColumn)
	}
	if dates.Kind() != etdkit.Time {
		return nil, errors.Errorf("%s is %s, not time", etdmodel.ReadingDateColumn, dates.Kind())
	}

	var earliest, latest time.Time
	seen := false
	for i := 0; i < dates.Len(); i++ {
		if dates.IsNA(i) {
			continue
		}
		t := dates.Time(i)
		if !seen || t.Before(earliest) {
			earliest = t
		}
		if !seen || t.After(latest) {
			latest = t
		}
		seen = true
	}
	if !seen {
		return nil, errors.Errorf("no valid %s values", etdmodel.ReadingDateColumn)
	}

	expected := int(latest.Sub(earliest)/m.Freq) + 1
	if expected == f.NumRows() {
		m.log.Info("expected number of records based on start and end date, not adding intervals",
			zap.Duration("freq", m.Freq))
		return f, nil
	}

	if expected > f.NumRows() {
		m.log.Info("adding intervals", zap.Duration("freq", m.Freq))
		merged := m.mergeOuter(f, dates, earliest, latest)
		if merged.NumRows() > expected {
			m.log.Error("more records than the interval permits, merging left to reduce records; check data source",
				zap.Duration("freq", m.Freq))
			return m.mergeLeft(f, dates, earliest, latest), nil
		}
		return merged, nil
	}

	m.log.Error("more records than the interval permits, merging left to reduce records; check data source",
		zap.Duration("freq", m.Freq))
	return m.mergeLeft(f, dates, earliest, latest), nil
}

// grid returns the complete run of reading dates at the mapper's cadence.
func (m *Mapper) grid(earliest, latest time.Time) []time.Time {
	var ts []time.Time
	for t := earliest; !t.After(latest); t = t.Add(m.Freq) {
		ts = append(ts, t)
	}
	return ts
}

// firstRowByDate indexes the first row of each distinct valid date.
func firstRowByDate(dates *etdkit.Series) map[time.Time]int {
	byDate := make(map[time.Time]int, dates.Len())
	for i := 0; i < dates.Len(); i++ {
		if dates.IsNA(i) {
			continue
		}
		t := dates.Time(i)
		if _, ok := byDate[t]; !ok {
			byDate[t] = i
		}
	}
	return byDate
}

// mergeLeft keeps exactly the grid dates, taking the first matching row for
// each and NA rows where the source has none.
func (m *Mapper) mergeLeft(f *etdkit.Frame, dates *etdkit.Series, earliest, latest time.Time) *etdkit.Frame {
	grid := m.grid(earliest, latest)
	byDate := firstRowByDate(dates)

	idx := make([]int, len(grid))
	for j, t := range grid {
		if i, ok := byDate[t]; ok {
			idx[j] = i
		} else {
			idx[j] = -1
		}
	}
	return m.applyRowIndex(f, grid, idx)
}

// mergeOuter keeps the grid dates plus any source dates that fall off the
// grid, in time order.
func (m *Mapper) mergeOuter(f *etdkit.Frame, dates *etdkit.Series, earliest, latest time.Time) *etdkit.Frame {
	grid := m.grid(earliest, latest)
	onGrid := make(map[time.Time]struct{}, len(grid))
	for _, t := range grid {
		onGrid[t] = struct{}{}
	}
	byDate := firstRowByDate(dates)

	type row struct {
		t   time.Time
		src int
	}
	rows := make([]row, 0, len(grid))
	for _, t := range grid {
		src := -1
		if i, ok := byDate[t]; ok {
			src = i
		}
		rows = append(rows, row{t: t, src: src})
	}
	for i := 0; i < dates.Len(); i++ {
		if dates.IsNA(i) {
			continue
		}
		if _, ok := onGrid[dates.Time(i)]; ok {
			continue
		}
		if byDate[dates.Time(i)] != i {
			continue // duplicate off-grid date
		}
		rows = append(rows, row{t: dates.Time(i), src: i})
	}
	// keep time order after appending off-grid rows
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].t.Before(rows[j-1].t); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}

	ts := make([]time.Time, len(rows))
	idx := make([]int, len(rows))
	for j, r := range rows {
		ts[j] = r.t
		idx[j] = r.src
	}
	return m.applyRowIndex(f, ts, idx)
}

// applyRowIndex builds the merged frame: the date column from ts, every
// other column pulled from the source rows in idx (-1 becomes NA).
func (m *Mapper) applyRowIndex(f *etdkit.Frame, ts []time.Time, idx []int) *etdkit.Frame {
	out := etdkit.NewFrame(len(ts))
	for _, col := range f.Columns() {
		if col == etdmodel.ReadingDateColumn {
			_ = out.SetColumn(col, etdkit.NewTimeSeries(ts))
			continue
		}
		_ = out.SetColumn(col, takeOrNA(f.Column(col), idx))
	}
	return out
}
