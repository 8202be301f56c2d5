package mapping

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
)

// CumulativeCheck is the outcome of validating the cumulative columns of one
// household table. Every field starts true and flips on the first offending
// column.
type CumulativeCheck struct {
	ColumnFound      bool
	MaxDeltaAllowed  bool
	NoNegativeDiff   bool
	NoUnexpectedZero bool
	EnoughValues     bool
}

// OK reports whether every check passed.
func (c CumulativeCheck) OK() bool {
	return c.ColumnFound && c.MaxDeltaAllowed && c.NoNegativeDiff && c.NoUnexpectedZero && c.EnoughValues
}

// Failing names the checks that failed.
func (c CumulativeCheck) Failing() []string {
	var fs []string
	if !c.ColumnFound {
		fs = append(fs, "column_found")
	}
	if !c.MaxDeltaAllowed {
		fs = append(fs, "max_delta_allowed")
	}
	if !c.NoNegativeDiff {
		fs = append(fs, "no_negative_diff")
	}
	if !c.NoUnexpectedZero {
		fs = append(fs, "no_unexpected_zero")
	}
	if !c.EnoughValues {
		fs = append(fs, "enough_values")
	}
	return fs
}

// round10 rounds to 10 decimals so float noise cannot fake a counter
// decrease.
func round10(v float64) float64 {
	return math.Round(v*1e10) / 1e10
}

// validRows returns the row indices where both the reading date and the
// column have values, in row order.
func validRows(dates, col *etdkit.Series) []int {
	var idx []int
	for i := 0; i < col.Len(); i++ {
		if dates.IsNA(i) || col.IsNA(i) {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// ValidateCumulative checks every cumulative column of a date-sorted
// household table for gaps, counter decreases, reset zero runs, and
// coverage. Findings are logged; the returned check summarizes them.
func (m *Mapper) ValidateCumulative(f *etdkit.Frame) CumulativeCheck {
	check := CumulativeCheck{
		ColumnFound:      true,
		MaxDeltaAllowed:  true,
		NoNegativeDiff:   true,
		NoUnexpectedZero: true,
		EnoughValues:     true,
	}
	dates := f.Column(etdmodel.ReadingDateColumn)
	if dates == nil {
		m.log.Error("column not found", zap.String("column", etdmodel.ReadingDateColumn))
		check.ColumnFound = false
		return check
	}

	for _, col := range etdmodel.CumulativeColumns {
		s := f.Column(col)
		if s == nil {
			m.log.Error("column not found", zap.String("column", col))
			check.ColumnFound = false
			continue
		}
		idx := validRows(dates, s)

		// gaps between consecutive readings
		var maxDelta time.Duration
		var maxGapStart time.Time
		for k := 1; k < len(idx); k++ {
			d := dates.Time(idx[k]).Sub(dates.Time(idx[k-1]))
			if d > maxDelta {
				maxDelta = d
				maxGapStart = dates.Time(idx[k-1])
			}
		}
		if maxDelta > m.MaxGap {
			m.log.Warn("gap in readings larger than allowed",
				zap.String("column", col),
				zap.Duration("gap", maxDelta),
				zap.Duration("allowed", m.MaxGap),
				zap.Time("start", maxGapStart),
				zap.Int64("start_unix", maxGapStart.Unix()))
			check.MaxDeltaAllowed = false
		}

		// counter decreases
		var negDates []time.Time
		for k := 1; k < len(idx); k++ {
			if round10(s.Float(idx[k])-s.Float(idx[k-1])) < 0 {
				negDates = append(negDates, dates.Time(idx[k]))
			}
		}
		if len(negDates) > 0 {
			m.log.Warn("decrease in subsequent cumulative values",
				zap.String("column", col),
				zap.Times("dates", negDates))
			check.NoNegativeDiff = false

			// zero values from the first decrease on are the signature of a
			// meter reset
			first := negDates[0]
			var zeroFrom, zeroTo time.Time
			for _, i := range idx {
				if s.Float(i) == 0 && !dates.Time(i).Before(first) {
					if zeroFrom.IsZero() {
						zeroFrom = dates.Time(i)
					}
					zeroTo = dates.Time(i)
				}
			}
			if !zeroFrom.IsZero() {
				m.log.Warn("unexpected zero values in cumulative values, they will be removed",
					zap.String("column", col),
					zap.Time("from", zeroFrom),
					zap.Time("to", zeroTo))
				check.NoUnexpectedZero = false
			}
		}

		// coverage after forward fill
		covered, have := 0, false
		for i := 0; i < s.Len(); i++ {
			if !s.IsNA(i) {
				have = true
			}
			if have {
				covered++
			}
		}
		if f.NumRows() > 0 && float64(covered)/float64(f.NumRows()) < m.MinAvailable {
			m.log.Warn("column has too few values",
				zap.String("column", col),
				zap.Float64("available", float64(covered)/float64(f.NumRows())),
				zap.Float64("required", m.MinAvailable))
			check.EnoughValues = false
		}
	}
	return check
}

// AddDiffColumns sorts the table by reading date, validates the cumulative
// columns, and appends a Diff column per cumulative column. Counter
// decreases get the reset correction before the final diff is computed. The
// first row of every Diff column is 0. When the mapper's IDColumn is set the
// table is treated as several households and each group is diffed
// separately. Returns nil when validation failed and DropUnvalidated is set.
func (m *Mapper) AddDiffColumns(f *etdkit.Frame) (*etdkit.Frame, error) {
	if m.IDColumn != "" && f.Has(m.IDColumn) {
		return m.addDiffGrouped(f)
	}
	return m.addDiff(f)
}

func (m *Mapper) addDiffGrouped(f *etdkit.Frame) (*etdkit.Frame, error) {
	ids := f.Column(m.IDColumn)
	order := make([]string, 0)
	groups := make(map[string][]int)
	for i := 0; i < ids.Len(); i++ {
		key := ""
		if !ids.IsNA(i) {
			key = ids.Str(i)
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	parts := make([]*etdkit.Frame, 0, len(order))
	for _, key := range order {
		part, err := m.addDiff(f.Take(groups[key]))
		if err != nil {
			return nil, err
		}
		if part == nil {
			continue // dropped by validation
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return etdkit.Concat(parts...)
}

func (m *Mapper) addDiff(f *etdkit.Frame) (*etdkit.Frame, error) {
	f = f.Copy()
	if err := f.SortByTime(etdmodel.ReadingDateColumn); err != nil {
		return nil, err
	}

	check := m.ValidateCumulative(f)
	if !check.OK() {
		if m.DropUnvalidated {
			m.log.Error("cumulative columns did not pass validation, dropping data",
				zap.Strings("failed", check.Failing()))
			return nil, nil
		}
		m.log.Warn("cumulative columns did not pass validation, keeping data",
			zap.Strings("failed", check.Failing()))
	}

	dates := f.Column(etdmodel.ReadingDateColumn)
	for _, col := range etdmodel.CumulativeColumns {
		s := f.Column(col)
		if s == nil {
			m.log.Warn("cumulative column not found, no Diff column created",
				zap.String("column", col))
			continue
		}
		m.log.Info("calculating diff", zap.String("column", col))
		diff := diffSeries(s)

		if hasNegative(diffNoGap(dates, s)) {
			m.correctResets(f, col, diff)

			m.log.Info("re-calculating diff after corrections", zap.String("column", col))
			s = f.Column(col)
			diff = diffSeries(s)
			if hasNegative(diff) {
				m.log.Error("removed zeros but diff still has negative values, check data and consider removing",
					zap.String("column", col))
			}
		}
		if err := f.SetColumn(etdmodel.DiffColumn(col), diff); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// diffSeries is the consecutive row delta with NA propagation; the first
// row is forced to 0.
func diffSeries(s *etdkit.Series) *etdkit.Series {
	d := etdkit.NewSeries(etdkit.Float, s.Len())
	for i := 1; i < s.Len(); i++ {
		if s.IsNA(i) || s.IsNA(i-1) {
			continue
		}
		d.SetFloat(i, round10(s.Float(i)-s.Float(i-1)))
	}
	if d.Len() > 0 {
		d.SetFloat(0, 0)
	}
	return d
}

// gapDelta is one delta of the NA-skipping subsequence of a cumulative
// column.
type gapDelta struct {
	row  int // frame row of the later reading
	date time.Time
	d    float64
}

// diffNoGap computes deltas over the non-NA subsequence, skipping gaps.
func diffNoGap(dates, s *etdkit.Series) []gapDelta {
	idx := validRows(dates, s)
	ds := make([]gapDelta, 0, len(idx))
	for k := 1; k < len(idx); k++ {
		ds = append(ds, gapDelta{
			row:  idx[k],
			date: dates.Time(idx[k]),
			d:    round10(s.Float(idx[k]) - s.Float(idx[k-1])),
		})
	}
	return ds
}

func hasNegative(v interface{}) bool {
	switch vv := v.(type) {
	case *etdkit.Series:
		for i := 0; i < vv.Len(); i++ {
			if !vv.IsNA(i) && vv.Float(i) < 0 {
				return true
			}
		}
	case []gapDelta:
		for _, g := range vv {
			if g.d < 0 {
				return true
			}
		}
	}
	return false
}

// correctResets removes the readings a meter reset corrupted. For every
// counter decrease, the next non-zero delta decides the treatment:
//   - it compensates the drop: the span up to it is a zero run, NA it out;
//   - it is negative too: the whole span is corrupt, NA it out;
//   - it is a genuine increase: only the single dropped reading goes, and
//     only when the plain diff at that date is itself negative;
//   - there is none: everything from the drop on goes.
//
// diff is the pre-correction Diff column, consulted for the single-drop
// case.
func (m *Mapper) correctResets(f *etdkit.Frame, col string, diff *etdkit.Series) {
	dates := f.Column(etdmodel.ReadingDateColumn)
	s := f.Column(col)
	ds := diffNoGap(dates, s)

	for k, g := range ds {
		if g.d >= 0 {
			continue
		}
		next := -1
		for k2 := k + 1; k2 < len(ds); k2++ {
			if ds[k2].d != 0 {
				next = k2
				break
			}
		}
		if next < 0 {
			naOutSpan(dates, s, g.date, time.Time{})
			m.log.Error("removing all values after date, no subsequent increases after the negative diff",
				zap.String("column", col),
				zap.Time("date", g.date))
			continue
		}
		nv, nvDate := ds[next].d, ds[next].date
		switch {
		case nv >= -g.d:
			m.log.Info("removing unexpected zeros",
				zap.String("column", col),
				zap.Time("from", g.date),
				zap.Time("to", nvDate))
			naOutSpan(dates, s, g.date, nvDate)
		case nv < 0:
			m.log.Error("two negative diffs one after the other, removing all these values",
				zap.String("column", col),
				zap.Time("from", g.date),
				zap.Time("to", nvDate))
			naOutSpan(dates, s, g.date, nvDate)
		default:
			if !diff.IsNA(g.row) && diff.Float(g.row) < 0 {
				m.log.Info("negative gap jump, removing single cumulative value",
					zap.String("column", col),
					zap.Time("date", g.date))
				naOutAt(dates, s, g.date)
			} else {
				m.log.Info("negative gap jump, diff is not negative, not removing any values",
					zap.String("column", col),
					zap.Time("date", g.date))
			}
		}
	}
}

// naOutSpan NAs the column for rows with from <= date < to. A zero to means
// everything from from on.
func naOutSpan(dates, s *etdkit.Series, from, to time.Time) {
	for i := 0; i < s.Len(); i++ {
		if dates.IsNA(i) {
			continue
		}
		t := dates.Time(i)
		if t.Before(from) {
			continue
		}
		if !to.IsZero() && !t.Before(to) {
			continue
		}
		s.SetNA(i)
	}
}

// naOutAt NAs the column for rows with exactly the given date.
func naOutAt(dates, s *etdkit.Series, at time.Time) {
	for i := 0; i < s.Len(); i++ {
		if !dates.IsNA(i) && dates.Time(i).Equal(at) {
			s.SetNA(i)
		}
	}
}
