// Package validate holds the named flag conditions run against mapped
// household tables: record flags yielding a nullable bool per row, and
// dataset flags yielding a single nullable bool per household. Flag names
// double as column names in the household tables and the index.
package validate

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
)

// RecordFlag is one per-row flag condition. Validate returns a bool series
// with one entry per frame row, NA where the flag cannot be decided.
type RecordFlag struct {
	Name     string
	Validate func(f *etdkit.Frame) (*etdkit.Series, error)
}

// RecordFlags returns every record flag, in a stable order: the named
// validators first, then a threshold flag per 5-minute and momentaan
// variable, then an outlier flag per cumulative column.
func RecordFlags(log *zap.Logger) ([]RecordFlag, error) {
	if log == nil {
		log = zap.NewNop()
	}
	bounds, err := etdmodel.ThresholdMap()
	if err != nil {
		return nil, errors.Wrap(err, "loading thresholds")
	}

	flags := []RecordFlag{
		{Name: "validate_reading_date_uniek", Validate: validateReadingDateUniek(log)},
		{Name: "validate_300sec", Validate: validate300Sec(log)},
		{Name: "validate_elektriciteitgebruik", Validate: validateElektriciteitgebruik(log)},
		{Name: "validate_warmteproductie", Validate: validateWarmteproductie(log)},
		{Name: "validate_thresholds_combined", Validate: validateThresholdsCombined(bounds)},
	}

	vars, err := etdmodel.VariablesOfKind(etdmodel.KindFiveMinute, etdmodel.KindMomentary)
	if err != nil {
		return nil, err
	}
	for _, v := range vars {
		b, ok := bounds[v]
		if !ok {
			continue
		}
		v := v
		flags = append(flags, RecordFlag{
			Name: "validate_" + v,
			Validate: func(f *etdkit.Frame) (*etdkit.Series, error) {
				return validateColumn(log, f, []string{v}, func(f *etdkit.Frame, i int) bool {
					return b.Contains(f.Column(v).Float(i))
				}), nil
			},
		})
	}

	for _, col := range etdmodel.CumulativeColumns {
		col := col
		flags = append(flags, RecordFlag{
			Name:     "validate_" + col + "Diff_outliers",
			Validate: validateDiffOutliers(log, etdmodel.DiffColumn(col)),
		})
	}
	return flags, nil
}

// validateColumn is the shared row-flag shape: rows where every named
// column has a value get the condition result, every other row gets NA. A
// missing column yields an all-NA series and a warning.
func validateColumn(log *zap.Logger, f *etdkit.Frame, cols []string, cond func(f *etdkit.Frame, i int) bool) *etdkit.Series {
	out := etdkit.NewSeries(etdkit.Bool, f.NumRows())
	for _, c := range cols {
		if !f.Has(c) {
			log.Warn("validating columns, but at least one is not in the table",
				zap.Strings("columns", cols), zap.String("missing", c))
			return out
		}
	}
	for i := 0; i < f.NumRows(); i++ {
		allValid := true
		for _, c := range cols {
			if f.Column(c).IsNA(i) {
				allValid = false
				break
			}
		}
		if allValid {
			out.SetBool(i, cond(f, i))
		}
	}
	return out
}

// validateReadingDateUniek flags the first occurrence of each reading date
// true and every repeat false.
func validateReadingDateUniek(log *zap.Logger) func(*etdkit.Frame) (*etdkit.Series, error) {
	return func(f *etdkit.Frame) (*etdkit.Series, error) {
		dates := f.Column(etdmodel.ReadingDateColumn)
		out := etdkit.NewSeries(etdkit.Bool, f.NumRows())
		if dates == nil {
			log.Warn("validating columns, but at least one is not in the table",
				zap.Strings("columns", []string{etdmodel.ReadingDateColumn}))
			return out, nil
		}
		seen := make(map[time.Time]struct{}, dates.Len())
		seenNA := false
		for i := 0; i < dates.Len(); i++ {
			if dates.IsNA(i) {
				out.SetBool(i, !seenNA)
				seenNA = true
				continue
			}
			t := dates.Time(i)
			_, dup := seen[t]
			out.SetBool(i, !dup)
			seen[t] = struct{}{}
		}
		return out, nil
	}
}

// validate300Sec flags rows whose reading date follows the previous one by
// exactly 300 seconds. The first row and rows around a missing date are NA.
// Tables arrive date-sorted from the mapper.
func validate300Sec(log *zap.Logger) func(*etdkit.Frame) (*etdkit.Series, error) {
	return func(f *etdkit.Frame) (*etdkit.Series, error) {
		dates := f.Column(etdmodel.ReadingDateColumn)
		out := etdkit.NewSeries(etdkit.Bool, f.NumRows())
		if dates == nil {
			log.Warn("validating columns, but at least one is not in the table",
				zap.Strings("columns", []string{etdmodel.ReadingDateColumn}))
			return out, nil
		}
		for i := 1; i < dates.Len(); i++ {
			if dates.IsNA(i) || dates.IsNA(i-1) {
				continue
			}
			d := dates.Time(i).Sub(dates.Time(i - 1))
			if d < 0 {
				d = -d
			}
			out.SetBool(i, d == 300*time.Second)
		}
		return out, nil
	}
}

// validateElektriciteitgebruik flags rows where household electricity use
// does not exceed solar yield plus net use.
func validateElektriciteitgebruik(log *zap.Logger) func(*etdkit.Frame) (*etdkit.Series, error) {
	cols := []string{
		"ElektriciteitsgebruikHuishoudelijk",
		"Zon-opwekTotaal",
		"ElektriciteitNetgebruikHoog",
		"ElektriciteitNetgebruikLaag",
	}
	return func(f *etdkit.Frame) (*etdkit.Series, error) {
		return validateColumn(log, f, cols, func(f *etdkit.Frame, i int) bool {
			return f.Column(cols[0]).Float(i) <=
				f.Column(cols[1]).Float(i)+f.Column(cols[2]).Float(i)+f.Column(cols[3]).Float(i)
		}), nil
	}
}

// validateWarmteproductie flags rows where heat-pump production covers the
// hot-water production.
func validateWarmteproductie(log *zap.Logger) func(*etdkit.Frame) (*etdkit.Series, error) {
	cols := []string{"WarmteproductieWarmtepomp", "WarmteproductieWarmTapwater"}
	return func(f *etdkit.Frame) (*etdkit.Series, error) {
		return validateColumn(log, f, cols, func(f *etdkit.Frame, i int) bool {
			return f.Column(cols[0]).Float(i) >= f.Column(cols[1]).Float(i)
		}), nil
	}
}

// validateThresholdsCombined flags rows where at least one threshold-covered
// column is inside its bounds. Rows where every covered column is NA are NA;
// a covered NA value never counts as inside bounds.
func validateThresholdsCombined(bounds map[string]etdmodel.Bounds) func(*etdkit.Frame) (*etdkit.Series, error) {
	return func(f *etdkit.Frame) (*etdkit.Series, error) {
		var cols []string
		for _, c := range f.Columns() {
			if _, ok := bounds[c]; ok {
				cols = append(cols, c)
			}
		}
		out := etdkit.NewSeries(etdkit.Bool, f.NumRows())
		if len(cols) == 0 {
			return out, nil
		}
		for i := 0; i < f.NumRows(); i++ {
			anyValue, anyInside := false, false
			for _, c := range cols {
				s := f.Column(c)
				if s.IsNA(i) {
					continue
				}
				anyValue = true
				if bounds[c].Contains(s.Float(i)) {
					anyInside = true
					break
				}
			}
			if anyValue {
				out.SetBool(i, anyInside)
			}
		}
		return out, nil
	}
}

// validateDiffOutliers flags the positive values of a Diff column with the
// IQR outlier test. Bounds come from the positive values only; zero,
// negative, and NA diffs stay NA.
func validateDiffOutliers(log *zap.Logger, diffCol string) func(*etdkit.Frame) (*etdkit.Series, error) {
	return func(f *etdkit.Frame) (*etdkit.Series, error) {
		out := etdkit.NewSeries(etdkit.Bool, f.NumRows())
		s := f.Column(diffCol)
		if s == nil {
			log.Warn("validating columns, but at least one is not in the table",
				zap.Strings("columns", []string{diffCol}))
			return out, nil
		}
		var pos []float64
		for i := 0; i < s.Len(); i++ {
			if !s.IsNA(i) && s.Float(i) > 0 {
				pos = append(pos, s.Float(i))
			}
		}
		if len(pos) == 0 {
			return out, nil
		}
		sort.Float64s(pos)
		q1 := quantile(pos, 0.25)
		q3 := quantile(pos, 0.75)
		iqr := q3 - q1
		lower, upper := q1-1.5*iqr, q3+1.5*iqr
		for i := 0; i < s.Len(); i++ {
			if s.IsNA(i) || s.Float(i) <= 0 {
				continue
			}
			v := s.Float(i)
			out.SetBool(i, v >= lower && v <= upper)
		}
		return out, nil
	}
}

// quantile interpolates linearly between the order statistics of a sorted
// sample.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
