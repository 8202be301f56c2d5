package validate

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
)

// YearAllowedJitter is the slack around a full year of records; roughly 5%
// of a year may be missing.
const YearAllowedJitter = 18

// DatasetFlag is one whole-dataset flag condition. Validate returns a
// single nullable bool for the household; a returned error means the flag
// could not be computed at all and the index stores NA.
type DatasetFlag struct {
	Name     string
	Validate func(f *etdkit.Frame) (etdkit.NullBool, error)
}

// DatasetFlags returns every dataset flag, in a stable order: the named
// validators first, then per cumulative column a counter flag and a Diff
// rollup flag.
func DatasetFlags(log *zap.Logger) ([]DatasetFlag, error) {
	if log == nil {
		log = zap.NewNop()
	}
	bounds, err := etdmodel.ThresholdMap()
	if err != nil {
		return nil, errors.Wrap(err, "loading thresholds")
	}

	flags := []DatasetFlag{
		{Name: "validate_monitoring_data_counts", Validate: validateMonitoringDataCounts},
		{Name: "validate_energiegebruik_warmteopwekker", Validate: validateEnergiegebruikWarmteopwekker(log)},
		{Name: "validate_approximately_one_year_of_records", Validate: validateApproximatelyOneYear},
		{Name: "validate_columns_exist", Validate: validateColumnsExist},
		{Name: "validate_no_readingdate_gap", Validate: validateNoReadingDateGap},
	}

	for _, col := range etdmodel.CumulativeColumns {
		col := col
		b, ok := bounds[col]
		if !ok {
			log.Warn("cumulative column has no thresholds entry, yearly bounds left open",
				zap.String("column", col))
		}
		flags = append(flags, DatasetFlag{
			Name: "validate_" + col,
			Validate: func(f *etdkit.Frame) (etdkit.NullBool, error) {
				return and3(validateNonDecreasing(f, col), validateRange(f, col, b)), nil
			},
		})
		flags = append(flags, DatasetFlag{
			Name:     "validate_" + col + "Diff",
			Validate: validateDiffRollup(col),
		})
	}
	return flags, nil
}

// and3 is the three-valued conjunction: a definite false wins over NA.
func and3(a, b etdkit.NullBool) etdkit.NullBool {
	if a.Valid && !a.Bool {
		return etdkit.NullFalse
	}
	if b.Valid && !b.Bool {
		return etdkit.NullFalse
	}
	if !a.Valid || !b.Valid {
		return etdkit.NullBool{}
	}
	return etdkit.NullTrue
}

// validateMonitoringDataCounts checks the row count of a year of 5-minute
// readings; an empty table is NA.
func validateMonitoringDataCounts(f *etdkit.Frame) (etdkit.NullBool, error) {
	if f.NumRows() == 0 {
		return etdkit.NullBool{}, nil
	}
	n := f.NumRows()
	if n >= 100000 && n <= 110000 {
		return etdkit.NullTrue, nil
	}
	return etdkit.NullFalse, nil
}

// validateApproximatelyOneYear checks that the reading dates span a year,
// give or take the allowed jitter.
func validateApproximatelyOneYear(f *etdkit.Frame) (etdkit.NullBool, error) {
	dates := f.Column(etdmodel.ReadingDateColumn)
	if dates == nil {
		return etdkit.NullBool{}, nil
	}
	var min, max time.Time
	seen := false
	for i := 0; i < dates.Len(); i++ {
		if dates.IsNA(i) {
			continue
		}
		t := dates.Time(i)
		if !seen || t.Before(min) {
			min = t
		}
		if !seen || t.After(max) {
			max = t
		}
		seen = true
	}
	if !seen {
		return etdkit.NullBool{}, nil
	}
	days := int(max.Sub(min).Hours() / 24)
	if days >= 365-YearAllowedJitter && days <= 365+YearAllowedJitter {
		return etdkit.NullTrue, nil
	}
	return etdkit.NullFalse, nil
}

// validateColumnsExist checks that every data-analysis column is present.
func validateColumnsExist(f *etdkit.Frame) (etdkit.NullBool, error) {
	for _, col := range etdmodel.DataAnalysisColumns {
		if !f.Has(col) {
			return etdkit.NullFalse, nil
		}
	}
	return etdkit.NullTrue, nil
}

// validateNoReadingDateGap checks that every consecutive reading follows the
// previous one by exactly 300 seconds. A missing date breaks the run.
func validateNoReadingDateGap(f *etdkit.Frame) (etdkit.NullBool, error) {
	dates := f.Column(etdmodel.ReadingDateColumn)
	if dates == nil {
		return etdkit.NullBool{}, nil
	}
	for i := 1; i < dates.Len(); i++ {
		if dates.IsNA(i) || dates.IsNA(i-1) {
			return etdkit.NullFalse, nil
		}
		if dates.Time(i).Sub(dates.Time(i-1)) != 300*time.Second {
			return etdkit.NullFalse, nil
		}
	}
	return etdkit.NullTrue, nil
}

// validateEnergiegebruikWarmteopwekker sums the heat-generator electricity
// columns per row and checks the yearly increase against [100, 20000] kWh.
func validateEnergiegebruikWarmteopwekker(log *zap.Logger) func(f *etdkit.Frame) (etdkit.NullBool, error) {
	cols := []string{
		"ElektriciteitsgebruikWarmtepomp",
		"ElektriciteitsgebruikBooster",
		"ElektriciteitsgebruikBoilervat",
	}
	return func(f *etdkit.Frame) (etdkit.NullBool, error) {
		for _, c := range cols {
			if !f.Has(c) {
				log.Warn("heat-generator column missing, cannot compute energy use",
					zap.String("column", c))
				return etdkit.NullBool{}, nil
			}
		}
		sum := etdkit.NewSeries(etdkit.Float, f.NumRows())
		for i := 0; i < f.NumRows(); i++ {
			v, ok := 0.0, true
			for _, c := range cols {
				s := f.Column(c)
				if s.IsNA(i) {
					ok = false
					break
				}
				v += s.Float(i)
			}
			if ok {
				sum.SetFloat(i, v)
			}
		}
		tmp := f.Copy()
		if err := tmp.SetColumn("EnergiegebruikWarmteopwekker", sum); err != nil {
			return etdkit.NullBool{}, err
		}
		b := etdmodel.Bounds{Min: 100, HasMin: true, Max: 20000, HasMax: true}
		return validateRange(tmp, "EnergiegebruikWarmteopwekker", b), nil
	}
}

// validateNonDecreasing checks that the consecutive deltas over the non-NA
// values of a cumulative column never drop. NA when the column is missing
// or has no values.
func validateNonDecreasing(f *etdkit.Frame, col string) etdkit.NullBool {
	s := f.Column(col)
	if s == nil {
		return etdkit.NullBool{}
	}
	prev, seen := 0.0, false
	any := false
	for i := 0; i < s.Len(); i++ {
		if s.IsNA(i) {
			continue
		}
		any = true
		v := s.Float(i)
		if seen && v < prev {
			return etdkit.NullFalse
		}
		prev, seen = v, true
	}
	if !any {
		return etdkit.NullBool{}
	}
	return etdkit.NullTrue
}

// validateRange checks that the increase of a column between its first and
// last value lies within bounds, over at least a jittered year of data. NA
// when the column is missing or empty.
func validateRange(f *etdkit.Frame, col string, b etdmodel.Bounds) etdkit.NullBool {
	s := f.Column(col)
	dates := f.Column(etdmodel.ReadingDateColumn)
	if s == nil || dates == nil {
		return etdkit.NullBool{}
	}
	var minDate, maxDate time.Time
	first, last := 0.0, 0.0
	seenDate, seenVal := false, false
	for i := 0; i < s.Len(); i++ {
		if s.IsNA(i) {
			continue
		}
		if !seenVal {
			first = s.Float(i)
		}
		last = s.Float(i)
		seenVal = true
		if dates.IsNA(i) {
			continue
		}
		t := dates.Time(i)
		if !seenDate || t.Before(minDate) {
			minDate = t
		}
		if !seenDate || t.After(maxDate) {
			maxDate = t
		}
		seenDate = true
	}
	if !seenVal || !seenDate {
		return etdkit.NullBool{}
	}
	days := int(maxDate.Sub(minDate).Hours() / 24)
	if days >= 365-YearAllowedJitter && b.Contains(last-first) {
		return etdkit.NullTrue
	}
	return etdkit.NullFalse
}

// validateDiffRollup checks that every row flag of the column's Diff is true
// or NA. The flag column must have been attached to the table first.
func validateDiffRollup(col string) func(f *etdkit.Frame) (etdkit.NullBool, error) {
	flagCol := "validate_" + col + "Diff"
	return func(f *etdkit.Frame) (etdkit.NullBool, error) {
		s := f.Column(flagCol)
		if s == nil {
			return etdkit.NullBool{}, errors.Errorf("no column %s in table", flagCol)
		}
		for i := 0; i < s.Len(); i++ {
			if !s.IsNA(i) && !s.Bool(i) {
				return etdkit.NullFalse, nil
			}
		}
		return etdkit.NullTrue, nil
	}
}
