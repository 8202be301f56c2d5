package etdmodel

import (
	"embed"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//go:embed data/thresholds.csv data/etdmodel.csv
var dataFS embed.FS

// Threshold kinds as they appear in the VariabelType column.
const (
	KindCumulative = "cumulatief"
	KindFiveMinute = "5-minute"
	KindMomentary  = "momentaan"
)

// NATokens are the strings treated as missing values in reference tables and
// supplier files.
var NATokens = []string{"n.a.", "NA", "N/A", ""}

// IsNAToken reports whether a raw field denotes a missing value.
func IsNAToken(s string) bool {
	for _, t := range NATokens {
		if s == t {
			return true
		}
	}
	return false
}

// Threshold is one row of the bundled thresholds table. A missing bound
// (HasMin/HasMax false) means that side is unbounded.
type Threshold struct {
	Variable string
	Kind     string
	Unit     string
	Min      float64
	HasMin   bool
	Max      float64
	HasMax   bool
	Note     string
}

// Bounds is the Min/Max pair validators compare against.
type Bounds struct {
	Min    float64
	HasMin bool
	Max    float64
	HasMax bool
}

// Contains reports whether v lies within the bounds. A missing bound always
// passes.
func (b Bounds) Contains(v float64) bool {
	if b.HasMin && v < b.Min {
		return false
	}
	if b.HasMax && v > b.Max {
		return false
	}
	return true
}

// LoadThresholds parses the bundled thresholds table, in file order.
func LoadThresholds() ([]Threshold, error) {
	f, err := dataFS.Open("data/thresholds.csv")
	if err != nil {
		return nil, errors.Wrap(err, "opening bundled thresholds")
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading thresholds header")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range []string{"Variabele", "VariabelType", "Eenheid", "Min", "Max", "Toelichting"} {
		if _, ok := idx[col]; !ok {
			return nil, errors.Errorf("thresholds table misses column %s", col)
		}
	}

	var ts []Threshold
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading thresholds line %d", line)
		}
		t := Threshold{
			Variable: rec[idx["Variabele"]],
			Kind:     rec[idx["VariabelType"]],
			Unit:     rec[idx["Eenheid"]],
			Note:     rec[idx["Toelichting"]],
		}
		t.Min, t.HasMin, err = parseBound(rec[idx["Min"]])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: Min for %s", line, t.Variable)
		}
		t.Max, t.HasMax, err = parseBound(rec[idx["Max"]])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: Max for %s", line, t.Variable)
		}
		ts = append(ts, t)
	}
	return ts, nil
}

func parseBound(field string) (float64, bool, error) {
	field = strings.TrimSpace(field)
	if IsNAToken(field) {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "parsing bound %q", field)
	}
	return v, true, nil
}

// ThresholdMap returns the bundled thresholds keyed by variable name.
func ThresholdMap() (map[string]Bounds, error) {
	ts, err := LoadThresholds()
	if err != nil {
		return nil, err
	}
	m := make(map[string]Bounds, len(ts))
	for _, t := range ts {
		m[t.Variable] = Bounds{Min: t.Min, HasMin: t.HasMin, Max: t.Max, HasMax: t.HasMax}
	}
	return m, nil
}

// VariablesOfKind returns the threshold variables of the given kinds, in
// file order.
func VariablesOfKind(kinds ...string) ([]string, error) {
	ts, err := LoadThresholds()
	if err != nil {
		return nil, err
	}
	var vars []string
	for _, t := range ts {
		for _, k := range kinds {
			if t.Kind == k {
				vars = append(vars, t.Variable)
				break
			}
		}
	}
	return vars, nil
}
