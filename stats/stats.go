// Package stats renders per-column descriptive statistics of a household
// table, for a quick look at what a supplier delivered.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/energietransitie/etdkit"
)

// ColumnStats holds the summary of one column. Which fields carry a value
// depends on the column kind.
type ColumnStats struct {
	Name  string
	Kind  etdkit.Kind
	Count int
	NA    int

	// float columns
	Min, Max, Mean, Std float64
	Q1, Median, Q3      float64

	// time columns
	First, Last time.Time
	Distinct    int

	// bool columns
	True, False int
}

// Describe summarizes every column of a frame, in column order.
func Describe(f *etdkit.Frame) []ColumnStats {
	out := make([]ColumnStats, 0, f.NumCols())
	for _, name := range f.Columns() {
		s := f.Column(name)
		cs := ColumnStats{
			Name:  name,
			Kind:  s.Kind(),
			Count: s.CountValid(),
			NA:    s.Len() - s.CountValid(),
		}
		switch s.Kind() {
		case etdkit.Float:
			describeFloat(s, &cs)
		case etdkit.Time:
			describeTime(s, &cs)
		case etdkit.Bool:
			for i := 0; i < s.Len(); i++ {
				if s.IsNA(i) {
					continue
				}
				if s.Bool(i) {
					cs.True++
				} else {
					cs.False++
				}
			}
		}
		out = append(out, cs)
	}
	return out
}

func describeFloat(s *etdkit.Series, cs *ColumnStats) {
	var vals []float64
	for i := 0; i < s.Len(); i++ {
		if !s.IsNA(i) {
			vals = append(vals, s.Float(i))
		}
	}
	if len(vals) == 0 {
		return
	}
	sort.Float64s(vals)
	cs.Min = vals[0]
	cs.Max = vals[len(vals)-1]

	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	cs.Mean = sum / float64(len(vals))
	if len(vals) > 1 {
		ss := 0.0
		for _, v := range vals {
			d := v - cs.Mean
			ss += d * d
		}
		cs.Std = math.Sqrt(ss / float64(len(vals)-1))
	}
	cs.Q1 = quantile(vals, 0.25)
	cs.Median = quantile(vals, 0.5)
	cs.Q3 = quantile(vals, 0.75)
}

func describeTime(s *etdkit.Series, cs *ColumnStats) {
	seen := make(map[time.Time]struct{})
	first := true
	for i := 0; i < s.Len(); i++ {
		if s.IsNA(i) {
			continue
		}
		t := s.Time(i)
		seen[t] = struct{}{}
		if first || t.Before(cs.First) {
			cs.First = t
		}
		if first || t.After(cs.Last) {
			cs.Last = t
		}
		first = false
	}
	cs.Distinct = len(seen)
}

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

// Render writes the summaries as an aligned text table.
func Render(w io.Writer, stats []ColumnStats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "column\ttype\tcount\tna\tmin\tq1\tmedian\tq3\tmax\tmean\tstd")
	for _, cs := range stats {
		switch cs.Kind {
		case etdkit.Float:
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				cs.Name, cs.Kind, cs.Count, cs.NA,
				num(cs.Min, cs.Count), num(cs.Q1, cs.Count), num(cs.Median, cs.Count),
				num(cs.Q3, cs.Count), num(cs.Max, cs.Count), num(cs.Mean, cs.Count), num(cs.Std, cs.Count))
		case etdkit.Time:
			span := ""
			if cs.Count > 0 {
				span = fmt.Sprintf("%s .. %s (%d distinct)",
					cs.First.Format("2006-01-02 15:04:05"), cs.Last.Format("2006-01-02 15:04:05"), cs.Distinct)
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t\t\t\t\t\t\n", cs.Name, cs.Kind, cs.Count, cs.NA, span)
		case etdkit.Bool:
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\ttrue=%d false=%d\t\t\t\t\t\t\n",
				cs.Name, cs.Kind, cs.Count, cs.NA, cs.True, cs.False)
		default:
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t\t\t\t\t\t\t\n", cs.Name, cs.Kind, cs.Count, cs.NA)
		}
	}
	return errors.Wrap(tw.Flush(), "flushing stats table")
}

func num(v float64, count int) string {
	if count == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
