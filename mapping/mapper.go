// Package mapping reconciles raw household tables against the ETD model:
// column order and completeness, fixed reading intervals, fill-down of
// sparse device columns, and the cumulative-counter diff engine.
package mapping

import (
	"time"

	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
)

// Defaults for the mapping knobs.
const (
	DefaultFreq         = 5 * time.Minute
	DefaultMaxGap       = time.Hour
	DefaultMinAvailable = 0.9
)

// DefaultFillDownColumns are the sparse device columns that report so
// infrequently that filling down is the only sensible imputation.
var DefaultFillDownColumns = []string{
	"ElektriciteitsgebruikBoilervat",
	"ElektriciteitsgebruikRadiator",
	"ElektriciteitsgebruikBooster",
}

// Mapper holds the knobs for mapping one supplier's tables. The zero value
// is not usable; get one from NewMapper.
type Mapper struct {
	// Freq is the cadence readings are padded to.
	Freq time.Duration
	// MaxGap is the largest tolerated gap between consecutive readings of a
	// cumulative column.
	MaxGap time.Duration
	// MinAvailable is the minimum fraction of rows a cumulative column must
	// cover after forward filling.
	MinAvailable float64
	// FillDownColumns are forward/backward-filled before diffing.
	FillDownColumns []string
	// DropUnvalidated drops a whole dataset whose cumulative columns fail
	// validation instead of keeping it with a warning.
	DropUnvalidated bool
	// IDColumn, when set, makes AddDiffColumns treat the frame as several
	// households and diff each group separately.
	IDColumn string

	log *zap.Logger
}

// Option configures a Mapper.
type Option func(m *Mapper)

// OptLogger sets the logger. Default is a nop logger.
func OptLogger(log *zap.Logger) Option {
	return func(m *Mapper) {
		m.log = log
	}
}

// OptFreq sets the reading cadence.
func OptFreq(freq time.Duration) Option {
	return func(m *Mapper) {
		m.Freq = freq
	}
}

// OptMaxGap sets the largest tolerated reading gap.
func OptMaxGap(gap time.Duration) Option {
	return func(m *Mapper) {
		m.MaxGap = gap
	}
}

// OptMinAvailable sets the required coverage fraction.
func OptMinAvailable(frac float64) Option {
	return func(m *Mapper) {
		m.MinAvailable = frac
	}
}

// OptDropUnvalidated makes the mapper drop datasets that fail cumulative
// validation.
func OptDropUnvalidated() Option {
	return func(m *Mapper) {
		m.DropUnvalidated = true
	}
}

// OptIDColumn makes AddDiffColumns group rows by the named column.
func OptIDColumn(name string) Option {
	return func(m *Mapper) {
		m.IDColumn = name
	}
}

// NewMapper returns a Mapper with the default knobs and the given options
// applied.
func NewMapper(opts ...Option) *Mapper {
	m := &Mapper{
		Freq:            DefaultFreq,
		MaxGap:          DefaultMaxGap,
		MinAvailable:    DefaultMinAvailable,
		FillDownColumns: DefaultFillDownColumns,
		log:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	return m
}

// Apply runs the full mapping chain on one household table: ensure
// intervals, rearrange to the model, fill down sparse devices, add diff
// columns. It returns nil when the dataset was dropped by validation.
func (m *Mapper) Apply(f *etdkit.Frame) (*etdkit.Frame, error) {
	f, err := m.EnsureIntervals(f)
	if err != nil {
		return nil, err
	}
	f, err = m.Rearrange(f, true)
	if err != nil {
		return nil, err
	}
	f = m.FillDown(f)
	return m.AddDiffColumns(f)
}

// takeOrNA builds a new series from src rows; index -1 yields NA.
func takeOrNA(s *etdkit.Series, idx []int) *etdkit.Series {
	out := etdkit.NewSeries(s.Kind(), len(idx))
	for j, i := range idx {
		if i < 0 || s.IsNA(i) {
			continue
		}
		switch s.Kind() {
		case etdkit.Float:
			out.SetFloat(j, s.Float(i))
		case etdkit.Bool:
			out.SetBool(j, s.Bool(i))
		case etdkit.String:
			out.SetStr(j, s.Str(i))
		case etdkit.Time:
			out.SetTime(j, s.Time(i))
		}
	}
	return out
}
