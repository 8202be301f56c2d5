// Package csvsource reads supplier CSV exports into datasets and writes
// mapped household tables back out as CSV.
package csvsource

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
)

// DefaultTimeLayouts are tried in order when parsing reading dates.
var DefaultTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
}

// Source reads each raw supplier file as one household dataset. Columns the
// model knows are coerced to their model type, everything else stays a
// string column.
type Source struct {
	rs      etdkit.RawSource
	layouts []string
	log     *zap.Logger
}

// Option configures a Source.
type Option func(s *Source)

// OptLogger sets the logger. Default is a nop logger.
func OptLogger(log *zap.Logger) Option {
	return func(s *Source) {
		s.log = log
	}
}

// OptTimeLayouts replaces the reading-date layouts tried during parsing.
func OptTimeLayouts(layouts []string) Option {
	return func(s *Source) {
		s.layouts = layouts
	}
}

// NewSource returns a Source over the raw files of rs.
func NewSource(rs etdkit.RawSource, opts ...Option) *Source {
	s := &Source{
		rs:      rs,
		layouts: DefaultTimeLayouts,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dataset reads the next raw file into a Dataset. io.EOF when the raw
// source is exhausted.
func (s *Source) Dataset() (*etdkit.Dataset, error) {
	rdr, err := s.rs.NextReader()
	if err != nil {
		return nil, err
	}
	defer rdr.Close()

	cr := csv.NewReader(rdr)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Errorf("file %s is empty", rdr.Name())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading header of %s", rdr.Name())
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := validateHeader(header); err != nil {
		return nil, errors.Wrapf(err, "validating header of %s", rdr.Name())
	}

	var rows [][]string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s line %d", rdr.Name(), line)
		}
		if len(rec) < len(header) {
			return nil, errors.Errorf("%s line %d has %d fields, header has %d", rdr.Name(), line, len(rec), len(header))
		}
		rows = append(rows, rec)
	}

	f := etdkit.NewFrame(len(rows))
	for j, col := range header {
		series, err := s.parseColumn(col, j, rows)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing column %s of %s", col, rdr.Name())
		}
		if err := f.SetColumn(col, series); err != nil {
			return nil, err
		}
	}

	ds := &etdkit.Dataset{
		HuisIDLeverancier:    firstValue(f, "HuisIdLeverancier"),
		ProjectIDLeverancier: firstValue(f, "ProjectIdLeverancier"),
		File:                 rdr.Name(),
		Frame:                f,
	}
	if ds.HuisIDLeverancier == "" {
		ds.HuisIDLeverancier = fileStem(rdr.Name())
	}
	return ds, nil
}

// parseColumn builds one series from a raw column: model columns get their
// model type, unknown columns stay strings. Unparseable values become NA
// and are counted in a single warning.
func (s *Source) parseColumn(col string, j int, rows [][]string) (*etdkit.Series, error) {
	kind, known := etdmodel.ColumnKind(col)
	if !known {
		out := etdkit.NewSeries(etdkit.String, len(rows))
		for i, rec := range rows {
			v := strings.TrimSpace(rec[j])
			if etdmodel.IsNAToken(v) {
				continue
			}
			out.SetStr(i, v)
		}
		return out, nil
	}

	out := etdkit.NewSeries(kind, len(rows))
	bad := 0
	for i, rec := range rows {
		v := strings.TrimSpace(rec[j])
		if etdmodel.IsNAToken(v) {
			continue
		}
		switch kind {
		case etdkit.Time:
			t, ok := s.parseTime(v)
			if !ok {
				bad++
				continue
			}
			out.SetTime(i, t)
		case etdkit.Float:
			fv, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
			if err != nil {
				bad++
				continue
			}
			out.SetFloat(i, fv)
		}
	}
	if bad > 0 {
		s.log.Warn("unparseable values in column set to NA",
			zap.String("column", col), zap.Int("count", bad))
	}
	return out, nil
}

func (s *Source) parseTime(v string) (time.Time, bool) {
	for _, layout := range s.layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func validateHeader(header []string) error {
	fields := make(map[string]int)
	for i, h := range header {
		if h == "" {
			return errors.Errorf("header contains empty string at %d: %v", i, header)
		}
		if pos, exists := fields[h]; exists {
			return errors.Errorf("%s appeared at both %d and %d in header", h, pos, i)
		}
		fields[h] = i
	}
	return nil
}

// firstValue returns the first non-NA value of a string column, or "".
func firstValue(f *etdkit.Frame, col string) string {
	s := f.Column(col)
	if s == nil || s.Kind() != etdkit.String {
		return ""
	}
	for i := 0; i < s.Len(); i++ {
		if !s.IsNA(i) {
			return s.Str(i)
		}
	}
	return ""
}

// fileStem strips the directory and extension off a file name.
func fileStem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
