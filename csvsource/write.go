package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
)

// TimeLayout is the layout mapped tables are written with.
const TimeLayout = "2006-01-02 15:04:05"

// WriteFrame writes a frame as CSV: one header row, NA values as empty
// fields, bools as True/False.
func WriteFrame(w io.Writer, f *etdkit.Frame) error {
	cw := csv.NewWriter(w)
	cols := f.Columns()
	if err := cw.Write(cols); err != nil {
		return errors.Wrap(err, "writing header")
	}
	rec := make([]string, len(cols))
	for i := 0; i < f.NumRows(); i++ {
		for j, col := range cols {
			rec[j] = formatValue(f.Column(col), i)
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "writing row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

func formatValue(s *etdkit.Series, i int) string {
	if s.IsNA(i) {
		return ""
	}
	switch s.Kind() {
	case etdkit.Float:
		return strconv.FormatFloat(s.Float(i), 'g', -1, 64)
	case etdkit.Bool:
		if s.Bool(i) {
			return "True"
		}
		return "False"
	case etdkit.Time:
		return s.Time(i).Format(TimeLayout)
	default:
		return s.Str(i)
	}
}

// TableDir writes mapped household tables into a directory, one CSV per
// household.
type TableDir struct {
	Dir string
}

// Write stores one household's mapped table as household_<id>_table.csv.
func (t TableDir) Write(huisIDBSV int64, f *etdkit.Frame) error {
	if err := os.MkdirAll(t.Dir, 0755); err != nil {
		return errors.Wrap(err, "making mapped directory")
	}
	name := filepath.Join(t.Dir, fmt.Sprintf("household_%d_table.csv", huisIDBSV))
	file, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "creating %s", name)
	}
	if err := WriteFrame(file, f); err != nil {
		file.Close()
		return errors.Wrapf(err, "writing %s", name)
	}
	return errors.Wrapf(file.Close(), "closing %s", name)
}

// ReadStringFrame reads a CSV file into a frame of string columns, NA
// tokens as NA. Metadata files are read this way.
func ReadStringFrame(path string) (*etdkit.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close()

	cr := csv.NewReader(file)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Errorf("file %s is empty", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading header of %s", path)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := validateHeader(header); err != nil {
		return nil, errors.Wrapf(err, "validating header of %s", path)
	}

	var rows [][]string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s line %d", path, line)
		}
		if len(rec) < len(header) {
			return nil, errors.Errorf("%s line %d has %d fields, header has %d", path, line, len(rec), len(header))
		}
		rows = append(rows, rec)
	}

	f := etdkit.NewFrame(len(rows))
	for j, col := range header {
		s := etdkit.NewSeries(etdkit.String, len(rows))
		for i, rec := range rows {
			v := strings.TrimSpace(rec[j])
			if etdmodel.IsNAToken(v) {
				continue
			}
			s.SetStr(i, v)
		}
		if err := f.SetColumn(col, s); err != nil {
			return nil, err
		}
	}
	return f, nil
}
