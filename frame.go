package etdkit

import (
	"sort"

	"github.com/pkg/errors"
)

// Frame is an ordered set of equally-long named series. Column order is
// significant: the ETD model prescribes it and rearranging is part of the
// mapping work.
type Frame struct {
	nrows int
	names []string
	cols  map[string]*Series
}

// NewFrame returns an empty frame with the given row count.
func NewFrame(nrows int) *Frame {
	return &Frame{nrows: nrows, cols: make(map[string]*Series)}
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return f.nrows }

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.names) }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.names...)
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns the named series, or nil.
func (f *Frame) Column(name string) *Series { return f.cols[name] }

// SetColumn adds or replaces the named column. New columns go at the end.
func (f *Frame) SetColumn(name string, s *Series) error {
	if s.Len() != f.nrows {
		return errors.Errorf("column %s has %d rows, frame has %d", name, s.Len(), f.nrows)
	}
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = s
	return nil
}

// Drop removes the named column if present.
func (f *Frame) Drop(name string) {
	if _, ok := f.cols[name]; !ok {
		return
	}
	delete(f.cols, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i], f.names[i+1:]...)
			break
		}
	}
}

// Reorder sets the column order. names must be a permutation of the current
// columns.
func (f *Frame) Reorder(names []string) error {
	if len(names) != len(f.names) {
		return errors.Errorf("reorder: %d names for %d columns", len(names), len(f.names))
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := f.cols[n]; !ok {
			return errors.Errorf("reorder: no column %s", n)
		}
		if _, dup := seen[n]; dup {
			return errors.Errorf("reorder: column %s repeated", n)
		}
		seen[n] = struct{}{}
	}
	f.names = append([]string(nil), names...)
	return nil
}

// Take returns a new frame with the rows at idx, in order.
func (f *Frame) Take(idx []int) *Frame {
	nf := NewFrame(len(idx))
	for _, name := range f.names {
		_ = nf.SetColumn(name, f.cols[name].Take(idx))
	}
	return nf
}

// Copy returns a deep copy.
func (f *Frame) Copy() *Frame {
	nf := NewFrame(f.nrows)
	for _, name := range f.names {
		_ = nf.SetColumn(name, f.cols[name].Copy())
	}
	return nf
}

// Concat stacks frames vertically. Every frame must carry the same columns
// in the same order with the same kinds.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return NewFrame(0), nil
	}
	first := frames[0]
	total := 0
	for _, f := range frames {
		if len(f.names) != len(first.names) {
			return nil, errors.Errorf("concat: %d columns vs %d", len(f.names), len(first.names))
		}
		for i, n := range f.names {
			if n != first.names[i] {
				return nil, errors.Errorf("concat: column %s vs %s at position %d", n, first.names[i], i)
			}
			if f.cols[n].Kind() != first.cols[n].Kind() {
				return nil, errors.Errorf("concat: column %s is %s vs %s", n, f.cols[n].Kind(), first.cols[n].Kind())
			}
		}
		total += f.nrows
	}
	out := NewFrame(total)
	for _, name := range first.names {
		s := NewSeries(first.cols[name].Kind(), total)
		off := 0
		for _, f := range frames {
			src := f.cols[name]
			for i := 0; i < src.Len(); i++ {
				if src.IsNA(i) {
					continue
				}
				switch src.Kind() {
				case Float:
					s.SetFloat(off+i, src.Float(i))
				case Bool:
					s.SetBool(off+i, src.Bool(i))
				case String:
					s.SetStr(off+i, src.Str(i))
				case Time:
					s.SetTime(off+i, src.Time(i))
				}
			}
			off += src.Len()
		}
		if err := out.SetColumn(name, s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SortByTime stably sorts the rows ascending by the named time column, NA
// rows last. Sorting happens in place.
func (f *Frame) SortByTime(name string) error {
	s := f.cols[name]
	if s == nil {
		return errors.Errorf("no column %s to sort by", name)
	}
	if s.Kind() != Time {
		return errors.Errorf("column %s is %s, not time", name, s.Kind())
	}
	idx := make([]int, f.nrows)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if s.IsNA(ia) {
			return false
		}
		if s.IsNA(ib) {
			return true
		}
		return s.Time(ia).Before(s.Time(ib))
	})
	sorted := false
	for i, j := range idx {
		if i != j {
			sorted = true
			break
		}
	}
	if !sorted {
		return nil
	}
	for _, n := range f.names {
		f.cols[n] = f.cols[n].Take(idx)
	}
	return nil
}
