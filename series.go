package etdkit

import (
	"time"
)

// Kind enumerates the column types the ETD model uses.
type Kind int

const (
	Float Kind = iota
	Bool
	String
	Time
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Time:
		return "time"
	}
	return "unknown"
}

// NullBool is a three-valued boolean. The zero value is NA.
type NullBool struct {
	Bool  bool
	Valid bool
}

// NullTrue and NullFalse are the two valid NullBool values.
var (
	NullTrue  = NullBool{Bool: true, Valid: true}
	NullFalse = NullBool{Bool: false, Valid: true}
)

// Series is a fixed-length column of one Kind in which every cell may be NA.
// Operations on NA cells return the zero value; callers test IsNA first.
type Series struct {
	kind  Kind
	fs    []float64
	bs    []bool
	ss    []string
	ts    []time.Time
	valid []bool
}

// NewSeries returns an all-NA series of the given kind and length.
func NewSeries(kind Kind, n int) *Series {
	s := &Series{kind: kind, valid: make([]bool, n)}
	switch kind {
	case Float:
		s.fs = make([]float64, n)
	case Bool:
		s.bs = make([]bool, n)
	case String:
		s.ss = make([]string, n)
	case Time:
		s.ts = make([]time.Time, n)
	}
	return s
}

// NewFloatSeries returns a float series with every cell set.
func NewFloatSeries(vals []float64) *Series {
	s := NewSeries(Float, len(vals))
	copy(s.fs, vals)
	for i := range s.valid {
		s.valid[i] = true
	}
	return s
}

// NewBoolSeries returns a bool series with every cell set.
func NewBoolSeries(vals []bool) *Series {
	s := NewSeries(Bool, len(vals))
	copy(s.bs, vals)
	for i := range s.valid {
		s.valid[i] = true
	}
	return s
}

// NewStringSeries returns a string series with every cell set.
func NewStringSeries(vals []string) *Series {
	s := NewSeries(String, len(vals))
	copy(s.ss, vals)
	for i := range s.valid {
		s.valid[i] = true
	}
	return s
}

// NewTimeSeries returns a time series with every cell set.
func NewTimeSeries(vals []time.Time) *Series {
	s := NewSeries(Time, len(vals))
	copy(s.ts, vals)
	for i := range s.valid {
		s.valid[i] = true
	}
	return s
}

// Kind returns the series element type.
func (s *Series) Kind() Kind { return s.kind }

// Len returns the number of cells.
func (s *Series) Len() int { return len(s.valid) }

// IsNA reports whether cell i is NA.
func (s *Series) IsNA(i int) bool { return !s.valid[i] }

// SetNA marks cell i NA.
func (s *Series) SetNA(i int) { s.valid[i] = false }

// CountValid returns the number of non-NA cells.
func (s *Series) CountValid() int {
	n := 0
	for _, v := range s.valid {
		if v {
			n++
		}
	}
	return n
}

// AllNA reports whether every cell is NA.
func (s *Series) AllNA() bool { return s.CountValid() == 0 }

// Float returns cell i of a float series, or 0 when NA.
func (s *Series) Float(i int) float64 { return s.fs[i] }

// SetFloat sets cell i of a float series.
func (s *Series) SetFloat(i int, v float64) {
	s.fs[i] = v
	s.valid[i] = true
}

// Bool returns cell i of a bool series, or false when NA.
func (s *Series) Bool(i int) bool { return s.bs[i] }

// SetBool sets cell i of a bool series.
func (s *Series) SetBool(i int, v bool) {
	s.bs[i] = v
	s.valid[i] = true
}

// SetNullBool sets cell i of a bool series from a NullBool.
func (s *Series) SetNullBool(i int, v NullBool) {
	if !v.Valid {
		s.bs[i] = false
		s.valid[i] = false
		return
	}
	s.SetBool(i, v.Bool)
}

// NullBoolAt returns cell i of a bool series as a NullBool.
func (s *Series) NullBoolAt(i int) NullBool {
	if !s.valid[i] {
		return NullBool{}
	}
	return NullBool{Bool: s.bs[i], Valid: true}
}

// Str returns cell i of a string series, or "" when NA.
func (s *Series) Str(i int) string { return s.ss[i] }

// SetStr sets cell i of a string series.
func (s *Series) SetStr(i int, v string) {
	s.ss[i] = v
	s.valid[i] = true
}

// Time returns cell i of a time series, or the zero time when NA.
func (s *Series) Time(i int) time.Time { return s.ts[i] }

// SetTime sets cell i of a time series.
func (s *Series) SetTime(i int, v time.Time) {
	s.ts[i] = v
	s.valid[i] = true
}

// Copy returns a deep copy.
func (s *Series) Copy() *Series {
	c := &Series{kind: s.kind, valid: append([]bool(nil), s.valid...)}
	switch s.kind {
	case Float:
		c.fs = append([]float64(nil), s.fs...)
	case Bool:
		c.bs = append([]bool(nil), s.bs...)
	case String:
		c.ss = append([]string(nil), s.ss...)
	case Time:
		c.ts = append([]time.Time(nil), s.ts...)
	}
	return c
}

// Take returns a new series with the cells at idx, in order. Indices may
// repeat; each must be in range.
func (s *Series) Take(idx []int) *Series {
	c := NewSeries(s.kind, len(idx))
	for j, i := range idx {
		if !s.valid[i] {
			continue
		}
		switch s.kind {
		case Float:
			c.SetFloat(j, s.fs[i])
		case Bool:
			c.SetBool(j, s.bs[i])
		case String:
			c.SetStr(j, s.ss[i])
		case Time:
			c.SetTime(j, s.ts[i])
		}
	}
	return c
}
