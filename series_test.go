package etdkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeriesStartsAllNA(t *testing.T) {
	s := NewSeries(Float, 3)
	require.Equal(t, 3, s.Len())
	assert.True(t, s.AllNA())
	assert.Equal(t, 0, s.CountValid())

	s.SetFloat(1, 2.5)
	assert.False(t, s.IsNA(1))
	assert.True(t, s.IsNA(0))
	assert.Equal(t, 2.5, s.Float(1))
	assert.Equal(t, 1, s.CountValid())

	s.SetNA(1)
	assert.True(t, s.AllNA())
}

func TestConstructorsAllValid(t *testing.T) {
	fs := NewFloatSeries([]float64{1, 2})
	require.Equal(t, 2, fs.CountValid())
	assert.Equal(t, Float, fs.Kind())

	ts := NewTimeSeries([]time.Time{time.Now(), time.Now()})
	assert.Equal(t, Time, ts.Kind())
	assert.Equal(t, 2, ts.CountValid())
}

func TestNullBoolRoundtrip(t *testing.T) {
	s := NewSeries(Bool, 3)
	s.SetNullBool(0, NullTrue)
	s.SetNullBool(1, NullFalse)
	s.SetNullBool(2, NullBool{})

	assert.Equal(t, NullTrue, s.NullBoolAt(0))
	assert.Equal(t, NullFalse, s.NullBoolAt(1))
	assert.False(t, s.NullBoolAt(2).Valid)
}

func TestTakePreservesNA(t *testing.T) {
	s := NewFloatSeries([]float64{10, 20, 30})
	s.SetNA(1)
	got := s.Take([]int{2, 1, 0})
	require.Equal(t, 3, got.Len())
	assert.Equal(t, 30.0, got.Float(0))
	assert.True(t, got.IsNA(1))
	assert.Equal(t, 10.0, got.Float(2))
}

func TestCopyIsIndependent(t *testing.T) {
	s := NewFloatSeries([]float64{1, 2})
	c := s.Copy()
	c.SetFloat(0, 99)
	c.SetNA(1)
	assert.Equal(t, 1.0, s.Float(0))
	assert.False(t, s.IsNA(1))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "float", Float.String())
	assert.Equal(t, "time", Time.String())
}
