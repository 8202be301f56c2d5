package mapping

import (
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
)

// FillDown forward-fills, then backward-fills, then zero-fills the mapper's
// sparse device columns. Devices like boosters report so rarely that any
// other imputation invents readings; a misbehaving device still slips
// through, which is why the result stays subject to the validators.
func (m *Mapper) FillDown(f *etdkit.Frame) *etdkit.Frame {
	for _, col := range m.FillDownColumns {
		s := f.Column(col)
		if s == nil {
			continue
		}
		if s.Kind() != etdkit.Float {
			m.log.Warn("fill-down column is not a float column, skipping",
				zap.String("column", col), zap.Stringer("type", s.Kind()))
			continue
		}
		filled := s.Copy()
		last, haveLast := 0.0, false
		for i := 0; i < filled.Len(); i++ {
			if !filled.IsNA(i) {
				last, haveLast = filled.Float(i), true
			} else if haveLast {
				filled.SetFloat(i, last)
			}
		}
		next, haveNext := 0.0, false
		for i := filled.Len() - 1; i >= 0; i-- {
			if !filled.IsNA(i) {
				next, haveNext = filled.Float(i), true
			} else if haveNext {
				filled.SetFloat(i, next)
			}
		}
		for i := 0; i < filled.Len(); i++ {
			if filled.IsNA(i) {
				filled.SetFloat(i, 0.0)
			}
		}
		_ = f.SetColumn(col, filled)
	}
	return f
}
