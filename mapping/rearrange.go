package mapping

import (
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
)

// Rearrange reconciles a household table with the canonical column set.
// Model columns come first, in model order; columns the model does not know
// keep their relative order after the model block. With addColumns set,
// missing model columns are added as all-NA series of the model type.
// Columns with a type other than the model's are logged, not coerced.
func (m *Mapper) Rearrange(f *etdkit.Frame, addColumns bool) (*etdkit.Frame, error) {
	for _, col := range etdmodel.ModelColumnOrder {
		s := f.Column(col)
		if s == nil {
			continue
		}
		want, _ := etdmodel.ColumnKind(col)
		if s.Kind() != want {
			m.log.Warn("column has unexpected type",
				zap.String("column", col),
				zap.Stringer("type", s.Kind()),
				zap.Stringer("expected", want))
		}
	}

	out := etdkit.NewFrame(f.NumRows())
	for _, col := range etdmodel.ModelColumnOrder {
		s := f.Column(col)
		if s == nil {
			if !addColumns {
				continue
			}
			m.log.Warn("missing column added and filled with NA values",
				zap.String("column", col))
			kind, _ := etdmodel.ColumnKind(col)
			s = etdkit.NewSeries(kind, f.NumRows())
		}
		if err := out.SetColumn(col, s); err != nil {
			return nil, err
		}
	}
	for _, col := range f.Columns() {
		if _, known := etdmodel.ColumnKind(col); known {
			continue
		}
		if err := out.SetColumn(col, f.Column(col)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
