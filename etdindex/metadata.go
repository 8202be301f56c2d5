package etdindex

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
)

// CheckBSVMetadata verifies that a BSV metadata table carries every
// required column.
func CheckBSVMetadata(meta *etdkit.Frame) error {
	for _, col := range BSVMetadataColumns {
		if !meta.Has(col) {
			return errors.Errorf("BSV metadata misses column %s", col)
		}
	}
	return nil
}

// ApplyBSVMetadata updates entries from a BSV metadata table: Meenemen,
// Notities, the BSV project id, and any allowlisted metadata columns.
// Rows are matched on (Dataleverancier, HuisIdLeverancier); rows without a
// matching entry are skipped.
func (ix *Index) ApplyBSVMetadata(meta *etdkit.Frame) error {
	if err := CheckBSVMetadata(meta); err != nil {
		return err
	}
	ix.log.Info("updating index with households to include")
	for i := 0; i < meta.NumRows(); i++ {
		supplier := strAt(meta, "Dataleverancier", i)
		huisID := strAt(meta, "HuisIdLeverancier", i)
		e := ix.Find(supplier, huisID)
		if e == nil {
			ix.log.Warn("BSV metadata row without index entry",
				zap.String("supplier", supplier),
				zap.String("huis_id_leverancier", huisID))
			continue
		}
		e.Meenemen = parseNullBool(strAt(meta, "Meenemen", i))
		e.Notities = strAt(meta, "Notities", i)
		e.ProjectIDLeverancier = strAt(meta, "ProjectIdLeverancier", i)
		if v := strAt(meta, "ProjectIdBSV", i); !etdmodel.IsNAToken(v) {
			pid, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return errors.Wrapf(err, "parsing ProjectIdBSV %q", v)
			}
			e.ProjectIDBSV = pid
		}
		ix.mergeAllowlisted(e, meta, i)
	}
	return nil
}

// MergeSupplierMetadata copies the allowlisted columns of a supplier
// metadata table into the matching entries. The stable BSV ids are never
// overwritten by supplier data.
func (ix *Index) MergeSupplierMetadata(supplier string, meta *etdkit.Frame) error {
	if !meta.Has("HuisIdLeverancier") {
		return errors.New("supplier metadata misses column HuisIdLeverancier")
	}
	for i := 0; i < meta.NumRows(); i++ {
		huisID := strAt(meta, "HuisIdLeverancier", i)
		e := ix.Find(supplier, huisID)
		if e == nil {
			ix.log.Warn("supplier metadata row without index entry",
				zap.String("supplier", supplier),
				zap.String("huis_id_leverancier", huisID))
			continue
		}
		ix.mergeAllowlisted(e, meta, i)
	}
	return nil
}

// mergeAllowlisted copies the allowlisted metadata columns of one table row
// into an entry. HuisIdBSV and ProjectIdBSV are protected.
func (ix *Index) mergeAllowlisted(e *Entry, meta *etdkit.Frame, row int) {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	for _, col := range etdmodel.AllowedSupplierMetadataColumns {
		if !meta.Has(col) {
			continue
		}
		v := strAt(meta, col, row)
		if etdmodel.IsNAToken(v) {
			continue
		}
		e.Metadata[col] = v
	}
}

// Frame renders the index as a table for export and printing: the BSV
// metadata columns, then the metadata columns seen across entries, then the
// flag columns.
func (ix *Index) Frame() *etdkit.Frame {
	entries := ix.Entries()
	f := etdkit.NewFrame(len(entries))

	set := func(name string, get func(e *Entry) (string, bool)) {
		s := etdkit.NewSeries(etdkit.String, len(entries))
		for i, e := range entries {
			if v, ok := get(e); ok {
				s.SetStr(i, v)
			}
		}
		_ = f.SetColumn(name, s)
	}
	set("HuisIdLeverancier", func(e *Entry) (string, bool) { return e.HuisIDLeverancier, true })
	set("HuisIdBSV", func(e *Entry) (string, bool) { return strconv.FormatInt(e.HuisIDBSV, 10), true })
	set("ProjectIdLeverancier", func(e *Entry) (string, bool) { return e.ProjectIDLeverancier, true })
	set("ProjectIdBSV", func(e *Entry) (string, bool) {
		return strconv.FormatInt(e.ProjectIDBSV, 10), e.ProjectIDBSV != 0
	})
	set("Dataleverancier", func(e *Entry) (string, bool) { return e.Dataleverancier, true })

	meenemen := etdkit.NewSeries(etdkit.Bool, len(entries))
	for i, e := range entries {
		meenemen.SetNullBool(i, e.Meenemen)
	}
	_ = f.SetColumn("Meenemen", meenemen)
	set("Notities", func(e *Entry) (string, bool) { return e.Notities, e.Notities != "" })

	for _, col := range metadataColumns(entries) {
		col := col
		set(col, func(e *Entry) (string, bool) {
			v, ok := e.Metadata[col]
			return v, ok
		})
	}

	for _, fl := range ix.flags {
		s := etdkit.NewSeries(etdkit.Bool, len(entries))
		for i, e := range entries {
			s.SetNullBool(i, e.Flags[fl.Name])
		}
		_ = f.SetColumn(fl.Name, s)
	}
	rollup := etdkit.NewSeries(etdkit.Bool, len(entries))
	for i, e := range entries {
		rollup.SetNullBool(i, e.Flags[MetaFlagCumulativeDiffOK])
	}
	_ = f.SetColumn(MetaFlagCumulativeDiffOK, rollup)
	return f
}

// metadataColumns returns the allowlisted columns present on any entry, in
// allowlist order, then any stragglers alphabetically.
func metadataColumns(entries []*Entry) []string {
	seen := make(map[string]struct{})
	for _, e := range entries {
		for k := range e.Metadata {
			seen[k] = struct{}{}
		}
	}
	var cols []string
	for _, c := range etdmodel.AllowedSupplierMetadataColumns {
		if _, ok := seen[c]; ok {
			cols = append(cols, c)
			delete(seen, c)
		}
	}
	var rest []string
	for c := range seen {
		rest = append(rest, c)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

func strAt(f *etdkit.Frame, col string, i int) string {
	s := f.Column(col)
	if s == nil || s.IsNA(i) {
		return ""
	}
	return s.Str(i)
}

func parseNullBool(v string) etdkit.NullBool {
	if etdmodel.IsNAToken(v) {
		return etdkit.NullBool{}
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return etdkit.NullBool{}
	}
	if b {
		return etdkit.NullTrue
	}
	return etdkit.NullFalse
}
