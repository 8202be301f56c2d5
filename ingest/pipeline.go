// Package ingest wires a raw source, the mapper, the validators, and the
// index into one sequential run over a supplier's files.
package ingest

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdindex"
	"github.com/energietransitie/etdkit/mapping"
	"github.com/energietransitie/etdkit/validate"
)

// TableWriter stores one mapped household table.
type TableWriter interface {
	Write(huisIDBSV int64, f *etdkit.Frame) error
}

// Pipeline runs datasets from a source through mapping and validation and
// into the index. Datasets that fail to map are logged and skipped; the run
// keeps going.
type Pipeline struct {
	Source   etdkit.Source
	Mapper   *mapping.Mapper
	Index    *etdindex.Index
	Store    etdindex.Store
	Tables   TableWriter
	Alloc    etdindex.Allocator
	Supplier string
	Log      *zap.Logger
}

// Run processes every dataset of the source and saves the index at the
// end.
func (p *Pipeline) Run() error {
	if p.Log == nil {
		p.Log = zap.NewNop()
	}
	recordFlags, err := validate.RecordFlags(p.Log)
	if err != nil {
		return errors.Wrap(err, "loading record validators")
	}

	for {
		ds, err := p.Source.Dataset()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading dataset")
		}
		p.Log.Info("processing household",
			zap.String("supplier", p.Supplier),
			zap.String("huis_id_leverancier", ds.HuisIDLeverancier),
			zap.String("file", ds.File))

		id, err := p.Index.EnsureID(p.Alloc, p.Supplier, ds.HuisIDLeverancier)
		if err != nil {
			return errors.Wrapf(err, "assigning id for household %s", ds.HuisIDLeverancier)
		}

		mapped, err := p.Mapper.Apply(ds.Frame)
		if err != nil {
			p.Log.Error("mapping household failed, skipping",
				zap.Int64("huis_id_bsv", id), zap.Error(err))
			continue
		}
		if mapped == nil {
			p.Log.Warn("household dropped by cumulative validation",
				zap.Int64("huis_id_bsv", id))
			continue
		}

		p.attachRecordFlags(mapped, recordFlags, id)

		if p.Tables != nil {
			if err := p.Tables.Write(id, mapped); err != nil {
				return errors.Wrapf(err, "writing table for household %d", id)
			}
		}
		entry := p.Index.Update(p.Supplier, ds.HuisIDLeverancier, id, mapped)
		entry.ProjectIDLeverancier = ds.ProjectIDLeverancier
	}

	if p.Store != nil {
		if err := p.Store.Save(p.Index.Entries()); err != nil {
			return errors.Wrap(err, "saving index")
		}
	}
	return nil
}

// attachRecordFlags appends the row flag columns to a mapped table. A
// failing validator is logged and leaves an all-NA column.
func (p *Pipeline) attachRecordFlags(f *etdkit.Frame, flags []validate.RecordFlag, id int64) {
	for _, fl := range flags {
		s, err := fl.Validate(f)
		if err != nil {
			p.Log.Error("error validating records",
				zap.String("flag", fl.Name),
				zap.Int64("huis_id_bsv", id),
				zap.Error(err))
			s = etdkit.NewSeries(etdkit.Bool, f.NumRows())
		}
		if err := f.SetColumn(fl.Name, s); err != nil {
			p.Log.Error("error attaching flag column",
				zap.String("flag", fl.Name), zap.Error(err))
		}
	}
}

// Close closes the index store and the id translator.
func (p *Pipeline) Close() error {
	var first error
	if p.Store != nil {
		if err := p.Store.Close(); err != nil {
			first = errors.Wrap(err, "closing index store")
		}
	}
	if p.Alloc != nil {
		if err := p.Alloc.Close(); err != nil && first == nil {
			first = errors.Wrap(err, "closing id translator")
		}
	}
	return first
}
