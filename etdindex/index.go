// Package etdindex maintains the household index: one entry per processed
// household carrying its stable BSV ids, supplier metadata, and the dataset
// validation flags. The index is persisted in a bolt store; stable id
// allocation across runs goes through a leveldb-backed translator.
package etdindex

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/energietransitie/etdkit"
	"github.com/energietransitie/etdkit/etdmodel"
	"github.com/energietransitie/etdkit/validate"
)

// MetaFlagCumulativeDiffOK is the rollup flag over the per-column Diff
// flags.
const MetaFlagCumulativeDiffOK = "validate_cumulative_diff_ok"

// BSVMetadataColumns are the columns a BSV metadata file must carry.
var BSVMetadataColumns = []string{
	"HuisIdLeverancier",
	"HuisIdBSV",
	"ProjectIdLeverancier",
	"ProjectIdBSV",
	"Dataleverancier",
	"Meenemen",
	"Notities",
}

// Entry is one household in the index.
type Entry struct {
	HuisIDLeverancier    string
	HuisIDBSV            int64
	ProjectIDLeverancier string
	ProjectIDBSV         int64
	Dataleverancier      string
	Meenemen             etdkit.NullBool
	Notities             string

	// Metadata holds the allowlisted supplier metadata columns.
	Metadata map[string]string
	// Flags holds the dataset validator outcomes plus the meta rollup.
	Flags map[string]etdkit.NullBool
}

// IDPair couples a supplier household id with its stable BSV id.
type IDPair struct {
	HuisIDLeverancier string
	HuisIDBSV         int64
}

// Index is the in-memory household index. Load one from a Store, mutate it
// through Update and the metadata helpers, save it back.
type Index struct {
	log     *zap.Logger
	entries []*Entry
	flags   []validate.DatasetFlag
}

// New returns an empty index with the dataset validators loaded.
func New(log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	flags, err := validate.DatasetFlags(log)
	if err != nil {
		return nil, errors.Wrap(err, "loading dataset validators")
	}
	return &Index{log: log, flags: flags}, nil
}

// Load returns an index filled from the store. A store without saved
// entries yields an empty index.
func Load(log *zap.Logger, st Store) (*Index, error) {
	ix, err := New(log)
	if err != nil {
		return nil, err
	}
	ix.entries, err = st.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading index entries")
	}
	return ix, nil
}

// Entries returns the entries ordered by BSV id.
func (ix *Index) Entries() []*Entry {
	out := append([]*Entry(nil), ix.entries...)
	sort.Slice(out, func(a, b int) bool { return out[a].HuisIDBSV < out[b].HuisIDBSV })
	return out
}

// Find returns the entry for a supplier household, or nil.
func (ix *Index) Find(supplier, huisIDLeverancier string) *Entry {
	for _, e := range ix.entries {
		if e.Dataleverancier == supplier && e.HuisIDLeverancier == huisIDLeverancier {
			return e
		}
	}
	return nil
}

// NextID returns the lowest unused BSV id, counting from 1.
func (ix *Index) NextID() int64 {
	max := int64(0)
	for _, e := range ix.entries {
		if e.HuisIDBSV > max {
			max = e.HuisIDBSV
		}
	}
	return max + 1
}

// EnsureID returns the stable BSV id of a supplier household, creating the
// entry when the household was never seen. With an allocator the id also
// stays stable across runs that start from an empty index.
func (ix *Index) EnsureID(alloc Allocator, supplier, huisIDLeverancier string) (int64, error) {
	if e := ix.Find(supplier, huisIDLeverancier); e != nil {
		return e.HuisIDBSV, nil
	}
	id := ix.NextID()
	if alloc != nil {
		tid, err := alloc.GetID(supplier, huisIDLeverancier)
		if err != nil {
			return 0, errors.Wrap(err, "allocating stable id")
		}
		id = int64(tid) + 1
	}
	ix.entries = append(ix.entries, &Entry{
		HuisIDLeverancier: huisIDLeverancier,
		HuisIDBSV:         id,
		Dataleverancier:   supplier,
		Metadata:          make(map[string]string),
		Flags:             make(map[string]etdkit.NullBool),
	})
	return id, nil
}

// HouseholdIDPairs pairs every supplier household id with its stable BSV
// id, reusing known ids and allocating upward for new households.
func (ix *Index) HouseholdIDPairs(alloc Allocator, supplier string, huisIDs []string) ([]IDPair, error) {
	pairs := make([]IDPair, 0, len(huisIDs))
	for _, h := range huisIDs {
		id, err := ix.EnsureID(alloc, supplier, h)
		if err != nil {
			return nil, errors.Wrapf(err, "pairing household %s", h)
		}
		pairs = append(pairs, IDPair{HuisIDLeverancier: h, HuisIDBSV: id})
	}
	return pairs, nil
}

// Update upserts the entry of a supplier household and recomputes every
// dataset flag from the mapped table. A validator error is logged and
// stored as NA.
func (ix *Index) Update(supplier, huisIDLeverancier string, huisIDBSV int64, f *etdkit.Frame) *Entry {
	e := ix.Find(supplier, huisIDLeverancier)
	if e == nil {
		e = &Entry{
			HuisIDLeverancier: huisIDLeverancier,
			HuisIDBSV:         huisIDBSV,
			Dataleverancier:   supplier,
			Metadata:          make(map[string]string),
			Flags:             make(map[string]etdkit.NullBool),
		}
		ix.entries = append(ix.entries, e)
	}
	if e.Flags == nil {
		e.Flags = make(map[string]etdkit.NullBool)
	}
	for _, fl := range ix.flags {
		v, err := fl.Validate(f)
		if err != nil {
			ix.log.Error("error validating household",
				zap.String("flag", fl.Name),
				zap.Int64("huis_id_bsv", e.HuisIDBSV),
				zap.Error(err))
			v = etdkit.NullBool{}
		}
		e.Flags[fl.Name] = v
	}
	ix.UpdateMetaValidators()
	return e
}

// UpdateMetaValidators recomputes the cumulative-diff rollup flag of every
// entry: true when every per-column Diff flag is true or NA, NA when any
// flag column is missing.
func (ix *Index) UpdateMetaValidators() {
	for _, e := range ix.entries {
		rollup := etdkit.NullTrue
		for _, col := range etdmodel.CumulativeColumns {
			v, ok := e.Flags["validate_"+col+"Diff"]
			if !ok {
				rollup = etdkit.NullBool{}
				break
			}
			if v.Valid && !v.Bool {
				rollup = etdkit.NullFalse
			}
		}
		e.Flags[MetaFlagCumulativeDiffOK] = rollup
	}
}
