package etdindex

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Allocator hands out stable ids for supplier household ids. The mapping
// must survive restarts so a household keeps its BSV id across runs.
type Allocator interface {
	GetID(supplier, val string) (uint64, error)
	Get(supplier string, id uint64) (string, error)
	Close() error
}

var _ Allocator = &Translator{}

// Translator is a leveldb-backed Allocator: one pair of dbs holds the
// two-way mapping between (supplier, household id) keys and stable ids.
// Ids are allocated monotonically from 0 out of a single namespace, so no
// two households share an id no matter which supplier delivered them.
type Translator struct {
	lock   sync.Mutex
	idMap  *leveldb.DB
	valMap *leveldb.DB
	curID  uint64
}

// keySep joins supplier and household id into one translator key.
const keySep = "|"

type errorList []error

func (errs errorList) Error() string {
	strs := make([]string, len(errs))
	for i, err := range errs {
		strs[i] = err.Error()
	}
	return strings.Join(strs, "; ")
}

// NewTranslator opens a translator rooted at dirname.
func NewTranslator(dirname string) (*Translator, error) {
	if err := os.MkdirAll(dirname, 0700); err != nil {
		return nil, errors.Wrap(err, "making translator directory")
	}
	t := &Translator{}
	var err error
	t.idMap, err = leveldb.OpenFile(filepath.Join(dirname, "id"), &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", filepath.Join(dirname, "id"))
	}
	t.valMap, err = leveldb.OpenFile(filepath.Join(dirname, "val"), &opt.Options{})
	if err != nil {
		t.idMap.Close()
		return nil, errors.Wrapf(err, "opening leveldb at %v", filepath.Join(dirname, "val"))
	}

	// restore the allocation counter from the highest stored id
	iter := t.idMap.NewIterator(nil, nil)
	if iter.Last() {
		t.curID = binary.BigEndian.Uint64(iter.Key()) + 1
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		t.idMap.Close()
		t.valMap.Close()
		return nil, errors.Wrap(err, "restoring id counter")
	}
	return t, nil
}

// Close closes both dbs.
func (t *Translator) Close() error {
	errs := make(errorList, 0)
	if err := t.idMap.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "closing idMap"))
	}
	if err := t.valMap.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "closing valMap"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Get returns the household id mapped to the given stable id. An id
// allocated to a different supplier is an error.
func (t *Translator) Get(supplier string, id uint64) (string, error) {
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)
	data, err := t.idMap.Get(idBytes, nil)
	if err != nil {
		return "", errors.Wrap(err, "fetching from idMap")
	}
	sup, val, found := strings.Cut(string(data), keySep)
	if !found || sup != supplier {
		return "", errors.Errorf("id %d does not belong to supplier %s", id, supplier)
	}
	return val, nil
}

// GetID returns the stable id mapped to the supplier's household id,
// allocating the next free id when the household was never seen.
func (t *Translator) GetID(supplier, val string) (uint64, error) {
	key := []byte(supplier + keySep + val)

	data, err := t.valMap.Get(key, &opt.ReadOptions{})
	if err != nil && err != leveldb.ErrNotFound {
		return 0, errors.Wrap(err, "trying to read value map")
	} else if err == nil {
		return binary.BigEndian.Uint64(data), nil
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	// re-read after locking
	data, err = t.valMap.Get(key, &opt.ReadOptions{})
	if err != nil && err != leveldb.ErrNotFound {
		return 0, errors.Wrap(err, "trying to read value map")
	} else if err == nil {
		return binary.BigEndian.Uint64(data), nil
	}

	id := t.curID
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)
	if err := t.idMap.Put(idBytes, key, &opt.WriteOptions{}); err != nil {
		return 0, errors.Wrap(err, "putting new id into idmap")
	}
	if err := t.valMap.Put(key, idBytes, &opt.WriteOptions{}); err != nil {
		return 0, errors.Wrap(err, "putting new id into valmap")
	}
	t.curID++
	return id, nil
}
