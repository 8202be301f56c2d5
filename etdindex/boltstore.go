package etdindex

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var entriesBucket = []byte("entries")

// Store persists index entries between runs.
type Store interface {
	Load() ([]*Entry, error)
	Save(entries []*Entry) error
	Close() error
}

// BoltStore keeps the index in a single bolt bucket, entries gob-encoded
// and keyed by their big-endian BSV id.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the index store at filename.
func OpenBoltStore(filename string) (*BoltStore, error) {
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening index db '%v'", filename)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return errors.Wrap(err, "creating entries bucket")
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Load returns every saved entry, ordered by BSV id.
func (bs *BoltStore) Load() ([]*Entry, error) {
	var entries []*Entry
	err := bs.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var e Entry
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&e); err != nil {
				return errors.Wrapf(err, "decoding entry %d", binary.BigEndian.Uint64(k))
			}
			entries = append(entries, &e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Save replaces the stored entries. The bucket is dropped and rebuilt so
// removed households do not linger.
func (bs *BoltStore) Save(entries []*Entry) error {
	return bs.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(entriesBucket); err != nil && err != bolt.ErrBucketNotFound {
			return errors.Wrap(err, "dropping entries bucket")
		}
		b, err := tx.CreateBucket(entriesBucket)
		if err != nil {
			return errors.Wrap(err, "recreating entries bucket")
		}
		for _, e := range entries {
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(e); err != nil {
				return errors.Wrapf(err, "encoding entry %d", e.HuisIDBSV)
			}
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(e.HuisIDBSV))
			if err := b.Put(key, buf.Bytes()); err != nil {
				return errors.Wrapf(err, "putting entry %d", e.HuisIDBSV)
			}
		}
		return nil
	})
}

// Close syncs and closes the underlying db.
func (bs *BoltStore) Close() error {
	if err := bs.db.Sync(); err != nil {
		return errors.Wrap(err, "syncing index db")
	}
	return bs.db.Close()
}
