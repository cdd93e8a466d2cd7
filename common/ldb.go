package common

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is the subset of the goleveldb API used by the persistent
// backends. Both *leveldb.DB and *leveldb.Transaction satisfy it, allowing
// components to run against either transparently.
type LevelDB interface {

	// Get gets the value for the given key. It returns leveldb.ErrNotFound
	// if the DB does not contain the key. The returned slice is its own
	// copy and safe to modify.
	Get(key []byte, ro *opt.ReadOptions) (value []byte, err error)

	// Has returns true if the DB contains the given key.
	Has(key []byte, ro *opt.ReadOptions) (bool, error)

	// NewIterator returns an iterator over the latest snapshot of the DB,
	// optionally restricted to the given key range. The iterator is not
	// safe for concurrent use and must be released after use.
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator

	// Put sets the value for the given key, overwriting any previous value.
	Put(key, value []byte, wo *opt.WriteOptions) error

	// Delete deletes the value for the given key.
	Delete(key []byte, wo *opt.WriteOptions) error

	// Write applies the given batch to the DB atomically.
	Write(batch *leveldb.Batch, wo *opt.WriteOptions) error
}
