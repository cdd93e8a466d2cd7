// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

const boundsMetadataKey = "bounds"

// DataSource is a LevelDB backed implementation of virtual.DataSource. Node
// hashes, leaf records, and the key index live in separate table spaces of
// one database; every SaveRecords call is applied as a single atomic batch.
//
// Paths are stored as big-endian 64-bit keys, keeping range iterations over
// a table space in path order.
type DataSource[K comparable, V any] struct {
	db              common.LevelDB
	ownDb           *leveldb.DB // set if the source opened the database itself
	keySerializer   common.Serializer[K]
	valueSerializer common.Serializer[V]
	pathSerializer  common.Int64Serializer

	lock          sync.RWMutex
	firstLeafPath virtual.Path
	lastLeafPath  virtual.Path
}

// NewDataSource creates a data source on top of an opened database. The
// caller remains responsible for closing the database.
func NewDataSource[K comparable, V any](
	db common.LevelDB,
	keySerializer common.Serializer[K],
	valueSerializer common.Serializer[V],
) (*DataSource[K, V], error) {
	if db == nil {
		return nil, fmt.Errorf("database must not be nil")
	}
	if keySerializer == nil || valueSerializer == nil {
		return nil, fmt.Errorf("serializers must not be nil")
	}
	if keySerializer.Size() <= 0 {
		return nil, fmt.Errorf("the key encoding must have a fixed size")
	}
	source := &DataSource[K, V]{
		db:              db,
		keySerializer:   keySerializer,
		valueSerializer: valueSerializer,
	}
	if err := source.loadBounds(); err != nil {
		return nil, err
	}
	return source, nil
}

// OpenDataSource opens a database in the given directory, creating it if
// needed, and builds a data source on top of it. Closing the source closes
// the database.
func OpenDataSource[K comparable, V any](
	directory string,
	keySerializer common.Serializer[K],
	valueSerializer common.Serializer[V],
) (*DataSource[K, V], error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database in %s: %w", directory, err)
	}
	source, err := NewDataSource[K, V](db, keySerializer, valueSerializer)
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	source.ownDb = db
	return source, nil
}

func (s *DataSource[K, V]) loadBounds() error {
	value, err := s.db.Get(common.MetadataKey.StrToDBKey(boundsMetadataKey), nil)
	if err == leveldb.ErrNotFound {
		s.firstLeafPath = virtual.InvalidPath
		s.lastLeafPath = virtual.InvalidPath
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load tree bounds: %w", err)
	}
	if len(value) != 16 {
		return fmt.Errorf("corrupted tree bounds of %d bytes", len(value))
	}
	s.firstLeafPath = virtual.Path(s.pathSerializer.FromBytes(value[0:8]))
	s.lastLeafPath = virtual.Path(s.pathSerializer.FromBytes(value[8:16]))
	return nil
}

func (s *DataSource[K, V]) SaveRecords(
	firstLeafPath, lastLeafPath virtual.Path,
	hashes []virtual.HashRecord,
	leaves []virtual.LeafRecord[K, V],
	leavesToDelete []virtual.LeafRecord[K, V],
) error {
	if err := virtual.CheckBounds(firstLeafPath, lastLeafPath); err != nil {
		return err
	}
	batch := new(leveldb.Batch)

	for _, record := range leavesToDelete {
		current, exists, err := s.LoadLeafRecord(record.Path)
		if err != nil {
			return err
		}
		if exists && current.Key == record.Key {
			batch.Delete(s.leafKey(record.Path))
		}
		path, exists, err := s.loadKeyIndex(record.Key)
		if err != nil {
			return err
		}
		if exists && path == record.Path {
			batch.Delete(s.indexKey(record.Key))
		}
	}
	for _, leaf := range leaves {
		batch.Put(s.leafKey(leaf.Path), s.encodeLeaf(leaf))
		batch.Put(s.indexKey(leaf.Key), s.pathSerializer.ToBytes(int64(leaf.Path)))
	}
	for _, record := range hashes {
		batch.Put(s.hashKey(record.Path), record.Hash.ToBytes())
	}

	s.lock.RLock()
	storedLast := s.lastLeafPath
	s.lock.RUnlock()
	if lastLeafPath < storedLast {
		if err := s.trimHashes(lastLeafPath, batch); err != nil {
			return err
		}
	}

	bounds := make([]byte, 0, 16)
	bounds = append(bounds, s.pathSerializer.ToBytes(int64(firstLeafPath))...)
	bounds = append(bounds, s.pathSerializer.ToBytes(int64(lastLeafPath))...)
	batch.Put(common.MetadataKey.StrToDBKey(boundsMetadataKey), bounds)

	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	s.lock.Lock()
	s.firstLeafPath = firstLeafPath
	s.lastLeafPath = lastLeafPath
	s.lock.Unlock()
	return nil
}

// trimHashes stages the removal of all hash entries beyond the new last leaf
// path into the given batch.
func (s *DataSource[K, V]) trimHashes(lastLeafPath virtual.Path, batch *leveldb.Batch) error {
	keysRange := util.Range{
		Start: s.hashKey(lastLeafPath + 1),
		Limit: common.HashStoreKey.Limit(),
	}
	iter := s.db.NewIterator(&keysRange, nil)
	defer iter.Release()
	for iter.Next() {
		batch.Delete(iter.Key())
	}
	// A single-leaf tree stores its root hash at path 1; an entry at path 0
	// can only be left over from a larger tree.
	if lastLeafPath == 1 {
		batch.Delete(s.hashKey(virtual.RootPath))
	}
	return iter.Error()
}

func (s *DataSource[K, V]) LoadLeafRecord(path virtual.Path) (virtual.LeafRecord[K, V], bool, error) {
	value, err := s.db.Get(s.leafKey(path), nil)
	if err == leveldb.ErrNotFound {
		return virtual.LeafRecord[K, V]{}, false, nil
	}
	if err != nil {
		return virtual.LeafRecord[K, V]{}, false, err
	}
	record, err := s.decodeLeaf(path, value)
	if err != nil {
		return virtual.LeafRecord[K, V]{}, false, err
	}
	return record, true, nil
}

func (s *DataSource[K, V]) LoadLeafRecordByKey(key K) (virtual.LeafRecord[K, V], bool, error) {
	path, exists, err := s.loadKeyIndex(key)
	if err != nil || !exists {
		return virtual.LeafRecord[K, V]{}, false, err
	}
	return s.LoadLeafRecord(path)
}

func (s *DataSource[K, V]) loadKeyIndex(key K) (virtual.Path, bool, error) {
	value, err := s.db.Get(s.indexKey(key), nil)
	if err == leveldb.ErrNotFound {
		return virtual.InvalidPath, false, nil
	}
	if err != nil {
		return virtual.InvalidPath, false, err
	}
	if len(value) != 8 {
		return virtual.InvalidPath, false, fmt.Errorf("corrupted key index entry of %d bytes", len(value))
	}
	return virtual.Path(s.pathSerializer.FromBytes(value)), true, nil
}

func (s *DataSource[K, V]) LoadHash(path virtual.Path) (common.Hash, bool, error) {
	value, err := s.db.Get(s.hashKey(path), nil)
	if err == leveldb.ErrNotFound {
		return common.Hash{}, false, nil
	}
	if err != nil {
		return common.Hash{}, false, err
	}
	if len(value) != common.HashSize {
		return common.Hash{}, false, fmt.Errorf("corrupted hash entry of %d bytes", len(value))
	}
	return common.HashFromBytes(value), true, nil
}

func (s *DataSource[K, V]) Bounds() (virtual.Path, virtual.Path, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.firstLeafPath, s.lastLeafPath, nil
}

// Flush forces a synced write, making all previously written batches
// durable.
func (s *DataSource[K, V]) Flush() error {
	s.lock.RLock()
	bounds := make([]byte, 0, 16)
	bounds = append(bounds, s.pathSerializer.ToBytes(int64(s.firstLeafPath))...)
	bounds = append(bounds, s.pathSerializer.ToBytes(int64(s.lastLeafPath))...)
	s.lock.RUnlock()
	return s.db.Put(common.MetadataKey.StrToDBKey(boundsMetadataKey), bounds, &opt.WriteOptions{Sync: true})
}

func (s *DataSource[K, V]) Close() error {
	err := s.Flush()
	if s.ownDb != nil {
		err = errors.Join(err, s.ownDb.Close())
		s.ownDb = nil
	}
	return err
}

func (s *DataSource[K, V]) hashKey(path virtual.Path) []byte {
	return common.HashStoreKey.ToDBKey(s.pathSerializer.ToBytes(int64(path)))
}

func (s *DataSource[K, V]) leafKey(path virtual.Path) []byte {
	return common.LeafStoreKey.ToDBKey(s.pathSerializer.ToBytes(int64(path)))
}

func (s *DataSource[K, V]) indexKey(key K) []byte {
	return common.KeyIndexKey.ToDBKey(s.keySerializer.ToBytes(key))
}

// encodeLeaf serializes a leaf record as the key bytes followed by the value
// bytes. The key encoding has a fixed size, so no separator is needed.
func (s *DataSource[K, V]) encodeLeaf(leaf virtual.LeafRecord[K, V]) []byte {
	key := s.keySerializer.ToBytes(leaf.Key)
	value := s.valueSerializer.ToBytes(leaf.Value)
	encoded := make([]byte, 0, len(key)+len(value))
	encoded = append(encoded, key...)
	return append(encoded, value...)
}

func (s *DataSource[K, V]) decodeLeaf(path virtual.Path, encoded []byte) (virtual.LeafRecord[K, V], error) {
	keySize := s.keySerializer.Size()
	if len(encoded) < keySize {
		return virtual.LeafRecord[K, V]{}, fmt.Errorf("corrupted leaf record of %d bytes at path %v", len(encoded), path)
	}
	return virtual.LeafRecord[K, V]{
		Path:  path,
		Key:   s.keySerializer.FromBytes(encoded[:keySize]),
		Value: s.valueSerializer.FromBytes(encoded[keySize:]),
	}, nil
}
