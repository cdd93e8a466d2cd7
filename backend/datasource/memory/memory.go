// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"sync"

	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

// DataSource is an in-memory implementation of virtual.DataSource. It keeps
// the hashes, the leaf records, and the key index in maps guarded by a
// single RW lock. All content is lost when the source is closed.
type DataSource[K comparable, V any] struct {
	lock          sync.RWMutex
	firstLeafPath virtual.Path
	lastLeafPath  virtual.Path
	hashes        map[virtual.Path]common.Hash
	leavesByPath  map[virtual.Path]virtual.LeafRecord[K, V]
	pathByKey     map[K]virtual.Path
}

// NewDataSource creates an empty in-memory data source.
func NewDataSource[K comparable, V any]() *DataSource[K, V] {
	return &DataSource[K, V]{
		firstLeafPath: virtual.InvalidPath,
		lastLeafPath:  virtual.InvalidPath,
		hashes:        map[virtual.Path]common.Hash{},
		leavesByPath:  map[virtual.Path]virtual.LeafRecord[K, V]{},
		pathByKey:     map[K]virtual.Path{},
	}
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
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, record := range leavesToDelete {
		if current, exists := s.leavesByPath[record.Path]; exists && current.Key == record.Key {
			delete(s.leavesByPath, record.Path)
		}
		if path, exists := s.pathByKey[record.Key]; exists && path == record.Path {
			delete(s.pathByKey, record.Key)
		}
	}
	for _, leaf := range leaves {
		s.leavesByPath[leaf.Path] = leaf
		s.pathByKey[leaf.Key] = leaf.Path
	}
	for _, record := range hashes {
		s.hashes[record.Path] = record.Hash
	}
	if lastLeafPath < s.lastLeafPath {
		for path := range s.hashes {
			if path > lastLeafPath {
				delete(s.hashes, path)
			}
		}
		// A single-leaf tree stores its root hash at path 1; an entry at
		// path 0 can only be left over from a larger tree.
		if lastLeafPath == 1 {
			delete(s.hashes, virtual.RootPath)
		}
	}
	s.firstLeafPath = firstLeafPath
	s.lastLeafPath = lastLeafPath
	return nil
}

func (s *DataSource[K, V]) LoadLeafRecord(path virtual.Path) (virtual.LeafRecord[K, V], bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	record, exists := s.leavesByPath[path]
	return record, exists, nil
}

func (s *DataSource[K, V]) LoadLeafRecordByKey(key K) (virtual.LeafRecord[K, V], bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	path, exists := s.pathByKey[key]
	if !exists {
		return virtual.LeafRecord[K, V]{}, false, nil
	}
	record, exists := s.leavesByPath[path]
	return record, exists, nil
}

func (s *DataSource[K, V]) LoadHash(path virtual.Path) (common.Hash, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	hash, exists := s.hashes[path]
	return hash, exists, nil
}

func (s *DataSource[K, V]) Bounds() (virtual.Path, virtual.Path, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.firstLeafPath, s.lastLeafPath, nil
}

// LeafCount returns the number of leaf records currently stored.
func (s *DataSource[K, V]) LeafCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.leavesByPath)
}

func (s *DataSource[K, V]) Flush() error {
	return nil
}

func (s *DataSource[K, V]) Close() error {
	return nil
}
