// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cache

import (
	"sync"

	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

// ways is the associativity of the caches below, chosen to keep the scan of
// a single cache set short.
const ways = 16

// DataSource wraps another data source and keeps the most recently accessed
// hashes and leaf records in memory. Synchronization walks the same paths
// near the tree root over and over, so even a small cache absorbs most of
// the reads a backing store would otherwise serve.
//
// Writes go through to the wrapped source first and update the cache only
// after they succeeded. When a batch lowers the last leaf path, the hash
// cache is dropped as a whole, mirroring the trim of stored hash entries
// beyond the new bound.
type DataSource[K comparable, V any] struct {
	source virtual.DataSource[K, V]
	hashes *common.NWaysCache[virtual.Path, common.Hash]
	leaves *common.NWaysCache[virtual.Path, virtual.LeafRecord[K, V]]

	mu       sync.Mutex // guards last across batches
	last     virtual.Path
	capacity int
}

// NewDataSource wraps the given source with caches of the given capacity,
// one for hashes and one for leaf records.
func NewDataSource[K comparable, V any](source virtual.DataSource[K, V], capacity int) (*DataSource[K, V], error) {
	_, last, err := source.Bounds()
	if err != nil {
		return nil, err
	}
	return &DataSource[K, V]{
		source:   source,
		hashes:   common.NewNWaysCache[virtual.Path, common.Hash](capacity, ways),
		leaves:   common.NewNWaysCache[virtual.Path, virtual.LeafRecord[K, V]](capacity, ways),
		last:     last,
		capacity: capacity,
	}, nil
}

func (c *DataSource[K, V]) SaveRecords(firstLeafPath, lastLeafPath virtual.Path, hashes []virtual.HashRecord, leaves []virtual.LeafRecord[K, V], leavesToDelete []virtual.LeafRecord[K, V]) error {
	if err := c.source.SaveRecords(firstLeafPath, lastLeafPath, hashes, leaves, leavesToDelete); err != nil {
		return err
	}

	c.mu.Lock()
	if lastLeafPath < c.last {
		// cached hashes beyond the new bound no longer exist in the source
		c.hashes = common.NewNWaysCache[virtual.Path, common.Hash](c.capacity, ways)
	}
	c.last = lastLeafPath
	c.mu.Unlock()

	// dropping a cached leaf is always safe, the guard on the delete is
	// evaluated by the source
	for _, record := range leavesToDelete {
		c.leaves.Remove(record.Path)
	}
	for _, record := range hashes {
		c.hashes.Set(record.Path, record.Hash)
	}
	for _, record := range leaves {
		c.leaves.Set(record.Path, record)
	}
	return nil
}

func (c *DataSource[K, V]) LoadLeafRecord(path virtual.Path) (virtual.LeafRecord[K, V], bool, error) {
	if record, exists := c.leaves.Get(path); exists {
		return record, true, nil
	}
	record, exists, err := c.source.LoadLeafRecord(path)
	if err == nil && exists {
		c.leaves.Set(path, record)
	}
	return record, exists, err
}

func (c *DataSource[K, V]) LoadLeafRecordByKey(key K) (virtual.LeafRecord[K, V], bool, error) {
	record, exists, err := c.source.LoadLeafRecordByKey(key)
	if err == nil && exists {
		c.leaves.Set(record.Path, record)
	}
	return record, exists, err
}

func (c *DataSource[K, V]) LoadHash(path virtual.Path) (common.Hash, bool, error) {
	if hash, exists := c.hashes.Get(path); exists {
		return hash, true, nil
	}
	hash, exists, err := c.source.LoadHash(path)
	if err == nil && exists {
		c.hashes.Set(path, hash)
	}
	return hash, exists, err
}

func (c *DataSource[K, V]) Bounds() (virtual.Path, virtual.Path, error) {
	return c.source.Bounds()
}

func (c *DataSource[K, V]) Flush() error {
	return c.source.Flush()
}

func (c *DataSource[K, V]) Close() error {
	return c.source.Close()
}
