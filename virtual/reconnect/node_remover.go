// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package reconnect

import (
	"sync"

	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

// NodeRemover tracks leaf records of a learner's pre-synchronization state
// that must be physically deleted because the post-synchronization leaf set
// no longer contains them. Candidates are staged during the transfer phase
// and drained into the delete stream of the flushes that follow it.
//
// A staged candidate is dropped again, instead of being drained, if its path
// lies within the new leaf bounds and its key was re-sent by the teacher:
// the save of the re-sent record supersedes the old one at that path, so no
// delete is needed. Candidates at paths outside the new bounds are always
// drained; their positions ceased to be leaves, so the records must go even
// if their keys live on elsewhere. Guarded deletes in the data source keep
// the key index intact in that case.
//
// The set only shrinks once draining starts: every record is returned by
// FindLeavesToRemove at most once, and nothing is staged anymore after the
// transfer phase completed. All methods are safe for concurrent use.
type NodeRemover[K comparable, V any] struct {
	mutex         sync.Mutex
	firstLeafPath virtual.Path
	lastLeafPath  virtual.Path
	candidates    map[virtual.Path]virtual.LeafRecord[K, V]
	present       map[K]struct{}
	removed       int64
}

func NewNodeRemover[K comparable, V any]() *NodeRemover[K, V] {
	return &NodeRemover[K, V]{
		firstLeafPath: virtual.InvalidPath,
		lastLeafPath:  virtual.InvalidPath,
		candidates:    map[virtual.Path]virtual.LeafRecord[K, V]{},
		present:       map[K]struct{}{},
	}
}

// SetLeafBounds announces the leaf path bounds of the post-synchronization
// tree. Must be called before the first drain.
func (r *NodeRemover[K, V]) SetLeafBounds(firstLeafPath, lastLeafPath virtual.Path) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.firstLeafPath = firstLeafPath
	r.lastLeafPath = lastLeafPath
}

// MarkStale stages a pre-state leaf record as a deletion candidate.
func (r *NodeRemover[K, V]) MarkStale(leaf virtual.LeafRecord[K, V]) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.candidates[leaf.Path] = leaf
}

// MarkPresent records that the given key is part of the post-state leaf
// set, rescuing in-bounds candidates carrying the same key.
func (r *NodeRemover[K, V]) MarkPresent(key K) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.present[key] = struct{}{}
}

// FindLeavesToRemove drains the current candidate set, sorted by ascending
// path. Rescued candidates are dropped. Repeated calls return only
// candidates staged since the previous drain.
func (r *NodeRemover[K, V]) FindLeavesToRemove() []virtual.LeafRecord[K, V] {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	res := make([]virtual.LeafRecord[K, V], 0, len(r.candidates))
	for path, record := range r.candidates {
		rescued := false
		if path.IsLeaf(r.firstLeafPath, r.lastLeafPath) {
			_, rescued = r.present[record.Key]
		}
		if !rescued {
			res = append(res, record)
		}
	}
	clear(r.candidates)
	virtual.SortLeafRecordsByPath(res)
	r.removed += int64(len(res))
	return res
}

// Removed returns the total number of records drained so far.
func (r *NodeRemover[K, V]) Removed() int64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.removed
}
