// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package virtual

import "sync/atomic"

// Metrics collects fire-and-forget counters of the hashing and flushing
// machinery. All methods are safe for concurrent use and tolerate a nil
// receiver, so callers never need to guard their reporting calls.
type Metrics struct {
	nodesHashed   atomic.Uint64
	leavesHashed  atomic.Uint64
	flushes       atomic.Uint64
	flushedHashes atomic.Uint64
	flushedLeaves atomic.Uint64
	deletedLeaves atomic.Uint64
}

// MetricsSnapshot is a consistent-enough copy of all counters for reporting.
type MetricsSnapshot struct {
	NodesHashed   uint64
	LeavesHashed  uint64
	Flushes       uint64
	FlushedHashes uint64
	FlushedLeaves uint64
	DeletedLeaves uint64
}

func (m *Metrics) NodeHashed() {
	if m != nil {
		m.nodesHashed.Add(1)
	}
}

func (m *Metrics) LeafHashed() {
	if m != nil {
		m.leavesHashed.Add(1)
	}
}

func (m *Metrics) FlushCompleted(hashes, leaves, deleted int) {
	if m != nil {
		m.flushes.Add(1)
		m.flushedHashes.Add(uint64(hashes))
		m.flushedLeaves.Add(uint64(leaves))
		m.deletedLeaves.Add(uint64(deleted))
	}
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		NodesHashed:   m.nodesHashed.Load(),
		LeavesHashed:  m.leavesHashed.Load(),
		Flushes:       m.flushes.Load(),
		FlushedHashes: m.flushedHashes.Load(),
		FlushedLeaves: m.flushedLeaves.Load(),
		DeletedLeaves: m.deletedLeaves.Load(),
	}
}
