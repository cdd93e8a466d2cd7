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

//go:generate mockgen -source flush_listener.go -destination flush_listener_mocks.go -package virtual

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/suiyuan1314/hedera-services-sub000/common"
)

// RemovalSource provides leaf records that must be deleted from the data
// source. It is drained once per flush; every record is returned at most
// once over the lifetime of the source.
type RemovalSource[K comparable, V any] interface {
	// FindLeavesToRemove returns and consumes the records currently
	// staged for deletion, sorted by ascending path.
	FindLeavesToRemove() []LeafRecord[K, V]
}

// FlushListener is a HashListener accumulating the reported records of a
// hashing pass and handing them over to a DataSource in batches. A batch is
// handed over whenever the number of accumulated hash records reaches the
// configured flush interval, and once more at the completion of the pass.
// With intermediate flushing disabled the whole pass forms a single batch.
//
// Records are appended under a lock shared by all hashing goroutines. The
// flush itself runs outside that lock, on the hashing goroutine that
// triggered it, and at most one flush is in progress at any time. Flush
// errors are not retried; the first failure stops all further writes and is
// reported by OnHashingCompleted.
type FlushListener[K comparable, V any] struct {
	source        DataSource[K, V]
	removals      RemovalSource[K, V] // optional, may be nil
	firstLeafPath Path
	lastLeafPath  Path
	interval      int
	metrics       *Metrics

	listMutex sync.Mutex
	hashes    []HashRecord
	leaves    []LeafRecord[K, V]

	flushing atomic.Bool

	errs      []error
	errsMutex sync.Mutex
}

// NewFlushListener creates a listener writing all records reported during a
// hashing pass to the given data source. The given bounds are the leaf path
// bounds of the tree state being hashed; they are forwarded with every
// batch.
func NewFlushListener[K comparable, V any](source DataSource[K, V], firstLeafPath, lastLeafPath Path, config Config) (*FlushListener[K, V], error) {
	return NewFlushListenerWithRemovals[K, V](source, firstLeafPath, lastLeafPath, nil, config)
}

// NewFlushListenerWithRemovals creates a listener additionally draining the
// given removal source into the delete stream of every batch.
func NewFlushListenerWithRemovals[K comparable, V any](source DataSource[K, V], firstLeafPath, lastLeafPath Path, removals RemovalSource[K, V], config Config) (*FlushListener[K, V], error) {
	if source == nil {
		return nil, fmt.Errorf("the data source must not be nil")
	}
	if err := CheckBounds(firstLeafPath, lastLeafPath); err != nil {
		return nil, err
	}
	config = config.normalized()
	return &FlushListener[K, V]{
		source:        source,
		removals:      removals,
		firstLeafPath: firstLeafPath,
		lastLeafPath:  lastLeafPath,
		interval:      config.FlushInterval,
		metrics:       config.Metrics,
	}, nil
}

func (l *FlushListener[K, V]) OnHashingStarted() {
	l.listMutex.Lock()
	l.hashes = make([]HashRecord, 0, l.interval)
	l.leaves = make([]LeafRecord[K, V], 0, l.interval)
	l.listMutex.Unlock()
}

func (l *FlushListener[K, V]) OnLeafHashed(leaf LeafRecord[K, V]) {
	l.listMutex.Lock()
	l.leaves = append(l.leaves, leaf)
	l.listMutex.Unlock()
}

func (l *FlushListener[K, V]) OnNodeHashed(path Path, hash common.Hash) {
	l.listMutex.Lock()
	l.hashes = append(l.hashes, HashRecord{path, hash})
	full := l.interval > 0 && len(l.hashes) >= l.interval
	l.listMutex.Unlock()

	// Whoever reaches the interval and wins the flush flag swaps the lists
	// out and writes the batch on its own goroutine. Losers keep hashing;
	// their records end up in a later batch.
	if full && l.flushing.CompareAndSwap(false, true) {
		l.flush(l.takeBatch())
		l.flushing.Store(false)
	}
}

// OnHashingCompleted flushes all remaining records and reports the collected
// errors of the pass. Since the hasher joins all of its workers before
// calling it, no flush can be in progress anymore; a taken flush flag at
// this point is a programming error.
func (l *FlushListener[K, V]) OnHashingCompleted() error {
	if !l.flushing.CompareAndSwap(false, true) {
		panic("flush still in progress after hashing completed")
	}
	l.flush(l.takeBatch())
	l.flushing.Store(false)

	l.errsMutex.Lock()
	defer l.errsMutex.Unlock()
	return errors.Join(l.errs...)
}

// takeBatch swaps the accumulation lists out under the list lock. Only the
// holder of the flush flag may call it.
func (l *FlushListener[K, V]) takeBatch() ([]HashRecord, []LeafRecord[K, V]) {
	l.listMutex.Lock()
	hashes, leaves := l.hashes, l.leaves
	l.hashes = make([]HashRecord, 0, l.interval)
	l.leaves = make([]LeafRecord[K, V], 0, l.interval)
	l.listMutex.Unlock()
	return hashes, leaves
}

// flush hands one batch over to the data source, merging in any pending
// removals. Batches are sorted by path before the handover, making the
// flushed record sequence independent of the interleaving of the hashing
// goroutines that produced it.
func (l *FlushListener[K, V]) flush(hashes []HashRecord, leaves []LeafRecord[K, V]) {
	if l.hasFailed() {
		return
	}
	var removed []LeafRecord[K, V]
	if l.removals != nil {
		removed = l.removals.FindLeavesToRemove()
	}
	if len(hashes) == 0 && len(leaves) == 0 && len(removed) == 0 {
		return
	}
	SortHashRecordsByPath(hashes)
	SortLeafRecordsByPath(leaves)
	if err := l.source.SaveRecords(l.firstLeafPath, l.lastLeafPath, hashes, leaves, removed); err != nil {
		l.errsMutex.Lock()
		l.errs = append(l.errs, fmt.Errorf("failed to flush %d hashes and %d leaves: %w", len(hashes), len(leaves), err))
		l.errsMutex.Unlock()
		return
	}
	l.metrics.FlushCompleted(len(hashes), len(leaves), len(removed))
}

func (l *FlushListener[K, V]) hasFailed() bool {
	l.errsMutex.Lock()
	defer l.errsMutex.Unlock()
	return len(l.errs) > 0
}
