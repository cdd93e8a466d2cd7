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

//go:generate mockgen -source hash_listener.go -destination hash_listener_mocks.go -package virtual

import (
	"github.com/suiyuan1314/hedera-services-sub000/common"
)

// HashListener observes a single hashing pass over a virtual tree. The
// Hasher calls OnHashingStarted exactly once before any node is hashed, then
// reports every hashed node, and finally calls OnHashingCompleted exactly
// once after all workers have finished.
//
// The per-node callbacks are invoked from multiple hashing goroutines
// concurrently; implementations must synchronize internally. Per-node
// callbacks never run before OnHashingStarted returned nor after
// OnHashingCompleted was entered.
type HashListener[K comparable, V any] interface {
	// OnHashingStarted signals the start of a hashing pass.
	OnHashingStarted()

	// OnLeafHashed reports a dirty leaf whose hash was just computed. The
	// same leaf is additionally reported through OnNodeHashed.
	OnLeafHashed(leaf LeafRecord[K, V])

	// OnNodeHashed reports the fresh hash of a dirty node, leaf or
	// internal. Over the whole pass, the ranks of the reported paths never
	// increase, the root coming last.
	OnNodeHashed(path Path, hash common.Hash)

	// OnHashingCompleted signals the end of the pass. It returns any error
	// the listener accumulated while processing callbacks, for instance
	// from flushing records to a data source.
	OnHashingCompleted() error
}

// NoopHashListener is a HashListener ignoring all events. It serves hashing
// passes whose results are consumed through the returned root hash only.
type NoopHashListener[K comparable, V any] struct{}

func (NoopHashListener[K, V]) OnHashingStarted()              {}
func (NoopHashListener[K, V]) OnLeafHashed(LeafRecord[K, V])  {}
func (NoopHashListener[K, V]) OnNodeHashed(Path, common.Hash) {}
func (NoopHashListener[K, V]) OnHashingCompleted() error      { return nil }
