// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package reconnect synchronizes an out-of-date virtual tree with a live
// remote copy. The side holding the up-to-date tree acts as the teacher, the
// out-of-date side as the learner. The learner walks the tree top-down,
// comparing node hashes to prune subtrees it already agrees on, fetches the
// leaves it misses, re-hashes them into its data source, and verifies the
// resulting root hash against the one advertised by the teacher. Only the
// learner mutates any state; a teacher can serve any number of learners.
package reconnect

import (
	"context"
	"errors"
	"fmt"

	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/common/interrupt"
	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

// ErrVerification indicates that the root hash computed from the transferred
// state does not match the root hash advertised by the teacher.
const ErrVerification = common.ConstError("root hash verification failed")

// Config bundles the tuning options of the learner side. The zero value is a
// valid configuration selecting defaults for every option.
type Config struct {
	// MaxInFlight bounds the number of outstanding requests a learner keeps
	// on the wire. Values below 1 select virtual.DefaultMaxInFlight.
	MaxInFlight int

	// Hashing configures the re-hashing of the received state.
	Hashing virtual.Config
}

func (c Config) normalized() Config {
	if c.MaxInFlight < 1 {
		c.MaxInFlight = virtual.DefaultMaxInFlight
	}
	return c
}

// Stats summarizes the work done by a completed synchronization.
type Stats struct {
	// HashesRequested is the number of node hashes fetched for comparison.
	HashesRequested int64

	// MatchedSubtrees is the number of fetched hashes that matched the local
	// state, pruning the subtree below from the transfer.
	MatchedSubtrees int64

	// LeavesReceived is the number of leaf records transferred.
	LeavesReceived int64

	// LeavesRemoved is the number of stale local records deleted.
	LeavesRemoved int64
}

// Learner synchronizes a local data source with the tree served by a remote
// teacher. A learner holds no session state and may be reused for any number
// of consecutive synchronizations of its source.
type Learner[K comparable, V any] struct {
	source          virtual.DataSource[K, V]
	keySerializer   common.Serializer[K]
	valueSerializer common.Serializer[V]
	hasher          *virtual.Hasher[K, V]
	config          Config
}

func NewLearner[K comparable, V any](
	source virtual.DataSource[K, V],
	keySerializer common.Serializer[K],
	valueSerializer common.Serializer[V],
	config Config,
) (*Learner[K, V], error) {
	if source == nil {
		return nil, fmt.Errorf("data source must not be nil")
	}
	hasher, err := virtual.NewHasher[K, V](keySerializer, valueSerializer, config.Hashing)
	if err != nil {
		return nil, err
	}
	return &Learner[K, V]{
		source:          source,
		keySerializer:   keySerializer,
		valueSerializer: valueSerializer,
		hasher:          hasher,
		config:          config.normalized(),
	}, nil
}

// Reconnect runs one synchronization session over the given connection and
// returns the verified root hash of the synchronized tree. On a successful
// return the local data source holds exactly the teacher's leaf set, fully
// hashed and flushed.
//
// Any failure aborts the session; the connection must not be reused after an
// error. Cancelling the context stops the session between messages; to
// release a learner blocked on a read, close the connection.
func (l *Learner[K, V]) Reconnect(ctx context.Context, conn Connection) (common.Hash, Stats, error) {
	stats := Stats{}

	if err := writeMessage(conn, msgStart, startMessage{Version: protocolVersion}); err != nil {
		return common.Hash{}, stats, cancelledOr(ctx, err)
	}
	teacherFirst, teacherLast, teacherRoot, err := l.awaitBounds(conn)
	if err != nil {
		return common.Hash{}, stats, cancelledOr(ctx, err)
	}

	localFirst, localLast, err := l.source.Bounds()
	if err != nil {
		sendAbort(conn, "learner failed to resolve its tree bounds")
		return common.Hash{}, stats, fmt.Errorf("failed to resolve tree bounds: %w", err)
	}
	// A missing local root hash is no reason to give up; the walk below
	// heals partially hashed states. It just rules out the shortcut.
	localRoot, err := virtual.RootHashOf(l.source)
	if err != nil && !errors.Is(err, virtual.ErrMissingHash) {
		sendAbort(conn, "learner failed to resolve its root hash")
		return common.Hash{}, stats, fmt.Errorf("failed to resolve root hash: %w", err)
	}

	// Identical trees need no transfer at all.
	if teacherFirst == localFirst && teacherLast == localLast && teacherRoot == localRoot {
		if err := writeMessage(conn, msgDone, doneMessage{}); err != nil {
			return common.Hash{}, stats, err
		}
		return teacherRoot, stats, nil
	}

	remover := NewNodeRemover[K, V]()
	remover.SetLeafBounds(teacherFirst, teacherLast)
	if err := l.stageRelocatedLeaves(localFirst, localLast, teacherFirst, teacherLast, remover); err != nil {
		sendAbort(conn, "learner failed to scan its leaves")
		return common.Hash{}, stats, err
	}

	dirty, err := l.transfer(ctx, conn, teacherFirst, teacherLast, remover, &stats)
	if err != nil {
		return common.Hash{}, stats, err
	}

	rootHash, err := l.rehash(ctx, teacherFirst, teacherLast, dirty, remover)
	if err != nil {
		sendAbort(conn, "learner failed to re-hash the received state")
		return common.Hash{}, stats, err
	}
	if rootHash != teacherRoot {
		sendAbort(conn, "root hash mismatch")
		return common.Hash{}, stats, fmt.Errorf("%w: got %v, want %v", ErrVerification, rootHash, teacherRoot)
	}
	stats.LeavesRemoved = remover.Removed()

	if err := l.source.Flush(); err != nil {
		sendAbort(conn, "learner failed to flush")
		return common.Hash{}, stats, fmt.Errorf("failed to flush the synchronized state: %w", err)
	}
	if err := writeMessage(conn, msgDone, doneMessage{}); err != nil {
		return common.Hash{}, stats, err
	}
	return rootHash, stats, nil
}

// awaitBounds reads and validates the teacher's half of the handshake.
func (l *Learner[K, V]) awaitBounds(conn Connection) (virtual.Path, virtual.Path, common.Hash, error) {
	kind, payload, err := readMessage(conn)
	if err != nil {
		return 0, 0, common.Hash{}, fmt.Errorf("failed to read handshake: %w", err)
	}
	if kind == msgAbort {
		message, err := decodeMessage[abortMessage](kind, payload)
		if err != nil {
			return 0, 0, common.Hash{}, err
		}
		return 0, 0, common.Hash{}, fmt.Errorf("%w by teacher: %s", ErrAborted, message.Reason)
	}
	if kind != msgBounds {
		sendAbort(conn, "expected bounds message")
		return 0, 0, common.Hash{}, fmt.Errorf("%w: expected bounds message, got %v", ErrProtocol, kind)
	}
	bounds, err := decodeMessage[boundsMessage](kind, payload)
	if err != nil {
		sendAbort(conn, "malformed bounds message")
		return 0, 0, common.Hash{}, err
	}
	first := decodePath(bounds.FirstLeafPath)
	last := decodePath(bounds.LastLeafPath)
	if err := virtual.CheckBounds(first, last); err != nil {
		sendAbort(conn, "invalid bounds")
		return 0, 0, common.Hash{}, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return first, last, bounds.RootHash, nil
}

// stageRelocatedLeaves stages all local leaf records whose paths are no
// leaf positions of the announced tree anymore. Such records are never
// overwritten by the transfer, so they must be staged up front; records
// overtaken by a different key at their own path are staged when the new
// record arrives.
func (l *Learner[K, V]) stageRelocatedLeaves(localFirst, localLast, teacherFirst, teacherLast virtual.Path, remover *NodeRemover[K, V]) error {
	if localFirst == virtual.InvalidPath {
		return nil
	}
	for path := localFirst; path <= localLast; path++ {
		if path.IsLeaf(teacherFirst, teacherLast) {
			continue
		}
		record, exists, err := l.source.LoadLeafRecord(path)
		if err != nil {
			return fmt.Errorf("failed to load leaf at path %v: %w", path, err)
		}
		if exists {
			remover.MarkStale(record)
		}
	}
	return nil
}

// pendingRequest tracks one request on the wire: the kind of the expected
// response and the path it was asked for. The teacher answers strictly in
// request order, so a FIFO of these fully determines the valid next message.
type pendingRequest struct {
	kind messageKind
	path virtual.Path
}

// transfer walks the announced tree top-down and fetches all leaves whose
// subtree hashes differ from the local state. It keeps up to MaxInFlight
// requests on the wire. The returned leaf records are sorted by path.
func (l *Learner[K, V]) transfer(
	ctx context.Context,
	conn Connection,
	teacherFirst, teacherLast virtual.Path,
	remover *NodeRemover[K, V],
	stats *Stats,
) ([]virtual.LeafRecord[K, V], error) {
	dirty := []virtual.LeafRecord[K, V]{}

	frontier := []virtual.Path{}
	for _, path := range []virtual.Path{virtual.RootPath.LeftChild(), virtual.RootPath.RightChild()} {
		if path.Exists(teacherFirst, teacherLast) {
			frontier = append(frontier, path)
		}
	}
	frontierHead := 0

	pending := []pendingRequest{}
	pendingHead := 0

	for frontierHead < len(frontier) || pendingHead < len(pending) {
		if interrupt.IsCancelled(ctx) {
			sendAbort(conn, "learner cancelled")
			return nil, interrupt.ErrCanceled
		}

		for len(pending)-pendingHead < l.config.MaxInFlight && frontierHead < len(frontier) {
			path := frontier[frontierHead]
			frontierHead++
			if frontierHead == len(frontier) {
				frontier, frontierHead = frontier[:0], 0
			}
			if err := writeMessage(conn, msgGetHash, getHashMessage{Path: encodePath(path)}); err != nil {
				return nil, cancelledOr(ctx, err)
			}
			pending = append(pending, pendingRequest{msgHash, path})
			stats.HashesRequested++
		}

		kind, payload, err := readMessage(conn)
		if err != nil {
			return nil, cancelledOr(ctx, fmt.Errorf("failed to read response: %w", err))
		}
		if kind == msgAbort {
			message, err := decodeMessage[abortMessage](kind, payload)
			if err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w by teacher: %s", ErrAborted, message.Reason)
		}
		if pendingHead == len(pending) {
			sendAbort(conn, "unsolicited response")
			return nil, fmt.Errorf("%w: unsolicited %v message", ErrProtocol, kind)
		}
		expected := pending[pendingHead]
		pendingHead++
		if pendingHead == len(pending) {
			pending, pendingHead = pending[:0], 0
		}
		if kind != expected.kind {
			sendAbort(conn, "out-of-order response")
			return nil, fmt.Errorf("%w: expected %v for path %v, got %v", ErrProtocol, expected.kind, expected.path, kind)
		}

		switch kind {
		case msgHash:
			response, err := decodeMessage[hashMessage](kind, payload)
			if err != nil {
				sendAbort(conn, "malformed response")
				return nil, err
			}
			path := decodePath(response.Path)
			if path != expected.path {
				sendAbort(conn, "out-of-order response")
				return nil, fmt.Errorf("%w: expected hash of path %v, got %v", ErrProtocol, expected.path, path)
			}
			local, exists, err := l.source.LoadHash(path)
			if err != nil {
				sendAbort(conn, "learner failed to load a hash")
				return nil, fmt.Errorf("failed to load hash of path %v: %w", path, err)
			}
			if exists && local == response.Hash {
				stats.MatchedSubtrees++
				continue
			}
			if path.IsLeaf(teacherFirst, teacherLast) {
				if err := writeMessage(conn, msgGetLeaf, getLeafMessage{Path: response.Path}); err != nil {
					return nil, cancelledOr(ctx, err)
				}
				pending = append(pending, pendingRequest{msgLeaf, path})
			} else {
				for _, child := range []virtual.Path{path.LeftChild(), path.RightChild()} {
					if child.Exists(teacherFirst, teacherLast) {
						frontier = append(frontier, child)
					}
				}
			}
		case msgLeaf:
			response, err := decodeMessage[leafMessage](kind, payload)
			if err != nil {
				sendAbort(conn, "malformed response")
				return nil, err
			}
			path := decodePath(response.Path)
			if path != expected.path {
				sendAbort(conn, "out-of-order response")
				return nil, fmt.Errorf("%w: expected leaf at path %v, got %v", ErrProtocol, expected.path, path)
			}
			if size := l.keySerializer.Size(); len(response.Key) != size {
				sendAbort(conn, "malformed leaf key")
				return nil, fmt.Errorf("%w: leaf key of %d bytes, want %d", ErrProtocol, len(response.Key), size)
			}
			if size := l.valueSerializer.Size(); size > 0 && len(response.Value) != size {
				sendAbort(conn, "malformed leaf value")
				return nil, fmt.Errorf("%w: leaf value of %d bytes, want %d", ErrProtocol, len(response.Value), size)
			}
			leaf := virtual.LeafRecord[K, V]{
				Path:  path,
				Key:   l.keySerializer.FromBytes(response.Key),
				Value: l.valueSerializer.FromBytes(response.Value),
			}
			remover.MarkPresent(leaf.Key)
			old, exists, err := l.source.LoadLeafRecord(path)
			if err != nil {
				sendAbort(conn, "learner failed to load a leaf")
				return nil, fmt.Errorf("failed to load leaf at path %v: %w", path, err)
			}
			if exists && old.Key != leaf.Key {
				remover.MarkStale(old)
			}
			dirty = append(dirty, leaf)
			stats.LeavesReceived++
		}
	}

	virtual.SortLeafRecordsByPath(dirty)
	return dirty, nil
}

// cancelledOr reports the cancellation of the session instead of the given
// error; aborting a session closes its connection, making the cancellation
// surface as arbitrary connection errors.
func cancelledOr(ctx context.Context, err error) error {
	if interrupt.IsCancelled(ctx) {
		return interrupt.ErrCanceled
	}
	return err
}

// rehash recomputes all hashes affected by the transferred leaves, flushing
// records and staged removals into the data source along the way. Since all
// leaves were collected before this pass starts, every rescue of a staged
// record has happened before the first batch is flushed.
func (l *Learner[K, V]) rehash(
	ctx context.Context,
	teacherFirst, teacherLast virtual.Path,
	dirty []virtual.LeafRecord[K, V],
	remover *NodeRemover[K, V],
) (common.Hash, error) {
	listener, err := NewHashListener[K, V](l.source, teacherFirst, teacherLast, remover, l.config.Hashing)
	if err != nil {
		return common.Hash{}, err
	}
	return l.hasher.HashDirtyLeaves(
		ctx,
		common.NewSliceIterator(dirty),
		teacherFirst, teacherLast,
		virtual.HashReaderOf[K, V](l.source),
		listener,
	)
}
