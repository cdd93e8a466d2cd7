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

import (
	"context"
	"errors"
	"fmt"
	"hash"
	"sync"

	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/common/interrupt"
)

const (
	// ErrMissingHash is returned when the hash of a node that should be
	// known to the tree cannot be resolved.
	ErrMissingHash = common.ConstError("missing node hash")

	// ErrInvalidLeafStream is returned when the dirty leaves passed to a
	// hashing pass are not strictly ascending or out of bounds.
	ErrInvalidLeafStream = common.ConstError("invalid dirty leaf stream")
)

// Domain separation prefixes keeping leaf and internal node hashes from
// colliding.
var (
	leafHashPrefix     = []byte{'L'}
	internalHashPrefix = []byte{'I'}
)

// HashReader resolves the hashes of nodes not touched by the running
// hashing pass. It is called concurrently by hashing workers.
type HashReader func(path Path) (common.Hash, error)

// HashReaderOf adapts a data source into a HashReader. A missing hash is
// reported as ErrMissingHash since the pass only asks for hashes the source
// is supposed to have.
func HashReaderOf[K comparable, V any](source DataSource[K, V]) HashReader {
	return func(path Path) (common.Hash, error) {
		h, exists, err := source.LoadHash(path)
		if err != nil {
			return common.Hash{}, err
		}
		if !exists {
			return common.Hash{}, fmt.Errorf("%w: %v", ErrMissingHash, path)
		}
		return h, nil
	}
}

// Hasher recomputes tree hashes after leaf changes. It walks the tree rank
// by rank, deepest rank first, hashing all dirty nodes of one rank in
// parallel before moving up to their parents. The hash of a leaf is
// H('L' | key | value), the hash of an internal node H('I' | left | right).
//
// A Hasher holds no tree state and may be reused for any number of passes,
// also concurrently.
type Hasher[K comparable, V any] struct {
	config          Config
	pool            *common.HasherPool
	keySerializer   common.Serializer[K]
	valueSerializer common.Serializer[V]
}

// NewHasher creates a hasher for trees with the given key and value
// encodings. The key encoding must have a fixed size, otherwise leaf hash
// inputs would be ambiguous.
func NewHasher[K comparable, V any](keySerializer common.Serializer[K], valueSerializer common.Serializer[V], config Config) (*Hasher[K, V], error) {
	if keySerializer == nil || valueSerializer == nil {
		return nil, fmt.Errorf("serializers must not be nil")
	}
	if keySerializer.Size() <= 0 {
		return nil, fmt.Errorf("the key encoding must have a fixed size")
	}
	config = config.normalized()
	return &Hasher[K, V]{
		config:          config,
		pool:            common.NewHasherPool(config.Algorithm),
		keySerializer:   keySerializer,
		valueSerializer: valueSerializer,
	}, nil
}

// hashTask is one node to be hashed within the currently processed rank.
// Leaf tasks carry their record, internal tasks resolve their children from
// the results of the previous rank.
type hashTask[K comparable, V any] struct {
	path Path
	leaf *LeafRecord[K, V]
}

// HashDirtyLeaves computes the new root hash of a tree with the given leaf
// path bounds in which the given leaves changed. The leaves must be sorted
// by strictly ascending path and must cover every leaf whose position or
// content differs from the state the reader reports; the reader provides
// the hashes of all remaining nodes. Every computed hash is reported to the
// listener as described by the HashListener contract.
//
// An empty dirty set performs no work beyond bracketing the pass and
// returns the current root hash. Cancelling the context stops the pass
// between ranks with interrupt.ErrCanceled.
func (h *Hasher[K, V]) HashDirtyLeaves(
	ctx context.Context,
	leaves common.Iterator[LeafRecord[K, V]],
	firstLeafPath, lastLeafPath Path,
	reader HashReader,
	listener HashListener[K, V],
) (common.Hash, error) {
	if err := CheckBounds(firstLeafPath, lastLeafPath); err != nil {
		return common.Hash{}, err
	}
	if listener == nil {
		listener = NoopHashListener[K, V]{}
	}
	if reader == nil {
		reader = func(path Path) (common.Hash, error) {
			return common.Hash{}, fmt.Errorf("%w: %v", ErrMissingHash, path)
		}
	}
	listener.OnHashingStarted()
	root, err := h.hashDirtyLeaves(ctx, leaves, firstLeafPath, lastLeafPath, reader, listener)
	err = errors.Join(err, listener.OnHashingCompleted())
	if err != nil {
		return common.Hash{}, err
	}
	return root, nil
}

func (h *Hasher[K, V]) hashDirtyLeaves(
	ctx context.Context,
	leaves common.Iterator[LeafRecord[K, V]],
	firstLeafPath, lastLeafPath Path,
	reader HashReader,
	listener HashListener[K, V],
) (common.Hash, error) {
	// The leaves of a complete tree live on at most two consecutive ranks;
	// bucket the dirty ones by rank while checking the stream contract.
	deepRank := lastLeafPath.Rank()
	buckets := map[int][]hashTask[K, V]{}
	prevPath := InvalidPath
	total := 0
	for leaves.HasNext() {
		leaf := leaves.Next()
		if leaf.Path <= prevPath {
			return common.Hash{}, fmt.Errorf("%w: path %v after %v", ErrInvalidLeafStream, leaf.Path, prevPath)
		}
		if !leaf.Path.IsLeaf(firstLeafPath, lastLeafPath) {
			return common.Hash{}, fmt.Errorf("%w: path %v is not a leaf of [%d,%d]", ErrInvalidLeafStream, leaf.Path, firstLeafPath, lastLeafPath)
		}
		prevPath = leaf.Path
		record := leaf
		buckets[leaf.Path.Rank()] = append(buckets[leaf.Path.Rank()], hashTask[K, V]{path: leaf.Path, leaf: &record})
		total++
	}

	if total == 0 {
		switch {
		case firstLeafPath == InvalidPath:
			return common.EmptyHash, nil
		case firstLeafPath == 1 && lastLeafPath == 1:
			return reader(1)
		default:
			return reader(RootPath)
		}
	}

	// A single-leaf tree has no internal node to combine hashes in; the
	// hash of the sole leaf doubles as the root hash.
	if firstLeafPath == 1 && lastLeafPath == 1 {
		task := buckets[1][0]
		hasher := h.pool.GetHasher()
		rootHash := h.hashLeaf(hasher, task.leaf)
		h.pool.ReturnHasher(hasher)
		listener.OnLeafHashed(*task.leaf)
		listener.OnNodeHashed(task.path, rootHash)
		h.config.Metrics.LeafHashed()
		h.config.Metrics.NodeHashed()
		return rootHash, nil
	}

	// Walk the ranks bottom-up. Each iteration hashes all dirty nodes of
	// one rank in parallel, then derives the dirty parents for the next.
	var rootHash common.Hash
	results := map[Path]common.Hash{}
	tasks := []hashTask[K, V]{}
	for rank := deepRank; rank >= 0; rank-- {
		if interrupt.IsCancelled(ctx) {
			return common.Hash{}, interrupt.ErrCanceled
		}
		tasks = nextRankTasks(tasks, buckets[rank])
		if len(tasks) == 0 {
			continue
		}
		hashes := make([]common.Hash, len(tasks))
		workers := h.config.HasherThreads
		if workers > len(tasks) {
			workers = len(tasks)
		}
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				hasher := h.pool.GetHasher()
				defer h.pool.ReturnHasher(hasher)
				for i := w; i < len(tasks); i += workers {
					task := tasks[i]
					if task.leaf != nil {
						hashes[i] = h.hashLeaf(hasher, task.leaf)
						listener.OnLeafHashed(*task.leaf)
						h.config.Metrics.LeafHashed()
					} else {
						res, err := h.hashInternal(hasher, task.path, results, reader)
						if err != nil {
							errs[w] = err
							return
						}
						hashes[i] = res
					}
					listener.OnNodeHashed(task.path, hashes[i])
					h.config.Metrics.NodeHashed()
				}
			}(w)
		}
		wg.Wait()
		if err := errors.Join(errs...); err != nil {
			return common.Hash{}, err
		}

		clear(results)
		for i, task := range tasks {
			results[task.path] = hashes[i]
		}
		if rank == 0 {
			rootHash = hashes[0]
		}
	}
	return rootHash, nil
}

// nextRankTasks derives the task list of the next rank to be processed: the
// parents of all previously hashed nodes merged with the dirty leaves
// bucketed on that rank. Both inputs are ascending and disjoint, parents
// being internal nodes, and the result stays ascending.
func nextRankTasks[K comparable, V any](hashed []hashTask[K, V], dirtyLeaves []hashTask[K, V]) []hashTask[K, V] {
	parents := make([]hashTask[K, V], 0, len(hashed)/2+1)
	last := InvalidPath
	for _, task := range hashed {
		if parent := task.path.Parent(); parent != last {
			parents = append(parents, hashTask[K, V]{path: parent})
			last = parent
		}
	}
	if len(dirtyLeaves) == 0 {
		return parents
	}
	merged := make([]hashTask[K, V], 0, len(parents)+len(dirtyLeaves))
	i, j := 0, 0
	for i < len(parents) && j < len(dirtyLeaves) {
		if parents[i].path < dirtyLeaves[j].path {
			merged = append(merged, parents[i])
			i++
		} else {
			merged = append(merged, dirtyLeaves[j])
			j++
		}
	}
	merged = append(merged, parents[i:]...)
	merged = append(merged, dirtyLeaves[j:]...)
	return merged
}

func (h *Hasher[K, V]) hashLeaf(hasher hash.Hash, leaf *LeafRecord[K, V]) common.Hash {
	return common.GetHash(hasher,
		leafHashPrefix,
		h.keySerializer.ToBytes(leaf.Key),
		h.valueSerializer.ToBytes(leaf.Value),
	)
}

func (h *Hasher[K, V]) hashInternal(hasher hash.Hash, path Path, results map[Path]common.Hash, reader HashReader) (common.Hash, error) {
	left, err := childHash(path.LeftChild(), results, reader)
	if err != nil {
		return common.Hash{}, err
	}
	right, err := childHash(path.RightChild(), results, reader)
	if err != nil {
		return common.Hash{}, err
	}
	return common.GetHash(hasher, internalHashPrefix, left[:], right[:]), nil
}

// childHash resolves the hash of a child node, either from the results of
// the rank hashed right before, or through the reader for clean nodes.
func childHash(path Path, results map[Path]common.Hash, reader HashReader) (common.Hash, error) {
	if h, exists := results[path]; exists {
		return h, nil
	}
	return reader(path)
}
