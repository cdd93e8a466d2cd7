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

//go:generate mockgen -source data_source.go -destination data_source_mocks.go -package virtual

import (
	"fmt"

	"github.com/suiyuan1314/hedera-services-sub000/common"
)

// DataSource is the persistence port of a virtual tree. It stores three
// things: the hash of every node by path, the leaf records by path, and an
// index from leaf keys to their current paths.
//
// Implementations must allow any number of concurrent readers, and must
// tolerate readers running while a single SaveRecords call is in progress.
// Concurrent SaveRecords calls are not allowed; the flush machinery
// serializes them.
type DataSource[K comparable, V any] interface {
	// SaveRecords persists one batch of changes atomically: first all
	// leavesToDelete are removed, then leaves and hashes are stored, and
	// the leaf path bounds are moved to the given values. Both the hashes
	// and the leaves lists are sorted by ascending path.
	//
	// Deletes are guarded: the leaf record at the deleted path is removed
	// only if it still holds the deleted key, and the key index entry is
	// removed only if it still points at the deleted path. Deletes of
	// records already overwritten by a previous batch are thus harmless.
	//
	// When the given lastLeafPath is lower than the stored one, all hash
	// entries beyond the new bound are dropped. A hash entry surviving a
	// shrink would otherwise shadow the absence of the deleted records: a
	// later synchronization growing the tree back could compare against it,
	// consider the subtree clean, and skip re-fetching its leaves.
	SaveRecords(firstLeafPath, lastLeafPath Path, hashes []HashRecord, leaves []LeafRecord[K, V], leavesToDelete []LeafRecord[K, V]) error

	// LoadLeafRecord retrieves the leaf record stored at the given path.
	// The second result is false if the path holds no leaf.
	LoadLeafRecord(path Path) (LeafRecord[K, V], bool, error)

	// LoadLeafRecordByKey retrieves the leaf record holding the given key
	// through the key index. The second result is false if the key is not
	// in the tree.
	LoadLeafRecordByKey(key K) (LeafRecord[K, V], bool, error)

	// LoadHash retrieves the hash of the node at the given path. The
	// second result is false if no hash is stored for the path. It is
	// called concurrently by hashing workers.
	LoadHash(path Path) (common.Hash, bool, error)

	// Bounds returns the current leaf path bounds, both InvalidPath for an
	// empty tree.
	Bounds() (firstLeafPath, lastLeafPath Path, err error)

	common.FlushAndCloser
}

// RootHashOf resolves the hash of the tree root as stored in the given data
// source. For a single-leaf tree the hash of the sole leaf doubles as the
// root hash. An empty tree reports common.EmptyHash.
func RootHashOf[K comparable, V any](source DataSource[K, V]) (common.Hash, error) {
	first, last, err := source.Bounds()
	if err != nil {
		return common.Hash{}, err
	}
	if first == InvalidPath {
		return common.EmptyHash, nil
	}
	path := RootPath
	if first == 1 && last == 1 {
		path = 1
	}
	hash, exists, err := source.LoadHash(path)
	if err != nil {
		return common.Hash{}, err
	}
	if !exists {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrMissingHash, path)
	}
	return hash, nil
}
