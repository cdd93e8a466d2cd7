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
	"golang.org/x/exp/slices"

	"github.com/suiyuan1314/hedera-services-sub000/common"
)

// LeafRecord is the full state of a single leaf: its position in the tree
// and the key/value pair stored in it. Leaf positions are not stable, the
// same key may live at different paths as the tree grows or shrinks.
type LeafRecord[K comparable, V any] struct {
	Path  Path
	Key   K
	Value V
}

// HashRecord carries the hash of a single node, leaf or internal.
type HashRecord struct {
	Path Path
	Hash common.Hash
}

// SortLeafRecordsByPath sorts the given records in place by ascending path.
func SortLeafRecordsByPath[K comparable, V any](records []LeafRecord[K, V]) {
	slices.SortFunc(records, func(a, b LeafRecord[K, V]) bool {
		return a.Path < b.Path
	})
}

// SortHashRecordsByPath sorts the given records in place by ascending path.
func SortHashRecordsByPath(records []HashRecord) {
	slices.SortFunc(records, func(a, b HashRecord) bool {
		return a.Path < b.Path
	})
}
