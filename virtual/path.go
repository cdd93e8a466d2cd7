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
	"fmt"
	"math/bits"

	"github.com/suiyuan1314/hedera-services-sub000/common"
)

// Path addresses a node within a virtual tree. The tree is a complete binary
// tree stored implicitly, without pointers, by numbering nodes in breadth
// first order:
//
//	              0
//	      1               2
//	  3       4       5       6
//	 7 8     9 10   11 12   13 14
//
// The root is path 0, the children of a node p are 2p+1 and 2p+2, and its
// parent is (p-1)/2. Rank r starts at path 2^r-1 and holds 2^r nodes. Since
// paths are plain integers, a 64-bit value addresses trees of up to 62 full
// ranks, sufficient for any foreseeable leaf count.
//
// A tree with N >= 2 leaves keeps its leaves on the two deepest ranks, at
// paths [N-1, 2N-2]. A tree with a single leaf stores it as the left child
// of the root, at path 1. Positions are not stable across mutations: when
// the leaf count changes, leaves are relocated to keep the tree complete.
type Path int64

const (
	// RootPath is the path of the root node of every non-empty tree.
	RootPath Path = 0

	// InvalidPath marks the absence of a node, for instance the parent of
	// the root or the leaf bounds of an empty tree.
	InvalidPath Path = -1
)

// Rank returns the distance of the addressed node from the root. The root is
// at rank 0. The result is undefined for invalid paths.
func (p Path) Rank() int {
	return bits.Len64(uint64(p)+1) - 1
}

// IsRoot is true if p addresses the root node.
func (p Path) IsRoot() bool {
	return p == RootPath
}

// IsLeft is true if the addressed node is the left child of its parent.
// Left children carry odd paths.
func (p Path) IsLeft() bool {
	return p&1 == 1
}

// Parent returns the path of the parent node, or InvalidPath for the root
// and for invalid paths.
func (p Path) Parent() Path {
	if p <= RootPath {
		return InvalidPath
	}
	return (p - 1) / 2
}

// LeftChild returns the path of the left child of the addressed node.
func (p Path) LeftChild() Path {
	return 2*p + 1
}

// RightChild returns the path of the right child of the addressed node.
func (p Path) RightChild() Path {
	return 2*p + 2
}

// Sibling returns the path of the other child of the parent of the addressed
// node, or InvalidPath for the root and for invalid paths.
func (p Path) Sibling() Path {
	if p <= RootPath {
		return InvalidPath
	}
	if p.IsLeft() {
		return p + 1
	}
	return p - 1
}

// IndexInRank returns the zero-based position of the addressed node within
// its rank, counting from the left.
func (p Path) IndexInRank() Path {
	return p - FirstPathInRank(p.Rank())
}

// String renders the path as rank.index, e.g. the root is "0.0".
func (p Path) String() string {
	if p < 0 {
		return "invalid"
	}
	return fmt.Sprintf("%d.%d", p.Rank(), p.IndexInRank())
}

// FirstPathInRank returns the path of the left-most node of the given rank.
func FirstPathInRank(rank int) Path {
	return Path(int64(1)<<rank - 1)
}

// PathForRankAndIndex is the inverse of Rank and IndexInRank.
func PathForRankAndIndex(rank int, index Path) Path {
	return FirstPathInRank(rank) + index
}

// ----------------------------------------------------------------------------
//                              Leaf Path Bounds
// ----------------------------------------------------------------------------

// A pair of leaf path bounds (firstLeafPath, lastLeafPath) describes which
// paths of a tree hold leaves. An empty tree has both bounds set to
// InvalidPath. Since path 0 always addresses the root, a bound of 0 is never
// valid.

// FirstLeafPathFor returns the path of the left-most leaf of a tree with the
// given number of leaves.
func FirstLeafPathFor(leaves int64) Path {
	switch {
	case leaves <= 0:
		return InvalidPath
	case leaves == 1:
		return 1
	default:
		return Path(leaves - 1)
	}
}

// LastLeafPathFor returns the path of the right-most leaf of a tree with the
// given number of leaves.
func LastLeafPathFor(leaves int64) Path {
	switch {
	case leaves <= 0:
		return InvalidPath
	case leaves == 1:
		return 1
	default:
		return Path(2*leaves - 2)
	}
}

// LeafCountOf returns the number of leaves of a tree with the given bounds.
func LeafCountOf(firstLeafPath, lastLeafPath Path) int64 {
	if firstLeafPath <= RootPath {
		return 0
	}
	return int64(lastLeafPath - firstLeafPath + 1)
}

// IsLeaf is true if p addresses a leaf of a tree with the given bounds.
func (p Path) IsLeaf(firstLeafPath, lastLeafPath Path) bool {
	return firstLeafPath > RootPath && p >= firstLeafPath && p <= lastLeafPath
}

// IsInternal is true if p addresses an internal node, the root included, of
// a tree with the given first leaf path.
func (p Path) IsInternal(firstLeafPath Path) bool {
	return p == RootPath || (firstLeafPath > RootPath && p > RootPath && p < firstLeafPath)
}

// Exists is true if p addresses any node, internal or leaf, of a tree with
// the given bounds. The root exists even in an empty tree.
func (p Path) Exists(firstLeafPath, lastLeafPath Path) bool {
	return p == RootPath || (firstLeafPath > RootPath && p > RootPath && p <= lastLeafPath)
}

// ErrInvalidBounds is returned when a (firstLeafPath, lastLeafPath) pair
// does not describe a valid tree shape.
const ErrInvalidBounds = common.ConstError("invalid leaf path bounds")

// CheckBounds verifies that the given pair of leaf path bounds describes a
// valid tree shape: either both InvalidPath for an empty tree, or
// 0 < firstLeafPath <= lastLeafPath. A bound of 0 is always invalid since
// path 0 is the root.
func CheckBounds(firstLeafPath, lastLeafPath Path) error {
	if firstLeafPath == InvalidPath && lastLeafPath == InvalidPath {
		return nil
	}
	if firstLeafPath <= RootPath || lastLeafPath <= RootPath || firstLeafPath > lastLeafPath {
		return fmt.Errorf("%w: first %d, last %d", ErrInvalidBounds, firstLeafPath, lastLeafPath)
	}
	return nil
}
