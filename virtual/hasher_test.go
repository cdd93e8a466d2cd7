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
	"sync"
	"testing"

	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/common/interrupt"
	"go.uber.org/mock/gomock"
)

func newTestHasher(t *testing.T, config Config) *Hasher[uint64, []byte] {
	t.Helper()
	hasher, err := NewHasher[uint64, []byte](common.Uint64Serializer{}, common.BytesSerializer{}, config)
	if err != nil {
		t.Fatalf("failed to create hasher: %v", err)
	}
	return hasher
}

// testLeaves produces a fully populated leaf set for a tree with n leaves,
// with keys and values derived from, but not equal to, the paths.
func testLeaves(n int64) []LeafRecord[uint64, []byte] {
	first, last := FirstLeafPathFor(n), LastLeafPathFor(n)
	leaves := make([]LeafRecord[uint64, []byte], 0, n)
	for path := first; path > 0 && path <= last; path++ {
		leaves = append(leaves, LeafRecord[uint64, []byte]{
			Path:  path,
			Key:   uint64(1000 + path),
			Value: []byte(fmt.Sprintf("value-%d", path)),
		})
	}
	return leaves
}

// referenceHashes computes the expected hash of every node of a fully
// populated tree the straightforward recursive way.
func referenceHashes(t *testing.T, leaves []LeafRecord[uint64, []byte], firstLeafPath, lastLeafPath Path) map[Path]common.Hash {
	t.Helper()
	byPath := map[Path]LeafRecord[uint64, []byte]{}
	for _, leaf := range leaves {
		byPath[leaf.Path] = leaf
	}
	hasher := common.Sha384Hashing
	pool := common.NewHasherPool(hasher)
	keySerializer := common.Uint64Serializer{}
	hashes := map[Path]common.Hash{}
	var hashOf func(path Path) common.Hash
	hashOf = func(path Path) common.Hash {
		if leaf, exists := byPath[path]; exists {
			h := pool.HashOf([]byte{'L'}, keySerializer.ToBytes(leaf.Key), leaf.Value)
			hashes[path] = h
			return h
		}
		left := hashOf(path.LeftChild())
		right := hashOf(path.RightChild())
		h := pool.HashOf([]byte{'I'}, left[:], right[:])
		hashes[path] = h
		return h
	}
	switch {
	case firstLeafPath == InvalidPath:
	case firstLeafPath == 1 && lastLeafPath == 1:
		hashOf(1)
	default:
		hashOf(RootPath)
	}
	return hashes
}

func referenceRootHash(hashes map[Path]common.Hash, firstLeafPath, lastLeafPath Path) common.Hash {
	if firstLeafPath == InvalidPath {
		return common.EmptyHash
	}
	if firstLeafPath == 1 && lastLeafPath == 1 {
		return hashes[1]
	}
	return hashes[RootPath]
}

// recordingListener captures all callbacks of a hashing pass.
type recordingListener struct {
	mu        sync.Mutex
	started   int
	completed int
	leaves    []LeafRecord[uint64, []byte]
	nodes     []HashRecord
}

func (l *recordingListener) OnHashingStarted() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started++
}

func (l *recordingListener) OnLeafHashed(leaf LeafRecord[uint64, []byte]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.leaves = append(l.leaves, leaf)
}

func (l *recordingListener) OnNodeHashed(path Path, hash common.Hash) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nodes = append(l.nodes, HashRecord{path, hash})
}

func (l *recordingListener) OnHashingCompleted() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed++
	return nil
}

// failingReader reports every read as unexpected; for passes that must
// resolve all hashes from the dirty set alone.
func failingReader(path Path) (common.Hash, error) {
	return common.Hash{}, fmt.Errorf("unexpected read of node %v", path)
}

func readerOf(hashes map[Path]common.Hash) HashReader {
	return func(path Path) (common.Hash, error) {
		if hash, exists := hashes[path]; exists {
			return hash, nil
		}
		return common.Hash{}, fmt.Errorf("%w: %v", ErrMissingHash, path)
	}
}

func TestNewHasher_ChecksArguments(t *testing.T) {
	if _, err := NewHasher[uint64, []byte](nil, common.BytesSerializer{}, Config{}); err == nil {
		t.Errorf("nil key serializer accepted")
	}
	if _, err := NewHasher[uint64, []byte](common.Uint64Serializer{}, nil, Config{}); err == nil {
		t.Errorf("nil value serializer accepted")
	}
	if _, err := NewHasher[uint64, []byte](varSizeKeySerializer{}, common.BytesSerializer{}, Config{}); err == nil {
		t.Errorf("variable-size key encoding accepted")
	}
}

type varSizeKeySerializer struct{ common.Uint64Serializer }

func (varSizeKeySerializer) Size() int { return -1 }

func TestHasher_RootHashMatchesReferenceForAllTreeSizes(t *testing.T) {
	for n := int64(1); n <= 17; n++ {
		t.Run(fmt.Sprintf("leaves=%d", n), func(t *testing.T) {
			first, last := FirstLeafPathFor(n), LastLeafPathFor(n)
			leaves := testLeaves(n)
			reference := referenceHashes(t, leaves, first, last)

			hasher := newTestHasher(t, Config{HasherThreads: 4})
			listener := &recordingListener{}
			root, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(leaves), first, last, failingReader, listener)
			if err != nil {
				t.Fatalf("hashing failed: %v", err)
			}
			if want := referenceRootHash(reference, first, last); root != want {
				t.Errorf("root hash mismatch: got %v, want %v", root, want)
			}

			// A fully dirty tree must report a hash for every node.
			if got, want := len(listener.nodes), len(reference); got != want {
				t.Errorf("reported %d node hashes, want %d", got, want)
			}
			for _, record := range listener.nodes {
				if want, exists := reference[record.Path]; !exists || want != record.Hash {
					t.Errorf("node %v hashed to %v, want %v", record.Path, record.Hash, want)
				}
			}
			if got, want := len(listener.leaves), len(leaves); got != want {
				t.Errorf("reported %d leaves, want %d", got, want)
			}
		})
	}
}

func TestHasher_PassIsBracketedByStartAndCompletion(t *testing.T) {
	hasher := newTestHasher(t, Config{})
	listener := &recordingListener{}
	leaves := testLeaves(4)
	_, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(leaves), 3, 6, failingReader, listener)
	if err != nil {
		t.Fatalf("hashing failed: %v", err)
	}
	if listener.started != 1 || listener.completed != 1 {
		t.Errorf("pass not bracketed: %d starts, %d completions", listener.started, listener.completed)
	}
}

func TestHasher_SingleLeafPassDrivesListenerInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	hasher := newTestHasher(t, Config{})
	listener := NewMockHashListener[uint64, []byte](ctrl)
	leaf := testLeaves(1)[0]
	gomock.InOrder(
		listener.EXPECT().OnHashingStarted(),
		listener.EXPECT().OnLeafHashed(leaf),
		listener.EXPECT().OnNodeHashed(Path(1), gomock.Any()),
		listener.EXPECT().OnHashingCompleted().Return(nil),
	)
	_, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator([]LeafRecord[uint64, []byte]{leaf}), 1, 1, failingReader, listener)
	if err != nil {
		t.Fatalf("hashing failed: %v", err)
	}
}

func TestHasher_CompletionErrorFailsThePass(t *testing.T) {
	ctrl := gomock.NewController(t)
	hasher := newTestHasher(t, Config{})
	listener := NewMockHashListener[uint64, []byte](ctrl)
	injected := fmt.Errorf("injected flush failure")
	listener.EXPECT().OnHashingStarted()
	listener.EXPECT().OnLeafHashed(gomock.Any())
	listener.EXPECT().OnNodeHashed(gomock.Any(), gomock.Any())
	listener.EXPECT().OnHashingCompleted().Return(injected)
	leaf := testLeaves(1)[0]
	_, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator([]LeafRecord[uint64, []byte]{leaf}), 1, 1, failingReader, listener)
	if !errors.Is(err, injected) {
		t.Errorf("completion error not propagated, got %v", err)
	}
}

func TestHasher_EmptyDirtySetOnEmptyTree(t *testing.T) {
	hasher := newTestHasher(t, Config{})
	listener := &recordingListener{}
	var empty []LeafRecord[uint64, []byte]
	root, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(empty), InvalidPath, InvalidPath, failingReader, listener)
	if err != nil {
		t.Fatalf("hashing failed: %v", err)
	}
	if root != common.EmptyHash {
		t.Errorf("empty tree hashed to %v, want %v", root, common.EmptyHash)
	}
	if listener.started != 1 || listener.completed != 1 {
		t.Errorf("pass not bracketed: %d starts, %d completions", listener.started, listener.completed)
	}
	if len(listener.nodes) != 0 {
		t.Errorf("unexpected node events: %v", listener.nodes)
	}
}

func TestHasher_EmptyDirtySetReturnsStoredRootHash(t *testing.T) {
	hasher := newTestHasher(t, Config{})
	listener := &recordingListener{}
	stored := common.Hash{1, 2, 3}
	var empty []LeafRecord[uint64, []byte]
	root, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(empty), 3, 6, readerOf(map[Path]common.Hash{RootPath: stored}), listener)
	if err != nil {
		t.Fatalf("hashing failed: %v", err)
	}
	if root != stored {
		t.Errorf("got root %v, want stored %v", root, stored)
	}
	if len(listener.nodes) != 0 || len(listener.leaves) != 0 {
		t.Errorf("an empty pass must not report any nodes")
	}
}

func TestHasher_SingleLeafTreeLeafHashDoublesAsRootHash(t *testing.T) {
	hasher := newTestHasher(t, Config{})
	listener := &recordingListener{}
	leaves := testLeaves(1)
	root, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(leaves), 1, 1, failingReader, listener)
	if err != nil {
		t.Fatalf("hashing failed: %v", err)
	}
	reference := referenceHashes(t, leaves, 1, 1)
	if want := reference[1]; root != want {
		t.Errorf("root hash mismatch: got %v, want %v", root, want)
	}
	if len(listener.nodes) != 1 || listener.nodes[0].Path != 1 {
		t.Errorf("expected a single node event for path 1, got %v", listener.nodes)
	}
	if len(listener.leaves) != 1 {
		t.Errorf("expected a single leaf event, got %v", listener.leaves)
	}
}

func TestHasher_NodeEventRanksNeverIncrease(t *testing.T) {
	for _, n := range []int64{2, 3, 13, 64, 100} {
		t.Run(fmt.Sprintf("leaves=%d", n), func(t *testing.T) {
			first, last := FirstLeafPathFor(n), LastLeafPathFor(n)
			leaves := testLeaves(n)
			hasher := newTestHasher(t, Config{HasherThreads: 8})
			listener := &recordingListener{}
			if _, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(leaves), first, last, failingReader, listener); err != nil {
				t.Fatalf("hashing failed: %v", err)
			}
			lastRank := listener.nodes[0].Path.Rank()
			for _, record := range listener.nodes {
				rank := record.Path.Rank()
				if rank > lastRank {
					t.Fatalf("node %v of rank %d reported after rank %d", record.Path, rank, lastRank)
				}
				lastRank = rank
			}
			if got := listener.nodes[len(listener.nodes)-1].Path; got != RootPath {
				t.Errorf("the root must be reported last, got %v", got)
			}
		})
	}
}

func TestHasher_DirtyClosureIsExactlyLeavesAndTheirAncestors(t *testing.T) {
	const n = 23
	first, last := FirstLeafPathFor(n), LastLeafPathFor(n)
	all := testLeaves(n)
	reference := referenceHashes(t, all, first, last)

	// Only a few leaves change; the rest is served through the reader.
	dirty := []LeafRecord[uint64, []byte]{all[0], all[7], all[n-1]}
	SortLeafRecordsByPath(dirty)

	want := map[Path]bool{}
	for _, leaf := range dirty {
		for path := leaf.Path; path != InvalidPath; path = path.Parent() {
			want[path] = true
		}
	}

	hasher := newTestHasher(t, Config{HasherThreads: 3})
	listener := &recordingListener{}
	root, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(dirty), first, last, readerOf(reference), listener)
	if err != nil {
		t.Fatalf("hashing failed: %v", err)
	}
	if wantRoot := referenceRootHash(reference, first, last); root != wantRoot {
		t.Errorf("unchanged content must rehash to the same root: got %v, want %v", root, wantRoot)
	}

	got := map[Path]bool{}
	for _, record := range listener.nodes {
		if got[record.Path] {
			t.Errorf("node %v reported more than once", record.Path)
		}
		got[record.Path] = true
	}
	if len(got) != len(want) {
		t.Errorf("reported %d dirty nodes, want %d", len(got), len(want))
	}
	for path := range want {
		if !got[path] {
			t.Errorf("dirty node %v not reported", path)
		}
	}
}

func TestHasher_PartialUpdateMatchesFullRehash(t *testing.T) {
	const n = 16
	first, last := FirstLeafPathFor(n), LastLeafPathFor(n)
	base := testLeaves(n)
	baseHashes := referenceHashes(t, base, first, last)

	modified := make([]LeafRecord[uint64, []byte], len(base))
	copy(modified, base)
	var dirty []LeafRecord[uint64, []byte]
	for _, i := range []int{0, 5, n - 1} {
		modified[i].Value = []byte(fmt.Sprintf("updated-%d", i))
		dirty = append(dirty, modified[i])
	}
	SortLeafRecordsByPath(dirty)

	hasher := newTestHasher(t, Config{HasherThreads: 4})
	incremental, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(dirty), first, last, readerOf(baseHashes), nil)
	if err != nil {
		t.Fatalf("incremental hashing failed: %v", err)
	}

	full, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(modified), first, last, failingReader, nil)
	if err != nil {
		t.Fatalf("full hashing failed: %v", err)
	}
	if incremental != full {
		t.Errorf("incremental root %v differs from full rehash %v", incremental, full)
	}
}

func TestHasher_ResultIsDeterministicAcrossWorkerCounts(t *testing.T) {
	const n = 77
	first, last := FirstLeafPathFor(n), LastLeafPathFor(n)
	leaves := testLeaves(n)

	var wantRoot common.Hash
	var wantRecords []HashRecord
	for i, workers := range []int{1, 2, 8} {
		hasher := newTestHasher(t, Config{HasherThreads: workers})
		listener := &recordingListener{}
		root, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(leaves), first, last, failingReader, listener)
		if err != nil {
			t.Fatalf("hashing with %d workers failed: %v", workers, err)
		}
		records := make([]HashRecord, len(listener.nodes))
		copy(records, listener.nodes)
		SortHashRecordsByPath(records)
		if i == 0 {
			wantRoot, wantRecords = root, records
			continue
		}
		if root != wantRoot {
			t.Errorf("root with %d workers is %v, want %v", workers, root, wantRoot)
		}
		if len(records) != len(wantRecords) {
			t.Fatalf("%d workers reported %d records, want %d", workers, len(records), len(wantRecords))
		}
		for j, record := range records {
			if record != wantRecords[j] {
				t.Errorf("record %d with %d workers is %v, want %v", j, workers, record, wantRecords[j])
			}
		}
	}
}

func TestHasher_RejectsInvalidLeafStreams(t *testing.T) {
	leaf := func(path Path) LeafRecord[uint64, []byte] {
		return LeafRecord[uint64, []byte]{Path: path, Key: uint64(path)}
	}
	tests := map[string][]LeafRecord[uint64, []byte]{
		"unordered":  {leaf(8), leaf(7)},
		"duplicate":  {leaf(8), leaf(8)},
		"internal":   {leaf(3)},
		"outOfRange": {leaf(15)},
	}
	hasher := newTestHasher(t, Config{})
	for name, leaves := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(leaves), 7, 14, failingReader, nil)
			if !errors.Is(err, ErrInvalidLeafStream) {
				t.Errorf("got %v, want %v", err, ErrInvalidLeafStream)
			}
		})
	}
}

func TestHasher_RejectsInvalidBounds(t *testing.T) {
	hasher := newTestHasher(t, Config{})
	_, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(testLeaves(2)), 0, 2, failingReader, nil)
	if !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("got %v, want %v", err, ErrInvalidBounds)
	}
}

func TestHasher_MissingCleanHashFailsThePass(t *testing.T) {
	// Leaf 7 is dirty, its sibling 8 is clean but unknown to the reader.
	dirty := []LeafRecord[uint64, []byte]{{Path: 7, Key: 7, Value: []byte{7}}}
	hasher := newTestHasher(t, Config{})
	listener := &recordingListener{}
	_, err := hasher.HashDirtyLeaves(context.Background(), common.NewSliceIterator(dirty), 7, 14, readerOf(nil), listener)
	if !errors.Is(err, ErrMissingHash) {
		t.Errorf("got %v, want %v", err, ErrMissingHash)
	}
	if listener.started != 1 || listener.completed != 1 {
		t.Errorf("failed pass not bracketed: %d starts, %d completions", listener.started, listener.completed)
	}
}

func TestHasher_CancelledContextStopsThePass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	leaves := testLeaves(64)
	hasher := newTestHasher(t, Config{})
	_, err := hasher.HashDirtyLeaves(ctx, common.NewSliceIterator(leaves), 63, 126, failingReader, nil)
	if !errors.Is(err, interrupt.ErrCanceled) {
		t.Errorf("got %v, want %v", err, interrupt.ErrCanceled)
	}
}
