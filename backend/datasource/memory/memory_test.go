// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"testing"

	"github.com/suiyuan1314/hedera-services-sub000/common"
	"github.com/suiyuan1314/hedera-services-sub000/virtual"
)

var _ virtual.DataSource[uint64, []byte] = (*DataSource[uint64, []byte])(nil)

func hashOf(b byte) common.Hash {
	return common.Hash{b}
}

func TestMemoryDataSource_FreshSourceIsEmpty(t *testing.T) {
	source := NewDataSource[uint64, []byte]()
	first, last, err := source.Bounds()
	if err != nil {
		t.Fatalf("failed to get bounds: %v", err)
	}
	if first != virtual.InvalidPath || last != virtual.InvalidPath {
		t.Errorf("fresh source not empty, got bounds (%d,%d)", first, last)
	}
	if _, exists, _ := source.LoadHash(virtual.RootPath); exists {
		t.Errorf("fresh source holds a root hash")
	}
	if _, exists, _ := source.LoadLeafRecord(1); exists {
		t.Errorf("fresh source holds a leaf record")
	}
	if _, exists, _ := source.LoadLeafRecordByKey(12); exists {
		t.Errorf("fresh source holds a key index entry")
	}
}

func TestMemoryDataSource_SavedRecordsCanBeRetrieved(t *testing.T) {
	source := NewDataSource[uint64, []byte]()
	leaf := virtual.LeafRecord[uint64, []byte]{Path: 1, Key: 12, Value: []byte("hello")}
	err := source.SaveRecords(1, 2,
		[]virtual.HashRecord{{Path: 0, Hash: hashOf(1)}, {Path: 1, Hash: hashOf(2)}},
		[]virtual.LeafRecord[uint64, []byte]{leaf},
		nil,
	)
	if err != nil {
		t.Fatalf("failed to save records: %v", err)
	}

	first, last, _ := source.Bounds()
	if first != 1 || last != 2 {
		t.Errorf("unexpected bounds, got (%d,%d), want (1,2)", first, last)
	}
	if hash, exists, _ := source.LoadHash(0); !exists || hash != hashOf(1) {
		t.Errorf("unexpected root hash, got %v / %t", hash, exists)
	}
	if record, exists, _ := source.LoadLeafRecord(1); !exists || record.Key != 12 || string(record.Value) != "hello" {
		t.Errorf("unexpected leaf record, got %+v / %t", record, exists)
	}
	if record, exists, _ := source.LoadLeafRecordByKey(12); !exists || record.Path != 1 {
		t.Errorf("unexpected leaf record by key, got %+v / %t", record, exists)
	}
}

func TestMemoryDataSource_RejectsInvalidBounds(t *testing.T) {
	source := NewDataSource[uint64, []byte]()
	if err := source.SaveRecords(0, 2, nil, nil, nil); err == nil {
		t.Errorf("save with invalid bounds did not fail")
	}
	if err := source.SaveRecords(3, 2, nil, nil, nil); err == nil {
		t.Errorf("save with crossed bounds did not fail")
	}
}

func TestMemoryDataSource_DeletesAreAppliedBeforeUpserts(t *testing.T) {
	source := NewDataSource[uint64, []byte]()
	old := virtual.LeafRecord[uint64, []byte]{Path: 1, Key: 12, Value: []byte("old")}
	if err := source.SaveRecords(1, 2, nil, []virtual.LeafRecord[uint64, []byte]{old}, nil); err != nil {
		t.Fatalf("failed to save records: %v", err)
	}

	replacement := virtual.LeafRecord[uint64, []byte]{Path: 1, Key: 34, Value: []byte("new")}
	err := source.SaveRecords(1, 2, nil,
		[]virtual.LeafRecord[uint64, []byte]{replacement},
		[]virtual.LeafRecord[uint64, []byte]{old},
	)
	if err != nil {
		t.Fatalf("failed to save records: %v", err)
	}

	if record, exists, _ := source.LoadLeafRecord(1); !exists || record.Key != 34 {
		t.Errorf("replacement lost, got %+v / %t", record, exists)
	}
	if _, exists, _ := source.LoadLeafRecordByKey(12); exists {
		t.Errorf("index entry of the deleted key survived")
	}
	if record, exists, _ := source.LoadLeafRecordByKey(34); !exists || record.Path != 1 {
		t.Errorf("index entry of the replacement missing, got %+v / %t", record, exists)
	}
}

func TestMemoryDataSource_DeletesAreGuarded(t *testing.T) {
	source := NewDataSource[uint64, []byte]()
	current := virtual.LeafRecord[uint64, []byte]{Path: 1, Key: 34, Value: []byte("current")}
	relocated := virtual.LeafRecord[uint64, []byte]{Path: 2, Key: 12, Value: []byte("relocated")}
	err := source.SaveRecords(1, 2, nil, []virtual.LeafRecord[uint64, []byte]{current, relocated}, nil)
	if err != nil {
		t.Fatalf("failed to save records: %v", err)
	}

	// The stale record claims key 12 lived at path 1; by now path 1 holds
	// key 34 and key 12 points at path 2. Neither may be touched.
	stale := virtual.LeafRecord[uint64, []byte]{Path: 1, Key: 12, Value: []byte("stale")}
	err = source.SaveRecords(1, 2, nil, nil, []virtual.LeafRecord[uint64, []byte]{stale})
	if err != nil {
		t.Fatalf("failed to save records: %v", err)
	}

	if record, exists, _ := source.LoadLeafRecord(1); !exists || record.Key != 34 {
		t.Errorf("guarded path delete removed a foreign record, got %+v / %t", record, exists)
	}
	if record, exists, _ := source.LoadLeafRecordByKey(12); !exists || record.Path != 2 {
		t.Errorf("guarded index delete removed a foreign entry, got %+v / %t", record, exists)
	}
}

func TestMemoryDataSource_ShrinkingBoundsTrimsHashes(t *testing.T) {
	source := NewDataSource[uint64, []byte]()
	hashes := []virtual.HashRecord{}
	leaves := []virtual.LeafRecord[uint64, []byte]{}
	for path := virtual.Path(0); path <= 6; path++ {
		hashes = append(hashes, virtual.HashRecord{Path: path, Hash: hashOf(byte(path))})
	}
	for path := virtual.Path(3); path <= 6; path++ {
		leaves = append(leaves, virtual.LeafRecord[uint64, []byte]{Path: path, Key: uint64(path), Value: []byte("x")})
	}
	if err := source.SaveRecords(3, 6, hashes, leaves, nil); err != nil {
		t.Fatalf("failed to save records: %v", err)
	}

	err := source.SaveRecords(1, 2,
		[]virtual.HashRecord{{Path: 0, Hash: hashOf(10)}, {Path: 1, Hash: hashOf(11)}, {Path: 2, Hash: hashOf(12)}},
		[]virtual.LeafRecord[uint64, []byte]{
			{Path: 1, Key: 101, Value: []byte("a")},
			{Path: 2, Key: 102, Value: []byte("b")},
		},
		leaves,
	)
	if err != nil {
		t.Fatalf("failed to save records: %v", err)
	}

	for path := virtual.Path(3); path <= 6; path++ {
		if _, exists, _ := source.LoadHash(path); exists {
			t.Errorf("hash entry at path %v survived the shrink", path)
		}
	}
	for _, path := range []virtual.Path{0, 1, 2} {
		if _, exists, _ := source.LoadHash(path); !exists {
			t.Errorf("hash entry at path %v lost by the shrink", path)
		}
	}
}

func TestMemoryDataSource_ShrinkingToSingleLeafDropsTheRootEntry(t *testing.T) {
	source := NewDataSource[uint64, []byte]()
	err := source.SaveRecords(1, 2,
		[]virtual.HashRecord{{Path: 0, Hash: hashOf(1)}, {Path: 1, Hash: hashOf(2)}, {Path: 2, Hash: hashOf(3)}},
		[]virtual.LeafRecord[uint64, []byte]{
			{Path: 1, Key: 11, Value: []byte("a")},
			{Path: 2, Key: 22, Value: []byte("b")},
		},
		nil,
	)
	if err != nil {
		t.Fatalf("failed to save records: %v", err)
	}

	deletes := []virtual.LeafRecord[uint64, []byte]{{Path: 2, Key: 22}}
	if err := source.SaveRecords(1, 1, nil, nil, deletes); err != nil {
		t.Fatalf("failed to save records: %v", err)
	}

	if _, exists, _ := source.LoadHash(0); exists {
		t.Errorf("root entry survived shrinking to a single-leaf tree")
	}
	if _, exists, _ := source.LoadHash(1); !exists {
		t.Errorf("hash of the remaining leaf lost")
	}
}

func TestMemoryDataSource_ShrinkingToEmptyDropsAllHashes(t *testing.T) {
	source := NewDataSource[uint64, []byte]()
	err := source.SaveRecords(1, 1,
		[]virtual.HashRecord{{Path: 1, Hash: hashOf(1)}},
		[]virtual.LeafRecord[uint64, []byte]{{Path: 1, Key: 12, Value: []byte("x")}},
		nil,
	)
	if err != nil {
		t.Fatalf("failed to save records: %v", err)
	}

	deletes := []virtual.LeafRecord[uint64, []byte]{{Path: 1, Key: 12}}
	if err := source.SaveRecords(virtual.InvalidPath, virtual.InvalidPath, nil, nil, deletes); err != nil {
		t.Fatalf("failed to save records: %v", err)
	}

	if _, exists, _ := source.LoadHash(1); exists {
		t.Errorf("hash entry survived shrinking to an empty tree")
	}
	if count := source.LeafCount(); count != 0 {
		t.Errorf("unexpected number of leaf records, got %d, want 0", count)
	}
}
