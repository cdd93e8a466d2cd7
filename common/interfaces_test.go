package common

import "testing"

func TestSliceIterator_WalksAllItemsInOrder(t *testing.T) {
	it := NewSliceIterator([]int{3, 1, 2})
	var got []int
	for it.HasNext() {
		got = append(got, it.Next())
	}
	if len(got) != 3 || got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Errorf("unexpected iteration order: %v", got)
	}
	if it.HasNext() {
		t.Errorf("exhausted iterator reports more items")
	}
}

func TestSliceIterator_EmptySlice(t *testing.T) {
	it := NewSliceIterator[int](nil)
	if it.HasNext() {
		t.Errorf("empty iterator reports items")
	}
}
