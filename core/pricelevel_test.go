package core

import "testing"

func TestPriceLevelQueuePushPopRoundTrip(t *testing.T) {
	a := NewOrderArena(4)
	q := newPriceLevelQueue()
	if !q.IsEmpty() {
		t.Fatalf("new queue should be empty")
	}

	idx, _ := a.Allocate(1, 100, 5, Buy)
	q.PushTail(a, idx)
	if q.IsEmpty() {
		t.Fatalf("queue should be non-empty after push")
	}
	if q.Head() != idx {
		t.Fatalf("head should be the pushed order")
	}

	popped := q.PopHead(a)
	if popped != idx {
		t.Fatalf("popped wrong index: got %d want %d", popped, idx)
	}
	if !q.IsEmpty() {
		t.Fatalf("queue should be empty after pop, head=%d tail=%d", q.head, q.tail)
	}
	if q.head != noIndex || q.tail != noIndex {
		t.Fatalf("head/tail must both be sentinel after emptying: head=%d tail=%d", q.head, q.tail)
	}
}

func TestPriceLevelQueueFIFOOrder(t *testing.T) {
	a := NewOrderArena(8)
	q := newPriceLevelQueue()

	var idxs []int32
	for i := uint64(1); i <= 3; i++ {
		idx, _ := a.Allocate(i, 100, 1, Buy)
		q.PushTail(a, idx)
		idxs = append(idxs, idx)
	}

	for _, want := range idxs {
		got := q.PopHead(a)
		if got != want {
			t.Fatalf("FIFO violated: got %d want %d", got, want)
		}
	}
	if !q.IsEmpty() {
		t.Fatalf("queue should be drained")
	}
}

func TestPriceLevelQueuePopEmptyReturnsNoIndex(t *testing.T) {
	a := NewOrderArena(1)
	q := newPriceLevelQueue()
	if got := q.PopHead(a); got != noIndex {
		t.Fatalf("popping empty queue should return noIndex, got %d", got)
	}
}

func TestPriceLevelQueueRemoveInterior(t *testing.T) {
	a := NewOrderArena(8)
	q := newPriceLevelQueue()

	idA, _ := a.Allocate(1, 100, 1, Buy)
	idB, _ := a.Allocate(2, 100, 1, Buy)
	idC, _ := a.Allocate(3, 100, 1, Buy)
	q.PushTail(a, idA)
	q.PushTail(a, idB)
	q.PushTail(a, idC)

	q.Remove(a, idB)

	if got := q.PopHead(a); got != idA {
		t.Fatalf("expected head %d, got %d", idA, got)
	}
	if got := q.PopHead(a); got != idC {
		t.Fatalf("expected %d after removing interior node, got %d", idC, got)
	}
	if !q.IsEmpty() {
		t.Fatalf("queue should be empty")
	}
}
