package router

import (
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int](10)

	for i := 0; i < 5; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) returned false", i)
		}
	}
	if q.Len() != 5 {
		t.Errorf("Len() = %d, want 5", q.Len())
	}

	for i := 0; i < 5; i++ {
		v, ok := q.TryPop()
		if !ok || v != i {
			t.Fatalf("TryPop() = %d, %v; want %d, true", v, ok, i)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("TryPop on empty queue should return false")
	}
}

func TestQueue_GrowKeepsOrder(t *testing.T) {
	q := NewQueue[int](4)

	for i := 0; i < 100; i++ {
		q.Push(i)
	}

	stats := q.Stats()
	if stats.Len != 100 {
		t.Errorf("Len = %d, want 100", stats.Len)
	}
	if stats.Grows < 3 {
		t.Errorf("Grows = %d, expected at least 3", stats.Grows)
	}

	batch, ok := q.PopBatch(0)
	if !ok || len(batch) != 100 {
		t.Fatalf("PopBatch(0) = %d items, %v", len(batch), ok)
	}
	for i, v := range batch {
		if v != i {
			t.Fatalf("batch[%d] = %d", i, v)
		}
	}
}

func TestQueue_WrapAroundThenGrow(t *testing.T) {
	q := NewQueue[int](5)

	q.Push(1)
	q.Push(2)
	q.Push(3)
	q.TryPop()
	q.TryPop()

	for _, v := range []int{4, 5, 6, 7, 8} {
		q.Push(v)
	}

	for _, want := range []int{3, 4, 5, 6, 7, 8} {
		got, ok := q.TryPop()
		if !ok || got != want {
			t.Fatalf("TryPop() = %d, %v; want %d", got, ok, want)
		}
	}
}

func TestQueue_PopBatchLimit(t *testing.T) {
	q := NewQueue[int](10)
	for i := 0; i < 10; i++ {
		q.Push(i)
	}

	batch, _ := q.PopBatch(4)
	if len(batch) != 4 || batch[0] != 0 || batch[3] != 3 {
		t.Errorf("PopBatch(4) = %v", batch)
	}
	if q.Len() != 6 {
		t.Errorf("Len() = %d, want 6", q.Len())
	}
}

func TestQueue_PopBatchBlocksUntilPush(t *testing.T) {
	q := NewQueue[int](10)
	got := make(chan []int, 1)

	go func() {
		batch, ok := q.PopBatch(0)
		if ok {
			got <- batch
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(42)

	select {
	case batch := <-got:
		if len(batch) != 1 || batch[0] != 42 {
			t.Errorf("batch = %v, want [42]", batch)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for blocked PopBatch")
	}
}

func TestQueue_CloseDrainsThenStops(t *testing.T) {
	q := NewQueue[int](10)
	q.Push(1)
	q.Push(2)
	q.Close()

	if q.Push(3) {
		t.Error("Push should return false after Close")
	}

	batch, ok := q.PopBatch(0)
	if !ok || len(batch) != 2 {
		t.Errorf("PopBatch after Close = %v, %v; want remaining items", batch, ok)
	}
	if _, ok := q.PopBatch(0); ok {
		t.Error("PopBatch should return false when closed and empty")
	}
	if q.Stats().Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", q.Stats().Dropped)
	}
}

func TestQueue_CloseUnblocksPop(t *testing.T) {
	q := NewQueue[int](10)
	done := make(chan bool, 1)

	go func() {
		_, ok := q.PopBatch(0)
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("PopBatch should return false when closed and empty")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock PopBatch")
	}
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue[int](10)
	q.Push(1)
	q.Push(2)

	if n := q.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after Clear", q.Len())
	}

	q.Push(3)
	if v, _ := q.TryPop(); v != 3 {
		t.Errorf("TryPop() = %d after Clear, want 3", v)
	}
}

func TestNewQueue_MinCapacity(t *testing.T) {
	for _, c := range []int{0, -5} {
		if got := NewQueue[int](c).Stats().Cap; got != 1 {
			t.Errorf("NewQueue(%d) Cap = %d, want 1", c, got)
		}
	}
}
