package queue

import (
	"sync"
	"testing"
)

type testEntry struct {
	Seq  int
	Text string
}

func TestQueue_New(t *testing.T) {
	q := New[testEntry]()
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d items", q.Len())
	}
	if q.Limit() != 0 {
		t.Errorf("expected no limit, got %d", q.Limit())
	}
}

func TestQueue_PushKeepsOrder(t *testing.T) {
	q := New[testEntry]()
	q.Push(testEntry{Seq: 1, Text: "docked"})
	q.Push(testEntry{Seq: 2, Text: "hatch opened"}, testEntry{Seq: 3, Text: "undocked"})

	got := q.Items()
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	for i, e := range got {
		if e.Seq != i+1 {
			t.Errorf("index %d: expected seq %d, got %d", i, i+1, e.Seq)
		}
	}
}

func TestQueue_Clear(t *testing.T) {
	q := NewBounded[int](4)
	q.Push(1, 2, 3, 4, 5)
	q.Clear()

	if q.Len() != 0 {
		t.Errorf("expected empty queue after Clear, got %d", q.Len())
	}
	if q.Limit() != 4 {
		t.Errorf("Clear must keep the limit, got %d", q.Limit())
	}
	q.Push(9)
	if got := q.Items(); len(got) != 1 || got[0] != 9 {
		t.Errorf("expected [9] after Clear and Push, got %v", got)
	}
}

func TestQueue_BoundedEvictsOldest(t *testing.T) {
	q := NewBounded[int](3)

	evicted := 0
	for i := 1; i <= 5; i++ {
		evicted += q.Push(i)
	}

	if evicted != 2 {
		t.Errorf("expected 2 evictions, got %d", evicted)
	}
	got := q.Items()
	if len(got) != 3 || got[0] != 3 || got[1] != 4 || got[2] != 5 {
		t.Errorf("expected [3 4 5], got %v", got)
	}
}

func TestQueue_BoundedBatchPush(t *testing.T) {
	q := NewBounded[int](2)
	q.Push(1, 2, 3, 4)

	got := q.Items()
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("expected [3 4], got %v", got)
	}
}

func TestQueue_UnboundedWhenLimitNotPositive(t *testing.T) {
	for _, limit := range []int{0, -1} {
		q := NewBounded[int](limit)
		for i := 0; i < 1000; i++ {
			q.Push(i)
		}
		if q.Len() != 1000 {
			t.Errorf("limit %d: expected 1000 items, got %d", limit, q.Len())
		}
	}
}

func TestQueue_SetLimitTrims(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3, 4, 5)

	evicted := q.SetLimit(2)

	if evicted != 3 {
		t.Errorf("expected 3 evictions, got %d", evicted)
	}
	if q.Limit() != 2 {
		t.Errorf("expected limit 2, got %d", q.Limit())
	}
	got := q.Items()
	if len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Errorf("expected [4 5], got %v", got)
	}
}

func TestQueue_SetLimitGrowKeepsItems(t *testing.T) {
	q := NewBounded[int](2)
	q.Push(1, 2, 3)

	if evicted := q.SetLimit(10); evicted != 0 {
		t.Errorf("expected no evictions, got %d", evicted)
	}
	q.Push(4)
	got := q.Items()
	if len(got) != 3 || got[0] != 2 || got[2] != 4 {
		t.Errorf("expected [2 3 4], got %v", got)
	}
}

func TestQueue_BoundedManyPushesKeepsOrder(t *testing.T) {
	q := NewBounded[int](10)
	for i := 0; i < 10000; i++ {
		q.Push(i)
	}

	got := q.Items()
	if len(got) != 10 {
		t.Fatalf("expected 10 items, got %d", len(got))
	}
	for i, v := range got {
		if v != 9990+i {
			t.Errorf("index %d: expected %d, got %d", i, 9990+i, v)
		}
	}
}

func TestQueue_ItemsIsCopy(t *testing.T) {
	q := New[int]()
	q.Push(1, 2)

	items := q.Items()
	items[0] = 99

	if got := q.Items(); got[0] != 1 {
		t.Error("mutating Items() result must not affect the queue")
	}
}

func TestQueue_ConcurrentBounded(t *testing.T) {
	q := NewBounded[int](50)
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				q.Push(w*1000 + i)
				_ = q.Len()
				_ = q.Items()
			}
		}(w)
	}
	wg.Wait()

	if q.Len() != 50 {
		t.Errorf("expected 50 items, got %d", q.Len())
	}
}
