package dsa

import (
	"testing"
	"time"
)

func TestPopReturnsLowestPriorityFirst(t *testing.T) {
	pq := NewPriorityQueue(Config{})
	pq.Push(Item{Key: "b", Priority: 3})
	pq.Push(Item{Key: "a", Priority: 1})
	pq.Push(Item{Key: "c", Priority: 2})

	order := []string{}
	for {
		item, ok := pq.Pop()
		if !ok {
			break
		}
		order = append(order, item.Key)
	}
	want := []string{"a", "c", "b"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("want order %v, got %v", want, order)
		}
	}
}

func TestFIFOWithinSamePriority(t *testing.T) {
	base := time.Unix(1000, 0)
	pq := NewPriorityQueue(Config{})
	pq.now = func() time.Time { return base }
	pq.Push(Item{Key: "first", Priority: 1})
	pq.now = func() time.Time { return base.Add(time.Second) }
	pq.Push(Item{Key: "second", Priority: 1})

	first, _ := pq.Pop()
	second, _ := pq.Pop()
	if first.Key != "first" || second.Key != "second" {
		t.Fatalf("want FIFO order, got %s then %s", first.Key, second.Key)
	}
}

func TestStarvationBoost(t *testing.T) {
	base := time.Unix(0, 0)
	now := base
	pq := NewPriorityQueue(Config{BoostInterval: time.Minute, MaxBoost: 2})
	pq.now = func() time.Time { return now }

	pq.Push(Item{Key: "low", Priority: 4})
	// After 150s "low" has been boosted two levels (the MaxBoost cap) to 2,
	// tying "high", and wins as the earlier submission.
	now = base.Add(150 * time.Second)
	pq.Push(Item{Key: "high", Priority: 2})

	top, _ := pq.Peek()
	if top.Key != "low" {
		t.Fatalf("want boosted low-priority item first, got %s", top.Key)
	}
}

func TestRemoveByKey(t *testing.T) {
	pq := NewPriorityQueue(Config{})
	pq.Push(Item{Key: "a", Priority: 1})
	pq.Push(Item{Key: "b", Priority: 2})
	if !pq.Remove("a") {
		t.Fatal("want remove to succeed")
	}
	if pq.Len() != 1 {
		t.Fatalf("want len 1 after remove, got %d", pq.Len())
	}
	top, _ := pq.Peek()
	if top.Key != "b" {
		t.Fatalf("want b remaining, got %s", top.Key)
	}
}

func TestPeekEmptyQueue(t *testing.T) {
	pq := NewPriorityQueue(Config{})
	if _, ok := pq.Peek(); ok {
		t.Fatal("want false on empty peek")
	}
}
