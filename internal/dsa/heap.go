// Package dsa holds small, dependency-free data structures shared by the
// listener packages.
package dsa

import (
	"sync"
	"time"
)

// Priority queue (min-heap) backing the load-aware task queue.
//
// Operations:
//   Push: O(log n) — sift up
//   Pop:  O(log n) — sift down (extract-min)
//   Peek: O(1)
//   Len:  O(1)
//
// Starvation prevention: every item has a base priority and a submission
// time. effective_priority = base_priority - age_boost. After BoostInterval
// has elapsed, a waiting item's effective priority improves by one level,
// so a low-priority task cannot be stuck behind a steady stream of
// higher-priority arrivals forever.

// Item is an element in the priority queue.
type Item struct {
	Key         string    // unique identifier (e.g. task ID)
	Priority    int       // base priority (lower = higher priority, 0 = highest)
	SubmittedAt time.Time // used for starvation prevention
	Value       any       // payload (caller stores whatever it needs)
}

// Config configures starvation prevention.
type Config struct {
	BoostInterval time.Duration // time before priority is boosted by one level
	MaxBoost      int           // maximum levels an item can be boosted
}

// DefaultConfig boosts a waiting item every 5 minutes, up to 2 levels.
func DefaultConfig() Config {
	return Config{
		BoostInterval: 5 * time.Minute,
		MaxBoost:      2,
	}
}

// PriorityQueue is a thread-safe min-heap with starvation prevention.
type PriorityQueue struct {
	mu     sync.Mutex
	heap   []Item
	config Config
	now    func() time.Time // injectable clock for testing
}

// NewPriorityQueue creates an empty priority queue.
func NewPriorityQueue(cfg Config) *PriorityQueue {
	return &PriorityQueue{
		config: cfg,
		now:    time.Now,
	}
}

// Push adds an item to the queue. O(log n).
func (pq *PriorityQueue) Push(item Item) {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	if item.SubmittedAt.IsZero() {
		item.SubmittedAt = pq.now()
	}
	pq.heap = append(pq.heap, item)
	pq.siftUp(len(pq.heap) - 1)
}

// Pop removes and returns the highest-priority item. O(log n).
func (pq *PriorityQueue) Pop() (Item, bool) {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	if len(pq.heap) == 0 {
		return Item{}, false
	}

	top := pq.heap[0]
	last := len(pq.heap) - 1
	pq.heap[0] = pq.heap[last]
	pq.heap = pq.heap[:last]
	if len(pq.heap) > 0 {
		pq.siftDown(0)
	}
	return top, true
}

// Peek returns the highest-priority item without removing it. O(1).
func (pq *PriorityQueue) Peek() (Item, bool) {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	if len(pq.heap) == 0 {
		return Item{}, false
	}
	return pq.heap[0], true
}

// Len returns the number of items in the queue.
func (pq *PriorityQueue) Len() int {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	return len(pq.heap)
}

// Remove removes the first queued item with the given key, if present.
func (pq *PriorityQueue) Remove(key string) bool {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	idx := -1
	for i, it := range pq.heap {
		if it.Key == key {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	last := len(pq.heap) - 1
	pq.heap[idx] = pq.heap[last]
	pq.heap = pq.heap[:last]
	if idx < len(pq.heap) {
		pq.siftDown(idx)
		pq.siftUp(idx)
	}
	return true
}

func (pq *PriorityQueue) effectivePriority(item *Item) int {
	if pq.config.BoostInterval <= 0 {
		return item.Priority
	}

	age := pq.now().Sub(item.SubmittedAt)
	boost := int(age / pq.config.BoostInterval)
	if boost > pq.config.MaxBoost {
		boost = pq.config.MaxBoost
	}
	eff := item.Priority - boost
	if eff < 0 {
		eff = 0
	}
	return eff
}

func (pq *PriorityQueue) less(i, j int) bool {
	pi := pq.effectivePriority(&pq.heap[i])
	pj := pq.effectivePriority(&pq.heap[j])
	if pi != pj {
		return pi < pj
	}
	return pq.heap[i].SubmittedAt.Before(pq.heap[j].SubmittedAt)
}

func (pq *PriorityQueue) siftUp(idx int) {
	for idx > 0 {
		parent := (idx - 1) / 2
		if pq.less(idx, parent) {
			pq.heap[idx], pq.heap[parent] = pq.heap[parent], pq.heap[idx]
			idx = parent
		} else {
			break
		}
	}
}

func (pq *PriorityQueue) siftDown(idx int) {
	n := len(pq.heap)
	for {
		smallest := idx
		left := 2*idx + 1
		right := 2*idx + 2

		if left < n && pq.less(left, smallest) {
			smallest = left
		}
		if right < n && pq.less(right, smallest) {
			smallest = right
		}
		if smallest == idx {
			break
		}
		pq.heap[idx], pq.heap[smallest] = pq.heap[smallest], pq.heap[idx]
		idx = smallest
	}
}
