// Package taskqueue manages the student's pending work items and reorders
// them by difficulty to match the current cognitive load (optimal
// difficulty matching): high load surfaces easy/review tasks first, low
// load surfaces hard/new-concept tasks first. Ordering within a difficulty
// tier uses the same starvation-aware priority queue as the rest of the
// daemon, so a task never waits forever behind a constant stream of
// same-difficulty arrivals.
package taskqueue

import (
	"sync"
	"time"

	"cogload/internal/dsa"
)

// Difficulty classifies a task's cognitive demand.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyReview Difficulty = "review"
)

// Task is one pending work item.
type Task struct {
	ID               string
	Title            string
	Difficulty       Difficulty
	EstimatedMinutes int
	Tags             []string
}

// rank assigns a base heap priority (lower = dequeued first) for a
// difficulty tier under the given load band.
func rank(d Difficulty, order []Difficulty) int {
	for i, want := range order {
		if d == want {
			return i
		}
	}
	return len(order) // unknown difficulty sinks to the back
}

func priorityOrder(loadScore, highLoadThreshold float64) []Difficulty {
	switch {
	case loadScore >= highLoadThreshold:
		return []Difficulty{DifficultyEasy, DifficultyReview, DifficultyMedium, DifficultyHard}
	case loadScore >= 0.4:
		return []Difficulty{DifficultyMedium, DifficultyHard, DifficultyReview, DifficultyEasy}
	default:
		return []Difficulty{DifficultyHard, DifficultyMedium, DifficultyReview, DifficultyEasy}
	}
}

// Manager is a thread-safe, load-aware task queue.
type Manager struct {
	mu          sync.Mutex
	tasks       map[string]Task
	queue       *dsa.PriorityQueue
	currentLoad float64
}

// New constructs an empty Manager.
func New() *Manager {
	return &Manager{
		tasks: make(map[string]Task),
		queue: dsa.NewPriorityQueue(dsa.DefaultConfig()),
	}
}

// Add enqueues a task ranked for the last recorded load score, using a
// high-load threshold of 0.75; the next UpdateLoad call re-ranks it with the
// threshold passed there.
func (m *Manager) Add(t Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	m.queue.Push(dsa.Item{Key: t.ID, Priority: rank(t.Difficulty, priorityOrder(m.currentLoad, 0.75)), Value: t.ID})
}

// Remove drops a task by ID, reporting whether it was present.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return false
	}
	delete(m.tasks, id)
	return m.queue.Remove(id)
}

// CompleteCurrent pops and returns the head-of-queue task, if any.
func (m *Manager) CompleteCurrent() (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.queue.Pop()
	if !ok {
		return Task{}, false
	}
	id := item.Value.(string)
	t := m.tasks[id]
	delete(m.tasks, id)
	return t, true
}

// UpdateLoad records the latest cognitive load score and re-derives every
// queued task's base priority from the resulting difficulty order — the
// starvation-boost clock in the underlying heap is untouched, since it
// keys off SubmittedAt rather than priority.
func (m *Manager) UpdateLoad(loadScore, highLoadThreshold float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentLoad = loadScore

	order := priorityOrder(loadScore, highLoadThreshold)
	rebuilt := dsa.NewPriorityQueue(dsa.DefaultConfig())
	for {
		item, ok := m.queue.Pop()
		if !ok {
			break
		}
		id := item.Value.(string)
		t := m.tasks[id]
		rebuilt.Push(dsa.Item{Key: id, Priority: rank(t.Difficulty, order), SubmittedAt: item.SubmittedAt, Value: id})
	}
	m.queue = rebuilt
	return nil
}

// Peek returns the head-of-queue task without removing it.
func (m *Manager) Peek() (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.queue.Peek()
	if !ok {
		return Task{}, false
	}
	return m.tasks[item.Value.(string)], true
}

// All returns every queued task in no particular order.
func (m *Manager) All() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out
}

// RecommendedDuration returns the suggested focus-interval length for the
// given load score as a time.Duration, matching the adaptive pomodoro's own
// thresholds.
func RecommendedDuration(loadScore, fatigueThreshold, highLoadThreshold float64) time.Duration {
	switch {
	case loadScore >= fatigueThreshold:
		return 10 * time.Minute
	case loadScore >= highLoadThreshold:
		return 15 * time.Minute
	case loadScore >= 0.45:
		return 25 * time.Minute
	default:
		return 35 * time.Minute
	}
}

// AsDirectiveParams renders a task as ActionDirective.Params for the
// "suggest_task" directive family.
func AsDirectiveParams(t Task) map[string]any {
	return map[string]any{
		"task_id":    t.ID,
		"title":      t.Title,
		"difficulty": string(t.Difficulty),
	}
}
