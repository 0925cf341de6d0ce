package aggregator

import (
	"context"
	"sync"
	"testing"
	"time"

	"cogload/internal/classify"
	"cogload/internal/domain"
	"cogload/internal/estimate"
	"cogload/internal/signalproc"
)

type fakeTimeline struct {
	mu      sync.Mutex
	entries []domain.TimelineEntry
}

func (f *fakeTimeline) Append(e domain.TimelineEntry) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return int64(len(f.entries)), nil
}

func (f *fakeTimeline) all() []domain.TimelineEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TimelineEntry(nil), f.entries...)
}

func newTestAggregator() (*Aggregator, *fakeTimeline) {
	now := time.Unix(1000, 0)
	proc := signalproc.New(300, func() time.Time { return now })
	tl := &fakeTimeline{}
	agg := New(proc, estimate.New(), classify.New(), tl, nil, func() time.Time { return now })
	return agg, tl
}

func TestTickPersistsEntry(t *testing.T) {
	agg, tl := newTestAggregator()
	agg.Tick()
	entries := tl.all()
	if len(entries) != 1 {
		t.Fatalf("want 1 persisted entry, got %d", len(entries))
	}
	if entries[0].EventType != "inference_tick" || entries[0].Source != domain.SourceEngine {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestCurrentStateBeforeFirstTick(t *testing.T) {
	agg, _ := newTestAggregator()
	state := agg.CurrentState()
	if state.Context != domain.ContextUnknown {
		t.Fatalf("want unknown before first tick, got %v", state.Context)
	}
}

func TestCurrentStateReflectsLastTick(t *testing.T) {
	agg, _ := newTestAggregator()
	est := agg.Tick()
	state := agg.CurrentState()
	if state.LoadScore != est.Score {
		t.Fatalf("want state to reflect last tick score %v, got %v", est.Score, state.LoadScore)
	}
}

func TestListenerReceivesTickResult(t *testing.T) {
	agg, _ := newTestAggregator()
	var gotCtx domain.CognitiveContext
	var called bool
	agg.RegisterListener(func(est domain.LoadEstimate, ctx domain.CognitiveContext) {
		called = true
		gotCtx = ctx
	})
	agg.Tick()
	if !called {
		t.Fatal("want listener to be called")
	}
	if gotCtx != domain.ContextUnknown && gotCtx == "" {
		t.Fatalf("want a valid context, got %q", gotCtx)
	}
}

func TestPanickingListenerDoesNotCrashTick(t *testing.T) {
	agg, _ := newTestAggregator()
	agg.RegisterListener(func(domain.LoadEstimate, domain.CognitiveContext) {
		panic("listener exploded")
	})
	agg.Tick() // must not panic
}

func TestRunTickerStopsOnCancel(t *testing.T) {
	agg, tl := newTestAggregator()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		agg.RunTicker(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunTicker did not stop after cancel")
	}
	if len(tl.all()) == 0 {
		t.Fatal("want at least one tick to have run")
	}
}
