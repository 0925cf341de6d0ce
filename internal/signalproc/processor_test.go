package signalproc

import (
	"testing"
	"time"

	"cogload/internal/domain"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func evt(eventType string, meta map[string]any, ts float64) domain.TelemetryEvent {
	return domain.TelemetryEvent{Source: domain.SourceBrowser, EventType: eventType, Metadata: meta, Timestamp: ts}
}

func TestEmptyFeaturesAreZero(t *testing.T) {
	now := time.Now()
	p := New(60, fixedClock(now))
	f := p.ExtractFeatures()
	if f.TabSwitchRate != 0 || f.CompileErrorRate != 0 || f.IdleFraction != 0 {
		t.Fatalf("expected zero features, got %+v", f)
	}
}

func TestTabSwitchRateCounted(t *testing.T) {
	now := time.Now()
	ts := nowSeconds(fixedClock(now))
	p := New(300, fixedClock(now))
	for i := 0; i < 5; i++ {
		p.Push(evt(EventTabSwitch, nil, ts))
	}
	f := p.ExtractFeatures()
	if f.TabSwitchRate != 5.0 {
		t.Fatalf("want rate 5.0 (floor window), got %v", f.TabSwitchRate)
	}
}

func TestCompileErrorRateCounted(t *testing.T) {
	now := time.Now()
	ts := nowSeconds(fixedClock(now))
	p := New(300, fixedClock(now))
	for i := 0; i < 3; i++ {
		p.Push(evt(EventCompileError, nil, ts))
	}
	f := p.ExtractFeatures()
	if f.CompileErrorRate != 3.0 {
		t.Fatalf("want rate 3.0, got %v", f.CompileErrorRate)
	}
}

func TestTypingBurstZeroWithoutKeystrokes(t *testing.T) {
	now := time.Now()
	p := New(300, fixedClock(now))
	f := p.ExtractFeatures()
	if f.TypingBurstScore != 0 {
		t.Fatalf("want 0, got %v", f.TypingBurstScore)
	}
}

func TestTypingBurstNonzeroWithVariance(t *testing.T) {
	now := time.Now()
	ts := nowSeconds(fixedClock(now))
	p := New(300, fixedClock(now))
	for _, interval := range []float64{10, 500, 20, 800, 5} {
		p.Push(evt(EventKeystroke, map[string]any{"interval_ms": interval}, ts))
	}
	f := p.ExtractFeatures()
	if !(f.TypingBurstScore > 0 && f.TypingBurstScore <= 1.0) {
		t.Fatalf("want (0,1], got %v", f.TypingBurstScore)
	}
}

func TestStaleEventsEvicted(t *testing.T) {
	now := time.Now()
	p := New(1, fixedClock(now))
	old := evt(EventTabSwitch, nil, nowSeconds(fixedClock(now))-10)
	p.Push(old)
	f := p.ExtractFeatures()
	if f.TabSwitchRate != 0 {
		t.Fatalf("expected stale event evicted, got rate %v", f.TabSwitchRate)
	}
}

func TestScrollVelocityNormalized(t *testing.T) {
	now := time.Now()
	ts := nowSeconds(fixedClock(now))
	p := New(300, fixedClock(now))
	p.Push(evt(EventScroll, map[string]any{"delta_y": 1500.0}, ts))
	f := p.ExtractFeatures()
	if !(f.ScrollVelocityNorm > 0 && f.ScrollVelocityNorm <= 1.0) {
		t.Fatalf("want (0,1], got %v", f.ScrollVelocityNorm)
	}
}

func TestAppEntropySingleAppIsZero(t *testing.T) {
	now := time.Now()
	ts := nowSeconds(fixedClock(now))
	p := New(300, fixedClock(now))
	for i := 0; i < 5; i++ {
		p.Push(evt(EventWindowChange, map[string]any{"app": "vscode"}, ts))
	}
	f := p.ExtractFeatures()
	if f.TaskSwitchEntropy != 0 {
		t.Fatalf("want 0, got %v", f.TaskSwitchEntropy)
	}
}

func TestAppEntropyMultipleApps(t *testing.T) {
	now := time.Now()
	ts := nowSeconds(fixedClock(now))
	p := New(300, fixedClock(now))
	for _, app := range []string{"vscode", "chrome", "discord", "notion"} {
		for i := 0; i < 3; i++ {
			p.Push(evt(EventWindowChange, map[string]any{"app": app}, ts))
		}
	}
	f := p.ExtractFeatures()
	if f.TaskSwitchEntropy <= 0.5 {
		t.Fatalf("want high entropy with 4 equal apps, got %v", f.TaskSwitchEntropy)
	}
}

func TestResetSession(t *testing.T) {
	now := time.Now()
	p := New(300, fixedClock(now))
	before := p.sessionStart
	later := now.Add(time.Millisecond)
	p.now = fixedClock(later)
	p.ResetSession()
	if p.sessionStart <= before {
		t.Fatalf("expected session_start to advance")
	}
}
