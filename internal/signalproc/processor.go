// Package signalproc maintains a sliding time window over normalized
// telemetry events and projects it into a SignalFeatures vector on demand.
package signalproc

import (
	"math"
	"sync"
	"time"

	"cogload/internal/domain"
)

// Event type names the processor recognizes. Unrecognized event types are
// simply ignored by feature extraction (they still occupy a window slot).
const (
	EventTabSwitch     = "tab_switch"
	EventNavigation    = "navigation"
	EventScroll        = "scroll"
	EventWindowChange  = "window_change"
	EventIdleStart     = "idle_start"
	EventIdleEnd       = "idle_end"
	EventKeystroke     = "keystroke"
	EventCompileError  = "compile_error"
	EventCompileOK     = "compile_success"
	EventFileSave      = "file_save"
	EventDebugStart    = "debug_start"
	EventDebugStop     = "debug_stop"
	EventTerminalCmd   = "terminal_cmd"
)

const scrollVelocityCap = 3000.0

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Processor maintains a sliding window of telemetry events and derives
// normalized feature vectors on demand. Safe for concurrent use: pushes
// (from the aggregator or the simulate command) and extraction from a
// query path may run concurrently.
type Processor struct {
	mu            sync.Mutex
	windowSeconds float64
	events        []domain.TelemetryEvent
	sessionStart  float64
	now           Clock
}

// New constructs a Processor with the given window, in seconds.
func New(windowSeconds int, now Clock) *Processor {
	if now == nil {
		now = time.Now
	}
	if windowSeconds <= 0 {
		windowSeconds = 300
	}
	return &Processor{
		windowSeconds: float64(windowSeconds),
		sessionStart:  nowSeconds(now),
		now:           now,
	}
}

func nowSeconds(clock Clock) float64 {
	return float64(clock().UnixNano()) / 1e9
}

// Push enqueues an event and evicts stale events from the oldest end of the
// window; an event that is already older than the window is not enqueued.
// O(1) amortized.
func (p *Processor) Push(e domain.TelemetryEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e.Timestamp >= nowSeconds(p.now)-p.windowSeconds {
		p.events = append(p.events, e)
	}
	p.evictStale()
}

// ResetSession sets session_start to now — used when a new work session is
// detected upstream (e.g. after a long idle gap reported by a producer).
func (p *Processor) ResetSession() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessionStart = nowSeconds(p.now)
}

// EventCount returns the number of events currently live in the window,
// after evicting anything stale. Used by callers that pace the tick
// interval to the observed event rate.
func (p *Processor) EventCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evictStale()
	return len(p.events)
}

// ExtractFeatures evicts stale events, then computes the feature vector
// over the live window.
func (p *Processor) ExtractFeatures() domain.SignalFeatures {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.evictStale()

	now := nowSeconds(p.now)
	windowMin := p.windowSeconds / 60.0
	elapsedMin := math.Max((now-p.sessionStart)/60.0, 0.0)
	// Floor at 1 minute: prevents early-session rate inflation, at the
	// cost of early rates equalling raw counts (documented open question).
	rateWindowMin := math.Max(math.Min(windowMin, elapsedMin), 1.0)

	return domain.SignalFeatures{
		TabSwitchRate:      float64(p.count(EventTabSwitch)) / rateWindowMin,
		CompileErrorRate:   float64(p.count(EventCompileError)) / rateWindowMin,
		WindowChangeRate:   float64(p.count(EventWindowChange)) / rateWindowMin,
		TypingBurstScore:   p.typingBurst(),
		IdleFraction:       p.idleFraction(),
		ScrollVelocityNorm: p.scrollVelocity(),
		SessionDurationMin: (now - p.sessionStart) / 60.0,
		TaskSwitchEntropy:  p.appEntropy(),
		Timestamp:          now,
	}
}

func (p *Processor) evictStale() {
	cutoff := nowSeconds(p.now) - p.windowSeconds
	i := 0
	for i < len(p.events) && p.events[i].Timestamp < cutoff {
		i++
	}
	if i > 0 {
		p.events = p.events[i:]
	}
}

func (p *Processor) count(eventType string) int {
	n := 0
	for _, e := range p.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

func (p *Processor) typingBurst() float64 {
	var intervals []float64
	for _, e := range p.events {
		if e.EventType != EventKeystroke {
			continue
		}
		if _, ok := e.Metadata["interval_ms"]; !ok {
			continue
		}
		intervals = append(intervals, e.MetaFloat("interval_ms"))
	}
	if len(intervals) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range intervals {
		mean += v
	}
	mean /= float64(len(intervals))
	if mean == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range intervals {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(intervals))
	return math.Min(math.Sqrt(variance)/mean, 1.0)
}

func (p *Processor) idleFraction() float64 {
	idleCount := p.count(EventIdleStart)
	if idleCount == 0 {
		return 0
	}
	total := len(p.events)
	if total == 0 {
		total = 1
	}
	return math.Min(float64(idleCount)/float64(total), 1.0)
}

func (p *Processor) scrollVelocity() float64 {
	var sum float64
	n := 0
	for _, e := range p.events {
		if e.EventType != EventScroll {
			continue
		}
		if _, ok := e.Metadata["delta_y"]; !ok {
			continue
		}
		sum += math.Abs(e.MetaFloat("delta_y"))
		n++
	}
	if n == 0 {
		return 0
	}
	avg := sum / float64(n)
	return math.Min(avg/scrollVelocityCap, 1.0)
}

func (p *Processor) appEntropy() float64 {
	counts := map[string]int{}
	for _, e := range p.events {
		if e.EventType != EventWindowChange {
			continue
		}
		app := e.MetaString("app")
		if app == "" {
			app = "unknown"
		}
		counts[app]++
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, c := range counts {
		frac := float64(c) / float64(total)
		entropy -= frac * math.Log2(frac)
	}
	nApps := len(counts)
	if nApps < 2 {
		nApps = 2
	}
	return entropy / math.Log2(float64(nApps))
}
