// Package aggregator is the central bus for all incoming telemetry: it
// pushes events into the signal processor, drives the periodic inference
// tick, persists enriched entries to the timeline, and fans the result out
// to registered listeners.
package aggregator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"cogload/internal/classify"
	"cogload/internal/domain"
	"cogload/internal/estimate"
	"cogload/internal/pacing"
	"cogload/internal/signalproc"
	"cogload/internal/telemetrymetrics"
)

// Listener is called with every tick's result. A listener must not block;
// a panicking listener is recovered and logged so one bad listener cannot
// take down the tick loop.
type Listener func(estimate domain.LoadEstimate, ctx domain.CognitiveContext)

// Timeline is the subset of store.DB the aggregator needs, kept narrow so
// tests can substitute an in-memory fake.
type Timeline interface {
	Append(domain.TimelineEntry) (int64, error)
}

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Aggregator owns the live signal window, the estimator/classifier pair,
// and the most recent published state.
type Aggregator struct {
	mu sync.RWMutex

	processor *signalproc.Processor
	estimator *estimate.Estimator
	classifier *classify.Classifier
	timeline  Timeline
	log       *zap.Logger
	now       Clock

	listeners []Listener

	latestEstimate domain.LoadEstimate
	latestContext  domain.CognitiveContext
	hasEstimate    bool
}

// New constructs an Aggregator. now and log may be nil.
func New(processor *signalproc.Processor, est *estimate.Estimator, cls *classify.Classifier, timeline Timeline, log *zap.Logger, now Clock) *Aggregator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{
		processor:  processor,
		estimator:  est,
		classifier: cls,
		timeline:   timeline,
		log:        log,
		now:        now,
		latestContext: domain.ContextUnknown,
	}
}

// PushEvent enqueues a telemetry event into the live signal window.
// Safe to call concurrently with Tick.
func (a *Aggregator) PushEvent(e domain.TelemetryEvent) {
	a.processor.Push(e)
}

// PushEventAsync enqueues asynchronously, for callers on a hot path (e.g. an
// HTTP handler) that must not block on the processor's mutex.
func (a *Aggregator) PushEventAsync(e domain.TelemetryEvent) {
	go a.PushEvent(e)
}

// RegisterListener adds fn to the set notified on every tick.
func (a *Aggregator) RegisterListener(fn Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Tick runs one full inference cycle: extract features, estimate load,
// classify context, persist, publish, and notify listeners. Returns the
// estimate for callers that want it synchronously (e.g. the simulate CLI).
func (a *Aggregator) Tick() domain.LoadEstimate {
	start := a.now()
	features := a.processor.ExtractFeatures()
	est := a.estimator.Estimate(features)
	ctx := a.classifier.Classify(features, est.Score)

	a.mu.Lock()
	a.latestEstimate = est
	a.latestContext = ctx
	a.hasEstimate = true
	listeners := append([]Listener(nil), a.listeners...)
	a.mu.Unlock()

	metaJSON, err := json.Marshal(map[string]float64{
		"intrinsic":  est.Intrinsic,
		"extraneous": est.Extraneous,
		"germane":    est.Germane,
		"confidence": est.Confidence,
	})
	if err != nil {
		a.log.Error("marshal tick metadata", zap.Error(err))
		metaJSON = []byte("{}")
	}

	entry := domain.TimelineEntry{
		Timestamp:    float64(a.now().UnixNano()) / 1e9,
		Source:       domain.SourceEngine,
		EventType:    "inference_tick",
		LoadScore:    est.Score,
		Context:      ctx,
		MetadataJSON: string(metaJSON),
	}
	if _, err := a.timeline.Append(entry); err != nil {
		a.log.Warn("append tick to timeline", zap.Error(err))
		telemetrymetrics.StoreWriteFailures.Inc()
	}

	for _, listener := range listeners {
		a.notify(listener, est, ctx)
	}

	telemetrymetrics.TicksTotal.Inc()
	telemetrymetrics.TickDuration.Observe(a.now().Sub(start).Seconds())

	return est
}

func (a *Aggregator) notify(listener Listener, est domain.LoadEstimate, ctx domain.CognitiveContext) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("listener panicked", zap.Any("panic", r))
		}
	}()
	listener(est, ctx)
}

// CurrentState returns the daemon's latest published inference result.
func (a *Aggregator) CurrentState() domain.CurrentState {
	a.mu.RLock()
	defer a.mu.RUnlock()

	estimatorName := "v1"
	if a.estimator.UsingModel() {
		estimatorName = "ml"
	}

	if !a.hasEstimate {
		return domain.CurrentState{Context: domain.ContextUnknown, Timestamp: float64(a.now().UnixNano()) / 1e9, Estimator: estimatorName}
	}
	return domain.CurrentState{
		LoadScore:  a.latestEstimate.Score,
		Context:    a.latestContext,
		Confidence: a.latestEstimate.Confidence,
		Timestamp:  float64(a.now().UnixNano()) / 1e9,
		Estimator:  estimatorName,
	}
}

// RunTicker drives Tick on a fixed interval until ctx is cancelled.
// Non-overlapping: a slow tick delays the next one rather than stacking
// concurrent ticks.
func (a *Aggregator) RunTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Tick()
		}
	}
}

// RunAdaptiveTicker behaves like RunTicker, but recomputes the interval
// before every tick from pacer's forecast of the telemetry event rate: a
// burst of activity shortens the interval toward min, a quiet stretch
// relaxes it toward max. base is the interval that corresponds to a calm
// baseline of one event per tick.
func (a *Aggregator) RunAdaptiveTicker(ctx context.Context, pacer *pacing.Pacer, base, min, max time.Duration) {
	timer := time.NewTimer(pacer.NextInterval(a.now(), base, min, max))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			a.Tick()
			pacer.RecordRate(float64(a.processor.EventCount()), a.now())
			timer.Reset(pacer.NextInterval(a.now(), base, min, max))
		}
	}
}
