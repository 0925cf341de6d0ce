// Package pacing adapts the inference tick interval to the observed rate of
// incoming telemetry: a burst of activity (rapid tab switching, a storm of
// compile errors) shortens the interval so the load estimate tracks the
// student closely, while a quiet stretch lengthens it to save CPU on a
// machine that is meant to run this daemon in the background all day.
//
// The forecasting core — exponential smoothing over an hour-of-day seasonal
// index — is the same technique the teacher's predictive autoscaler used to
// forecast distributed-compute task arrival rate; everything about nodes,
// pre-warming, and proactive-spike gating has no analogue in a single local
// daemon and is dropped. What survives is the smoothing/seasonality core,
// repointed at "events per tick" instead of "tasks per interval".
package pacing

import (
	"time"
)

const (
	defaultAlpha         = 0.3
	defaultSeasonalAlpha = 0.1
	seasonalPeriod       = 24 // one bucket per hour of day
)

// Pacer forecasts the near-term telemetry event rate and recommends a tick
// interval within [min, max] — shorter when the forecast is high, longer
// when it's low.
type Pacer struct {
	alpha         float64
	seasonalAlpha float64
	smoothed      float64
	inited        bool
	seasonal      [seasonalPeriod]float64
}

// New constructs a Pacer with a flat (unlearned) seasonal profile.
func New() *Pacer {
	p := &Pacer{alpha: defaultAlpha, seasonalAlpha: defaultSeasonalAlpha}
	for i := range p.seasonal {
		p.seasonal[i] = 1.0
	}
	return p
}

// RecordRate folds one observation (events seen during the last tick) into
// the smoothed level and that hour's seasonal index.
func (p *Pacer) RecordRate(eventsPerTick float64, at time.Time) {
	bucket := at.Hour()

	if !p.inited {
		p.smoothed = eventsPerTick
		p.inited = true
		return
	}

	factor := p.seasonal[bucket]
	if factor <= 0 {
		factor = 1.0
	}
	deseasonalized := eventsPerTick / factor
	p.smoothed = p.alpha*deseasonalized + (1-p.alpha)*p.smoothed

	if p.smoothed > 0 {
		observed := eventsPerTick / p.smoothed
		p.seasonal[bucket] = p.seasonalAlpha*observed + (1-p.seasonalAlpha)*p.seasonal[bucket]
	}
}

// Forecast predicts the event rate at the given time.
func (p *Pacer) Forecast(at time.Time) float64 {
	if !p.inited {
		return 0
	}
	return p.smoothed * p.seasonal[at.Hour()]
}

// NextInterval maps a forecast into a tick interval bounded by [min, max]:
// double the forecast relative to a calm baseline of 1 event/tick halves
// the interval, down to min; a near-zero forecast relaxes toward max.
func (p *Pacer) NextInterval(at time.Time, base, min, max time.Duration) time.Duration {
	forecast := p.Forecast(at)
	if forecast <= 0 {
		return max
	}

	interval := time.Duration(float64(base) / forecast)
	if interval < min {
		return min
	}
	if interval > max {
		return max
	}
	return interval
}
