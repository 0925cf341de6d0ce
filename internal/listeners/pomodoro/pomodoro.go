// Package pomodoro implements an adaptive focus-interval timer whose
// duration scales with the latest cognitive load estimate.
package pomodoro

import (
	"time"

	"cogload/internal/settings"
)

// Phase is the current pomodoro cycle phase.
type Phase string

const (
	PhaseWork       Phase = "work"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
	PhaseIdle       Phase = "idle"
)

const defaultWorkDuration = 25 * time.Minute

// State is an immutable snapshot of the timer.
type State struct {
	Phase             Phase
	StartedAt         time.Time
	Duration          time.Duration
	SessionsCompleted int
}

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// ElapsedSince reports how long has elapsed in the current phase.
func (s State) ElapsedSince(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// RemainingSince reports time left in the current phase, floored at zero.
func (s State) RemainingSince(now time.Time) time.Duration {
	remaining := s.Duration - s.ElapsedSince(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsCompleteSince reports whether the phase has run its full duration.
func (s State) IsCompleteSince(now time.Time) bool {
	return !s.StartedAt.IsZero() && s.ElapsedSince(now) >= s.Duration
}

// Timer tracks the active pomodoro cycle and adapts durations to load.
type Timer struct {
	now      Clock
	settings *settings.Store
	state    State
}

// New constructs an idle Timer.
func New(now Clock, st *settings.Store) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now, settings: st, state: State{Phase: PhaseIdle, Duration: defaultWorkDuration}}
}

// State returns the current snapshot.
func (t *Timer) State() State {
	return t.state
}

// SuggestDuration maps a load score to a recommended work-interval length
// (§ load-aware scheduling): fatigue gets the shortest interval, low load
// the longest.
func SuggestDuration(loadScore, fatigueThreshold, highLoadThreshold float64) time.Duration {
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

// StartWork begins a work phase sized to loadScore.
func (t *Timer) StartWork(loadScore float64) State {
	s := t.settings.Current()
	duration := SuggestDuration(loadScore, s.FatigueThreshold, s.HighLoadThreshold)
	t.state = State{
		Phase:             PhaseWork,
		StartedAt:         t.now(),
		Duration:          duration,
		SessionsCompleted: t.state.SessionsCompleted,
	}
	return t.state
}

// StartBreak begins a short or long break, per the user's persisted settings.
func (t *Timer) StartBreak(long bool) State {
	s := t.settings.Current()
	duration := time.Duration(s.ShortBreakSeconds) * time.Second
	phase := PhaseShortBreak
	if long {
		duration = time.Duration(s.LongBreakSeconds) * time.Second
		phase = PhaseLongBreak
	}
	t.state = State{
		Phase:             phase,
		StartedAt:         t.now(),
		Duration:          duration,
		SessionsCompleted: t.state.SessionsCompleted,
	}
	return t.state
}

// Tick advances the cycle: on phase completion it starts the next phase
// (work → break, every 4th work session → long break; break → work).
func (t *Timer) Tick(loadScore float64) State {
	if t.state.IsCompleteSince(t.now()) {
		if t.state.Phase == PhaseWork {
			t.state.SessionsCompleted++
			longBreak := t.state.SessionsCompleted%4 == 0
			return t.StartBreak(longBreak)
		}
		return t.StartWork(loadScore)
	}
	return t.state
}
