// Package classify maps a feature vector and load score to a discrete
// CognitiveContext via a deterministic rule ladder (v1). Replace Classify
// with a trained model call when labeled data becomes available.
package classify

import "cogload/internal/domain"

// Classifier evaluates the rule ladder in fixed priority order: stuck,
// fatigue, deep_focus, recovering, shallow_work, unknown.
type Classifier struct{}

// New constructs a rule-based Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify returns the first matching context in priority order.
func (c *Classifier) Classify(f domain.SignalFeatures, loadScore float64) domain.CognitiveContext {
	// --- stuck ---
	if f.CompileErrorRate > 2.0 && f.TabSwitchRate > 5.0 {
		return domain.ContextStuck
	}
	if f.TaskSwitchEntropy > 0.8 && loadScore > 0.7 {
		return domain.ContextStuck
	}

	// --- fatigue ---
	if loadScore > 0.85 && f.SessionDurationMin > 90 {
		return domain.ContextFatigue
	}
	if f.IdleFraction > 0.4 && f.SessionDurationMin > 60 {
		return domain.ContextFatigue
	}

	// --- deep_focus ---
	if f.TabSwitchRate < 1.5 &&
		f.WindowChangeRate < 2.0 &&
		f.TaskSwitchEntropy < 0.3 &&
		loadScore > 0.3 && loadScore < 0.75 {
		return domain.ContextDeepFocus
	}

	// --- recovering ---
	if f.IdleFraction > 0.2 && loadScore < 0.4 {
		return domain.ContextRecovering
	}

	// --- shallow_work ---
	if f.TabSwitchRate > 3.0 || f.TaskSwitchEntropy > 0.5 {
		return domain.ContextShallowWork
	}

	return domain.ContextUnknown
}
