// Package policy matches the current (context, load_score) against a
// declarative rule registry and emits the ordered ActionDirectives for
// listeners to execute.
package policy

import "cogload/internal/domain"

// rule maps a context + inclusive load range to a set of directives.
type rule struct {
	context     domain.CognitiveContext
	loadMin     float64
	loadMax     float64
	description string
	actions     []domain.ActionDirective
}

// registry is ordered; within a single context multiple ranges may overlap
// deliberately (e.g. a narrow high-confidence band nested in a wider one),
// so Evaluate accumulates every match rather than stopping at the first.
var registry = []rule{
	{
		context:     domain.ContextStuck,
		loadMin:     0.6,
		loadMax:     1.0,
		description: "High-load stuck loop: redirect to review material",
		actions: []domain.ActionDirective{
			{ActionType: "suppress_notifications", Priority: 1, Reason: "Student is stuck — eliminate interruptions"},
			{ActionType: "suggest_task", Params: map[string]any{"type": "review", "difficulty": "easy"}, Priority: 2, Reason: "Surface prerequisite material"},
			{ActionType: "shorten_focus_interval", Params: map[string]any{"minutes": 10}, Priority: 3, Reason: "Reduce pressure by shortening session"},
			{ActionType: "block_distracting_tabs", Priority: 2, Reason: "Limit scope of context switches"},
		},
	},
	{
		context:     domain.ContextDeepFocus,
		loadMin:     0.3,
		loadMax:     0.75,
		description: "Optimal deep-work state: protect and sustain",
		actions: []domain.ActionDirective{
			{ActionType: "suppress_notifications", Priority: 1, Reason: "Protect deep focus window"},
			{ActionType: "block_distracting_tabs", Priority: 2, Reason: "Reduce extraneous load"},
		},
	},
	{
		context:     domain.ContextFatigue,
		loadMin:     0.85,
		loadMax:     1.0,
		description: "Fatigue detected: initiate recovery protocol",
		actions: []domain.ActionDirective{
			{ActionType: "recommend_break", Params: map[string]any{"duration_min": 15}, Priority: 1, Reason: "Cognitive recovery needed"},
			{ActionType: "delay_hard_tasks", Priority: 2, Reason: "Defer high-difficulty work until recovery"},
			{ActionType: "suppress_notifications", Priority: 1, Reason: "Reduce stimulus during recovery"},
		},
	},
	{
		context:     domain.ContextShallowWork,
		loadMin:     0.3,
		loadMax:     0.7,
		description: "Scattered attention: consolidate focus",
		actions: []domain.ActionDirective{
			{ActionType: "suggest_task", Params: map[string]any{"type": "current", "difficulty": "medium"}, Priority: 3, Reason: "Bring attention back to primary task"},
		},
	},
	{
		context:     domain.ContextRecovering,
		loadMin:     0.0,
		loadMax:     0.35,
		description: "Low load / recovering: schedule challenging work",
		actions: []domain.ActionDirective{
			{ActionType: "schedule_hard_task", Priority: 4, Reason: "Low load is ideal for high-difficulty material"},
			{ActionType: "allow_notifications", Priority: 5, Reason: "Student has capacity for minor interruptions"},
		},
	},
}

// Engine evaluates the rule registry against a tick's estimate and context.
type Engine struct{}

// New constructs a rule-based policy Engine.
func New() *Engine {
	return &Engine{}
}

// Evaluate returns every matching directive across all matching rules,
// sorted ascending by Priority (1 = highest).
func (e *Engine) Evaluate(estimate domain.LoadEstimate, ctx domain.CognitiveContext) []domain.ActionDirective {
	var matched []domain.ActionDirective
	for _, r := range registry {
		if r.context != ctx {
			continue
		}
		if estimate.Score < r.loadMin || estimate.Score > r.loadMax {
			continue
		}
		matched = append(matched, r.actions...)
	}
	insertionSortByPriority(matched)
	return matched
}

// Describe returns the human-readable description of every matching rule.
func (e *Engine) Describe(estimate domain.LoadEstimate, ctx domain.CognitiveContext) []string {
	var descriptions []string
	for _, r := range registry {
		if r.context == ctx && estimate.Score >= r.loadMin && estimate.Score <= r.loadMax {
			descriptions = append(descriptions, r.description)
		}
	}
	return descriptions
}

// insertionSortByPriority sorts in place; directive counts per tick are
// small (single digits), so a stable insertion sort keeps equal-priority
// actions in registry order without pulling in sort.Slice's overhead.
func insertionSortByPriority(actions []domain.ActionDirective) {
	for i := 1; i < len(actions); i++ {
		for j := i; j > 0 && actions[j].Priority < actions[j-1].Priority; j-- {
			actions[j], actions[j-1] = actions[j-1], actions[j]
		}
	}
}
