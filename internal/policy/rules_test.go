package policy

import (
	"testing"

	"cogload/internal/domain"
)

func TestStuckHighLoadOrdersByPriority(t *testing.T) {
	e := New()
	actions := e.Evaluate(domain.LoadEstimate{Score: 0.8}, domain.ContextStuck)
	if len(actions) != 4 {
		t.Fatalf("want 4 directives, got %d", len(actions))
	}
	for i := 1; i < len(actions); i++ {
		if actions[i].Priority < actions[i-1].Priority {
			t.Fatalf("want ascending priority, got %+v", actions)
		}
	}
	if actions[0].Priority != 1 {
		t.Fatalf("want first directive priority 1, got %d", actions[0].Priority)
	}
}

func TestDeepFocusProtectsSession(t *testing.T) {
	e := New()
	actions := e.Evaluate(domain.LoadEstimate{Score: 0.5}, domain.ContextDeepFocus)
	if len(actions) != 2 {
		t.Fatalf("want 2 directives, got %d", len(actions))
	}
}

func TestNoMatchOutsideLoadRange(t *testing.T) {
	e := New()
	actions := e.Evaluate(domain.LoadEstimate{Score: 0.9}, domain.ContextDeepFocus)
	if len(actions) != 0 {
		t.Fatalf("want no directives, got %+v", actions)
	}
}

func TestRecoveringLowLoadSchedulesHardTask(t *testing.T) {
	e := New()
	actions := e.Evaluate(domain.LoadEstimate{Score: 0.1}, domain.ContextRecovering)
	found := false
	for _, a := range actions {
		if a.ActionType == "schedule_hard_task" {
			found = true
		}
	}
	if !found {
		t.Fatalf("want schedule_hard_task directive, got %+v", actions)
	}
}

func TestDescribeReturnsMatchingDescriptions(t *testing.T) {
	e := New()
	descs := e.Describe(domain.LoadEstimate{Score: 0.9}, domain.ContextFatigue)
	if len(descs) != 1 {
		t.Fatalf("want 1 description, got %+v", descs)
	}
}
