// LMS connector (Canvas, Blackboard, Moodle): maps high-stakes academic
// events into the same internal signal vocabulary the other producers
// use, so a quiz failure or an overdue submission register as intrinsic
// load exactly like a compiler error would.
//
// LMS event          Internal type   Signal meaning
// ASSIGNMENT_VIEW     window_change   content navigation (context switch)
// QUIZ_START          window_change   high-stakes context change
// QUIZ_FAIL           compile_error   task difficulty / intrinsic load
// SUBMISSION_LATE     compile_error   stress / deadline pressure
// COURSE_NAVIGATE     tab_switch      context switching rate
// DISCUSSION_VIEW     tab_switch      shallow-work browsing
// RESOURCE_OPEN       window_change   active academic engagement
// LMS_SCROLL          scroll          deep reading signal
// LMS_IDLE            idle_start      student left the LMS page
// LMS_ACTIVE          idle_end        student returned
package sources

import (
	"time"

	"cogload/internal/domain"
	"cogload/internal/signalproc"
)

var lmsIntrinsicEvents = set("QUIZ_FAIL", "QUIZ_RETRY", "SUBMISSION_LATE", "GRADE_FAIL")
var lmsSwitchEvents = set("COURSE_NAVIGATE", "DISCUSSION_VIEW", "TAB_SWITCH")
var lmsWindowEvents = set("ASSIGNMENT_VIEW", "QUIZ_START", "QUIZ_SUBMIT", "RESOURCE_OPEN", "GRADE_VIEW", "ANNOUNCEMENT_VIEW")
var lmsScrollEvents = set("LMS_SCROLL", "RESOURCE_SCROLL")
var lmsIdleStartEvents = set("LMS_IDLE", "PAGE_HIDDEN")
var lmsIdleEndEvents = set("LMS_ACTIVE", "PAGE_VISIBLE")

var lmsSectionLabels = map[string]string{
	"ASSIGNMENT_VIEW":   "assignment",
	"QUIZ_START":        "quiz",
	"QUIZ_SUBMIT":       "quiz",
	"RESOURCE_OPEN":     "resource",
	"GRADE_VIEW":        "grades",
	"ANNOUNCEMENT_VIEW": "announcement",
}

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

func lmsSection(rawType string) string {
	if label, ok := lmsSectionLabels[rawType]; ok {
		return label
	}
	return "lms"
}

// LMSPayload is the raw shape sent by an LMS connector.
type LMSPayload struct {
	Type      string         `json:"type"`
	Timestamp *float64       `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// ParseLMSEvent converts an LMSPayload into a TelemetryEvent.
func ParseLMSEvent(p LMSPayload, now func() time.Time) (domain.TelemetryEvent, bool) {
	data := p.Data
	if data == nil {
		data = map[string]any{}
	}
	ts := resolveTimestamp(p.Timestamp, now)
	platform := stringFieldOr(data, "lms", "lms")
	course := stringFieldOr(data, "course", "unknown")
	title := stringField(data, "title")

	switch {
	case lmsIntrinsicEvents[p.Type]:
		return domain.TelemetryEvent{
			Source: domain.SourceLMS, EventType: signalproc.EventCompileError, Timestamp: ts,
			Metadata: map[string]any{"lms": platform, "course": course, "title": title, "lms_event": p.Type},
		}, true

	case lmsSwitchEvents[p.Type]:
		toURL := stringField(data, "toUrl")
		if toURL == "" {
			toURL = stringField(data, "url")
		}
		return domain.TelemetryEvent{
			Source: domain.SourceLMS, EventType: signalproc.EventTabSwitch, Timestamp: ts,
			Metadata: map[string]any{
				"lms": platform, "course": course, "title": title,
				"from_url": stringField(data, "fromUrl"), "to_url": toURL, "lms_event": p.Type,
			},
		}, true

	case lmsWindowEvents[p.Type]:
		return domain.TelemetryEvent{
			Source: domain.SourceLMS, EventType: signalproc.EventWindowChange, Timestamp: ts,
			Metadata: map[string]any{
				"app": platform + ":" + lmsSection(p.Type), "lms": platform, "course": course,
				"title": title, "lms_event": p.Type,
			},
		}, true

	case lmsScrollEvents[p.Type]:
		return domain.TelemetryEvent{
			Source: domain.SourceLMS, EventType: signalproc.EventScroll, Timestamp: ts,
			Metadata: map[string]any{"delta_y": data["deltaY"], "lms": platform, "course": course, "lms_event": p.Type},
		}, true

	case lmsIdleStartEvents[p.Type]:
		return domain.TelemetryEvent{
			Source: domain.SourceLMS, EventType: signalproc.EventIdleStart, Timestamp: ts,
			Metadata: map[string]any{"lms": platform, "course": course},
		}, true

	case lmsIdleEndEvents[p.Type]:
		return domain.TelemetryEvent{
			Source: domain.SourceLMS, EventType: signalproc.EventIdleEnd, Timestamp: ts,
			Metadata: map[string]any{"lms": platform, "course": course},
		}, true
	}

	return domain.TelemetryEvent{}, false
}
