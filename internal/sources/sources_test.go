package sources

import (
	"testing"
	"time"

	"cogload/internal/signalproc"
)

func fixedNow() time.Time { return time.Unix(1700000000, 0) }

func TestIsAcademicURLExactAndSubdomain(t *testing.T) {
	cases := map[string]bool{
		"https://arxiv.org/abs/1234":          true,
		"https://www.arxiv.org/abs/1234":      true,
		"https://export.arxiv.org/abs/1234":   true,
		"https://notarxiv.org/abs/1234":       false,
		"https://example.com":                 false,
		"not a url %%%":                       false,
	}
	for url, want := range cases {
		if got := IsAcademicURL(url); got != want {
			t.Errorf("IsAcademicURL(%q) = %v, want %v", url, got, want)
		}
	}
}

func TestParseBrowserEventUnknownTypeDropped(t *testing.T) {
	_, ok := ParseBrowserEvent(BrowserPayload{Type: "UNKNOWN_THING"}, fixedNow)
	if ok {
		t.Fatal("want unknown event type dropped")
	}
}

func TestParseBrowserEventTabSwitchMarksAcademic(t *testing.T) {
	e, ok := ParseBrowserEvent(BrowserPayload{
		Type: "TAB_SWITCH",
		Data: map[string]any{"fromUrl": "https://x.com", "toUrl": "https://arxiv.org/abs/1"},
	}, fixedNow)
	if !ok || e.EventType != signalproc.EventTabSwitch {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.Metadata["is_academic"] != true {
		t.Fatalf("want is_academic true, got %+v", e.Metadata)
	}
}

func TestParseBrowserEventDefaultsTimestampToNow(t *testing.T) {
	e, ok := ParseBrowserEvent(BrowserPayload{Type: "IDLE_START"}, fixedNow)
	if !ok {
		t.Fatal("want idle_start recognized")
	}
	if e.Timestamp != float64(fixedNow().Unix()) {
		t.Fatalf("want default timestamp, got %v", e.Timestamp)
	}
}

func TestParseIDETestFailMapsToCompileError(t *testing.T) {
	e, ok := ParseIDEEvent(IDEPayload{Type: "TEST_FAIL", Data: map[string]any{"language": "go"}}, fixedNow)
	if !ok || e.EventType != signalproc.EventCompileError {
		t.Fatalf("want compile_error, got %+v", e)
	}
	if e.Metadata["language"] != "go" {
		t.Fatalf("want language preserved, got %+v", e.Metadata)
	}
}

func TestParseIDEUnknownLanguageDefaults(t *testing.T) {
	e, ok := ParseIDEEvent(IDEPayload{Type: "FILE_SAVE"}, fixedNow)
	if !ok || e.Metadata["language"] != "unknown" {
		t.Fatalf("want unknown language default, got %+v", e)
	}
}

func TestParseDesktopWindowFocusCarriesApp(t *testing.T) {
	e, ok := ParseDesktopEvent(DesktopPayload{Type: "WINDOW_FOCUS", Data: map[string]any{"app": "Slack"}}, fixedNow)
	if !ok || e.EventType != signalproc.EventWindowChange || e.Metadata["app"] != "Slack" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestParseLMSQuizFailMapsToCompileError(t *testing.T) {
	e, ok := ParseLMSEvent(LMSPayload{Type: "QUIZ_FAIL", Data: map[string]any{"lms": "canvas", "course": "CS101"}}, fixedNow)
	if !ok || e.EventType != signalproc.EventCompileError {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestParseLMSAssignmentViewMapsToWindowChangeWithSection(t *testing.T) {
	e, ok := ParseLMSEvent(LMSPayload{Type: "ASSIGNMENT_VIEW", Data: map[string]any{"lms": "canvas"}}, fixedNow)
	if !ok || e.Metadata["app"] != "canvas:assignment" {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestParseLMSUnknownTypeDropped(t *testing.T) {
	_, ok := ParseLMSEvent(LMSPayload{Type: "SOMETHING_ELSE"}, fixedNow)
	if ok {
		t.Fatal("want unknown LMS event dropped")
	}
}
