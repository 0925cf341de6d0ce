package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"cogload/internal/aggregator"
	"cogload/internal/classify"
	"cogload/internal/estimate"
	"cogload/internal/listeners/taskqueue"
	"cogload/internal/policy"
	"cogload/internal/settings"
	"cogload/internal/signalproc"
	"cogload/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	now := func() time.Time { return time.Unix(1700000000, 0) }

	proc := signalproc.New(600, now)
	est := estimate.New()
	cls := classify.New()
	db, err := store.Open(filepath.Join(t.TempDir(), "timeline.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	agg := aggregator.New(proc, est, cls, db, nil, now)
	st := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	tasks := taskqueue.New()

	return New(agg, db, policy.New(), st, tasks, nil, now)
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)
	s.Handler().ServeHTTP(w, r)
	if w.Code != 200 {
		t.Fatalf("want 200, got %d", w.Code)
	}
}

func TestIngestBrowserEventAccepted(t *testing.T) {
	s := testServer(t)
	body, _ := json.Marshal(map[string]any{
		"type": "TAB_SWITCH",
		"data": map[string]any{"fromUrl": "https://x.com", "toUrl": "https://y.com"},
	})
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/events/browser", bytes.NewReader(body))
	s.Handler().ServeHTTP(w, r)
	if w.Code != 202 {
		t.Fatalf("want 202, got %d: %s", w.Code, w.Body.String())
	}
}

func TestIngestUnknownEventRejected(t *testing.T) {
	s := testServer(t)
	body, _ := json.Marshal(map[string]any{"type": "NOT_A_REAL_EVENT"})
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/events/browser", bytes.NewReader(body))
	s.Handler().ServeHTTP(w, r)
	if w.Code != 422 {
		t.Fatalf("want 422, got %d", w.Code)
	}
}

func TestStateEndpointReturnsUnknownBeforeFirstTick(t *testing.T) {
	s := testServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/state", nil)
	s.Handler().ServeHTTP(w, r)
	if w.Code != 200 {
		t.Fatalf("want 200, got %d", w.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["Context"] != "unknown" {
		t.Fatalf("want unknown context before first tick, got %+v", got)
	}
}

func TestTimelineRejectsLimitOver1000(t *testing.T) {
	s := testServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/timeline?limit=5000", nil)
	s.Handler().ServeHTTP(w, r)
	if w.Code != 400 {
		t.Fatalf("want 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSettingsGetAndPatch(t *testing.T) {
	s := testServer(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/settings", nil)
	s.Handler().ServeHTTP(w, r)
	if w.Code != 200 {
		t.Fatalf("want 200, got %d", w.Code)
	}

	body, _ := json.Marshal(map[string]any{"high_load_threshold": 0.9})
	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest("PATCH", "/api/settings", bytes.NewReader(body))
	s.Handler().ServeHTTP(w2, r2)
	if w2.Code != 200 {
		t.Fatalf("want 200, got %d: %s", w2.Code, w2.Body.String())
	}
	var got map[string]any
	json.Unmarshal(w2.Body.Bytes(), &got)
	if got["high_load_threshold"] != 0.9 {
		t.Fatalf("want updated threshold, got %+v", got)
	}
}

func TestTaskCreateListDelete(t *testing.T) {
	s := testServer(t)

	body, _ := json.Marshal(map[string]any{"title": "read chapter 4", "difficulty": "easy"})
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/tasks", bytes.NewReader(body))
	s.Handler().ServeHTTP(w, r)
	if w.Code != 201 {
		t.Fatalf("want 201, got %d: %s", w.Code, w.Body.String())
	}
	var created map[string]any
	json.Unmarshal(w.Body.Bytes(), &created)
	id, _ := created["ID"].(string)
	if id == "" {
		t.Fatal("want generated task id")
	}

	w2 := httptest.NewRecorder()
	s.Handler().ServeHTTP(w2, httptest.NewRequest("GET", "/api/tasks", nil))
	if w2.Code != 200 {
		t.Fatalf("want 200, got %d", w2.Code)
	}

	w3 := httptest.NewRecorder()
	s.Handler().ServeHTTP(w3, httptest.NewRequest("DELETE", "/api/tasks/"+id, nil))
	if w3.Code != 200 {
		t.Fatalf("want 200, got %d: %s", w3.Code, w3.Body.String())
	}
}
