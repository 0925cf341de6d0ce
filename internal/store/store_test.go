package store

import (
	"path/filepath"
	"testing"
	"time"

	"cogload/internal/domain"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timeline.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAppendAndQuery(t *testing.T) {
	db := openTemp(t)
	id, err := db.Append(domain.TimelineEntry{
		Timestamp: 1000, Source: domain.SourceEngine, EventType: "inference_tick",
		LoadScore: 0.5, Context: domain.ContextDeepFocus, MetadataJSON: "{}",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id == 0 {
		t.Fatal("want nonzero id")
	}

	entries, err := db.Query(Query{Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 1 || entries[0].LoadScore != 0.5 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestQueryOrderedNewestFirst(t *testing.T) {
	db := openTemp(t)
	for i, ts := range []float64{100, 300, 200} {
		db.Append(domain.TimelineEntry{Timestamp: ts, Source: domain.SourceEngine, EventType: "inference_tick", Context: domain.ContextUnknown, MetadataJSON: "{}", LoadScore: float64(i)})
	}
	entries, err := db.Query(Query{Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 3 || entries[0].Timestamp != 300 || entries[2].Timestamp != 100 {
		t.Fatalf("want descending by timestamp, got %+v", entries)
	}
}

func TestQueryLimitExceeded(t *testing.T) {
	db := openTemp(t)
	_, err := db.Query(Query{Limit: 5000})
	if err != domain.ErrLimitExceeded {
		t.Fatalf("want ErrLimitExceeded, got %v", err)
	}
}

func TestQueryFilterBySourceAndRange(t *testing.T) {
	db := openTemp(t)
	db.Append(domain.TimelineEntry{Timestamp: 100, Source: domain.SourceBrowser, EventType: "tab_switch", Context: domain.ContextUnknown, MetadataJSON: "{}"})
	db.Append(domain.TimelineEntry{Timestamp: 200, Source: domain.SourceEngine, EventType: "inference_tick", Context: domain.ContextUnknown, MetadataJSON: "{}"})

	eng := domain.SourceEngine
	since := 150.0
	entries, err := db.Query(Query{Source: &eng, Since: &since, Limit: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 1 || entries[0].Source != domain.SourceEngine {
		t.Fatalf("want 1 engine entry, got %+v", entries)
	}
}

func TestRecentLoadScoresOldestFirst(t *testing.T) {
	db := openTemp(t)
	now := time.Unix(1_700_000_000, 0)
	db.Append(domain.TimelineEntry{Timestamp: float64(now.Unix()) - 100, Source: domain.SourceEngine, EventType: "inference_tick", Context: domain.ContextUnknown, MetadataJSON: "{}", LoadScore: 0.1})
	db.Append(domain.TimelineEntry{Timestamp: float64(now.Unix()) - 50, Source: domain.SourceEngine, EventType: "inference_tick", Context: domain.ContextUnknown, MetadataJSON: "{}", LoadScore: 0.2})

	scores, err := db.RecentLoadScores(now, 300)
	if err != nil {
		t.Fatalf("recent load scores: %v", err)
	}
	if len(scores) != 2 || scores[0] != 0.1 || scores[1] != 0.2 {
		t.Fatalf("want oldest-first [0.1 0.2], got %v", scores)
	}
}
