package app

import (
	"path/filepath"
	"testing"

	"cogload/internal/config"
	"cogload/internal/store"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.TimelineDB = "timeline.db"
	return cfg
}

func TestBuildWiresAllComponents(t *testing.T) {
	a, err := Build(testConfig(t), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.Close()

	if a.HTTP == nil || a.Aggregator == nil || a.Store == nil {
		t.Fatal("want all core components wired")
	}
}

func TestTickOnceProducesEstimateAndPersistsEntry(t *testing.T) {
	a, err := Build(testConfig(t), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.Close()

	est := a.TickOnce()
	if est.Score < 0 || est.Score > 1 {
		t.Fatalf("want score in [0,1], got %v", est.Score)
	}

	entries, err := a.Store.Query(store.Query{Limit: 100})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("want 1 persisted tick, got %d", len(entries))
	}
}

func TestBuildWithMissingModelArtifactFallsBackToV1(t *testing.T) {
	cfg := testConfig(t)
	cfg.ModelArtifactPath = filepath.Join(cfg.DataDir, "missing-model.json")

	a, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.Close()

	if a.Estimator.UsingModel() {
		t.Fatal("want fallback to rule-based estimator when model artifact is missing")
	}
}
