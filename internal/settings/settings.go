// Package settings holds user-tunable runtime values persisted as a flat
// JSON blob (data_dir/settings.json), distinct from the process-level
// config package: these are values an end user adjusts live through the
// HTTP settings surface, not deployment configuration.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Settings is the full set of user-tunable knobs. Unknown keys in a
// settings.json on disk are ignored rather than rejected.
type Settings struct {
	ShortBreakSeconds   int     `json:"short_break_seconds"`
	LongBreakSeconds    int     `json:"long_break_seconds"`
	HighLoadThreshold   float64 `json:"high_load_threshold"`
	FatigueThreshold    float64 `json:"fatigue_threshold"`
	SessionGapMinutes   int     `json:"session_gap_minutes"`
}

// Defaults mirrors the router engine's baseline thresholds.
func Defaults() Settings {
	return Settings{
		ShortBreakSeconds: 300,
		LongBreakSeconds:  1200,
		HighLoadThreshold: 0.75,
		FatigueThreshold:  0.85,
		SessionGapMinutes: 10,
	}
}

// Store is a thread-safe, disk-backed Settings holder. Reads never touch
// disk after construction; Update persists synchronously.
type Store struct {
	mu   sync.RWMutex
	path string
	cur  Settings
}

// Open loads path if present, falling back to Defaults() on a missing or
// malformed file (mirrors the Python engine's "malformed file → defaults"
// policy — a corrupt settings.json must never block startup).
func Open(path string) *Store {
	s := &Store{path: path, cur: Defaults()}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	onDisk := Defaults()
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return s
	}
	s.cur = onDisk
	return s
}

// Current returns a copy of the active settings.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update applies patch over the current settings and persists the result.
// Only keys present in patch are applied, zero values included (matching the
// JSON partial-patch contract of the settings HTTP endpoint, which only
// includes keys the caller sent); a present value of an unsupported type
// leaves that field unchanged. The file is rewritten atomically via a
// temporary file and rename.
func (s *Store) Update(patch map[string]any) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.cur
	if v, ok := patch["short_break_seconds"]; ok {
		merged.ShortBreakSeconds = toInt(v, merged.ShortBreakSeconds)
	}
	if v, ok := patch["long_break_seconds"]; ok {
		merged.LongBreakSeconds = toInt(v, merged.LongBreakSeconds)
	}
	if v, ok := patch["high_load_threshold"]; ok {
		merged.HighLoadThreshold = toFloat(v, merged.HighLoadThreshold)
	}
	if v, ok := patch["fatigue_threshold"]; ok {
		merged.FatigueThreshold = toFloat(v, merged.FatigueThreshold)
	}
	if v, ok := patch["session_gap_minutes"]; ok {
		merged.SessionGapMinutes = toInt(v, merged.SessionGapMinutes)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Settings{}, err
	}
	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return Settings{}, err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Settings{}, err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return Settings{}, err
	}

	s.cur = merged
	return merged, nil
}

func toInt(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return fallback
	}
}

func toFloat(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return fallback
	}
}
