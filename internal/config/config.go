// Package config loads the daemon's process configuration: a compiled-in
// default, optionally overridden by a config file, optionally overridden
// again by COGLOAD_* environment variables. The merge order and env-override
// mechanism follow the shaper daemon's runtimeConfig/loadConfig pattern.
// The file format is sniffed from the path's extension: .toml decodes with
// BurntSushi/toml, .yaml/.yml with yaml.v3 — both bind onto the same
// fileConfig shape so either format overrides the same set of keys.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	envAPIBind        = "COGLOAD_API_BIND"
	envInferenceTick  = "COGLOAD_INFERENCE_INTERVAL"
	envLoadWindow     = "COGLOAD_LOAD_HISTORY_WINDOW"
	envDataDir        = "COGLOAD_DATA_DIR"
	envTimelineDB     = "COGLOAD_TIMELINE_DB"
	envTelemetryBuf   = "COGLOAD_TELEMETRY_BUFFER_SIZE"
	envMetricsBind    = "COGLOAD_METRICS_BIND"
	envModelArtifact  = "COGLOAD_MODEL_ARTIFACT_PATH"
)

// Config is the daemon's runtime configuration.
type Config struct {
	APIBind             string
	MetricsBind         string
	InferenceInterval   time.Duration
	LoadHistoryWindow   time.Duration
	TelemetryBufferSize int
	DataDir             string
	TimelineDB          string
	ModelArtifactPath   string
}

// fileConfig mirrors Config with optional fields, for TOML or YAML decoding: an
// absent key in the file must not clobber a compiled-in default.
type fileConfig struct {
	API       apiFileConfig       `toml:"api" yaml:"api"`
	Inference inferenceFileConfig `toml:"inference" yaml:"inference"`
	Telemetry telemetryFileConfig `toml:"telemetry" yaml:"telemetry"`
	Storage   storageFileConfig   `toml:"storage" yaml:"storage"`
	Metrics   metricsFileConfig   `toml:"metrics" yaml:"metrics"`
	Model     modelFileConfig     `toml:"model" yaml:"model"`
}

type apiFileConfig struct {
	Bind *string `toml:"bind" yaml:"bind"`
}

type inferenceFileConfig struct {
	IntervalMs      *int `toml:"interval_ms" yaml:"interval_ms"`
	LoadHistoryWinS *int `toml:"load_history_window_s" yaml:"load_history_window_s"`
}

type telemetryFileConfig struct {
	BufferSize *int `toml:"buffer_size" yaml:"buffer_size"`
}

type storageFileConfig struct {
	DataDir    *string `toml:"data_dir" yaml:"data_dir"`
	TimelineDB *string `toml:"timeline_db" yaml:"timeline_db"`
}

type metricsFileConfig struct {
	Bind *string `toml:"bind" yaml:"bind"`
}

type modelFileConfig struct {
	ArtifactPath *string `toml:"artifact_path" yaml:"artifact_path"`
}

// Default returns the compiled-in defaults.
func Default() Config {
	return Config{
		APIBind:             "127.0.0.1:8765",
		MetricsBind:         "127.0.0.1:9765",
		InferenceInterval:   2 * time.Second,
		LoadHistoryWindow:   300 * time.Second,
		TelemetryBufferSize: 500,
		DataDir:             "./data",
		TimelineDB:          "timeline.db",
		ModelArtifactPath:   "",
	}
}

// Load reads Default(), merges in path (if it exists — a missing file is
// not an error), then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		fc, err := decodeFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("cogload: decode config file %q: %w", path, err)
		}
		if err == nil {
			mergeFile(&cfg, fc)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// decodeFile dispatches on path's extension: .yaml/.yml use yaml.v3,
// everything else (including no extension) is treated as TOML.
func decodeFile(path string) (fileConfig, error) {
	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return fileConfig{}, err
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return fileConfig{}, err
		}
		return fc, nil
	default:
		_, err := toml.DecodeFile(path, &fc)
		return fc, err
	}
}

func mergeFile(dst *Config, src fileConfig) {
	assignString(&dst.APIBind, src.API.Bind)
	assignString(&dst.MetricsBind, src.Metrics.Bind)
	assignMillis(&dst.InferenceInterval, src.Inference.IntervalMs)
	assignSeconds(&dst.LoadHistoryWindow, src.Inference.LoadHistoryWinS)
	assignInt(&dst.TelemetryBufferSize, src.Telemetry.BufferSize)
	assignString(&dst.DataDir, src.Storage.DataDir)
	assignString(&dst.TimelineDB, src.Storage.TimelineDB)
	assignString(&dst.ModelArtifactPath, src.Model.ArtifactPath)
}

func applyEnvOverrides(cfg *Config) {
	cfg.APIBind = envString(envAPIBind, cfg.APIBind)
	cfg.MetricsBind = envString(envMetricsBind, cfg.MetricsBind)
	cfg.InferenceInterval = envDurationMs(envInferenceTick, cfg.InferenceInterval)
	cfg.LoadHistoryWindow = envDurationS(envLoadWindow, cfg.LoadHistoryWindow)
	cfg.TelemetryBufferSize = envInt(envTelemetryBuf, cfg.TelemetryBufferSize)
	cfg.DataDir = envString(envDataDir, cfg.DataDir)
	cfg.TimelineDB = envString(envTimelineDB, cfg.TimelineDB)
	cfg.ModelArtifactPath = envString(envModelArtifact, cfg.ModelArtifactPath)
}

func assignString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func assignInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func assignMillis(dst *time.Duration, src *int) {
	if src != nil {
		*dst = time.Duration(*src) * time.Millisecond
	}
}

func assignSeconds(dst *time.Duration, src *int) {
	if src != nil {
		*dst = time.Duration(*src) * time.Second
	}
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationMs(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return fallback
}

func envDurationS(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
