package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.WSPort != 8080 {
		t.Errorf("expected WSPort=8080, got %d", cfg.WSPort)
	}
	if cfg.MaxNameLength != 24 {
		t.Errorf("expected MaxNameLength=24, got %d", cfg.MaxNameLength)
	}
	if cfg.PlayersPerGame != 2 {
		t.Errorf("expected PlayersPerGame=2, got %d", cfg.PlayersPerGame)
	}
	if cfg.TargetScore != 100 {
		t.Errorf("expected TargetScore=100, got %d", cfg.TargetScore)
	}
	if cfg.InitialReveals != 2 {
		t.Errorf("expected InitialReveals=2, got %d", cfg.InitialReveals)
	}
	if cfg.StoreBackend != BackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.StoreBackend)
	}
	if cfg.SpikeMode {
		t.Error("spike mode should be off by default")
	}
	if len(cfg.AIProfiles) == 0 {
		t.Error("expected at least one AI profile")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("WS_PORT", "9090")
	t.Setenv("PLAYERS_PER_GAME", "4")
	t.Setenv("SPIKE_MODE", "true")
	t.Setenv("ITEM_DENSITY", "high")
	t.Setenv("STORE_BACKEND", " Redis ")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.json"))

	if cfg.WSPort != 9090 {
		t.Errorf("expected WSPort=9090 after env override, got %d", cfg.WSPort)
	}
	if cfg.PlayersPerGame != 4 {
		t.Errorf("expected PlayersPerGame=4 after env override, got %d", cfg.PlayersPerGame)
	}
	if !cfg.SpikeMode {
		t.Error("expected spike mode on after env override")
	}
	if cfg.ItemDensity != "high" {
		t.Errorf("expected ItemDensity=high, got %q", cfg.ItemDensity)
	}
	if cfg.StoreBackend != BackendRedis {
		t.Errorf("expected backend normalised to redis, got %q", cfg.StoreBackend)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("unexpected RedisURL %q", cfg.RedisURL)
	}
	// Non-overridden fields should remain default
	if cfg.TargetScore != 100 {
		t.Errorf("expected TargetScore=100 (default), got %d", cfg.TargetScore)
	}
}

func TestLoadWithInvalidEnv(t *testing.T) {
	t.Setenv("TARGET_SCORE", "invalid")
	t.Setenv("SPIKE_MODE", "maybe")

	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.json"))

	if cfg.TargetScore != 100 {
		t.Errorf("expected TargetScore=100 (default) with invalid env, got %d", cfg.TargetScore)
	}
	if cfg.SpikeMode {
		t.Error("invalid boolean should leave the default")
	}
}

func TestLoadFile_JSONThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"target_score": 50, "initial_reveals": 0, "ai_profiles": [{"name": "Solo", "keep_threshold": 2}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INITIAL_REVEALS", "3")
	t.Setenv("AI_NAME", "Duo")

	cfg := LoadFile(path)
	if cfg.TargetScore != 50 {
		t.Errorf("expected TargetScore=50 from file, got %d", cfg.TargetScore)
	}
	if cfg.InitialReveals != 3 {
		t.Errorf("env should win over file, got InitialReveals=%d", cfg.InitialReveals)
	}
	if len(cfg.AIProfiles) != 1 || cfg.AIProfiles[0].Name != "Duo" || cfg.AIProfiles[0].KeepThreshold != 2 {
		t.Errorf("unexpected profiles %+v", cfg.AIProfiles)
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Defaults()
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	} {
		cfg.LogLevel = in
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
