package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// AIParams holds the parameters for one AI profile (name and behavior).
type AIParams struct {
	Name       string `json:"name"`
	DelayMinMS int    `json:"delay_min_ms"`
	DelayMaxMS int    `json:"delay_max_ms"`
	// KeepThreshold is the highest drawn value the bot will put over a hidden slot.
	KeepThreshold int `json:"keep_threshold"`
	// TakeDiscardMax is the highest discard top the bot will take.
	TakeDiscardMax int `json:"take_discard_max"`
	UseItemChance  int `json:"use_item_chance"` // 0-100, probability to play a worthwhile item instead of discarding it
}

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all configurable server and game parameters.
type Config struct {
	WSPort         int    `json:"ws_port"`
	MaxNameLength  int    `json:"max_name_length"`
	PlayersPerGame int    `json:"players_per_game"`
	TargetScore    int    `json:"target_score"`
	SpikeMode      bool   `json:"spike_mode"`
	ItemDensity    string `json:"item_density"`
	InitialReveals int    `json:"initial_reveals"`

	StoreBackend   string `json:"store_backend"`
	DatabaseURL    string `json:"database_url"`
	RedisURL       string `json:"redis_url"`
	TxMaxRetries   int    `json:"tx_max_retries"`
	GameTTLMinutes int    `json:"game_ttl_minutes"`

	NeonAuthBaseURL  string `json:"neon_auth_base_url"`
	AIPairTimeoutSec int    `json:"ai_pair_timeout_sec"`

	// AIProfiles lists available bot opponents; one is chosen at random per empty seat.
	AIProfiles []AIParams `json:"ai_profiles"`

	LogLevel string `json:"log_level"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		WSPort:           8080,
		MaxNameLength:    24,
		PlayersPerGame:   2,
		TargetScore:      100,
		SpikeMode:        false,
		ItemDensity:      "medium",
		InitialReveals:   2,
		StoreBackend:     BackendMemory,
		TxMaxRetries:     10,
		GameTTLMinutes:   360,
		AIPairTimeoutSec: 15,
		AIProfiles: []AIParams{
			{Name: "Nox", DelayMinMS: 800, DelayMaxMS: 2000, KeepThreshold: 4, TakeDiscardMax: 3, UseItemChance: 90},
			{Name: "Vela", DelayMinMS: 500, DelayMaxMS: 1200, KeepThreshold: 5, TakeDiscardMax: 4, UseItemChance: 70},
			{Name: "Orin", DelayMinMS: 600, DelayMaxMS: 1800, KeepThreshold: 3, TakeDiscardMax: 2, UseItemChance: 50},
		},
		LogLevel: "info",
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	return LoadFile("config.json")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) *Config {
	cfg := Defaults()

	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config file", "tag", "config", "path", path, "error", err)
		}
	}

	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideInt(&cfg.PlayersPerGame, "PLAYERS_PER_GAME")
	overrideInt(&cfg.TargetScore, "TARGET_SCORE")
	overrideBool(&cfg.SpikeMode, "SPIKE_MODE")
	overrideString(&cfg.ItemDensity, "ITEM_DENSITY")
	overrideInt(&cfg.InitialReveals, "INITIAL_REVEALS")
	overrideString(&cfg.StoreBackend, "STORE_BACKEND")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.RedisURL, "REDIS_URL")
	overrideInt(&cfg.TxMaxRetries, "TX_MAX_RETRIES")
	overrideInt(&cfg.GameTTLMinutes, "GAME_TTL_MINUTES")
	overrideString(&cfg.NeonAuthBaseURL, "NEON_AUTH_BASE_URL")
	overrideInt(&cfg.AIPairTimeoutSec, "AI_PAIR_TIMEOUT_SEC")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	if len(cfg.AIProfiles) > 0 {
		overrideString(&cfg.AIProfiles[0].Name, "AI_NAME")
		overrideInt(&cfg.AIProfiles[0].DelayMinMS, "AI_DELAY_MIN_MS")
		overrideInt(&cfg.AIProfiles[0].DelayMaxMS, "AI_DELAY_MAX_MS")
		overrideInt(&cfg.AIProfiles[0].KeepThreshold, "AI_KEEP_THRESHOLD")
		overrideInt(&cfg.AIProfiles[0].UseItemChance, "AI_USE_ITEM_CHANCE")
	}

	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	return cfg
}

// SlogLevel maps LogLevel to a slog.Level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid integer in environment", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func overrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*field = b
		} else {
			slog.Warn("invalid boolean in environment", "tag", "config", "key", envKey, "value", val)
		}
	}
}
