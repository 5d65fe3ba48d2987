package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	ListenAddr string

	EnginePath    string
	EnginePreset  string
	EngineOptions map[string]string

	RedisURL    string
	DatabaseURL string

	EngineStartTimeoutSec     int
	EngineHandshakeTimeoutSec int

	SuggestionCacheTTLSec int
	HistoryLimit          int
	MaxConcurrentGames    int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:                ":8080",
		EnginePreset:              "standard",
		EngineOptions:             map[string]string{},
		EngineStartTimeoutSec:     10,
		EngineHandshakeTimeoutSec: 10,
		SuggestionCacheTTLSec:     1800,
		HistoryLimit:              200,
		MaxConcurrentGames:        100,
	}

	cfg.EnginePath = strings.TrimSpace(os.Getenv("ENGINE_PATH"))
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_PRESET")); v != "" {
		cfg.EnginePreset = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	// Extra engine options as "Name=Value,Name=Value". Values may not
	// contain commas; none of the common UCI options need them.
	if v := strings.TrimSpace(os.Getenv("ENGINE_OPTIONS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			name, val, ok := strings.Cut(strings.TrimSpace(p), "=")
			if ok && strings.TrimSpace(name) != "" {
				cfg.EngineOptions[strings.TrimSpace(name)] = strings.TrimSpace(val)
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("ENGINE_START_TIMEOUT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineStartTimeoutSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_HANDSHAKE_TIMEOUT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineHandshakeTimeoutSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SUGGESTION_CACHE_TTL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SuggestionCacheTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_CONCURRENT_GAMES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConcurrentGames = n
		}
	}

	if cfg.EnginePath == "" {
		return nil, errors.New("ENGINE_PATH is required")
	}

	return cfg, nil
}
