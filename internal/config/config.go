// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"hrtool/internal/draw"
	"hrtool/internal/grouping"
)

// Config holds the server and engine settings.
type Config struct {
	Port             string
	SessionTTL       time.Duration
	JanitorInterval  time.Duration
	DrawCycles       int
	DrawInterval     time.Duration
	DefaultGroupSize int
}

// Default returns the settings used when no environment overrides are present.
func Default() Config {
	return Config{
		Port:             "8080",
		SessionTTL:       time.Hour,
		JanitorInterval:  10 * time.Minute,
		DrawCycles:       draw.DefaultCycles,
		DrawInterval:     draw.DefaultInterval,
		DefaultGroupSize: grouping.DefaultSize,
	}
}

// Load applies PORT and HR_* environment variables on top of Default.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("PORT"); v != "" {
		cfg.Port = v
	}

	var err error
	if cfg.SessionTTL, err = durationVar(getenv, "HR_SESSION_TTL", cfg.SessionTTL); err != nil {
		return cfg, err
	}
	if cfg.JanitorInterval, err = durationVar(getenv, "HR_JANITOR_INTERVAL", cfg.JanitorInterval); err != nil {
		return cfg, err
	}
	if cfg.DrawInterval, err = durationVar(getenv, "HR_DRAW_INTERVAL", cfg.DrawInterval); err != nil {
		return cfg, err
	}
	if cfg.DrawCycles, err = intVar(getenv, "HR_DRAW_CYCLES", cfg.DrawCycles); err != nil {
		return cfg, err
	}
	if cfg.DefaultGroupSize, err = intVar(getenv, "HR_DEFAULT_GROUP_SIZE", cfg.DefaultGroupSize); err != nil {
		return cfg, err
	}
	if err := grouping.ValidateSize(cfg.DefaultGroupSize); err != nil {
		return cfg, fmt.Errorf("HR_DEFAULT_GROUP_SIZE: %w", err)
	}
	return cfg, nil
}

func durationVar(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return n, nil
}
