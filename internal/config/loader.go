package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/grapple/internal/domain/elo"
	"github.com/okian/grapple/internal/domain/model"
)

const (
	envPrefix  = "GRAPPLE_"
	envConfig  = "GRAPPLE_CONFIG"
	envDotFile = "GRAPPLE_ENV_FILE"
)

// Load builds a Config. Order of precedence (low -> high):
//  1. defaults (New())
//  2. YAML file named by GRAPPLE_CONFIG
//  3. .env file (GRAPPLE_ENV_FILE, default ".env"); never overrides the real environment
//  4. env (prefix GRAPPLE_); nested keys use "__", e.g. GRAPPLE_DECISION_MULTIPLIERS__FALL
func Load(_ context.Context) (*Config, error) {
	dotenv := os.Getenv(envDotFile)
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, dotenv, err)
	}

	k := koanf.New(".")
	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	bad := func(key string, v any) error {
		return fmt.Errorf("%w: %s=%v", ErrInvalidConfig, key, v)
	}
	switch {
	case c.Addr == "":
		return bad("addr", c.Addr)
	case c.InitialRating <= 0:
		return bad("initial_rating", c.InitialRating)
	case c.KFactor <= 0:
		return bad("k_factor", c.KFactor)
	case c.OvertimeMultiplier <= 0:
		return bad("overtime_multiplier", c.OvertimeMultiplier)
	case c.QueueSize < 1:
		return bad("queue_size", c.QueueSize)
	case c.LeaderboardLimit < 1:
		return bad("leaderboard_limit", c.LeaderboardLimit)
	case c.SeasonStartMonth < 1 || c.SeasonStartMonth > 12:
		return bad("season_start_month", c.SeasonStartMonth)
	}
	switch strings.ToLower(c.OutputFormat) {
	case "csv", "json":
	default:
		return bad("output_format", c.OutputFormat)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return bad("log_format", c.LogFormat)
	}
	if _, err := elo.ParseInconsistencyPolicy(c.OnInconsistency); err != nil {
		return bad("on_inconsistency", c.OnInconsistency)
	}
	for name, v := range c.DecisionMultipliers {
		if _, err := model.ParseDecisionType(name); err != nil || v <= 0 {
			return bad("decision_multipliers."+name, v)
		}
	}
	return nil
}
