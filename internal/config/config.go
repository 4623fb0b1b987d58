// Package config defines the pipeline configuration and its loading.
//
// Conventions:
//   - New returns a Config holding every default.
//   - Load layers defaults, an optional YAML file, an optional .env file and
//     GRAPPLE_ environment variables, then validates.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// InputDir holds round documents as JSON files.
	InputDir string `koanf:"input_dir"`
	// OutputDir receives the extracts.
	OutputDir string `koanf:"output_dir"`
	// OutputFormat is csv or json.
	OutputFormat string `koanf:"output_format"`
	// DatabaseURL enables the Postgres sink when set.
	DatabaseURL string `koanf:"database_url"`

	// WorkerCount sets the number of extraction workers.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the in-memory document queue.
	QueueSize int `koanf:"queue_size"`
	// DedupeSize bounds the duplicate document detector.
	DedupeSize int `koanf:"dedupe_size"`

	InitialRating       float64            `koanf:"initial_rating"`
	KFactor             float64            `koanf:"k_factor"`
	DecisionMultipliers map[string]float64 `koanf:"decision_multipliers"`
	OvertimeMultiplier  float64            `koanf:"overtime_multiplier"`

	// CountUnratedMatches counts byes and loserless forfeits as matches played.
	CountUnratedMatches bool `koanf:"count_unrated_matches"`
	// RateForfeits lets forfeits between two named wrestlers move ratings.
	RateForfeits bool `koanf:"rate_forfeits"`
	// OnInconsistency is halt or continue.
	OnInconsistency string `koanf:"on_inconsistency"`

	SeasonStartMonth int `koanf:"season_start_month"`

	// LeaderboardLimit caps GET /leaderboard?limit.
	LeaderboardLimit int `koanf:"leaderboard_limit"`

	NameAliases map[string]string `koanf:"name_aliases"`
	TeamAliases map[string]string `koanf:"team_aliases"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":9080",
		InputDir:      "./data/rounds",
		OutputDir:     "./data/out",
		OutputFormat:  "csv",
		WorkerCount:   4,
		QueueSize:     256,
		DedupeSize:    100_000,
		InitialRating: 1500,
		KFactor:       32,
		DecisionMultipliers: map[string]float64{
			"fall":           1.5,
			"tech_fall":      1.25,
			"major_decision": 1.1,
		},
		OvertimeMultiplier: 1,
		RateForfeits:       true,
		OnInconsistency:    "halt",
		SeasonStartMonth:   9,
		LeaderboardLimit:   100,
		NameAliases:        map[string]string{},
		TeamAliases:        map[string]string{},
	}
}
