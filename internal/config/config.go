// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Scorer modes.
const (
	ScorerModeLocal = "local"
	ScorerModeHTTP  = "http"
)

// Store drivers.
const (
	StoreDriverMemory   = "memory"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects "text" or "json" log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// CORSOrigins lists browser origins allowed to call the API; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`

	// CatalogPath points at a YAML question catalog. Empty uses the built-in one.
	CatalogPath string `koanf:"catalog_path"`
	// DiscoverColumns builds the catalog from the remote scorer's /columns
	// list instead. Requires scorer_mode=http and an empty catalog_path.
	DiscoverColumns bool `koanf:"discover_columns"`

	// AllowRevisit lets paginated sessions step back to an earlier question.
	AllowRevisit bool `koanf:"allow_revisit"`

	// SessionLimit caps the number of paginated sessions held in memory.
	SessionLimit int `koanf:"session_limit"`

	// ScorerMode is "local" (in-process model) or "http" (remote scorer).
	ScorerMode string `koanf:"scorer_mode"`
	// ScorerURL is the base URL of the remote scorer, e.g. http://127.0.0.1:8000.
	ScorerURL string `koanf:"scorer_url"`
	// ScorerTimeoutMS bounds a single scoring round trip.
	ScorerTimeoutMS int `koanf:"scorer_timeout_ms"`
	// ScorerRatePerSec and ScorerBurst throttle outbound scoring calls; 0 disables.
	ScorerRatePerSec float64 `koanf:"scorer_rate_per_sec"`
	ScorerBurst      int     `koanf:"scorer_burst"`

	// ScoringLatencyMinMS and ScoringLatencyMaxMS simulate model latency for the local scorer.
	ScoringLatencyMinMS int `koanf:"scoring_latency_min_ms"`
	ScoringLatencyMaxMS int `koanf:"scoring_latency_max_ms"`

	// FeatureWeights maps question ids to local scorer weights.
	FeatureWeights map[string]float64 `koanf:"feature_weights"`

	// StoreDriver is "memory", "sqlite" or "postgres".
	StoreDriver string `koanf:"store_driver"`
	// StoreDSN is the sqlite path or postgres connection string.
	StoreDSN string `koanf:"store_dsn"`

	// RedisAddr enables result notifications when set.
	RedisAddr    string `koanf:"redis_addr"`
	RedisChannel string `koanf:"redis_channel"`

	// DedupeSize bounds the submission id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// WorkerCount and QueueSize size the batch scoring pool.
	WorkerCount int `koanf:"worker_count"`
	QueueSize   int `koanf:"queue_size"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		CORSOrigins:         []string{"http://localhost:3000"},
		SessionLimit:        10_000,
		ScorerMode:          ScorerModeLocal,
		ScorerURL:           "http://127.0.0.1:8000",
		ScorerTimeoutMS:     5_000,
		ScorerRatePerSec:    0,
		ScorerBurst:         1,
		ScoringLatencyMinMS: 0,
		ScoringLatencyMaxMS: 0,
		FeatureWeights: map[string]float64{
			"DAILY_STRESS": -1, // higher stress lowers the score
			"AGE":          0,
			"GENDER":       0,
		},
		StoreDriver:  StoreDriverSQLite,
		StoreDSN:     "balance.db",
		RedisChannel: "balance.results",
		DedupeSize:   50_000,
		WorkerCount:  runtime.NumCPU() * 2,
		QueueSize:    1_000,
	}
}

// ScorerTimeout returns the scoring timeout as a duration.
func (c *Config) ScorerTimeout() time.Duration {
	return time.Duration(c.ScorerTimeoutMS) * time.Millisecond
}

// Validate checks enum values and required fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.ScorerMode {
	case ScorerModeLocal:
	case ScorerModeHTTP:
		if strings.TrimSpace(c.ScorerURL) == "" {
			return fmt.Errorf("%w: scorer_url is required when scorer_mode=http", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown scorer_mode %q", ErrInvalidConfig, c.ScorerMode)
	}
	switch c.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverSQLite, StoreDriverPostgres:
		if strings.TrimSpace(c.StoreDSN) == "" {
			return fmt.Errorf("%w: store_dsn is required for store_driver=%s", ErrInvalidConfig, c.StoreDriver)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.DiscoverColumns && (c.ScorerMode != ScorerModeHTTP || c.CatalogPath != "") {
		return fmt.Errorf("%w: discover_columns needs scorer_mode=http and no catalog_path", ErrInvalidConfig)
	}
	if c.ScorerTimeoutMS <= 0 {
		return fmt.Errorf("%w: scorer_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
