// Package config loads and validates the core's configuration surface
// described in spec.md §6. Configuration errors are fatal at startup
// (spec.md §7) — the process refuses to start rather than run on guessed
// defaults for anything operationally meaningful.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration object recognized by the core.
type Config struct {
	Cadence    CadenceConfig            `yaml:"cadence"`
	Retention  RetentionConfig          `yaml:"retention"`
	Scoring    ScoringConfig            `yaml:"scoring"`
	Store      StoreConfig              `yaml:"store"`
	Venues     map[string]VenueConfig   `yaml:"venues"`
}

// CadenceConfig holds the period for each periodic loop, in seconds.
type CadenceConfig struct {
	QuotesSec    int `yaml:"quotes_sec"`
	DiscoverySec int `yaml:"discovery_sec"`
	ScoringSec   int `yaml:"scoring_sec"`
}

// RetentionConfig bounds how long quote samples are kept.
type RetentionConfig struct {
	SamplesRetentionDays int `yaml:"samples_retention_days"`
}

// NormBounds is the [lo, hi] range norm(x, lo, hi) clamps a feature into.
type NormBounds struct {
	Lo float64 `yaml:"lo"`
	Hi float64 `yaml:"hi"`
}

// ScoringConfig holds every tunable named in spec.md §4.E and §6.
type ScoringConfig struct {
	FeeBps              float64    `yaml:"fee_bps"`
	MinTRemainingSec     float64    `yaml:"min_t_remaining_sec"`
	MaxTRemainingSec     float64    `yaml:"max_t_remaining_sec"`
	QuoteStaleMaxSec     float64    `yaml:"quote_stale_max_sec"`
	SpreadTarget         float64    `yaml:"spread_target"`
	W1                   float64    `yaml:"w1"`
	W2                   float64    `yaml:"w2"`
	W3                   float64    `yaml:"w3"`
	W4                   float64    `yaml:"w4"`
	W5                   float64    `yaml:"w5"`
	YieldVelocityBounds  NormBounds `yaml:"yield_velocity_bounds"`
	NetYieldBounds       NormBounds `yaml:"net_yield_bounds"`
	MaxScoringChunk      int        `yaml:"max_scoring_chunk"`
	MaxMarketsPerTick    int        `yaml:"max_markets_per_tick"`
	// TieBreakSide is the side recommended when yes_ask and no_ask are
	// equal (within 1e-9); unequal asks, however close to 0.5, are decided
	// by the higher ask. Exposed as configuration rather than hard-coded.
	TieBreakSide string `yaml:"tie_break_side"`
}

// StoreConfig configures the Persistence Gateway connection.
type StoreConfig struct {
	DSN      string `yaml:"dsn"`
	PoolSize int    `yaml:"pool_size"`
}

// BackoffConfig configures a venue client's retry policy.
type BackoffConfig struct {
	BaseMS     int     `yaml:"base_ms"`
	MaxMS      int     `yaml:"max_ms"`
	JitterPct  float64 `yaml:"jitter_pct"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// CircuitConfig configures a venue client's circuit breaker.
type CircuitConfig struct {
	ConsecutiveFailures int           `yaml:"consecutive_failures"`
	CooldownSec         int           `yaml:"cooldown_sec"`
}

// VenueConfig configures one venue's HTTP client.
type VenueConfig struct {
	BaseURL           string        `yaml:"base_url"`
	BatchLimit        int           `yaml:"batch_limit"`
	QuoteTimeoutSec   int           `yaml:"quote_timeout_sec"`
	RuleTimeoutSec    int           `yaml:"rule_timeout_sec"`
	RPS               float64       `yaml:"rps"`
	Burst             int           `yaml:"burst"`
	Backoff           BackoffConfig `yaml:"backoff"`
	Circuit           CircuitConfig `yaml:"circuit"`
}

// Default returns the defaults named throughout spec.md §4 and §6.
func Default() *Config {
	return &Config{
		Cadence: CadenceConfig{
			QuotesSec:    60,
			DiscoverySec: 1800,
			ScoringSec:   120,
		},
		Retention: RetentionConfig{
			SamplesRetentionDays: 7,
		},
		Scoring: ScoringConfig{
			FeeBps:           120,
			MinTRemainingSec: 3600,
			MaxTRemainingSec: 1209600,
			QuoteStaleMaxSec: 180,
			SpreadTarget:     0.05,
			W1:               0.45,
			W2:               0.25,
			W3:               0.15,
			W4:               0.10,
			W5:               0.05,
			// Open question in spec.md §9: no concrete normalization bounds
			// are asserted upstream. These defaults are a deliberate,
			// documented decision (see DESIGN.md) rather than a guess baked
			// silently into the math: yield_velocity and net_yield are both
			// dimensionless daily-yield-like quantities, so [0, 0.10] (a
			// 10%/day carry) is used as the saturating upper bound for both.
			YieldVelocityBounds: NormBounds{Lo: 0, Hi: 0.10},
			NetYieldBounds:      NormBounds{Lo: 0, Hi: 0.10},
			MaxScoringChunk:     1000,
			MaxMarketsPerTick:   10000,
			TieBreakSide:        "NO",
		},
		Store: StoreConfig{
			PoolSize: 16,
		},
		Venues: map[string]VenueConfig{},
	}
}

// Load reads a YAML file at path, merges it over Default(), and validates
// the result. A non-existent path is not an error: the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, cfg.Validate()
			}
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// Validate enforces the numeric ranges the rest of the core assumes hold.
// A configuration error here is fatal per spec.md §7.
func (c *Config) Validate() error {
	if c.Cadence.QuotesSec <= 0 || c.Cadence.DiscoverySec <= 0 || c.Cadence.ScoringSec <= 0 {
		return fmt.Errorf("cadence periods must be positive")
	}
	if c.Retention.SamplesRetentionDays <= 0 {
		return fmt.Errorf("retention.samples_retention_days must be positive")
	}
	s := c.Scoring
	if s.MinTRemainingSec < 0 || s.MaxTRemainingSec <= s.MinTRemainingSec {
		return fmt.Errorf("scoring: min_t_remaining_sec must be < max_t_remaining_sec")
	}
	if s.QuoteStaleMaxSec <= 0 {
		return fmt.Errorf("scoring.quote_stale_max_sec must be positive")
	}
	if s.SpreadTarget <= 0 {
		return fmt.Errorf("scoring.spread_target must be positive")
	}
	if s.YieldVelocityBounds.Hi <= s.YieldVelocityBounds.Lo {
		return fmt.Errorf("scoring.yield_velocity_bounds: hi must be > lo")
	}
	if s.NetYieldBounds.Hi <= s.NetYieldBounds.Lo {
		return fmt.Errorf("scoring.net_yield_bounds: hi must be > lo")
	}
	if s.MaxScoringChunk <= 0 || s.MaxScoringChunk > 1000 {
		return fmt.Errorf("scoring.max_scoring_chunk must be in (0, 1000]")
	}
	if c.Store.PoolSize <= 0 {
		return fmt.Errorf("store.pool_size must be positive")
	}
	if s.TieBreakSide != "YES" && s.TieBreakSide != "NO" {
		return fmt.Errorf("scoring.tie_break_side must be YES or NO")
	}
	for name, v := range c.Venues {
		if v.BaseURL == "" {
			return fmt.Errorf("venue %q: base_url is required", name)
		}
		if v.BatchLimit <= 0 {
			return fmt.Errorf("venue %q: batch_limit must be positive", name)
		}
	}
	return nil
}

// RetentionWindow returns the retention.samples_retention_days duration.
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.Retention.SamplesRetentionDays) * 24 * time.Hour
}
