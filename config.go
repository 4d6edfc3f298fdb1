/*
File: config.go
Description: Engine configuration structures and YAML loading. Ensemble
             weights, keyword/TLD/shortener lists, and thresholds are
             deployment data: the built-ins are development defaults and
             every list can be overridden here.
*/

package urlguard

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// --- Configuration Structures ---

type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Engine     EngineConfig     `yaml:"engine"`
	Cache      CacheConfig      `yaml:"cache"`
	Collectors CollectorsConfig `yaml:"collectors"`
	Ensemble   EnsembleConfig   `yaml:"ensemble"`
	Lexical    LexicalConfig    `yaml:"lexical"`
	Reputation ReputationConfig `yaml:"reputation"`
}

type LoggingConfig struct {
	Level   string   `yaml:"level"`
	Format  string   `yaml:"format"`
	Outputs []string `yaml:"outputs"`

	File struct {
		Path        string `yaml:"path"`
		Permissions uint32 `yaml:"permissions"`
	} `yaml:"file"`
}

type EngineConfig struct {
	// MaxConcurrent bounds analyses running collector fan-out at once,
	// protecting outbound resolvers and HTTP probes.
	MaxConcurrent int `yaml:"max_concurrent"`
	BatchWorkers  int `yaml:"batch_workers"`
	TopFeatures   int `yaml:"top_features"`
}

type CacheConfig struct {
	Size int    `yaml:"size"`
	TTL  string `yaml:"ttl"`

	parsedTTL time.Duration
}

type CollectorsConfig struct {
	Deadline string `yaml:"deadline"`

	DNS struct {
		Enabled  bool   `yaml:"enabled"`
		Resolver string `yaml:"resolver"`
		QPS      int    `yaml:"qps"`
	} `yaml:"dns"`

	TLS struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"tls"`

	Content struct {
		Enabled      bool   `yaml:"enabled"`
		MaxBodyBytes int64  `yaml:"max_body_bytes"`
		UserAgent    string `yaml:"user_agent"`
	} `yaml:"content"`

	parsedDeadline time.Duration
}

type EnsembleConfig struct {
	// SnapshotFile points at a trained parameter snapshot (JSON). Empty
	// selects the built-in development snapshot.
	SnapshotFile string `yaml:"snapshot_file"`

	// Weights are the per-model soft-voting weights, normalized at load to
	// sum to 1. Fixed at deployment time, never learned online.
	Weights map[string]float64 `yaml:"weights"`

	// VarianceThreshold flags an assessment LOW_CONFIDENCE when the
	// population variance of model probabilities exceeds it. The score is
	// reported unchanged.
	VarianceThreshold float64 `yaml:"variance_threshold"`

	// MinIndicatorWeight filters heuristic indicators out of the final
	// assessment when their severity weight falls below it.
	MinIndicatorWeight float64 `yaml:"min_indicator_weight"`
}

type LexicalConfig struct {
	BrandKeywords    []string `yaml:"brand_keywords"`
	SecurityKeywords []string `yaml:"security_keywords"`
	SuspiciousTLDs   []string `yaml:"suspicious_tlds"`
	URLShorteners    []string `yaml:"url_shorteners"`
	SafeDomains      []string `yaml:"safe_domains"`
}

type ReputationConfig struct {
	// BlockedCIDRs are known-malicious network ranges; resolved addresses
	// and IP-literal hosts inside them raise KNOWN_MALICIOUS.
	BlockedCIDRs []string `yaml:"blocked_cidrs"`
}

// --- Configuration Loading ---

// DefaultConfig returns a runnable configuration with network collectors
// disabled, suitable for offline lexical-only scoring.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if len(cfg.Logging.Outputs) > 0 || cfg.Logging.Level != "" {
		if err := InitLogger(cfg.Logging); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if len(cfg.Logging.Outputs) == 0 {
		cfg.Logging.Outputs = []string{"console"}
	}

	if cfg.Engine.MaxConcurrent <= 0 {
		cfg.Engine.MaxConcurrent = 64
	}
	if cfg.Engine.BatchWorkers <= 0 {
		cfg.Engine.BatchWorkers = 16
	}
	if cfg.Engine.TopFeatures <= 0 {
		cfg.Engine.TopFeatures = 8
	}

	if cfg.Cache.Size <= 0 {
		cfg.Cache.Size = 65536
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = "1h"
	}
	ttl, err := time.ParseDuration(cfg.Cache.TTL)
	if err != nil {
		LogWarn("[CONFIG] Invalid cache ttl '%s', defaulting to 1h", cfg.Cache.TTL)
		ttl = time.Hour
	}
	cfg.Cache.parsedTTL = ttl

	if cfg.Collectors.Deadline == "" {
		cfg.Collectors.Deadline = "2s"
	}
	deadline, err := time.ParseDuration(cfg.Collectors.Deadline)
	if err != nil {
		LogWarn("[CONFIG] Invalid collector deadline '%s', defaulting to 2s", cfg.Collectors.Deadline)
		deadline = 2 * time.Second
	}
	cfg.Collectors.parsedDeadline = deadline

	if cfg.Collectors.DNS.Resolver == "" {
		cfg.Collectors.DNS.Resolver = "9.9.9.9:53"
	}
	if cfg.Collectors.DNS.QPS <= 0 {
		cfg.Collectors.DNS.QPS = 50
	}
	if cfg.Collectors.Content.MaxBodyBytes <= 0 {
		cfg.Collectors.Content.MaxBodyBytes = 1 << 20
	}
	if cfg.Collectors.Content.UserAgent == "" {
		cfg.Collectors.Content.UserAgent = "urlguard/" + EngineVersion
	}

	if len(cfg.Ensemble.Weights) == 0 {
		cfg.Ensemble.Weights = map[string]float64{
			ModelForest: 0.30,
			ModelBoost:  0.30,
			ModelMargin: 0.20,
			ModelLogit:  0.20,
		}
	}
	if cfg.Ensemble.VarianceThreshold <= 0 {
		cfg.Ensemble.VarianceThreshold = 0.06
	}
	if cfg.Ensemble.MinIndicatorWeight <= 0 {
		cfg.Ensemble.MinIndicatorWeight = 0.2
	}
}
