// Package config loads docsift settings from an optional YAML file and a
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/ingestion"
	"github.com/poiesic/docsift/search"
	"github.com/poiesic/docsift/segment"
	"gopkg.in/yaml.v3"
)

const (
	StoreBadger = "badger"
	StoreSQLite = "sqlite"
)

// StoreConfig selects the segment store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// AIConfig configures the text generator.
type AIConfig struct {
	Provider string `yaml:"provider"`
	Host     string `yaml:"host"`
	Model    string `yaml:"model"`
	// APIKey takes precedence over APIKeyEnv.
	APIKey string `yaml:"api_key,omitempty"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv         string        `yaml:"api_key_env"`
	Temperature       float64       `yaml:"temperature"`
	CallTimeout       time.Duration `yaml:"call_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	BreakerFailures   int           `yaml:"breaker_failures"`
}

// SegmenterConfig holds the chunking policy.
type SegmenterConfig struct {
	MinLen      int `yaml:"min_len"`
	MaxLen      int `yaml:"max_len"`
	MinSegments int `yaml:"min_segments"`
}

// IngestionConfig tunes enrichment and the worker pool.
type IngestionConfig struct {
	KeywordCount int `yaml:"keyword_count"`
	FanOut       int `yaml:"fan_out"`
	Workers      int `yaml:"workers"`
}

// QueryConfig tunes retrieval and synthesis.
type QueryConfig struct {
	PrivilegedRole string `yaml:"privileged_role"`
	MinOverlap     int    `yaml:"min_overlap"`
	ContextBudget  int    `yaml:"context_budget"`
	WithSummaries  bool   `yaml:"with_summaries"`
}

// QueueConfig configures the Redis transport.
type QueueConfig struct {
	RedisURL    string        `yaml:"redis_url"`
	Concurrency int           `yaml:"concurrency"`
	TaskTimeout time.Duration `yaml:"task_timeout"`
}

// Config is the root configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Store     StoreConfig     `yaml:"store"`
	AI        AIConfig        `yaml:"ai"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Query     QueryConfig     `yaml:"query"`
	Queue     QueueConfig     `yaml:"queue"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Store:    StoreConfig{Driver: StoreBadger, Path: "docsift_data"},
		AI: AIConfig{
			Provider:        ai.ProviderOpenAI,
			Host:            ai.DefaultHost,
			APIKeyEnv:       "DOCSIFT_API_KEY",
			CallTimeout:     60 * time.Second,
			BreakerFailures: 5,
		},
		Segmenter: SegmenterConfig{
			MinLen:      segment.DefaultMinLen,
			MaxLen:      segment.DefaultMaxLen,
			MinSegments: segment.DefaultMinSegments,
		},
		Ingestion: IngestionConfig{
			KeywordCount: ingestion.DefaultKeywordCount,
			FanOut:       ingestion.DefaultFanOut,
		},
		Query: QueryConfig{
			PrivilegedRole: core.PrivilegedRole,
			MinOverlap:     search.DefaultMinOverlap,
			ContextBudget:  search.DefaultContextBudget,
		},
		Queue: QueueConfig{
			RedisURL:    "redis://localhost:6379/0",
			Concurrency: 4,
			TaskTimeout: 10 * time.Minute,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnv loads variables from the given .env files, or ./.env when none are
// given, without overriding variables already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// GeneratorConfig converts the AI section into an ai.Config. Without an
// explicit key the API key is read from the configured environment variable.
func (c *Config) GeneratorConfig() *ai.Config {
	apiKey := c.AI.APIKey
	if apiKey == "" && c.AI.APIKeyEnv != "" {
		apiKey = os.Getenv(c.AI.APIKeyEnv)
	}
	return ai.NewConfig(
		ai.WithProvider(c.AI.Provider),
		ai.WithHost(c.AI.Host),
		ai.WithModel(c.AI.Model),
		ai.WithAPIKey(apiKey),
		ai.WithTemperature(c.AI.Temperature),
		ai.WithCallTimeout(c.AI.CallTimeout),
		ai.WithRequestsPerMinute(c.AI.RequestsPerMinute),
		ai.WithBreakerFailures(c.AI.BreakerFailures),
	)
}

// SegmentPolicy converts the segmenter section into a segment.Policy.
func (c *Config) SegmentPolicy() segment.Policy {
	return segment.Policy{
		MinLen:      c.Segmenter.MinLen,
		MaxLen:      c.Segmenter.MaxLen,
		MinSegments: c.Segmenter.MinSegments,
	}
}

// Validate checks the settings that have no safe fallback.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreBadger, StoreSQLite:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Path == "" {
		return errors.New("store path is required")
	}
	if err := c.SegmentPolicy().Validate(); err != nil {
		return err
	}
	return c.GeneratorConfig().Validate()
}
