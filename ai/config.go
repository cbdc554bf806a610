// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultHost        = "http://localhost:11434/v1"
	DefaultOpenAIModel = "qwen2.5:3b"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// Config holds configuration for text-generation providers.
type Config struct {
	// Provider selects the backend: "openai" for any OpenAI-compatible API
	// (Ollama, LocalAI, vLLM, OpenAI itself) or "gemini".
	Provider string

	// Host is the base URL of an OpenAI-compatible API. Ignored by gemini.
	// Example: "http://localhost:11434/v1"
	Host string

	// Model is the model identifier. Empty selects the provider default.
	// Example: "qwen2.5:3b", "gemini-2.0-flash"
	Model string

	// APIKey authenticates against hosted APIs. Required for gemini.
	APIKey string

	// Temperature is the sampling temperature. Default: 0
	Temperature float64

	// CallTimeout bounds every Generate call. A call that times out is a
	// failure. Default: 60s
	CallTimeout time.Duration

	// RequestsPerMinute caps the call rate. 0 disables limiting.
	RequestsPerMinute int

	// BreakerFailures is the number of consecutive failures that opens the
	// circuit breaker. 0 disables the breaker. Default: 5
	BreakerFailures int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider selects the generation backend.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithHost sets the OpenAI-compatible host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithCallTimeout sets the per-call timeout.
func WithCallTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.CallTimeout = d
	}
}

// WithRequestsPerMinute sets the call rate limit.
func WithRequestsPerMinute(rpm int) ConfigOption {
	return func(c *Config) {
		c.RequestsPerMinute = rpm
	}
}

// WithBreakerFailures sets the consecutive failures that trip the breaker.
func WithBreakerFailures(n int) ConfigOption {
	return func(c *Config) {
		c.BreakerFailures = n
	}
}

// DefaultConfig returns a Config for a local OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		Provider:        ProviderOpenAI,
		Host:            DefaultHost,
		CallTimeout:     60 * time.Second,
		BreakerFailures: 5,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderGemini),
//	    WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It fills the provider's default model and, for OpenAI-compatible hosts,
// adds the /v1 suffix most servers require.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}

	if c.Model == "" {
		switch c.Provider {
		case ProviderOpenAI:
			c.Model = DefaultOpenAIModel
		case ProviderGemini:
			c.Model = DefaultGeminiModel
		}
	}

	if c.Provider == ProviderOpenAI && c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderOpenAI:
		if c.Host == "" {
			return fmt.Errorf("%w: Host is required", ErrInvalidConfig)
		}
	case ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%w: APIKey is required for gemini", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownProvider, c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: Temperature must be between 0 and 2", ErrInvalidConfig)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("%w: CallTimeout must be positive", ErrInvalidConfig)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: RequestsPerMinute cannot be negative", ErrInvalidConfig)
	}
	if c.BreakerFailures < 0 {
		return fmt.Errorf("%w: BreakerFailures cannot be negative", ErrInvalidConfig)
	}
	return nil
}
