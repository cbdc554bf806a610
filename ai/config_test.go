package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, 60*time.Second, cfg.CallTimeout)
	assert.Equal(t, 5, cfg.BreakerFailures)
	assert.Zero(t, cfg.RequestsPerMinute)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderGemini),
			WithModel("gemini-1.5-pro"),
			WithAPIKey("secret"),
			WithTemperature(0.2),
			WithCallTimeout(5*time.Second),
			WithRequestsPerMinute(30),
			WithBreakerFailures(3),
			WithHost("http://ignored"),
		)

		assert.Equal(t, ProviderGemini, cfg.Provider)
		assert.Equal(t, "gemini-1.5-pro", cfg.Model)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.Equal(t, 0.2, cfg.Temperature)
		assert.Equal(t, 5*time.Second, cfg.CallTimeout)
		assert.Equal(t, 30, cfg.RequestsPerMinute)
		assert.Equal(t, 3, cfg.BreakerFailures)
		assert.Equal(t, "http://ignored", cfg.Host)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantHost  string
		wantModel string
	}{
		{
			name:      "adds /v1 suffix",
			cfg:       Config{Provider: ProviderOpenAI, Host: "http://localhost:11434"},
			wantHost:  "http://localhost:11434/v1",
			wantModel: DefaultOpenAIModel,
		},
		{
			name:      "trims trailing slash before suffix",
			cfg:       Config{Provider: ProviderOpenAI, Host: "http://localhost:11434/"},
			wantHost:  "http://localhost:11434/v1",
			wantModel: DefaultOpenAIModel,
		},
		{
			name:      "keeps existing suffix",
			cfg:       Config{Provider: "OpenAI", Host: "http://localhost:11434/v1", Model: "llama3"},
			wantHost:  "http://localhost:11434/v1",
			wantModel: "llama3",
		},
		{
			name:      "gemini host untouched",
			cfg:       Config{Provider: ProviderGemini, Host: "http://example"},
			wantHost:  "http://example",
			wantModel: DefaultGeminiModel,
		},
		{
			name:      "empty provider defaults to openai",
			cfg:       Config{Host: "http://h"},
			wantHost:  "http://h/v1",
			wantModel: DefaultOpenAIModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Normalize()
			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantModel, cfg.Model)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{"default config", DefaultConfig(), nil},
		{"gemini with key", NewConfig(WithProvider(ProviderGemini), WithAPIKey("k")), nil},
		{"gemini without key", NewConfig(WithProvider(ProviderGemini)), ErrInvalidConfig},
		{"openai without host", NewConfig(WithHost("")), ErrInvalidConfig},
		{"unknown provider", NewConfig(WithProvider("claude")), ErrUnknownProvider},
		{"zero timeout", NewConfig(WithCallTimeout(0)), ErrInvalidConfig},
		{"negative rate", NewConfig(WithRequestsPerMinute(-1)), ErrInvalidConfig},
		{"negative breaker", NewConfig(WithBreakerFailures(-1)), ErrInvalidConfig},
		{"temperature too high", NewConfig(WithTemperature(3)), ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
