package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPrompt(t *testing.T) {
	system, user := RenderPrompt(Request{
		Instruction: "Generate exactly 5 keywords",
		Context:     "The budget for 2024 was approved.",
		Shape:       map[string]any{"keywords": []string{"k1"}},
	})

	assert.Contains(t, system, "Respond ONLY with a valid JSON")
	assert.Contains(t, system, `{"keywords":["k1"]}`)
	assert.True(t, strings.HasPrefix(user, "Context:\nThe budget for 2024 was approved."))
	assert.True(t, strings.HasSuffix(user, "Question:\nGenerate exactly 5 keywords"))

	_, user = RenderPrompt(Request{Instruction: "q"})
	assert.Equal(t, "Question:\nq", user)
}

func TestAsk(t *testing.T) {
	t.Run("decodes reply", func(t *testing.T) {
		stub := &stubGenerator{fn: func(ctx context.Context, req Request) (string, error) {
			return `Here you go: {"answer": "42",}`, nil
		}}
		var out struct {
			Answer string `json:"answer"`
		}
		require.NoError(t, Ask(context.Background(), stub, Request{Instruction: "q"}, &out))
		assert.Equal(t, "42", out.Answer)
	})

	t.Run("generator error is returned", func(t *testing.T) {
		boom := errors.New("boom")
		stub := &stubGenerator{fn: func(ctx context.Context, req Request) (string, error) {
			return "", boom
		}}
		var out map[string]any
		assert.ErrorIs(t, Ask(context.Background(), stub, Request{}, &out), boom)
	})

	t.Run("malformed reply", func(t *testing.T) {
		stub := &stubGenerator{fn: func(ctx context.Context, req Request) (string, error) {
			return "no json here", nil
		}}
		var out map[string]any
		assert.ErrorIs(t, Ask(context.Background(), stub, Request{}, &out), ErrMalformedResponse)
	})
}

func TestRegistry(t *testing.T) {
	stub := &stubGenerator{fn: func(ctx context.Context, req Request) (string, error) {
		return "ok", nil
	}}
	RegisterProvider("registry-test", func(ctx context.Context, cfg *Config) (Generator, error) {
		return stub, nil
	})
	assert.Contains(t, Providers(), "registry-test")
	assert.Panics(t, func() {
		RegisterProvider("registry-test", func(ctx context.Context, cfg *Config) (Generator, error) {
			return nil, nil
		})
	})

	// openai is not registered inside this package's tests
	_, err := NewGenerator(context.Background(), DefaultConfig())
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = NewGenerator(context.Background(), NewConfig(WithCallTimeout(0)))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
