package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docsift/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply    *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	options  llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	return f.reply, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

func TestGenerator_Generate(t *testing.T) {
	model := &fakeModel{reply: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: `{"answer":"yes"}`}},
	}}
	gen := newGeneratorWithClient(model, 0.2)

	got, err := gen.Generate(context.Background(), ai.Request{
		Instruction: "Is it approved?",
		Context:     "The budget was approved.",
		Shape:       map[string]string{"answer": "..."},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"answer":"yes"}`, got)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	human, ok := model.messages[1].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, human.Text, "The budget was approved.")
	assert.True(t, model.options.JSONMode)
	assert.InDelta(t, 0.2, model.options.Temperature, 1e-9)
}

func TestGenerator_EmptyResponse(t *testing.T) {
	gen := newGeneratorWithClient(&fakeModel{reply: &llms.ContentResponse{}}, 0)
	_, err := gen.Generate(context.Background(), ai.Request{Instruction: "q"})
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)
}

func TestGenerator_ClientError(t *testing.T) {
	boom := errors.New("connection refused")
	gen := newGeneratorWithClient(&fakeModel{err: boom}, 0)
	_, err := gen.Generate(context.Background(), ai.Request{Instruction: "q"})
	assert.ErrorIs(t, err, boom)
}

func TestProviderRegistered(t *testing.T) {
	assert.Contains(t, ai.Providers(), ai.ProviderOpenAI)

	gen, err := ai.NewGenerator(context.Background(), ai.NewConfig(ai.WithHost("http://localhost:11434")))
	require.NoError(t, err)
	assert.Equal(t, "closed", gen.State())
	require.NoError(t, gen.Close())
}
