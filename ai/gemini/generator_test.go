package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/docsift/ai"
	"github.com/stretchr/testify/assert"
)

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"keywords":`), genai.Text(`["a"]}`)}}},
			{Content: nil},
		},
	}
	assert.Equal(t, `{"keywords":["a"]}`, responseText(resp))
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
}

func TestProviderRegistered(t *testing.T) {
	assert.Contains(t, ai.Providers(), ai.ProviderGemini)

	_, err := ai.NewGenerator(context.Background(), ai.NewConfig(ai.WithProvider(ai.ProviderGemini)))
	assert.ErrorIs(t, err, ai.ErrInvalidConfig)
}
