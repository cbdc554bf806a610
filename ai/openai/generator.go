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


package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/docsift/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

func init() {
	ai.RegisterProvider(ai.ProviderOpenAI, func(ctx context.Context, cfg *ai.Config) (ai.Generator, error) {
		return NewGenerator(cfg)
	})
}

// Generator implements ai.Generator against an OpenAI-compatible chat API.
type Generator struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// NewGenerator creates a generator using the provided configuration.
// The config is validated and normalized before use.
func NewGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local OpenAI-compatible services accept any token
	token := config.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}
	return newGeneratorWithClient(client, config.Temperature), nil
}

func newGeneratorWithClient(client llms.Model, temperature float64) *Generator {
	return &Generator{
		client:      client,
		temperature: temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}
}

// Generate renders req into a system and a human message and returns the
// first choice's content in JSON mode.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	system, user := ai.RenderPrompt(req)
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(g.temperature), llms.WithJSONMode())
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 || response.Choices[0].Content == "" {
		g.logger.Debug("no choices returned from model")
		return "", ai.ErrEmptyResponse
	}
	return response.Choices[0].Content, nil
}

// Close is a no-op; the underlying HTTP client needs no cleanup.
func (g *Generator) Close() error {
	g.logger.Debug("closing OpenAI generator")
	return nil
}
