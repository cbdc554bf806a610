// Package gemini provides an ai.Generator backed by Google's Gemini API.
// Importing it registers the "gemini" provider with ai.NewGenerator.
package gemini

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/docsift/ai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

func init() {
	ai.RegisterProvider(ai.ProviderGemini, func(ctx context.Context, cfg *ai.Config) (ai.Generator, error) {
		return NewGenerator(ctx, cfg)
	})
}

// Generator implements ai.Generator using a genai client.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
	tracer      trace.Tracer
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// NewGenerator dials the Gemini API with the configured key.
func NewGenerator(ctx context.Context, config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, err
	}
	return &Generator{
		client:      client,
		model:       config.Model,
		temperature: float32(config.Temperature),
		tracer:      otel.Tracer("gemini-generator"),
		logger:      slog.Default().With("component", "gemini-generator", "model", config.Model),
	}, nil
}

// Generate sends the rendered prompt with JSON output requested.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	ctx, span := g.tracer.Start(ctx, "gemini.generate_content", trace.WithAttributes(
		attribute.String("gemini.model", g.model),
		attribute.Int("gemini.context_chars", len(req.Context)),
	))
	defer span.End()

	system, user := ai.RenderPrompt(req)

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	text := responseText(resp)
	span.SetAttributes(attribute.Int("gemini.response_chars", len(text)))
	if text == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}

// Close releases the underlying gRPC connection.
func (g *Generator) Close() error {
	return g.client.Close()
}

// responseText concatenates the text parts of every candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(b.String())
}
