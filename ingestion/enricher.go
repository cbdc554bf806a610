package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/core"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultKeywordCount is the number of keywords requested per segment.
	DefaultKeywordCount = 5

	// DefaultFanOut bounds concurrent enrichment calls per document.
	DefaultFanOut = 4
)

// Enricher derives keywords and a summary for segment text.
type Enricher struct {
	generator    ai.Generator
	keywordCount int
	fanOut       int
	callTimeout  time.Duration
	logger       *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher) error

// WithKeywordCount sets how many keywords are requested per segment.
func WithKeywordCount(n int) EnricherOption {
	return func(e *Enricher) error {
		if n < 1 {
			return fmt.Errorf("keyword count must be positive, got %d", n)
		}
		e.keywordCount = n
		return nil
	}
}

// WithFanOut bounds the number of concurrent calls made by EnrichAll.
func WithFanOut(n int) EnricherOption {
	return func(e *Enricher) error {
		if n < 1 {
			n = 1
		}
		e.fanOut = n
		return nil
	}
}

// WithEnrichTimeout bounds each enrichment call. Zero leaves timing to the
// generator.
func WithEnrichTimeout(d time.Duration) EnricherOption {
	return func(e *Enricher) error {
		e.callTimeout = d
		return nil
	}
}

// WithEnricherLogger sets a custom logger.
func WithEnricherLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "enricher")
		return nil
	}
}

func NewEnricher(generator ai.Generator, opts ...EnricherOption) (*Enricher, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	e := &Enricher{
		generator:    generator,
		keywordCount: DefaultKeywordCount,
		fanOut:       DefaultFanOut,
		logger:       slog.Default().With("component", "enricher"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

type enrichmentReply struct {
	Keywords []string `json:"keywords"`
	Summary  string   `json:"summary"`
}

func (e *Enricher) request(text string) ai.Request {
	example := make([]string, e.keywordCount)
	for i := range example {
		example[i] = fmt.Sprintf("k%d", i+1)
	}
	return ai.Request{
		Instruction: fmt.Sprintf("Generate exactly %d keywords and a one-sentence summary for the given text", e.keywordCount),
		Context:     text,
		Shape: map[string]any{
			"keywords": example,
			"summary":  "...",
		},
	}
}

// Enrich makes one generator call for text. Errors are returned as is; the
// degraded fallback is applied by EnrichAll.
func (e *Enricher) Enrich(ctx context.Context, text string) (core.Enrichment, error) {
	if e.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
	}

	var reply enrichmentReply
	if err := ai.Ask(ctx, e.generator, e.request(text), &reply); err != nil {
		return core.Enrichment{}, err
	}
	return core.Enrichment{
		Keywords: core.NormalizeKeywords(reply.Keywords),
		Summary:  strings.TrimSpace(reply.Summary),
	}, nil
}

// EnrichAll enriches every text concurrently and returns results indexed by
// position, so result i belongs to sequence number i+1. It never fails: a
// failed call leaves an empty Enrichment at its index.
func (e *Enricher) EnrichAll(ctx context.Context, texts []string) []core.Enrichment {
	results := make([]core.Enrichment, len(texts))

	var g errgroup.Group
	g.SetLimit(e.fanOut)
	for i, text := range texts {
		g.Go(func() error {
			enrichment, err := e.Enrich(ctx, text)
			if err != nil {
				e.logger.Warn("enrichment failed, storing segment without keywords",
					"sequence", i+1, "err", err)
				return nil
			}
			results[i] = enrichment
			return nil
		})
	}
	_ = g.Wait()

	return results
}
