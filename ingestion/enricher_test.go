package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnricher_RequiresGenerator(t *testing.T) {
	_, err := NewEnricher(nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)

	_, err = NewEnricher(mock.NewMockGenerator(), WithKeywordCount(0))
	assert.Error(t, err)
}

func TestEnricher_Enrich(t *testing.T) {
	gen := mock.NewMockGenerator().WithGenerateFunc(func(ctx context.Context, req ai.Request) (string, error) {
		return "Sure! Here it is:\n" + `{"keywords": ["Budget", " 2024", "budget"], "summary": " Approved. ",}`, nil
	})
	e, err := NewEnricher(gen)
	require.NoError(t, err)

	got, err := e.Enrich(context.Background(), "The 2024 budget was approved.")
	require.NoError(t, err)
	assert.Equal(t, []string{"budget", "2024"}, got.Keywords)
	assert.Equal(t, "Approved.", got.Summary)

	req := gen.Requests()[0]
	assert.Equal(t, "Generate exactly 5 keywords and a one-sentence summary for the given text", req.Instruction)
	assert.Equal(t, "The 2024 budget was approved.", req.Context)
}

func TestEnricher_EnrichMalformed(t *testing.T) {
	gen := mock.NewMockGenerator().WithGenerateFunc(func(ctx context.Context, req ai.Request) (string, error) {
		return "I cannot help with that.", nil
	})
	e, err := NewEnricher(gen)
	require.NoError(t, err)

	_, err = e.Enrich(context.Background(), "text")
	assert.ErrorIs(t, err, ai.ErrMalformedResponse)
}

func TestEnricher_EnrichAllDegradesFailures(t *testing.T) {
	gen := mock.NewMockGenerator().WithGenerateFunc(func(ctx context.Context, req ai.Request) (string, error) {
		if req.Context == "second" {
			return "", errors.New("model unavailable")
		}
		return fmt.Sprintf(`{"keywords": [%q], "summary": "about %s"}`, req.Context, req.Context), nil
	})
	e, err := NewEnricher(gen)
	require.NoError(t, err)

	results := e.EnrichAll(context.Background(), []string{"first", "second", "third"})
	require.Len(t, results, 3)
	assert.Equal(t, []string{"first"}, results[0].Keywords)
	assert.True(t, results[1].IsEmpty())
	assert.Equal(t, "about third", results[2].Summary)
}

func TestEnricher_EnrichAllRespectsFanOut(t *testing.T) {
	var inFlight, peak atomic.Int32
	gen := mock.NewMockGenerator().WithGenerateFunc(func(ctx context.Context, req ai.Request) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return `{"keywords": ["k"], "summary": "s"}`, nil
	})
	e, err := NewEnricher(gen, WithFanOut(2))
	require.NoError(t, err)

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	results := e.EnrichAll(context.Background(), texts)
	assert.Len(t, results, 10)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 10, gen.CallCount())
}

func TestEnricher_Timeout(t *testing.T) {
	gen := mock.NewMockGenerator().WithGenerateFunc(func(ctx context.Context, req ai.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	e, err := NewEnricher(gen, WithEnrichTimeout(10*time.Millisecond))
	require.NoError(t, err)

	results := e.EnrichAll(context.Background(), []string{"slow"})
	assert.True(t, results[0].IsEmpty())
}
