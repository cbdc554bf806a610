package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/core"
)

// DefaultContextBudget is the maximum context length in characters.
const DefaultContextBudget = 4000

// BuildContext joins segment contents with newlines, optionally followed by
// their summaries, and stops before the first segment that would overflow
// budget. The first segment is always included, cut to budget runes when it
// is larger. It returns the context and how many segments it holds.
func BuildContext(segments []*core.Segment, budget int, withSummaries bool) (string, int) {
	if budget <= 0 {
		budget = DefaultContextBudget
	}

	var b strings.Builder
	used, size := 0, 0
	for _, s := range segments {
		entry := s.Content
		if withSummaries && s.Summary != "" {
			entry += " (summary: " + s.Summary + ")"
		}
		n := utf8.RuneCountInString(entry)
		if used > 0 {
			n++ // newline separator
		}
		if used == 0 && n > budget {
			b.WriteString(string([]rune(entry)[:budget]))
			return b.String(), 1
		}
		if size+n > budget {
			break
		}
		if used > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(entry)
		size += n
		used++
	}
	return b.String(), used
}

// Synthesizer answers a query from a prepared context.
type Synthesizer struct {
	generator ai.Generator
	logger    *slog.Logger
}

func NewSynthesizer(generator ai.Generator, logger *slog.Logger) (*Synthesizer, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{generator: generator, logger: logger.With("component", "synthesizer")}, nil
}

// Synthesize asks the generator to answer query from the supplied context alone. Any
// failure, including a blank context or a blank answer, is ErrSynthesisFailed.
func (s *Synthesizer) Synthesize(ctx context.Context, query, supplied string) (string, error) {
	if strings.TrimSpace(supplied) == "" {
		return "", fmt.Errorf("%w: empty context", ErrSynthesisFailed)
	}
	var reply struct {
		Answer string `json:"answer"`
	}
	err := ai.Ask(ctx, s.generator, ai.Request{
		Instruction: "Answer the question strictly from the supplied context. Do not use outside knowledge. Question: " + query,
		Context:     supplied,
		Shape:       map[string]string{"answer": "..."},
	}, &reply)
	if err != nil {
		s.logger.Error("synthesis failed", "err", err)
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	answer := strings.TrimSpace(reply.Answer)
	if answer == "" {
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailed, ai.ErrEmptyResponse)
	}
	return answer, nil
}
