package search

import (
	"context"
	"log/slog"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/core"
)

// MaxQueryKeywords caps the keywords kept from one query.
const MaxQueryKeywords = 5

const keywordInstruction = "Generate exactly 3 to 5 keywords from the given question only. Do not add anything other than the words in the question."

// KeywordExtractor derives retrieval keywords from a query.
type KeywordExtractor struct {
	generator ai.Generator
	logger    *slog.Logger
}

func NewKeywordExtractor(generator ai.Generator, logger *slog.Logger) (*KeywordExtractor, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KeywordExtractor{
		generator: generator,
		logger:    logger.With("component", "keyword-extractor"),
	}, nil
}

// Extract returns at most MaxQueryKeywords normalized keywords, each made of
// words that occur in query. An empty result is valid.
func (k *KeywordExtractor) Extract(ctx context.Context, query string) ([]string, error) {
	var reply struct {
		Keywords []string `json:"keywords"`
	}
	err := ai.Ask(ctx, k.generator, ai.Request{
		Instruction: keywordInstruction,
		Context:     query,
		Shape:       map[string][]string{"keywords": {"k1", "k2", "k3"}},
	}, &reply)
	if err != nil {
		return nil, err
	}

	keywords := make([]string, 0, MaxQueryKeywords)
	for _, kw := range core.NormalizeKeywords(reply.Keywords) {
		if !wordsOccurIn(kw, query) {
			k.logger.Debug("dropping keyword not found in query", "keyword", kw)
			continue
		}
		keywords = append(keywords, kw)
		if len(keywords) == MaxQueryKeywords {
			break
		}
	}
	return keywords, nil
}
