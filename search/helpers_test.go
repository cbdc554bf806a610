package search

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/ai/mock"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/storage"
	"github.com/poiesic/docsift/storage/badger"
	"github.com/stretchr/testify/require"
)

type seedDoc struct {
	name     string
	role     string
	contents []string
	keywords [][]string
}

func setupStores(t *testing.T, docs ...seedDoc) (storage.SegmentRepository, storage.RoleRepository) {
	t.Helper()
	segments, roles, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	ctx := context.Background()
	for _, d := range docs {
		batch := make([]*core.Segment, len(d.contents))
		for i, content := range d.contents {
			batch[i] = &core.Segment{
				DocumentName:   d.name,
				SequenceNumber: i + 1,
				Content:        content,
				Role:           d.role,
				Keywords:       d.keywords[i],
				Summary:        "summary of " + content,
			}
		}
		require.NoError(t, segments.SaveAll(ctx, batch...))
	}
	return segments, roles
}

func assignRoles(t *testing.T, roles storage.RoleRepository, user string, held ...string) {
	t.Helper()
	_, err := roles.Create(context.Background(), &core.RoleAssignment{User: user, Roles: held})
	require.NoError(t, err)
}

// scriptedGenerator answers keyword requests with keywordReply and every
// other request with answerReply.
func scriptedGenerator(keywordReply, answerReply string) *mock.MockGenerator {
	return mock.NewMockGenerator().WithGenerateFunc(func(ctx context.Context, req ai.Request) (string, error) {
		if strings.HasPrefix(req.Instruction, "Generate exactly 3 to 5 keywords") {
			return keywordReply, nil
		}
		return answerReply, nil
	})
}

func contents(segments []*core.Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Content
	}
	return out
}
