package search

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/poiesic/docsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetriever_RequiresStore(t *testing.T) {
	_, err := NewRetriever(nil, core.PrivilegedRole, 1)
	assert.ErrorIs(t, err, ErrSegmentRepositoryRequired)
}

func TestRetriever_KeywordOverlap(t *testing.T) {
	store, _ := setupStores(t,
		seedDoc{name: "plan.txt", role: "finance",
			contents: []string{"The 2024 budget is approved."},
			keywords: [][]string{{"budget", "2024"}}},
		seedDoc{name: "notes.txt", role: "finance",
			contents: []string{"Rain expected all week."},
			keywords: [][]string{{"weather"}}},
	)
	r, err := NewRetriever(store, core.PrivilegedRole, 1)
	require.NoError(t, err)

	got, err := r.Retrieve(context.Background(), []string{"finance"}, []string{"budget", "forecast"})
	require.NoError(t, err)
	assert.Equal(t, []string{"The 2024 budget is approved."}, contents(got))
}

func TestRetriever_RoleIsolation(t *testing.T) {
	store, _ := setupStores(t,
		seedDoc{name: "salaries.txt", role: "manager",
			contents: []string{"Salary bands for 2024."},
			keywords: [][]string{{"salary", "2024"}}},
	)
	r, err := NewRetriever(store, core.PrivilegedRole, 1)
	require.NoError(t, err)

	got, err := r.Retrieve(context.Background(), []string{"intern"}, []string{"salary"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = r.Retrieve(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetriever_PrivilegedRoleSeesAll(t *testing.T) {
	store, _ := setupStores(t,
		seedDoc{name: "a.txt", role: "finance", contents: []string{"a1", "a2"}, keywords: [][]string{{"x"}, {"y"}}},
		seedDoc{name: "b.txt", role: "hr", contents: []string{"b1"}, keywords: [][]string{{"x"}}},
	)
	r, err := NewRetriever(store, core.PrivilegedRole, 1)
	require.NoError(t, err)

	got, err := r.Retrieve(context.Background(), []string{"manager"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1"}, contents(got))

	got, err = r.Retrieve(context.Background(), []string{"manager"}, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b1"}, contents(got))

	// with the bypass disabled, manager is an ordinary role
	r, err = NewRetriever(store, "", 1)
	require.NoError(t, err)
	got, err = r.Retrieve(context.Background(), []string{"manager"}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetriever_OrderAndMinOverlap(t *testing.T) {
	store, _ := setupStores(t,
		seedDoc{name: "b.txt", role: "ops", contents: []string{"b1", "b2"},
			keywords: [][]string{{"deploy", "rollback"}, {"deploy"}}},
		seedDoc{name: "a.txt", role: "ops", contents: []string{"a1", "a2", "a3"},
			keywords: [][]string{{"deploy"}, {"rollback", "deploy"}, {}}},
	)

	r, err := NewRetriever(store, core.PrivilegedRole, 1)
	require.NoError(t, err)
	got, err := r.Retrieve(context.Background(), []string{"ops"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "a3", "b1", "b2"}, contents(got))

	r, err = NewRetriever(store, core.PrivilegedRole, 2)
	require.NoError(t, err)
	got, err = r.Retrieve(context.Background(), []string{"ops"}, []string{"deploy", "rollback"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "b1"}, contents(got))
}

func TestRetriever_NeverLeaksOtherRoles(t *testing.T) {
	roles := []string{"finance", "hr", "ops", "legal", "sales"}
	var docs []seedDoc
	for i, role := range roles {
		docs = append(docs, seedDoc{
			name:     fmt.Sprintf("doc-%d.txt", i),
			role:     role,
			contents: []string{role + " one", role + " two"},
			keywords: [][]string{{"shared"}, {"shared", role}},
		})
	}
	store, _ := setupStores(t, docs...)
	r, err := NewRetriever(store, core.PrivilegedRole, 1)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 50; i++ {
		held := []string{roles[rng.IntN(len(roles))], roles[rng.IntN(len(roles))]}
		got, err := r.Retrieve(context.Background(), held, []string{"shared"})
		require.NoError(t, err)
		for _, s := range got {
			assert.True(t, slices.Contains(held, s.Role), "role %s leaked to %v", s.Role, held)
		}
	}
}
