package search

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/ai/mock"
	"github.com/poiesic/docsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMonitor captures the stages an answer passed through.
type recordingMonitor struct {
	stages   []string
	keywords []string
	matched  int
	used     int
	err      error
}

func (m *recordingMonitor) Start(_ core.Query) { m.stages = append(m.stages, "start") }
func (m *recordingMonitor) AfterRoleResolution(_ []string) {
	m.stages = append(m.stages, "roles")
}
func (m *recordingMonitor) AfterKeywordExtraction(keywords []string, _ error) {
	m.stages = append(m.stages, "keywords")
	m.keywords = keywords
}
func (m *recordingMonitor) AfterRetrieval(segments []*core.Segment) {
	m.stages = append(m.stages, "retrieval")
	m.matched = len(segments)
}
func (m *recordingMonitor) AfterContextBuild(used int, _ string) {
	m.stages = append(m.stages, "context")
	m.used = used
}
func (m *recordingMonitor) Finish(_ *core.Answer, err error) {
	m.stages = append(m.stages, "finish")
	m.err = err
}

func financeStore(t *testing.T) (*Answerer, *mock.MockGenerator) {
	t.Helper()
	segments, roles := setupStores(t,
		seedDoc{name: "plan.txt", role: "finance",
			contents: []string{"The 2024 budget is approved."},
			keywords: [][]string{{"budget", "2024"}}},
		seedDoc{name: "notes.txt", role: "finance",
			contents: []string{"Rain expected all week."},
			keywords: [][]string{{"weather"}}},
		seedDoc{name: "salaries.txt", role: "manager",
			contents: []string{"Salary bands for 2024."},
			keywords: [][]string{{"salary", "budget"}}},
	)
	assignRoles(t, roles, "fiona", "finance")
	assignRoles(t, roles, "ian", "intern")
	assignRoles(t, roles, "maria", "manager")

	gen := scriptedGenerator(`{"keywords": ["budget", "forecast"]}`, `{"answer": "The budget is approved."}`)
	a, err := NewAnswerer(segments, roles, gen)
	require.NoError(t, err)
	return a, gen
}

func TestNewAnswerer_Validation(t *testing.T) {
	segments, roles := setupStores(t)
	gen := mock.NewMockGenerator()

	_, err := NewAnswerer(nil, roles, gen)
	assert.ErrorIs(t, err, ErrSegmentRepositoryRequired)
	_, err = NewAnswerer(segments, nil, gen)
	assert.ErrorIs(t, err, ErrRoleRepositoryRequired)
	_, err = NewAnswerer(segments, roles, nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)
	_, err = NewAnswerer(segments, roles, gen, WithContextBudget(0))
	assert.Error(t, err)
	_, err = NewAnswerer(segments, roles, gen, WithMinOverlap(0))
	assert.Error(t, err)
}

func TestAnswerer_Answer(t *testing.T) {
	a, gen := financeStore(t)
	monitor := &recordingMonitor{}

	answer, err := a.AnswerWithMonitor(context.Background(),
		core.Query{Text: "What is the budget forecast?", User: "fiona"}, monitor)
	require.NoError(t, err)
	assert.False(t, answer.Empty)
	assert.Equal(t, "The budget is approved.", answer.Text)
	assert.Equal(t, 1, answer.MatchedCount)
	assert.Equal(t, 1, answer.UsedCount)
	assert.Equal(t, []string{"budget", "forecast"}, answer.Keywords)

	assert.Equal(t, []string{"start", "roles", "keywords", "retrieval", "context", "finish"}, monitor.stages)
	assert.NoError(t, monitor.err)

	synthesis := gen.Requests()[1]
	assert.Equal(t, "The 2024 budget is approved.", synthesis.Context)
}

func TestAnswerer_ManagerSeesEverything(t *testing.T) {
	a, _ := financeStore(t)
	answer, err := a.Answer(context.Background(), core.Query{Text: "What is the budget forecast?", User: "maria"})
	require.NoError(t, err)
	assert.Equal(t, 2, answer.MatchedCount)
}

func TestAnswerer_EmptyResultIsNotAnError(t *testing.T) {
	a, gen := financeStore(t)

	answer, err := a.Answer(context.Background(), core.Query{Text: "What is the budget forecast?", User: "ian"})
	require.NoError(t, err)
	assert.True(t, answer.Empty)
	assert.Zero(t, answer.MatchedCount)
	assert.Empty(t, answer.Text)
	// only the keyword call was made; synthesis never ran
	assert.Equal(t, 1, gen.CallCount())
}

func TestAnswerer_UnknownRequester(t *testing.T) {
	a, _ := financeStore(t)

	_, err := a.Answer(context.Background(), core.Query{Text: "budget?", User: "mallory"})
	assert.ErrorIs(t, err, ErrUnknownRequester)

	_, err = a.Answer(context.Background(), core.Query{Text: "budget?"})
	assert.ErrorIs(t, err, ErrUnknownRequester)

	_, err = a.Answer(context.Background(), core.Query{Text: "  ", User: "fiona"})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestAnswerer_KeywordFailureFallsBackToRoleFilter(t *testing.T) {
	segments, roles := setupStores(t,
		seedDoc{name: "plan.txt", role: "finance",
			contents: []string{"The 2024 budget is approved.", "Travel is frozen."},
			keywords: [][]string{{"budget"}, {"travel"}}},
	)
	assignRoles(t, roles, "fiona", "finance")
	gen := mock.NewMockGenerator().WithGenerateFunc(func(ctx context.Context, req ai.Request) (string, error) {
		if strings.HasPrefix(req.Instruction, "Generate exactly 3 to 5 keywords") {
			return "", errors.New("keyword model down")
		}
		return `{"answer": "Budget approved, travel frozen."}`, nil
	})
	a, err := NewAnswerer(segments, roles, gen)
	require.NoError(t, err)

	answer, err := a.Answer(context.Background(), core.Query{Text: "Any news?", User: "fiona"})
	require.NoError(t, err)
	assert.Equal(t, 2, answer.MatchedCount)
	assert.Empty(t, answer.Keywords)
}

func TestAnswerer_SynthesisFailure(t *testing.T) {
	segments, roles := setupStores(t,
		seedDoc{name: "plan.txt", role: "finance",
			contents: []string{"The 2024 budget is approved."},
			keywords: [][]string{{"budget"}}},
	)
	assignRoles(t, roles, "fiona", "finance")
	gen := scriptedGenerator(`{"keywords": ["budget"]}`, "sorry, no JSON today")
	a, err := NewAnswerer(segments, roles, gen)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	answer, err := a.AnswerWithMonitor(context.Background(), core.Query{Text: "budget?", User: "fiona"}, monitor)
	assert.ErrorIs(t, err, ErrSynthesisFailed)
	assert.Nil(t, answer)
	assert.ErrorIs(t, monitor.err, ErrSynthesisFailed)
}

func TestAnswerer_ContextBudget(t *testing.T) {
	segments, roles := setupStores(t,
		seedDoc{name: "plan.txt", role: "finance",
			contents: []string{"first budget line", "second budget line"},
			keywords: [][]string{{"budget"}, {"budget"}}},
	)
	assignRoles(t, roles, "fiona", "finance")
	gen := scriptedGenerator(`{"keywords": ["budget"]}`, `{"answer": "ok"}`)
	a, err := NewAnswerer(segments, roles, gen, WithContextBudget(20), WithSummaries(false))
	require.NoError(t, err)

	answer, err := a.Answer(context.Background(), core.Query{Text: "budget?", User: "fiona"})
	require.NoError(t, err)
	assert.Equal(t, 2, answer.MatchedCount)
	assert.Equal(t, 1, answer.UsedCount)
}

func TestAnswerer_BudgetSmallerThanOneSegment(t *testing.T) {
	segments, roles := setupStores(t,
		seedDoc{name: "plan.txt", role: "finance",
			contents: []string{"first budget line", "second budget line"},
			keywords: [][]string{{"budget"}, {"budget"}}},
	)
	assignRoles(t, roles, "fiona", "finance")
	gen := scriptedGenerator(`{"keywords": ["budget"]}`, `{"answer": "ok"}`)
	a, err := NewAnswerer(segments, roles, gen, WithContextBudget(10), WithSummaries(false))
	require.NoError(t, err)

	answer, err := a.Answer(context.Background(), core.Query{Text: "budget?", User: "fiona"})
	require.NoError(t, err)
	assert.Equal(t, 2, answer.MatchedCount)
	assert.Equal(t, 1, answer.UsedCount)

	requests := gen.Requests()
	synthesis := requests[len(requests)-1]
	assert.Equal(t, "first budg", synthesis.Context)
}

func TestAnswerer_ComponentLoggersAreNotNested(t *testing.T) {
	segments, roles := setupStores(t,
		seedDoc{name: "plan.txt", role: "finance",
			contents: []string{"The 2024 budget is approved."},
			keywords: [][]string{{"budget"}}},
	)
	assignRoles(t, roles, "fiona", "finance")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	gen := scriptedGenerator(`{"keywords": ["budget"]}`, "no JSON here")
	a, err := NewAnswerer(segments, roles, gen, WithLogger(logger))
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), core.Query{Text: "budget?", User: "fiona"})
	require.ErrorIs(t, err, ErrSynthesisFailed)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	sawSynthesizer := false
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"component"`), line)
		if strings.Contains(line, `"component":"synthesizer"`) {
			sawSynthesizer = true
		}
	}
	assert.True(t, sawSynthesizer)
}
