package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/storage"
)

// Answerer runs the query flow on behalf of a user.
type Answerer struct {
	roles          storage.RoleRepository
	keywords       *KeywordExtractor
	retriever      *Retriever
	synthesizer    *Synthesizer
	privilegedRole string
	minOverlap     int
	budget         int
	withSummaries  bool
	logger         *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithPrivilegedRole names the role that sees every segment. An empty name
// disables the bypass. Default is core.PrivilegedRole.
func WithPrivilegedRole(role string) Option {
	return func(a *Answerer) error {
		a.privilegedRole = role
		return nil
	}
}

// WithMinOverlap sets how many query keywords a segment must share.
func WithMinOverlap(n int) Option {
	return func(a *Answerer) error {
		if n < 1 {
			return fmt.Errorf("min overlap must be positive, got %d", n)
		}
		a.minOverlap = n
		return nil
	}
}

// WithContextBudget sets the maximum context length in characters.
func WithContextBudget(chars int) Option {
	return func(a *Answerer) error {
		if chars < 1 {
			return fmt.Errorf("context budget must be positive, got %d", chars)
		}
		a.budget = chars
		return nil
	}
}

// WithSummaries appends each segment's summary to its content in the context.
func WithSummaries(enabled bool) Option {
	return func(a *Answerer) error {
		a.withSummaries = enabled
		return nil
	}
}

// NewAnswerer creates a new answerer.
func NewAnswerer(
	segments storage.SegmentRepository,
	roles storage.RoleRepository,
	generator ai.Generator,
	opts ...Option,
) (*Answerer, error) {
	if segments == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	if roles == nil {
		return nil, ErrRoleRepositoryRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	a := &Answerer{
		roles:          roles,
		privilegedRole: core.PrivilegedRole,
		minOverlap:     DefaultMinOverlap,
		budget:         DefaultContextBudget,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	base := a.logger
	a.logger = base.With("component", "answerer")

	var err error
	if a.keywords, err = NewKeywordExtractor(generator, base); err != nil {
		return nil, err
	}
	if a.retriever, err = NewRetriever(segments, a.privilegedRole, a.minOverlap); err != nil {
		return nil, err
	}
	if a.synthesizer, err = NewSynthesizer(generator, base); err != nil {
		return nil, err
	}
	return a, nil
}

// Answer answers q from the segments visible to q.User.
func (a *Answerer) Answer(ctx context.Context, q core.Query) (*core.Answer, error) {
	return a.AnswerWithMonitor(ctx, q, &noopMonitor{})
}

// AnswerWithMonitor is Answer with stage callbacks delivered to monitor.
func (a *Answerer) AnswerWithMonitor(ctx context.Context, q core.Query, monitor QueryMonitor) (answer *core.Answer, err error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(q)
	defer func() { monitor.Finish(answer, err) }()

	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}
	logger := a.logger.With("user", q.User)

	requester, err := a.resolve(ctx, q.User)
	if err != nil {
		return nil, err
	}
	monitor.AfterRoleResolution(requester.Roles)

	keywords, kwErr := a.keywords.Extract(ctx, q.Text)
	if kwErr != nil {
		logger.Warn("keyword extraction failed, retrieving by role only", "err", kwErr)
		keywords = nil
	}
	monitor.AfterKeywordExtraction(keywords, kwErr)

	matched, err := a.retriever.Retrieve(ctx, requester.Roles, keywords)
	if err != nil {
		return nil, err
	}
	monitor.AfterRetrieval(matched)

	if len(matched) == 0 {
		logger.Info("no matching segments", "keywords", keywords)
		return &core.Answer{Keywords: keywords, Empty: true}, nil
	}

	supplied, used := BuildContext(matched, a.budget, a.withSummaries)
	monitor.AfterContextBuild(used, supplied)

	text, err := a.synthesizer.Synthesize(ctx, q.Text, supplied)
	if err != nil {
		return nil, err
	}

	logger.Info("query answered", "matched", len(matched), "used", used)
	return &core.Answer{
		Text:         text,
		MatchedCount: len(matched),
		UsedCount:    used,
		Keywords:     keywords,
	}, nil
}

func (a *Answerer) resolve(ctx context.Context, user string) (core.Requester, error) {
	if strings.TrimSpace(user) == "" {
		return core.Requester{}, fmt.Errorf("%w: no user given", ErrUnknownRequester)
	}
	assignment, err := a.roles.GetByUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Requester{}, fmt.Errorf("%w: %s", ErrUnknownRequester, user)
		}
		return core.Requester{}, err
	}
	return core.Requester{User: assignment.User, Roles: assignment.Roles}, nil
}
