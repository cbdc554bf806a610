package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/segment"
	"github.com/poiesic/docsift/storage"
)

// State is a step of an upload event's lifecycle.
type State string

const (
	StateReceived    State = "received"
	StateContentRead State = "content-read"
	StateSegmented   State = "segmented"
	StateEnriched    State = "enriched"
	StateStored      State = "stored"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Outcome records how an event finished.
type Outcome struct {
	Event    core.UploadEvent
	State    State
	Segments int  // segments written; zero when skipped or failed
	Skipped  bool // the (document, role) pair was already stored
	Degraded int  // segments stored without keywords or summary
	Err      error
}

// Coordinator processes upload events one at a time per (document, role).
// Distinct keys proceed in parallel.
type Coordinator struct {
	store     storage.SegmentRepository
	reader    DocumentReader
	segmenter *segment.Segmenter
	enricher  *Enricher
	locks     *keyedMutex
	logger    *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithReader replaces the filesystem document reader.
func WithReader(reader DocumentReader) Option {
	return func(c *Coordinator) error {
		if reader == nil {
			return errors.New("document reader is nil")
		}
		c.reader = reader
		return nil
	}
}

// WithSegmenter replaces the default 10/100 segmenter.
func WithSegmenter(s *segment.Segmenter) Option {
	return func(c *Coordinator) error {
		if s == nil {
			return errors.New("segmenter is nil")
		}
		c.segmenter = s
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "coordinator")
		return nil
	}
}

// NewCoordinator creates a coordinator writing to store and enriching with
// enricher.
func NewCoordinator(store storage.SegmentRepository, enricher *Enricher, opts ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if enricher == nil {
		return nil, ErrGeneratorRequired
	}

	segmenter, err := segment.New()
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		store:     store,
		reader:    FileReader{},
		segmenter: segmenter,
		enricher:  enricher,
		locks:     newKeyedMutex(),
		logger:    slog.Default().With("component", "coordinator"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Process runs event to a terminal state. The returned error is nil for done
// events, including skipped duplicates, and matches one of ErrInvalidUploadEvent,
// ErrReadFailed, ErrNoSegments or ErrStoreFailed otherwise. The Outcome is
// always non-nil.
func (c *Coordinator) Process(ctx context.Context, event core.UploadEvent) (*Outcome, error) {
	out := &Outcome{Event: event, State: StateReceived}
	logger := c.logger.With("event", event.FilePath, "document", event.OriginalName, "role", event.Role)
	logger.Info("upload received", "state", out.State)

	if err := core.ValidateUploadEvent(&event); err != nil {
		return c.fail(out, logger, err)
	}

	unlock := c.locks.lock(event.Key())
	defer unlock()

	exists, err := c.store.Exists(ctx, event.OriginalName, event.Role)
	if err != nil {
		return c.fail(out, logger, fmt.Errorf("%w: existence check: %w", ErrStoreFailed, err))
	}
	if exists {
		return c.skip(out, logger, "document already stored")
	}

	text, err := c.reader.Read(ctx, event.FilePath)
	if err != nil {
		if !errors.Is(err, ErrReadFailed) {
			err = fmt.Errorf("%w: %w", ErrReadFailed, err)
		}
		return c.fail(out, logger, err)
	}
	c.advance(out, logger, StateContentRead, "chars", utf8.RuneCountInString(text))

	windows := c.segmenter.Split(text)
	if err := c.checkWindows(windows); err != nil {
		return c.fail(out, logger, err)
	}
	c.advance(out, logger, StateSegmented, "segments", len(windows))

	enrichments := c.enricher.EnrichAll(ctx, windows)
	segments := make([]*core.Segment, len(windows))
	for i, window := range windows {
		if enrichments[i].IsEmpty() {
			out.Degraded++
		}
		segments[i] = &core.Segment{
			DocumentName:   event.OriginalName,
			SequenceNumber: i + 1,
			Content:        window,
			Role:           event.Role,
			Keywords:       enrichments[i].Keywords,
			Summary:        enrichments[i].Summary,
		}
	}
	c.advance(out, logger, StateEnriched, "degraded", out.Degraded)

	if err := c.store.SaveAll(ctx, segments...); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return c.skip(out, logger, "concurrent writer stored document first")
		}
		return c.fail(out, logger, fmt.Errorf("%w: %w", ErrStoreFailed, err))
	}
	out.Segments = len(segments)
	c.advance(out, logger, StateStored, "segments", out.Segments)

	c.advance(out, logger, StateDone)
	return out, nil
}

// Handle adapts Process to a queue handler. Skipped events succeed.
func (c *Coordinator) Handle(ctx context.Context, event core.UploadEvent) error {
	_, err := c.Process(ctx, event)
	return err
}

// checkWindows enforces the segment floor and the minimum window length.
func (c *Coordinator) checkWindows(windows []string) error {
	policy := c.segmenter.Policy()
	if len(windows) == 0 {
		return fmt.Errorf("%w: document is empty", ErrNoSegments)
	}
	if len(windows) < policy.MinSegments {
		return fmt.Errorf("%w: %d segments, need %d", ErrNoSegments, len(windows), policy.MinSegments)
	}
	for i, w := range windows {
		if utf8.RuneCountInString(w) < policy.MinLen {
			return fmt.Errorf("%w: segment %d shorter than %d characters", ErrNoSegments, i+1, policy.MinLen)
		}
	}
	return nil
}

func (c *Coordinator) advance(out *Outcome, logger *slog.Logger, state State, args ...any) {
	out.State = state
	logger.Info("state transition", append([]any{"state", state}, args...)...)
}

func (c *Coordinator) skip(out *Outcome, logger *slog.Logger, reason string) (*Outcome, error) {
	out.Skipped = true
	out.State = StateDone
	logger.Info("state transition", "state", out.State, "skipped", true, "reason", reason)
	return out, nil
}

func (c *Coordinator) fail(out *Outcome, logger *slog.Logger, err error) (*Outcome, error) {
	logger.Error("state transition", "state", StateFailed, "from", out.State, "err", err)
	out.State = StateFailed
	out.Err = err
	return out, err
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
