package queue

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docsift/core"
)

// Local is an in-process queue backed by an ants worker pool. Publish blocks
// while every worker is busy.
type Local struct {
	pool     *ants.Pool
	mu       sync.RWMutex
	handlers map[string][]Handler
	closed   bool
	inFlight sync.WaitGroup
	handled  atomic.Int64
	failed   atomic.Int64
	logger   *slog.Logger
}

var (
	_ Publisher  = (*Local)(nil)
	_ Subscriber = (*Local)(nil)
)

// LocalOption configures a Local queue.
type LocalOption func(*Local) error

// WithLocalLogger sets a custom logger.
// Default is slog.Default().
func WithLocalLogger(logger *slog.Logger) LocalOption {
	return func(l *Local) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger.With("component", "local-queue")
		return nil
	}
}

// NewLocal creates a queue running handlers on up to workers goroutines.
// Values below 1 default to runtime.NumCPU() / 2, with a minimum of 1.
func NewLocal(workers int, opts ...LocalOption) (*Local, error) {
	if workers < 1 {
		workers = max(1, runtime.NumCPU()/2)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	l := &Local{
		pool:     pool,
		handlers: make(map[string][]Handler),
		logger:   slog.Default().With("component", "local-queue"),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			pool.Release()
			return nil, err
		}
	}
	return l, nil
}

func (l *Local) Subscribe(topic string, handler Handler) error {
	if topic != TopicDocUploaded {
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.handlers[topic] = append(l.handlers[topic], handler)
	return nil
}

// Publish hands event to every subscribed handler. Handlers run detached from
// ctx cancellation; failures are logged and counted.
func (l *Local) Publish(ctx context.Context, event core.UploadEvent) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	handlers := l.handlers[TopicDocUploaded]
	if len(handlers) == 0 {
		return ErrNoSubscribers
	}

	runCtx := context.WithoutCancel(ctx)
	for _, h := range handlers {
		l.inFlight.Add(1)
		err := l.pool.Submit(func() {
			defer l.inFlight.Done()
			if err := h(runCtx, event); err != nil {
				l.failed.Add(1)
				l.logger.Error("event handler failed",
					"document", event.OriginalName, "role", event.Role, "err", err)
				return
			}
			l.handled.Add(1)
		})
		if err != nil {
			l.inFlight.Done()
			return fmt.Errorf("submit event: %w", err)
		}
	}
	return nil
}

// Wait blocks until every published event has been handled.
func (l *Local) Wait() {
	l.inFlight.Wait()
}

// Stats returns the number of handler runs that succeeded and failed.
func (l *Local) Stats() (handled, failed int64) {
	return l.handled.Load(), l.failed.Load()
}

// Close waits for in-flight work and releases the pool.
func (l *Local) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.inFlight.Wait()
	l.pool.Release()
	return nil
}
