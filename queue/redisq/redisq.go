// Package redisq carries upload events through Redis using asynq.
//
// Publisher enqueues one task per event; Worker runs a queue.Handler for
// each task. Tasks are never retried because ingestion failures are
// terminal, and redelivered events are made harmless by the coordinator's
// idempotency check.
package redisq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/queue"
)

// TaskDocumentUploaded is the asynq task type for upload events.
const TaskDocumentUploaded = "document:uploaded"

// DefaultTaskTimeout bounds the processing of one event.
const DefaultTaskTimeout = 10 * time.Minute

// NewTask encodes event as an asynq task.
func NewTask(event core.UploadEvent, timeout time.Duration) (*asynq.Task, error) {
	if err := core.ValidateUploadEvent(&event); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	return asynq.NewTask(
		TaskDocumentUploaded,
		payload,
		asynq.MaxRetry(0),
		asynq.Timeout(timeout),
	), nil
}

// Publisher enqueues upload events.
type Publisher struct {
	client  *asynq.Client
	timeout time.Duration
}

var _ queue.Publisher = (*Publisher)(nil)

func NewPublisher(opt asynq.RedisConnOpt, timeout time.Duration) *Publisher {
	return &Publisher{client: asynq.NewClient(opt), timeout: timeout}
}

func (p *Publisher) Publish(ctx context.Context, event core.UploadEvent) error {
	task, err := NewTask(event, p.timeout)
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", event.OriginalName, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

// Worker consumes upload events from Redis.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

var _ queue.Subscriber = (*Worker)(nil)

// NewWorker creates a worker processing up to concurrency events at once.
func NewWorker(opt asynq.RedisConnOpt, concurrency int, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "redis-worker")

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Logger:      &asynqLoggerAdapter{logger: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("task failed", "type", task.Type(), "err", err)
		}),
	})
	return &Worker{server: server, mux: asynq.NewServeMux(), logger: logger}
}

func (w *Worker) Subscribe(topic string, handler queue.Handler) error {
	if topic != queue.TopicDocUploaded {
		return fmt.Errorf("%w: %s", queue.ErrUnknownTopic, topic)
	}
	w.mux.HandleFunc(TaskDocumentUploaded, taskHandler(handler))
	return nil
}

// Run processes tasks until the process receives SIGTERM or SIGINT.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Close stops the worker, waiting for in-flight tasks.
func (w *Worker) Close() error {
	w.server.Shutdown()
	return nil
}

// taskHandler decodes the task payload and runs handler. Undecodable or
// invalid payloads are skipped rather than retried.
func taskHandler(handler queue.Handler) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var event core.UploadEvent
		if err := json.Unmarshal(task.Payload(), &event); err != nil {
			return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
		}
		if err := core.ValidateUploadEvent(&event); err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return handler(ctx, event)
	}
}

// asynqLoggerAdapter adapts slog to asynq.Logger.
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...any) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...any) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...any) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...any) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...any) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}
