// Package bulk publishes every document in a directory as an upload event.
package bulk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/queue"
)

// Summary reports the result of one Loader.Run.
type Summary struct {
	Files     int
	Published int
	Failed    int
}

// Loader walks a directory and publishes one upload event per file.
type Loader struct {
	publisher  queue.Publisher
	batchSize  int
	recursive  bool
	extensions []string
	retry      RetryPolicy
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

func WithBatchSize(n int) Option {
	return func(l *Loader) error {
		l.batchSize = n
		return nil
	}
}

// WithRecursive descends into subdirectories. Hidden directories are skipped.
func WithRecursive(recursive bool) Option {
	return func(l *Loader) error {
		l.recursive = recursive
		return nil
	}
}

// WithExtensions restricts the file types picked up. An empty list accepts all.
func WithExtensions(exts ...string) Option {
	return func(l *Loader) error {
		l.extensions = make([]string, len(exts))
		for i, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			l.extensions[i] = strings.ToLower(ext)
		}
		return nil
	}
}

// WithRetryPolicy sets the transport retry policy for publishing.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(l *Loader) error {
		if policy.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		l.retry = policy
		return nil
	}
}

// WithProgress writes a progress line to w.
func WithProgress(w io.Writer) Option {
	return func(l *Loader) error {
		l.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

func NewLoader(publisher queue.Publisher, opts ...Option) (*Loader, error) {
	if publisher == nil {
		return nil, ErrPublisherRequired
	}
	l := &Loader{
		publisher:  publisher,
		batchSize:  DefaultBatchSize,
		extensions: DefaultExtensions,
		retry:      DefaultRetryPolicy(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.logger = l.logger.With("component", "bulk-loader")
	return l, nil
}

// Run publishes every file under dir tagged with role. A file that cannot be
// published after retries is counted as failed and the run continues. The
// document name is the path relative to dir.
func (l *Loader) Run(ctx context.Context, dir, role string) (*Summary, error) {
	if strings.TrimSpace(role) == "" {
		return nil, ErrRoleRequired
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	it := NewFileIterator(root, l.batchSize, l.recursive, l.extensions)
	files, err := it.Files()
	if err != nil {
		return nil, err
	}

	summary := &Summary{Files: len(files)}
	tracker := NewProgressTracker(l.progress, len(files), l.batchSize)
	tracker.Start()
	defer func() {
		tracker.Finish()
		summary.Published, summary.Failed = tracker.Counts()
	}()

	l.logger.Info("bulk upload starting", "dir", root, "role", role, "files", len(files))
	err = it.ForEach(ctx, func(batch []string) error {
		for _, path := range batch {
			event, err := eventFor(root, path, role)
			if err != nil {
				return err
			}
			err = RetryWithBackoff(ctx, l.retry, func(ctx context.Context) error {
				return l.publisher.Publish(ctx, event)
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logger.Error("failed to publish upload", "file", path, "err", err)
				tracker.Failed()
				continue
			}
			tracker.Published()
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("bulk upload of %s: %w", root, err)
	}
	return summary, nil
}

func eventFor(root, path, role string) (core.UploadEvent, error) {
	name, err := filepath.Rel(root, path)
	if err != nil {
		return core.UploadEvent{}, err
	}
	return core.UploadEvent{
		FilePath:     path,
		OriginalName: filepath.ToSlash(name),
		Role:         role,
	}, nil
}
