// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package docsift wires the segment store, text generator, ingestion
// coordinator and answerer into one System.
package docsift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/docsift/ai"
	_ "github.com/poiesic/docsift/ai/gemini"
	_ "github.com/poiesic/docsift/ai/openai"
	"github.com/poiesic/docsift/config"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/ingestion"
	"github.com/poiesic/docsift/queue"
	"github.com/poiesic/docsift/search"
	"github.com/poiesic/docsift/segment"
	"github.com/poiesic/docsift/storage"
	"github.com/poiesic/docsift/storage/badger"
	"github.com/poiesic/docsift/storage/sqlite"
)

// System owns every long-lived handle of a docsift process.
type System struct {
	config      *config.Config
	segments    storage.SegmentRepository
	roles       storage.RoleRepository
	closeStore  func() error
	generator   ai.Generator
	coordinator *ingestion.Coordinator
	answerer    *search.Answerer
	logger      *slog.Logger
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	config    *config.Config
	generator ai.Generator
	inMemory  bool
	logger    *slog.Logger
}

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *openOptions) {
		o.config = cfg
	}
}

// WithGenerator supplies a generator instead of building one from the AI
// configuration. The System takes ownership and closes it.
func WithGenerator(gen ai.Generator) Option {
	return func(o *openOptions) {
		o.generator = gen
	}
}

// WithInMemoryStore uses an in-memory badger store regardless of the
// configured driver.
func WithInMemoryStore() Option {
	return func(o *openOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *openOptions) {
		o.logger = logger
	}
}

// Open builds a System. Every handle opened before a failure is closed again.
func Open(ctx context.Context, opts ...Option) (sys *System, err error) {
	options := &openOptions{
		config: config.Default(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	cfg := options.config
	if !options.inMemory {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	sys = &System{config: cfg, logger: options.logger}
	defer func() {
		if err != nil {
			sys.Close()
			sys = nil
		}
	}()

	if err = sys.openStore(options.inMemory); err != nil {
		return
	}

	sys.generator = options.generator
	if sys.generator == nil {
		guard, genErr := ai.NewGenerator(ctx, cfg.GeneratorConfig())
		if genErr != nil {
			err = genErr
			return
		}
		sys.generator = guard
	}

	segmenter, err := segment.New(segment.WithPolicy(cfg.SegmentPolicy()))
	if err != nil {
		return
	}
	enricher, err := ingestion.NewEnricher(sys.generator,
		ingestion.WithKeywordCount(cfg.Ingestion.KeywordCount),
		ingestion.WithFanOut(cfg.Ingestion.FanOut),
		ingestion.WithEnricherLogger(sys.logger),
	)
	if err != nil {
		return
	}
	sys.coordinator, err = ingestion.NewCoordinator(sys.segments, enricher,
		ingestion.WithSegmenter(segmenter),
		ingestion.WithLogger(sys.logger),
	)
	if err != nil {
		return
	}
	sys.answerer, err = search.NewAnswerer(sys.segments, sys.roles, sys.generator,
		search.WithLogger(sys.logger),
		search.WithPrivilegedRole(cfg.Query.PrivilegedRole),
		search.WithMinOverlap(cfg.Query.MinOverlap),
		search.WithContextBudget(cfg.Query.ContextBudget),
		search.WithSummaries(cfg.Query.WithSummaries),
	)
	return
}

func (s *System) openStore(inMemory bool) error {
	if inMemory {
		segments, roles, backend, err := badger.NewMemoryRepositories()
		if err != nil {
			return err
		}
		s.segments, s.roles, s.closeStore = segments, roles, backend.Close
		return nil
	}

	switch s.config.Store.Driver {
	case config.StoreSQLite:
		store, err := sqlite.NewStore(s.config.Store.Path)
		if err != nil {
			return err
		}
		s.segments, s.roles, s.closeStore = store.Segments(), store.Roles(), store.Close
	default:
		backend, err := badger.OpenBackend(s.config.Store.Path, false)
		if err != nil {
			return err
		}
		s.closeStore = backend.Close
		if s.segments, err = badger.NewSegmentRepository(backend); err != nil {
			return err
		}
		if s.roles, err = badger.NewRoleRepository(backend); err != nil {
			return err
		}
	}
	s.logger.Info("store opened", "driver", s.config.Store.Driver, "path", s.config.Store.Path)
	return nil
}

// Config returns the configuration the System was opened with.
func (s *System) Config() *config.Config {
	return s.config
}

func (s *System) Segments() storage.SegmentRepository {
	return s.segments
}

func (s *System) Roles() storage.RoleRepository {
	return s.roles
}

func (s *System) Coordinator() *ingestion.Coordinator {
	return s.coordinator
}

func (s *System) Answerer() *search.Answerer {
	return s.answerer
}

// Ingest processes one upload event synchronously.
func (s *System) Ingest(ctx context.Context, event core.UploadEvent) (*ingestion.Outcome, error) {
	return s.coordinator.Process(ctx, event)
}

// Answer answers a query for the requesting user.
func (s *System) Answer(ctx context.Context, q core.Query) (*core.Answer, error) {
	return s.answerer.Answer(ctx, q)
}

// Subscribe registers the coordinator for upload events on sub.
func (s *System) Subscribe(sub queue.Subscriber) error {
	return sub.Subscribe(queue.TopicDocUploaded, s.coordinator.Handle)
}

// NewLocalQueue creates an in-process queue whose workers feed the
// coordinator. The caller closes it before closing the System.
func (s *System) NewLocalQueue(workers int) (*queue.Local, error) {
	q, err := queue.NewLocal(workers, queue.WithLocalLogger(s.logger))
	if err != nil {
		return nil, err
	}
	if err := s.Subscribe(q); err != nil {
		q.Close()
		return nil, err
	}
	return q, nil
}

// Close releases the generator and the store.
func (s *System) Close() error {
	var errs []error
	if s.generator != nil {
		if err := s.generator.Close(); err != nil {
			s.logger.Error("error closing generator", "err", err)
			errs = append(errs, fmt.Errorf("close generator: %w", err))
		}
	}
	if s.segments != nil {
		if err := s.segments.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close segment repository: %w", err))
		}
	}
	if s.roles != nil {
		if err := s.roles.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close role repository: %w", err))
		}
	}
	if s.closeStore != nil {
		if err := s.closeStore(); err != nil {
			s.logger.Error("error closing store", "err", err)
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
