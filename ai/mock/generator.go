// Package mock provides a test double for ai.Generator.
//
// The mock lets tests run without a model server and gives them control
// over replies:
//
//	gen := mock.NewMockGenerator().
//	    WithGenerateFunc(func(ctx context.Context, req ai.Request) (string, error) {
//	        return `{"keywords":["budget"]}`, nil
//	    })
//
// By default every call returns `{}`.
package mock

import (
	"context"
	"sync"

	"github.com/poiesic/docsift/ai"
)

// DefaultReply is returned when no GenerateFunc is set.
const DefaultReply = "{}"

// MockGenerator is a thread-safe ai.Generator for tests.
type MockGenerator struct {
	mu           sync.Mutex
	generateFunc func(ctx context.Context, req ai.Request) (string, error)
	requests     []ai.Request
	closed       bool
}

var _ ai.Generator = (*MockGenerator)(nil)

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// WithGenerateFunc sets custom behavior for Generate.
func (m *MockGenerator) WithGenerateFunc(fn func(ctx context.Context, req ai.Request) (string, error)) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateFunc = fn
	return m
}

func (m *MockGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.generateFunc
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fn != nil {
		return fn(ctx, req)
	}
	return DefaultReply, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received.
func (m *MockGenerator) Requests() []ai.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Reset clears recorded requests and the custom function.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.generateFunc = nil
	m.closed = false
}

func (m *MockGenerator) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockGenerator) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
