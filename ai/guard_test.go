package ai

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator is a minimal Generator for tests inside package ai.
type stubGenerator struct {
	fn     func(ctx context.Context, req Request) (string, error)
	calls  atomic.Int32
	closed atomic.Bool
}

func (s *stubGenerator) Generate(ctx context.Context, req Request) (string, error) {
	s.calls.Add(1)
	return s.fn(ctx, req)
}

func (s *stubGenerator) Close() error {
	s.closed.Store(true)
	return nil
}

func TestGuard_PassesThrough(t *testing.T) {
	stub := &stubGenerator{fn: func(ctx context.Context, req Request) (string, error) {
		return "reply to " + req.Instruction, nil
	}}
	g := NewGuard(stub, DefaultConfig())

	got, err := g.Generate(context.Background(), Request{Instruction: "q"})
	require.NoError(t, err)
	assert.Equal(t, "reply to q", got)
	assert.Equal(t, "closed", g.State())

	require.NoError(t, g.Close())
	assert.True(t, stub.closed.Load())
}

func TestGuard_Timeout(t *testing.T) {
	stub := &stubGenerator{fn: func(ctx context.Context, req Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	g := NewGuard(stub, NewConfig(WithCallTimeout(20*time.Millisecond), WithBreakerFailures(0)))

	start := time.Now()
	_, err := g.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGuard_BreakerOpens(t *testing.T) {
	boom := errors.New("boom")
	stub := &stubGenerator{fn: func(ctx context.Context, req Request) (string, error) {
		return "", boom
	}}
	g := NewGuard(stub, NewConfig(WithBreakerFailures(2)))

	for i := 0; i < 2; i++ {
		_, err := g.Generate(context.Background(), Request{})
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, "open", g.State())

	_, err := g.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrUnavailable)
	// the open breaker short-circuits without reaching the model
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestGuard_RateLimitHonoursContext(t *testing.T) {
	stub := &stubGenerator{fn: func(ctx context.Context, req Request) (string, error) {
		return "{}", nil
	}}
	// one request per minute with a burst of one
	g := NewGuard(stub, NewConfig(WithRequestsPerMinute(1)))

	_, err := g.Generate(context.Background(), Request{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Generate(ctx, Request{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), stub.calls.Load())
}
