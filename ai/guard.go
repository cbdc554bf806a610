package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Guard wraps a Generator with a per-call timeout, an optional rate limiter
// and an optional circuit breaker. An open breaker fails fast with
// ErrUnavailable; no fallback text is ever substituted.
type Guard struct {
	next    Generator
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ Generator = (*Guard)(nil)

// NewGuard wraps next according to cfg. cfg must already be validated.
func NewGuard(next Generator, cfg *Config) *Guard {
	g := &Guard{
		next:    next,
		timeout: cfg.CallTimeout,
		logger:  slog.Default().With("component", "ai-guard", "provider", cfg.Provider),
	}

	if cfg.RequestsPerMinute > 0 {
		burst := max(1, cfg.RequestsPerMinute/10)
		g.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), burst)
	}

	if cfg.BreakerFailures > 0 {
		threshold := uint32(cfg.BreakerFailures)
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Provider,
			MaxRequests: 1,
			Interval:    0,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				g.logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
			},
		})
	}

	return g
}

// Generate applies the rate limit, then runs the call through the breaker
// under the call timeout.
func (g *Guard) Generate(ctx context.Context, req Request) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limit wait: %w", ErrUnavailable, err)
		}
	}

	call := func() (string, error) {
		cctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.next.Generate(cctx, req)
	}

	if g.breaker == nil {
		return call()
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return "", err
	}
	return result.(string), nil
}

// State reports the breaker state, or "closed" when no breaker is configured.
func (g *Guard) State() string {
	if g.breaker == nil {
		return gobreaker.StateClosed.String()
	}
	return g.breaker.State().String()
}

// Close closes the wrapped generator.
func (g *Guard) Close() error {
	return g.next.Close()
}
