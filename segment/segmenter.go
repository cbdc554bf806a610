package segment

import (
	"fmt"
	"strings"
)

const (
	DefaultMinLen      = 10
	DefaultMaxLen      = 100
	DefaultMinSegments = 4
)

// Policy bounds segment lengths and the number of segments per document.
type Policy struct {
	MinLen      int
	MaxLen      int
	MinSegments int
}

// DefaultPolicy returns the 10/100/4 policy.
func DefaultPolicy() Policy {
	return Policy{
		MinLen:      DefaultMinLen,
		MaxLen:      DefaultMaxLen,
		MinSegments: DefaultMinSegments,
	}
}

// Validate checks the policy is usable. MaxLen must leave room for two
// minimum-length pieces so a short tail can always be re-cut.
func (p Policy) Validate() error {
	if p.MinLen < 1 {
		return fmt.Errorf("%w: min length must be positive, got %d", ErrInvalidPolicy, p.MinLen)
	}
	if p.MaxLen < 2*p.MinLen {
		return fmt.Errorf("%w: max length %d must be at least twice min length %d", ErrInvalidPolicy, p.MaxLen, p.MinLen)
	}
	if p.MinSegments < 1 {
		return fmt.Errorf("%w: min segments must be positive, got %d", ErrInvalidPolicy, p.MinSegments)
	}
	return nil
}

// Segmenter applies a Policy. It is stateless and safe for concurrent use.
type Segmenter struct {
	policy Policy
}

// Option configures a Segmenter.
type Option func(*Segmenter) error

// WithPolicy replaces the whole policy.
func WithPolicy(policy Policy) Option {
	return func(s *Segmenter) error {
		s.policy = policy
		return nil
	}
}

// WithBounds sets the minimum and maximum segment length in runes.
func WithBounds(minLen, maxLen int) Option {
	return func(s *Segmenter) error {
		s.policy.MinLen = minLen
		s.policy.MaxLen = maxLen
		return nil
	}
}

// WithMinSegments sets the segment count below which the equal-width
// fallback kicks in.
func WithMinSegments(n int) Option {
	return func(s *Segmenter) error {
		s.policy.MinSegments = n
		return nil
	}
}

// New creates a Segmenter with the default policy adjusted by opts.
func New(opts ...Option) (*Segmenter, error) {
	s := &Segmenter{policy: DefaultPolicy()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Segmenter) Policy() Policy {
	return s.policy
}

// Split segments text according to the policy.
func (s *Segmenter) Split(text string) []string {
	return split(text, s.policy)
}

// Split segments text with the given bounds and the default minimum segment
// count.
func Split(text string, minLen, maxLen int) []string {
	return split(text, Policy{MinLen: minLen, MaxLen: maxLen, MinSegments: DefaultMinSegments})
}

// Normalize collapses every whitespace run to a single space and trims the
// ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func split(text string, p Policy) []string {
	runes := []rune(Normalize(text))
	if len(runes) == 0 {
		return nil
	}

	windows := greedy(runes, p.MinLen, p.MaxLen)
	// the equal-width re-split cannot produce more than fallbackWindows, so a
	// larger floor keeps the in-bounds greedy windows
	if len(windows) >= p.MinSegments || p.MinSegments > fallbackWindows {
		return windows
	}
	return equalWidth(runes, p.MinLen, fallbackWindows)
}

// fallbackWindows is the number of windows the equal-width re-split produces.
const fallbackWindows = 4

// greedy cuts at the last space that keeps the window within maxLen, or
// hard-cuts at maxLen when no space lies in [minLen, maxLen].
func greedy(runes []rune, minLen, maxLen int) []string {
	var out []string
	rest := runes
	for len(rest) > maxLen {
		cut := lastSpace(rest, maxLen)
		if cut >= minLen {
			out = append(out, string(rest[:cut]))
			rest = rest[cut+1:]
		} else {
			out = append(out, string(rest[:maxLen]))
			rest = trimLeftSpace(rest[maxLen:])
		}
	}

	switch {
	case len(rest) == 0:
	case len(rest) >= minLen || len(out) == 0:
		out = append(out, string(rest))
	default:
		out = mergeTail(out, rest, minLen, maxLen)
	}
	return out
}

// mergeTail folds a too-short tail into the previous window. When the merged
// text no longer fits, it is re-cut so both halves are within bounds.
func mergeTail(out []string, tail []rune, minLen, maxLen int) []string {
	last := len(out) - 1
	merged := append([]rune(out[last]+" "), tail...)
	if len(merged) <= maxLen {
		out[last] = string(merged)
		return out
	}

	cut := -1
	for i := min(maxLen, len(merged)-1-minLen); i >= minLen; i-- {
		if merged[i] == ' ' {
			cut = i
			break
		}
	}
	if cut >= 0 {
		out[last] = string(merged[:cut])
		return append(out, string(merged[cut+1:]))
	}
	// merged is at most maxLen+minLen long, so the head stays within maxLen
	// and, with maxLen >= 2*minLen, above minLen
	cut = len(merged) - minLen
	out[last] = string(merged[:cut])
	return append(out, string(merged[cut:]))
}

// equalWidth ignores word boundaries and cuts n windows of
// max(minLen, len/n) runes. The last window absorbs the remainder; windows
// past the end of the text are dropped.
func equalWidth(runes []rune, minLen, n int) []string {
	width := max(minLen, len(runes)/n)
	var out []string
	for i := 0; i < n; i++ {
		start := i * width
		if start >= len(runes) {
			break
		}
		end := start + width
		if i == n-1 || end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// lastSpace returns the index of the last space at or before limit, or -1.
func lastSpace(runes []rune, limit int) int {
	for i := min(limit, len(runes)-1); i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

func trimLeftSpace(runes []rune) []rune {
	for len(runes) > 0 && runes[0] == ' ' {
		runes = runes[1:]
	}
	return runes
}
