package ai

import "errors"

var (
	// ErrMalformedResponse indicates no well-formed JSON payload could be
	// recovered from a model reply.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrEmptyResponse indicates the model returned no content.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrUnavailable indicates the circuit breaker is open or the call
	// budget was exhausted.
	ErrUnavailable = errors.New("text generation unavailable")

	// ErrUnknownProvider indicates no generator is registered under the
	// configured provider name.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidConfig indicates an incomplete or inconsistent Config.
	ErrInvalidConfig = errors.New("invalid ai config")
)
