package ai

import "context"

// Request is one call to a text-generation capability.
type Request struct {
	// Instruction is the task or question, e.g. "Generate exactly 5 keywords".
	Instruction string

	// Context is the text the instruction applies to. May be empty.
	Context string

	// Shape is an example of the expected JSON response. It is rendered into
	// the prompt verbatim after JSON encoding.
	Shape any
}

// Generator produces raw text for a Request. Implementations render the
// request with RenderPrompt and return the model's reply unparsed.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate sends the request to the model and returns its reply.
	// Returns ErrEmptyResponse if the model produced no output.
	Generate(ctx context.Context, req Request) (string, error)

	// Close releases resources held by the generator.
	// After Close is called, the generator should not be used.
	Close() error
}
