package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const systemPromptTemplate = `You are a helpful assistant. Use the provided context to answer the question. Respond ONLY with a valid JSON matching this format:
%s`

// RenderPrompt turns a request into a system prompt carrying the expected
// response shape and a user prompt carrying the context and instruction.
func RenderPrompt(req Request) (system, user string) {
	shape := "{}"
	if req.Shape != nil {
		if data, err := json.Marshal(req.Shape); err == nil {
			shape = string(data)
		}
	}
	system = fmt.Sprintf(systemPromptTemplate, shape)

	var b strings.Builder
	if req.Context != "" {
		b.WriteString("Context:\n")
		b.WriteString(req.Context)
		b.WriteString("\n\n")
	}
	b.WriteString("Question:\n")
	b.WriteString(req.Instruction)
	return system, b.String()
}

// Ask sends req to gen and decodes the reply into out.
func Ask(ctx context.Context, gen Generator, req Request, out any) error {
	raw, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	return Decode(raw, out)
}
