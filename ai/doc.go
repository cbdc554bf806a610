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


// Package ai provides the text-generation abstraction used by docsift.
//
// Ingestion asks a model for keywords and a summary of each segment, and
// the query path asks it for query keywords and a final answer. Both go
// through the Generator interface and the Ask helper, which renders a
// Request into a prompt and decodes the reply with Decode.
//
// # Providers
//
// Concrete generators live in sub-packages that register themselves on
// import:
//
//   - ai/openai: OpenAI-compatible APIs via langchaingo (Ollama, vLLM, OpenAI)
//   - ai/gemini: Google Gemini via generative-ai-go
//   - ai/mock: a scriptable test double
//
// NewGenerator looks up the configured provider and wraps it in a Guard,
// which enforces the per-call timeout, the request rate and a circuit
// breaker. Replies that cannot be decoded yield ErrMalformedResponse, and
// an open breaker yields ErrUnavailable.
//
// # Usage Example
//
//	import _ "github.com/poiesic/docsift/ai/openai"
//
//	gen, err := ai.NewGenerator(ctx, ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gen.Close()
//
//	var out struct {
//	    Keywords []string `json:"keywords"`
//	}
//	err = ai.Ask(ctx, gen, ai.Request{
//	    Instruction: "Generate exactly 5 keywords",
//	    Context:     text,
//	    Shape:       map[string][]string{"keywords": {"k1", "k2"}},
//	}, &out)
package ai
