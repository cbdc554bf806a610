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


// Package search answers natural-language questions from stored segments.
//
// A query runs through four stages:
//   - role resolution for the requesting user
//   - keyword extraction from the question text
//   - retrieval of role-visible segments sharing enough keywords
//   - synthesis of an answer strictly from the retrieved context
//
// A query that matches nothing yields an empty Answer rather than an error.
// A failed synthesis is an error; no fallback text is produced.
package search
