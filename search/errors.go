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


package search

import "errors"

var (
	// ErrSegmentRepositoryRequired is returned when a segment repository is not provided.
	ErrSegmentRepositoryRequired = errors.New("segment repository required")

	// ErrRoleRepositoryRequired is returned when a role repository is not provided.
	ErrRoleRepositoryRequired = errors.New("role repository required")

	// ErrGeneratorRequired is returned when a text generator is not provided.
	ErrGeneratorRequired = errors.New("text generator required")

	// ErrEmptyQuery is returned for a blank query text.
	ErrEmptyQuery = errors.New("empty query")

	// ErrUnknownRequester is returned when the querying user has no role assignment.
	ErrUnknownRequester = errors.New("unknown requester")

	// ErrSynthesisFailed is returned when no answer could be produced from the
	// retrieved context. It is never replaced by a fabricated answer.
	ErrSynthesisFailed = errors.New("answer synthesis failed")
)
