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


package core

import "errors"

var (
	// ErrInvalidSegment indicates a Segment failed validation.
	ErrInvalidSegment = errors.New("invalid segment")

	// ErrInvalidUploadEvent indicates an UploadEvent failed validation.
	ErrInvalidUploadEvent = errors.New("invalid upload event")

	// ErrInvalidRoleAssignment indicates a RoleAssignment failed validation.
	ErrInvalidRoleAssignment = errors.New("invalid role assignment")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyDocumentName indicates the document name is empty.
	ErrEmptyDocumentName = errors.New("document name cannot be empty")

	// ErrEmptyRole indicates a role tag is empty.
	ErrEmptyRole = errors.New("role cannot be empty")

	// ErrInvalidSequence indicates a sequence number below 1.
	ErrInvalidSequence = errors.New("sequence number must be positive")

	// ErrEmptyFilePath indicates the upload event carries no file path.
	ErrEmptyFilePath = errors.New("file path cannot be empty")

	// ErrEmptyUser indicates the user field is empty.
	ErrEmptyUser = errors.New("user cannot be empty")
)
