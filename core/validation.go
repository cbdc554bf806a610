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

import (
	"fmt"
	"strings"
)

func ValidateSegment(segment *Segment) error {
	if segment == nil {
		return fmt.Errorf("%w: segment is nil", ErrInvalidSegment)
	}

	if strings.TrimSpace(segment.DocumentName) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, ErrEmptyDocumentName)
	}

	if strings.TrimSpace(segment.Role) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, ErrEmptyRole)
	}

	if segment.SequenceNumber < 1 {
		return fmt.Errorf("%w: %w: got %d", ErrInvalidSegment, ErrInvalidSequence, segment.SequenceNumber)
	}

	if strings.TrimSpace(segment.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, ErrEmptyContent)
	}

	return nil
}

// ValidateSegmentBatch checks every segment and that the batch covers a
// single (document, role) pair with dense sequence numbers starting at 1.
func ValidateSegmentBatch(segments []*Segment) error {
	if len(segments) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidSegment)
	}
	first := segments[0]
	for i, segment := range segments {
		if err := ValidateSegment(segment); err != nil {
			return err
		}
		if segment.DocumentName != first.DocumentName || segment.Role != first.Role {
			return fmt.Errorf("%w: batch mixes documents or roles", ErrInvalidSegment)
		}
		if segment.SequenceNumber != i+1 {
			return fmt.Errorf("%w: %w: expected %d, got %d", ErrInvalidSegment, ErrInvalidSequence, i+1, segment.SequenceNumber)
		}
	}
	return nil
}

func ValidateUploadEvent(event *UploadEvent) error {
	if event == nil {
		return fmt.Errorf("%w: event is nil", ErrInvalidUploadEvent)
	}

	if strings.TrimSpace(event.FilePath) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUploadEvent, ErrEmptyFilePath)
	}

	if strings.TrimSpace(event.OriginalName) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUploadEvent, ErrEmptyDocumentName)
	}

	if strings.TrimSpace(event.Role) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUploadEvent, ErrEmptyRole)
	}

	return nil
}

func ValidateRoleAssignment(assignment *RoleAssignment) error {
	if assignment == nil {
		return fmt.Errorf("%w: assignment is nil", ErrInvalidRoleAssignment)
	}

	if strings.TrimSpace(assignment.User) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRoleAssignment, ErrEmptyUser)
	}

	if len(assignment.Roles) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRoleAssignment, ErrEmptyRole)
	}
	for _, role := range assignment.Roles {
		if strings.TrimSpace(role) == "" {
			return fmt.Errorf("%w: %w", ErrInvalidRoleAssignment, ErrEmptyRole)
		}
	}

	return nil
}
