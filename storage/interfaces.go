package storage

import (
	"context"
	"fmt"

	"github.com/poiesic/docsift/core"
)

// DocumentInfo summarizes one ingested (document, role) pair.
type DocumentInfo = core.Document

// ScanFilter selects segments for Scan. The zero value matches every segment.
type ScanFilter struct {
	// Role restricts results to one role tag. If Role equals PrivilegedRole
	// every segment matches.
	Role string
	// Roles restricts results to any of these role tags. If it contains
	// PrivilegedRole every segment matches. Ignored when Role is set.
	Roles []string
	// PrivilegedRole names the role that sees all segments. Empty disables it.
	PrivilegedRole string
	// Keywords, when non-empty, requires at least MinOverlap shared keywords.
	Keywords []string
	// MinOverlap defaults to 1 when Keywords is non-empty.
	MinOverlap int
	// DocumentName restricts results to one document.
	DocumentName string
}

// Validate rejects filters no segment could be evaluated against.
func (f ScanFilter) Validate() error {
	if f.MinOverlap < 0 {
		return fmt.Errorf("%w: negative min overlap %d", ErrInvalidFilter, f.MinOverlap)
	}
	return nil
}

// RoleMatch reports whether a segment tagged with role passes the filter's
// role constraints.
func (f ScanFilter) RoleMatch(role string) bool {
	if f.Role != "" {
		return f.Role == role || (f.PrivilegedRole != "" && f.Role == f.PrivilegedRole)
	}
	if len(f.Roles) == 0 {
		return true
	}
	return core.Requester{Roles: f.Roles}.CanSee(role, f.PrivilegedRole)
}

// Match reports whether segment passes every constraint of the filter.
func (f ScanFilter) Match(segment *core.Segment) bool {
	if f.DocumentName != "" && segment.DocumentName != f.DocumentName {
		return false
	}
	if !f.RoleMatch(segment.Role) {
		return false
	}
	if len(f.Keywords) == 0 {
		return true
	}
	minOverlap := f.MinOverlap
	if minOverlap < 1 {
		minOverlap = 1
	}
	return segment.KeywordOverlap(f.Keywords) >= minOverlap
}

// SegmentRepository persists enriched segments.
// Implementations must be thread-safe and support concurrent access.
type SegmentRepository interface {
	// Exists reports whether any segment is stored for the (document, role) pair.
	Exists(ctx context.Context, documentName, role string) (bool, error)

	// SaveAll stores every segment of one document in a single atomic write.
	// Segments with an empty ID get a new UUID; CreatedAt is set on insert.
	// Returns ErrDuplicateKey if the (document, role) pair is already stored,
	// in which case nothing is written.
	SaveAll(ctx context.Context, segments ...*core.Segment) error

	// Scan returns the segments matching filter ordered by
	// (DocumentName, SequenceNumber). No match yields an empty slice.
	Scan(ctx context.Context, filter ScanFilter) ([]*core.Segment, error)

	// ListDocuments lists ingested documents, optionally restricted to one role.
	ListDocuments(ctx context.Context, role string) ([]DocumentInfo, error)

	// Close releases repository resources. It does not close a shared backend.
	Close() error
}

// RoleRepository provides CRUD for role assignments.
type RoleRepository interface {
	// Create stores a new assignment, assigning an ID when empty.
	// Returns ErrDuplicateKey if the user already has an assignment.
	Create(ctx context.Context, assignment *core.RoleAssignment) (*core.RoleAssignment, error)

	// Get retrieves an assignment by ID. Returns ErrNotFound if missing.
	Get(ctx context.Context, id string) (*core.RoleAssignment, error)

	// GetByUser retrieves the assignment of a user. Returns ErrNotFound if missing.
	GetByUser(ctx context.Context, user string) (*core.RoleAssignment, error)

	// List returns every assignment ordered by user.
	List(ctx context.Context) ([]*core.RoleAssignment, error)

	// Update replaces the roles of an existing assignment.
	// Returns ErrNotFound if the assignment doesn't exist.
	Update(ctx context.Context, assignment *core.RoleAssignment) (*core.RoleAssignment, error)

	// Delete removes an assignment by ID. Returns ErrNotFound if missing.
	Delete(ctx context.Context, id string) error

	Close() error
}
