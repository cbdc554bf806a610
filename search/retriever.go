package search

import (
	"context"

	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/storage"
)

// DefaultMinOverlap is the number of shared keywords a segment needs.
const DefaultMinOverlap = 1

// Retriever selects the segments a requester may see that share enough
// keywords with the query.
type Retriever struct {
	store          storage.SegmentRepository
	privilegedRole string
	minOverlap     int
}

func NewRetriever(store storage.SegmentRepository, privilegedRole string, minOverlap int) (*Retriever, error) {
	if store == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	if minOverlap < 1 {
		minOverlap = DefaultMinOverlap
	}
	return &Retriever{store: store, privilegedRole: privilegedRole, minOverlap: minOverlap}, nil
}

// Retrieve returns matching segments ordered by (document, sequence). With no
// keywords only the role filter applies. A requester without roles sees
// nothing. Zero matches is an empty slice and a nil error.
func (r *Retriever) Retrieve(ctx context.Context, roles []string, keywords []string) ([]*core.Segment, error) {
	if len(roles) == 0 {
		return []*core.Segment{}, nil
	}
	return r.store.Scan(ctx, storage.ScanFilter{
		Roles:          roles,
		PrivilegedRole: r.privilegedRole,
		Keywords:       keywords,
		MinOverlap:     r.minOverlap,
	})
}
