package badger

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/storage"
)

// SegmentRepository implements storage.SegmentRepository for BadgerDB.
type SegmentRepository struct {
	backend *Backend
}

var _ storage.SegmentRepository = (*SegmentRepository)(nil)

// NewSegmentRepository creates a new SegmentRepository.
func NewSegmentRepository(backend *Backend) (*SegmentRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("badger: backend is required")
	}
	return &SegmentRepository{backend: backend}, nil
}

// Close is a no-op; the shared backend is closed by its owner.
func (r *SegmentRepository) Close() error {
	return nil
}

// Exists reports whether the (document, role) pair has been stored.
func (r *SegmentRepository) Exists(ctx context.Context, documentName, role string) (bool, error) {
	var found bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := r.readDocument(tx, makeDocumentKey(core.DocumentKey(documentName, role)))
		if err != nil {
			return err
		}
		found = doc != nil
		return nil
	}, false)
	return found, err
}

// SaveAll writes every segment and the document marker in one transaction.
// The marker is re-read inside the transaction so a concurrent writer that
// commits first turns this commit into a conflict, reported as
// storage.ErrDuplicateKey.
func (r *SegmentRepository) SaveAll(ctx context.Context, segments ...*core.Segment) error {
	if err := core.ValidateSegmentBatch(segments); err != nil {
		return err
	}

	first := segments[0]
	docKey := core.DocumentKey(first.DocumentName, first.Role)
	markerKey := makeDocumentKey(docKey)

	// callers' segments are only stamped once the commit succeeds
	now := time.Now().UTC()
	records := make([]core.Segment, len(segments))
	for i, segment := range segments {
		records[i] = *segment
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		records[i].CreatedAt = now
	}

	err := r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		existing, err := r.readDocument(tx, markerKey)
		if err != nil {
			return err
		}
		if existing != nil {
			return storage.ErrDuplicateKey
		}

		for i := range records {
			if err := tx.Set(makeSegmentKey(docKey, records[i].SequenceNumber), storage.MarshalSegment(&records[i])); err != nil {
				return err
			}
		}

		doc := &core.Document{
			Name:      first.DocumentName,
			Role:      first.Role,
			Segments:  len(segments),
			CreatedAt: now,
		}
		return tx.Set(markerKey, storage.MarshalDocument(doc))
	})
	if errors.Is(err, storage.ErrTransactionFailed) {
		return fmt.Errorf("%w: %s (%s)", storage.ErrDuplicateKey, first.DocumentName, first.Role)
	}
	if err != nil {
		return err
	}
	for i, segment := range segments {
		segment.ID, segment.CreatedAt = records[i].ID, records[i].CreatedAt
	}
	return nil
}

// Scan walks the document markers, skipping documents the role filter
// excludes, and returns matching segments ordered by (DocumentName,
// SequenceNumber).
func (r *SegmentRepository) Scan(ctx context.Context, filter storage.ScanFilter) ([]*core.Segment, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	results := []*core.Segment{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		docs, err := r.scanDocuments(tx, func(doc *core.Document) bool {
			if filter.DocumentName != "" && doc.Name != filter.DocumentName {
				return false
			}
			return filter.RoleMatch(doc.Role)
		})
		if err != nil {
			return err
		}

		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}
			segments, err := r.readSegments(tx, core.DocumentKey(doc.Name, doc.Role))
			if err != nil {
				return err
			}
			for _, segment := range segments {
				if filter.Match(segment) {
					results = append(results, segment)
				}
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, compareSegments)
	return results, nil
}

// ListDocuments lists stored documents, restricted to role when non-empty.
func (r *SegmentRepository) ListDocuments(ctx context.Context, role string) ([]storage.DocumentInfo, error) {
	var docs []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		docs, err = r.scanDocuments(tx, func(doc *core.Document) bool {
			return role == "" || doc.Role == role
		})
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	results := make([]storage.DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		results = append(results, *doc)
	}
	slices.SortFunc(results, func(a, b storage.DocumentInfo) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Role, b.Role))
	})
	return results, nil
}

func compareSegments(a, b *core.Segment) int {
	return cmp.Or(
		cmp.Compare(a.DocumentName, b.DocumentName),
		cmp.Compare(a.SequenceNumber, b.SequenceNumber),
		cmp.Compare(a.Role, b.Role),
	)
}

func (r *SegmentRepository) scanDocuments(tx *badger.Txn, keep func(*core.Document) bool) ([]*core.Document, error) {
	var docs []*core.Document
	opts := badger.DefaultIteratorOptions
	prefix := []byte(segmentDocumentPrefix + ":")
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		var doc *core.Document
		err := iter.Item().Value(func(val []byte) error {
			var err error
			doc, err = storage.UnmarshalDocument(val)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		if keep(doc) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (r *SegmentRepository) readSegments(tx *badger.Txn, docKey core.ID) ([]*core.Segment, error) {
	var segments []*core.Segment
	opts := badger.DefaultIteratorOptions
	prefix := makePartialSegmentKey(docKey)
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Seek(prefix); iter.Valid(); iter.Next() {
		item := iter.Item()
		if !bytes.HasPrefix(item.Key(), prefix) {
			break
		}
		var segment *core.Segment
		err := item.Value(func(val []byte) error {
			var err error
			segment, err = storage.UnmarshalSegment(val)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		segments = append(segments, segment)
	}
	return segments, nil
}

// readDocument returns nil without error when the marker is absent.
func (r *SegmentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
