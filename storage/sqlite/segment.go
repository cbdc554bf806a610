package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/storage"
)

// SegmentRepository implements storage.SegmentRepository on SQLite.
type SegmentRepository struct {
	store *Store
}

var _ storage.SegmentRepository = (*SegmentRepository)(nil)

// Close is a no-op; the Store owns the connection.
func (r *SegmentRepository) Close() error {
	return nil
}

func (r *SegmentRepository) Exists(ctx context.Context, documentName, role string) (bool, error) {
	var count int
	err := r.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE name = ? AND role = ?",
		documentName, role,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking document: %w", err)
	}
	return count > 0, nil
}

// SaveAll inserts the document row and every segment in one transaction.
// The documents primary key and the segments UNIQUE constraint both reject a
// second writer for the same (document, role) pair.
func (r *SegmentRepository) SaveAll(ctx context.Context, segments ...*core.Segment) error {
	if err := core.ValidateSegmentBatch(segments); err != nil {
		return err
	}
	first := segments[0]

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO documents (name, role, segments, created_at) VALUES (?, ?, ?, ?)",
		first.DocumentName, first.Role, len(segments), now.UnixMicro(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s (%s)", storage.ErrDuplicateKey, first.DocumentName, first.Role)
		}
		return fmt.Errorf("inserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments (id, document_name, role, sequence_number, content, keywords, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, len(segments))
	for i, segment := range segments {
		ids[i] = segment.ID
		if ids[i] == "" {
			ids[i] = uuid.NewString()
		}

		keywords, err := marshalStrings(segment.Keywords)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			ids[i], segment.DocumentName, segment.Role, segment.SequenceNumber,
			segment.Content, keywords, segment.Summary, now.UnixMicro(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s (%s) #%d", storage.ErrDuplicateKey,
					segment.DocumentName, segment.Role, segment.SequenceNumber)
			}
			return fmt.Errorf("inserting segment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	for i, segment := range segments {
		segment.ID, segment.CreatedAt = ids[i], now
	}
	return nil
}

// Scan pushes the role and document constraints into SQL and applies the
// keyword overlap in Go, since keywords are stored as a JSON array.
func (r *SegmentRepository) Scan(ctx context.Context, filter storage.ScanFilter) ([]*core.Segment, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	query := `SELECT id, document_name, role, sequence_number, content, keywords, summary, created_at
		FROM segments`
	var (
		where []string
		args  []any
	)
	if filter.DocumentName != "" {
		where = append(where, "document_name = ?")
		args = append(args, filter.DocumentName)
	}
	if clause, roleArgs := roleClause(filter); clause != "" {
		where = append(where, clause)
		args = append(args, roleArgs...)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY document_name, sequence_number, role"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	results := []*core.Segment{}
	for rows.Next() {
		segment, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		if filter.Match(segment) {
			results = append(results, segment)
		}
	}
	return results, rows.Err()
}

func (r *SegmentRepository) ListDocuments(ctx context.Context, role string) ([]storage.DocumentInfo, error) {
	query := "SELECT name, role, segments, created_at FROM documents"
	var args []any
	if role != "" {
		query += " WHERE role = ?"
		args = append(args, role)
	}
	query += " ORDER BY name, role"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var results []storage.DocumentInfo
	for rows.Next() {
		var (
			doc     storage.DocumentInfo
			created int64
		)
		if err := rows.Scan(&doc.Name, &doc.Role, &doc.Segments, &created); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.CreatedAt = time.UnixMicro(created).UTC()
		results = append(results, doc)
	}
	return results, rows.Err()
}

// roleClause translates the role part of a filter to SQL. An empty clause
// means every role matches.
func roleClause(filter storage.ScanFilter) (string, []any) {
	privileged := filter.PrivilegedRole
	if filter.Role != "" {
		if privileged != "" && filter.Role == privileged {
			return "", nil
		}
		return "role = ?", []any{filter.Role}
	}
	if len(filter.Roles) == 0 {
		return "", nil
	}
	args := make([]any, 0, len(filter.Roles))
	for _, role := range filter.Roles {
		if privileged != "" && role == privileged {
			return "", nil
		}
		args = append(args, role)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	return "role IN (" + placeholders + ")", args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSegment(row rowScanner) (*core.Segment, error) {
	var (
		segment  core.Segment
		keywords string
		created  int64
	)
	err := row.Scan(&segment.ID, &segment.DocumentName, &segment.Role, &segment.SequenceNumber,
		&segment.Content, &keywords, &segment.Summary, &created)
	if err != nil {
		return nil, fmt.Errorf("scanning segment: %w", err)
	}
	segment.Keywords, err = unmarshalStrings(keywords)
	if err != nil {
		return nil, err
	}
	segment.CreatedAt = time.UnixMicro(created).UTC()
	return &segment, nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return string(data), nil
}

func unmarshalStrings(data string) ([]string, error) {
	if data == "" || data == "null" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

var _ rowScanner = (*sql.Row)(nil)
