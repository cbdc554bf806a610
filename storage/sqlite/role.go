package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/storage"
)

// RoleRepository implements storage.RoleRepository on SQLite.
type RoleRepository struct {
	store *Store
}

var _ storage.RoleRepository = (*RoleRepository)(nil)

func (r *RoleRepository) Close() error {
	return nil
}

func (r *RoleRepository) Create(ctx context.Context, assignment *core.RoleAssignment) (*core.RoleAssignment, error) {
	if err := core.ValidateRoleAssignment(assignment); err != nil {
		return nil, err
	}
	roles, err := marshalStrings(assignment.Roles)
	if err != nil {
		return nil, err
	}

	id := assignment.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	_, err = r.store.db.ExecContext(ctx,
		"INSERT INTO role_assignments (id, user_name, roles, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		id, assignment.User, roles, now.UnixMicro(), now.UnixMicro(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user %s or assignment %s", storage.ErrDuplicateKey, assignment.User, id)
		}
		return nil, fmt.Errorf("inserting role assignment: %w", err)
	}
	assignment.ID = id
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	return assignment, nil
}

func (r *RoleRepository) Get(ctx context.Context, id string) (*core.RoleAssignment, error) {
	row := r.store.db.QueryRowContext(ctx,
		"SELECT id, user_name, roles, created_at, updated_at FROM role_assignments WHERE id = ?", id)
	return scanAssignment(row)
}

func (r *RoleRepository) GetByUser(ctx context.Context, user string) (*core.RoleAssignment, error) {
	row := r.store.db.QueryRowContext(ctx,
		"SELECT id, user_name, roles, created_at, updated_at FROM role_assignments WHERE user_name = ?", user)
	return scanAssignment(row)
}

func (r *RoleRepository) List(ctx context.Context) ([]*core.RoleAssignment, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT id, user_name, roles, created_at, updated_at FROM role_assignments ORDER BY user_name")
	if err != nil {
		return nil, fmt.Errorf("querying role assignments: %w", err)
	}
	defer rows.Close()

	var results []*core.RoleAssignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, assignment)
	}
	return results, rows.Err()
}

func (r *RoleRepository) Update(ctx context.Context, assignment *core.RoleAssignment) (*core.RoleAssignment, error) {
	if err := core.ValidateRoleAssignment(assignment); err != nil {
		return nil, err
	}
	roles, err := marshalStrings(assignment.Roles)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := r.store.db.ExecContext(ctx,
		"UPDATE role_assignments SET user_name = ?, roles = ?, updated_at = ? WHERE id = ?",
		assignment.User, roles, now.UnixMicro(), assignment.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user %s", storage.ErrDuplicateKey, assignment.User)
		}
		return nil, fmt.Errorf("updating role assignment: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, storage.ErrNotFound
	}
	return r.Get(ctx, assignment.ID)
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, "DELETE FROM role_assignments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting role assignment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanAssignment(row rowScanner) (*core.RoleAssignment, error) {
	var (
		assignment       core.RoleAssignment
		roles            string
		created, updated int64
	)
	err := row.Scan(&assignment.ID, &assignment.User, &roles, &created, &updated)
	if err != nil {
		return nil, notFound(err)
	}
	assignment.Roles, err = unmarshalStrings(roles)
	if err != nil {
		return nil, err
	}
	assignment.CreatedAt = time.UnixMicro(created).UTC()
	assignment.UpdatedAt = time.UnixMicro(updated).UTC()
	return &assignment, nil
}
