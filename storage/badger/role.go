package badger

import (
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

// RoleRepository implements storage.RoleRepository for BadgerDB.
// Assignments are stored under rolerec:<id> with a roleusr:<user> index
// holding the assignment ID.
type RoleRepository struct {
	backend *Backend
}

var _ storage.RoleRepository = (*RoleRepository)(nil)

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(backend *Backend) (*RoleRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("badger: backend is required")
	}
	return &RoleRepository{backend: backend}, nil
}

func (r *RoleRepository) Close() error {
	return nil
}

// Create stores a new role assignment.
func (r *RoleRepository) Create(ctx context.Context, assignment *core.RoleAssignment) (*core.RoleAssignment, error) {
	if err := core.ValidateRoleAssignment(assignment); err != nil {
		return nil, err
	}

	record := *assignment
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt

	err := r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		userKey := makeRoleUserKey(record.User)
		if _, err := tx.Get(userKey); err == nil {
			return fmt.Errorf("%w: user %s", storage.ErrDuplicateKey, record.User)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		roleKey := makeRoleKey(record.ID)
		if _, err := tx.Get(roleKey); err == nil {
			return fmt.Errorf("%w: assignment %s", storage.ErrDuplicateKey, record.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := tx.Set(roleKey, storage.MarshalRoleAssignment(&record)); err != nil {
			return err
		}
		return tx.Set(userKey, []byte(record.ID))
	})
	if errors.Is(err, storage.ErrTransactionFailed) {
		return nil, fmt.Errorf("%w: user %s", storage.ErrDuplicateKey, record.User)
	}
	if err != nil {
		return nil, err
	}
	*assignment = record
	return assignment, nil
}

// Get retrieves a role assignment by ID.
func (r *RoleRepository) Get(ctx context.Context, id string) (*core.RoleAssignment, error) {
	var result *core.RoleAssignment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readAssignment(tx, id)
		return err
	}, false)
	return result, err
}

// GetByUser retrieves the role assignment of a user.
func (r *RoleRepository) GetByUser(ctx context.Context, user string) (*core.RoleAssignment, error) {
	var result *core.RoleAssignment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := r.readUserIndex(tx, user)
		if err != nil {
			return err
		}
		result, err = r.readAssignment(tx, id)
		return err
	}, false)
	return result, err
}

// List returns every role assignment ordered by user.
func (r *RoleRepository) List(ctx context.Context) ([]*core.RoleAssignment, error) {
	var results []*core.RoleAssignment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(roleRecordPrefix + ":")
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var assignment *core.RoleAssignment
			err := iter.Item().Value(func(val []byte) error {
				var err error
				assignment, err = storage.UnmarshalRoleAssignment(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}
			results = append(results, assignment)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.RoleAssignment) int {
		return cmp.Compare(a.User, b.User)
	})
	return results, nil
}

// Update replaces the user and roles of an existing assignment.
func (r *RoleRepository) Update(ctx context.Context, assignment *core.RoleAssignment) (*core.RoleAssignment, error) {
	if err := core.ValidateRoleAssignment(assignment); err != nil {
		return nil, err
	}

	err := r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		old, err := r.readAssignment(tx, assignment.ID)
		if err != nil {
			return err
		}

		if old.User != assignment.User {
			newUserKey := makeRoleUserKey(assignment.User)
			if _, err := tx.Get(newUserKey); err == nil {
				return fmt.Errorf("%w: user %s", storage.ErrDuplicateKey, assignment.User)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := tx.Delete(makeRoleUserKey(old.User)); err != nil {
				return err
			}
			if err := tx.Set(newUserKey, []byte(assignment.ID)); err != nil {
				return err
			}
		}

		assignment.CreatedAt = old.CreatedAt
		assignment.UpdatedAt = time.Now().UTC()
		return tx.Set(makeRoleKey(assignment.ID), storage.MarshalRoleAssignment(assignment))
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// Delete removes a role assignment and its user index entry.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	return r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		old, err := r.readAssignment(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(makeRoleUserKey(old.User)); err != nil {
			return err
		}
		return tx.Delete(makeRoleKey(id))
	})
}

func (r *RoleRepository) readUserIndex(tx *badger.Txn, user string) (string, error) {
	item, err := tx.Get(makeRoleUserKey(user))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// readAssignment returns storage.ErrNotFound when the assignment is absent.
func (r *RoleRepository) readAssignment(tx *badger.Txn, id string) (*core.RoleAssignment, error) {
	item, err := tx.Get(makeRoleKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var assignment *core.RoleAssignment
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		assignment, unmarshalErr = storage.UnmarshalRoleAssignment(val)
		return unmarshalErr
	})
	return assignment, err
}
