// Package postgres contains the PostgreSQL keystore backend used by hosted
// deployments (e.g. a sync agent holding the same vault server-side).
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yshyp/lifepulse-vault/internal/errs"
)

// Store implements keystore.Store on a single vault_items table.
type Store struct{ db *DB }

// NewStore constructs a postgres keystore.
func NewStore(db *DB) *Store { return &Store{db: db} }

// Get selects the value for key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	const q = `
SELECT value FROM vault_items WHERE key=$1`
	row := s.db.Pool.QueryRow(ctx, q, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", errs.ErrStorageRead, err)
	}
	return v, nil
}

// Set upserts the value for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO vault_items (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	_, err := s.db.Pool.Exec(ctx, q, key, value)
	return err
}

// Delete removes the row for key; deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	const q = `
DELETE FROM vault_items WHERE key=$1`
	_, err := s.db.Pool.Exec(ctx, q, key)
	return err
}
