package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore keeps every document as a jsonb row in the documents table.
// The schema is managed by the migrate runner (see internal/db).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a store backed by the given database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get returns the named document, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, name string) (json.RawMessage, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE name = $1`, name).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get %s: %w", name, err)
	}
	return raw, nil
}

// Put upserts the named document.
func (s *PostgresStore) Put(ctx context.Context, name string, raw json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (name, body, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		name, []byte(raw))
	if err != nil {
		return fmt.Errorf("store: put %s: %w", name, err)
	}
	return nil
}

// Update runs fn inside a transaction holding a row lock on the document, so
// concurrent Updates on the same name serialize at the database.
func (s *PostgresStore) Update(ctx context.Context, name string, fn UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: update %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	var cur []byte
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE name = $1 FOR UPDATE`, name).Scan(&cur)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: update %s: %w", name, err)
	}

	next, err := fn(cur)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (name, body, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		name, []byte(next))
	if err != nil {
		return fmt.Errorf("store: update %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: update %s: %w", name, err)
	}
	return nil
}
