package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"report-api/internal/audit/domain"
	"report-api/internal/store"
)

// DocStoreRepository appends audit entries to the "audit" document, a JSON
// array ordered oldest first.
type DocStoreRepository struct {
	store store.Store
}

// NewDocStoreRepository returns an audit repository backed by the given
// document store.
func NewDocStoreRepository(s store.Store) *DocStoreRepository {
	return &DocStoreRepository{store: s}
}

func decodeEntries(raw json.RawMessage) ([]*domain.Entry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []*domain.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("audit document: %w", err)
	}
	return entries, nil
}

// Append adds one entry to the end of the audit document.
func (r *DocStoreRepository) Append(ctx context.Context, e *domain.Entry) error {
	return r.store.Update(ctx, store.DocAudit, func(raw json.RawMessage) (json.RawMessage, error) {
		entries, err := decodeEntries(raw)
		if err != nil {
			return nil, err
		}
		return json.Marshal(append(entries, e))
	})
}

// List returns all audit entries, oldest first.
func (r *DocStoreRepository) List(ctx context.Context) ([]*domain.Entry, error) {
	raw, err := r.store.Get(ctx, store.DocAudit)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeEntries(raw)
}
