package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"report-api/internal/session/domain"
	"report-api/internal/store"
)

// DocStoreRepository persists sessions in the "sessions" document: a single
// JSON object mapping access token to session, replaced wholesale on write.
type DocStoreRepository struct {
	store store.Store
}

// NewDocStoreRepository returns a session repository backed by the given
// document store.
func NewDocStoreRepository(s store.Store) *DocStoreRepository {
	return &DocStoreRepository{store: s}
}

func decodeSessions(raw json.RawMessage) (map[string]*domain.Session, error) {
	m := make(map[string]*domain.Session)
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("sessions document: %w", err)
	}
	return m, nil
}

// GetByToken returns the session stored under token, or nil if absent.
func (r *DocStoreRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	raw, err := r.store.Get(ctx, store.DocSessions)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	m, err := decodeSessions(raw)
	if err != nil {
		return nil, err
	}
	return m[token], nil
}

// Put stores the session under its access token, overwriting any existing
// entry for that token.
func (r *DocStoreRepository) Put(ctx context.Context, s *domain.Session) error {
	return r.store.Update(ctx, store.DocSessions, func(raw json.RawMessage) (json.RawMessage, error) {
		m, err := decodeSessions(raw)
		if err != nil {
			return nil, err
		}
		m[s.AccessToken] = s
		return json.Marshal(m)
	})
}

// Delete removes and returns the session for token. The lookup and removal
// happen inside one store Update so a concurrent logout cannot observe
// stale data.
func (r *DocStoreRepository) Delete(ctx context.Context, token string) (*domain.Session, error) {
	var removed *domain.Session
	err := r.store.Update(ctx, store.DocSessions, func(raw json.RawMessage) (json.RawMessage, error) {
		m, err := decodeSessions(raw)
		if err != nil {
			return nil, err
		}
		removed = m[token]
		delete(m, token)
		return json.Marshal(m)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// List returns all stored sessions.
func (r *DocStoreRepository) List(ctx context.Context) ([]*domain.Session, error) {
	raw, err := r.store.Get(ctx, store.DocSessions)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	m, err := decodeSessions(raw)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Session, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	return out, nil
}
