package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"report-api/internal/account/domain"
	sessiondomain "report-api/internal/session/domain"
	"report-api/internal/store"
)

// ErrAccountExists is returned by Create when the account ID is already taken.
var ErrAccountExists = errors.New("account already exists")

// DocStoreRepository persists accounts in the "accounts" document: a single
// JSON object mapping account ID to account. Credential lookups go through
// secondary indices built when the document is decoded, so Find is an indexed
// query rather than a scan at each call site.
type DocStoreRepository struct {
	store store.Store
}

// NewDocStoreRepository returns an account repository backed by the given
// document store.
func NewDocStoreRepository(s store.Store) *DocStoreRepository {
	return &DocStoreRepository{store: s}
}

// accountIndex holds a decoded accounts document with secondary indices by
// username (display name), phone, and email.
type accountIndex struct {
	byID       map[string]*domain.Account
	byUsername map[string]*domain.Account
	byPhone    map[string]*domain.Account
	byEmail    map[string]*domain.Account
}

func decodeAccounts(raw json.RawMessage) (*accountIndex, error) {
	byID := make(map[string]*domain.Account)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &byID); err != nil {
			return nil, fmt.Errorf("accounts document: %w", err)
		}
	}
	idx := &accountIndex{
		byID:       byID,
		byUsername: make(map[string]*domain.Account, len(byID)),
		byPhone:    make(map[string]*domain.Account, len(byID)),
		byEmail:    make(map[string]*domain.Account, len(byID)),
	}
	for _, a := range byID {
		if a.DisplayName != "" {
			idx.byUsername[a.DisplayName] = a
		}
		if a.Phone != "" {
			idx.byPhone[a.Phone] = a
		}
		if a.Email != "" {
			idx.byEmail[a.Email] = a
		}
	}
	return idx, nil
}

func (idx *accountIndex) find(method sessiondomain.Method, value string) *domain.Account {
	switch method {
	case sessiondomain.MethodUsername:
		return idx.byUsername[value]
	case sessiondomain.MethodPhone:
		return idx.byPhone[value]
	case sessiondomain.MethodEmail:
		return idx.byEmail[value]
	}
	return nil
}

func (r *DocStoreRepository) load(ctx context.Context) (*accountIndex, error) {
	raw, err := r.store.Get(ctx, store.DocAccounts)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return decodeAccounts(raw)
}

// GetByID returns the account for id, or nil if not found.
func (r *DocStoreRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	idx, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return idx.byID[id], nil
}

// Find resolves credentials to an account via the secondary indices, or nil
// if no account matches.
func (r *DocStoreRepository) Find(ctx context.Context, method sessiondomain.Method, value string) (*domain.Account, error) {
	idx, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return idx.find(method, value), nil
}

// Create persists a new account. Returns ErrAccountExists for a duplicate ID.
func (r *DocStoreRepository) Create(ctx context.Context, a *domain.Account) error {
	return r.store.Update(ctx, store.DocAccounts, func(raw json.RawMessage) (json.RawMessage, error) {
		idx, err := decodeAccounts(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := idx.byID[a.ID]; ok {
			return nil, ErrAccountExists
		}
		idx.byID[a.ID] = a
		return json.Marshal(idx.byID)
	})
}

// Update replaces the stored account record (used by logout to rotate the
// access token).
func (r *DocStoreRepository) Update(ctx context.Context, a *domain.Account) error {
	return r.store.Update(ctx, store.DocAccounts, func(raw json.RawMessage) (json.RawMessage, error) {
		idx, err := decodeAccounts(raw)
		if err != nil {
			return nil, err
		}
		idx.byID[a.ID] = a
		return json.Marshal(idx.byID)
	})
}

// List returns all accounts.
func (r *DocStoreRepository) List(ctx context.Context) ([]*domain.Account, error) {
	idx, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Account, 0, len(idx.byID))
	for _, a := range idx.byID {
		out = append(out, a)
	}
	return out, nil
}
