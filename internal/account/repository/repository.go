package repository

import (
	"context"

	"report-api/internal/account/domain"
	sessiondomain "report-api/internal/session/domain"
)

// Repository defines persistence for accounts.
type Repository interface {
	// GetByID returns the account for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// Find resolves login credentials (username/phone/email) to an account,
	// or nil if no account matches. Matching is exact and case-sensitive.
	Find(ctx context.Context, method sessiondomain.Method, value string) (*domain.Account, error)
	// Create persists a new account. The account must have ID set.
	Create(ctx context.Context, a *domain.Account) error
	// Update replaces the stored account record.
	Update(ctx context.Context, a *domain.Account) error
	// List returns all accounts.
	List(ctx context.Context) ([]*domain.Account, error)
}
