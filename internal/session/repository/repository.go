package repository

import (
	"context"

	"report-api/internal/session/domain"
)

// Repository defines persistence for sessions, keyed by access token.
type Repository interface {
	// GetByToken returns the session stored under token, or nil if absent.
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	// Put stores the session under its access token, overwriting any
	// existing entry for that token.
	Put(ctx context.Context, s *domain.Session) error
	// Delete removes the session for token as an atomic check-and-delete.
	// Returns the removed session, or nil if no session was stored.
	Delete(ctx context.Context, token string) (*domain.Session, error)
	// List returns all stored sessions.
	List(ctx context.Context) ([]*domain.Session, error)
}
