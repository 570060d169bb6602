package repository

import (
	"context"

	"report-api/internal/audit/domain"
)

// Repository defines persistence for audit entries.
type Repository interface {
	Append(ctx context.Context, e *domain.Entry) error
	List(ctx context.Context) ([]*domain.Entry, error)
}
