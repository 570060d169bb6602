package repository

import (
	"context"

	"report-api/internal/report/domain"
)

// Repository defines persistence for reports.
type Repository interface {
	// GetByID returns the report for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	Create(ctx context.Context, r *domain.Report) error
	Update(ctx context.Context, r *domain.Report) error
	// Delete removes the report and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*domain.Report, error)
}
