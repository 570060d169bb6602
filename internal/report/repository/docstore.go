package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"report-api/internal/report/domain"
	"report-api/internal/store"
)

// ErrReportExists is returned by Create when the report ID is already taken.
var ErrReportExists = errors.New("report already exists")

// DocStoreRepository persists reports in the "reports" document: a JSON
// object mapping report ID to report.
type DocStoreRepository struct {
	store store.Store
}

// NewDocStoreRepository returns a report repository backed by the given
// document store.
func NewDocStoreRepository(s store.Store) *DocStoreRepository {
	return &DocStoreRepository{store: s}
}

func decodeReports(raw json.RawMessage) (map[string]*domain.Report, error) {
	m := make(map[string]*domain.Report)
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("reports document: %w", err)
	}
	return m, nil
}

func (r *DocStoreRepository) load(ctx context.Context) (map[string]*domain.Report, error) {
	raw, err := r.store.Get(ctx, store.DocReports)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return decodeReports(raw)
}

// GetByID returns the report for id, or nil if not found.
func (r *DocStoreRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	m, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return m[id], nil
}

// Create persists a new report. Returns ErrReportExists for a duplicate ID.
func (r *DocStoreRepository) Create(ctx context.Context, rep *domain.Report) error {
	return r.store.Update(ctx, store.DocReports, func(raw json.RawMessage) (json.RawMessage, error) {
		m, err := decodeReports(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := m[rep.ID]; ok {
			return nil, ErrReportExists
		}
		m[rep.ID] = rep
		return json.Marshal(m)
	})
}

// Update replaces the stored report record.
func (r *DocStoreRepository) Update(ctx context.Context, rep *domain.Report) error {
	return r.store.Update(ctx, store.DocReports, func(raw json.RawMessage) (json.RawMessage, error) {
		m, err := decodeReports(raw)
		if err != nil {
			return nil, err
		}
		m[rep.ID] = rep
		return json.Marshal(m)
	})
}

// Delete removes the report and reports whether it existed.
func (r *DocStoreRepository) Delete(ctx context.Context, id string) (bool, error) {
	var existed bool
	err := r.store.Update(ctx, store.DocReports, func(raw json.RawMessage) (json.RawMessage, error) {
		m, err := decodeReports(raw)
		if err != nil {
			return nil, err
		}
		_, existed = m[id]
		delete(m, id)
		return json.Marshal(m)
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

// List returns all reports.
func (r *DocStoreRepository) List(ctx context.Context) ([]*domain.Report, error) {
	m, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Report, 0, len(m))
	for _, rep := range m {
		out = append(out, rep)
	}
	return out, nil
}
