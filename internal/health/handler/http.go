// Package handler exposes the health endpoint.
package handler

import (
	"context"
	"errors"
	"net/http"

	"report-api/internal/server/httpjson"
	"report-api/internal/store"
)

// HealthHandler answers liveness checks by touching the document store.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler returns a new HealthHandler.
func NewHealthHandler(s store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// Register wires the health route onto mux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		httpjson.Write(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) ping(ctx context.Context) error {
	_, err := h.store.Get(ctx, store.DocAccounts)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}
