// Package handler exposes the audit log over HTTP for admins.
package handler

import (
	"net/http"

	auditrepo "report-api/internal/audit/repository"
	"report-api/internal/policy/engine"
	"report-api/internal/server/httpjson"
	"report-api/internal/server/middleware"
)

// AuditHandler serves the audit log, gated by the policy engine.
type AuditHandler struct {
	repo   auditrepo.Repository
	policy engine.Evaluator
}

// NewAuditHandler returns a new AuditHandler.
func NewAuditHandler(repo auditrepo.Repository, policy engine.Evaluator) *AuditHandler {
	return &AuditHandler{repo: repo, policy: policy}
}

// Register wires the audit route onto mux.
func (h *AuditHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/audit", h.handleList)
}

func (h *AuditHandler) handleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetAccount(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization")
		return
	}
	allowed, err := h.policy.Allow(r.Context(), caller, engine.ActionAuditList, engine.Resource{Kind: "audit"})
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	if !allowed {
		httpjson.Error(w, http.StatusForbidden, "permission_denied", "account may not perform this action")
		return
	}
	entries, err := h.repo.List(r.Context())
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	httpjson.Write(w, http.StatusOK, entries)
}
