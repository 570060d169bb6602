// Package handler exposes admin account management over HTTP.
package handler

import (
	"errors"
	"net/http"

	"report-api/internal/account/domain"
	accountservice "report-api/internal/account/service"
	"report-api/internal/server/httpjson"
	"report-api/internal/server/middleware"
)

const maxBodyBytes = 1 << 16

// AccountHandler wires HTTP account-management endpoints to the account
// service.
type AccountHandler struct {
	accounts *accountservice.AccountService
}

// NewAccountHandler returns a new AccountHandler.
func NewAccountHandler(accounts *accountservice.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register wires the account routes onto mux. All routes sit behind the
// approved-session middleware; the service enforces the admin gate.
func (h *AccountHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/accounts", h.handleList)
	mux.HandleFunc("POST /api/accounts", h.handleCreate)
}

// accountView is the API shape for an account. The access token is the
// account's live secret and is never listed.
type accountView struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

func toView(a *domain.Account) accountView {
	return accountView{
		AccountID:   a.ID,
		DisplayName: a.DisplayName,
		Role:        string(a.Role),
		Phone:       a.Phone,
		Email:       a.Email,
	}
}

func (h *AccountHandler) handleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetAccount(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization")
		return
	}
	accounts, err := h.accounts.List(r.Context(), caller)
	if err != nil {
		writeAccountError(w, err)
		return
	}
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, toView(a))
	}
	httpjson.Write(w, http.StatusOK, views)
}

type createAccountRequest struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

func (h *AccountHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetAccount(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization")
		return
	}
	var req createAccountRequest
	if err := httpjson.Decode(w, r, maxBodyBytes, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	a, err := h.accounts.Create(r.Context(), caller, req.DisplayName, domain.Role(req.Role), req.Phone, req.Email)
	if err != nil {
		writeAccountError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, toView(a))
}

func writeAccountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accountservice.ErrPermissionDenied):
		httpjson.Error(w, http.StatusForbidden, "permission_denied", "account may not perform this action")
	default:
		httpjson.Error(w, http.StatusBadRequest, "bad_request", err.Error())
	}
}
