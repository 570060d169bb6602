// Package handler exposes the auth flow over HTTP: login, code verification,
// logout, the caller's own account, and the dev-only code endpoint.
package handler

import (
	"errors"
	"net/http"

	authservice "report-api/internal/auth/service"
	"report-api/internal/server/httpjson"
	"report-api/internal/server/middleware"
	sessiondomain "report-api/internal/session/domain"
)

const maxBodyBytes = 1 << 16

// AuthHandler wires HTTP auth endpoints to the auth service.
type AuthHandler struct {
	auth           *authservice.AuthService
	devCodeEnabled bool
}

// NewAuthHandler returns an AuthHandler. devCodeEnabled exposes the pending
// verification code over /api/dev/code; never enable it in production.
func NewAuthHandler(auth *authservice.AuthService, devCodeEnabled bool) *AuthHandler {
	return &AuthHandler{auth: auth, devCodeEnabled: devCodeEnabled}
}

// Register wires the public auth routes onto mux. Login, verify, and logout
// cannot sit behind the approved-session middleware: verify and logout are
// legal on a pending session.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/verify", h.handleVerify)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)
	if h.devCodeEnabled {
		mux.HandleFunc("GET /api/dev/code", h.handleDevCode)
	}
}

// RegisterProtected wires routes that require an approved session.
func (h *AuthHandler) RegisterProtected(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/me", h.handleMe)
}

type loginRequest struct {
	Method string `json:"method"`
	Value  string `json:"value"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, maxBodyBytes, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	res, err := h.auth.Login(r.Context(), sessiondomain.Credentials{
		Method: sessiondomain.Method(req.Method),
		Value:  req.Value,
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}
	msg := "code sent"
	if res.Status == authservice.StatusReissued {
		msg = "previous session invalidated; a new code was sent"
	}
	httpjson.Write(w, http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		Status:      string(res.Status),
		Message:     msg,
	})
}

type verifyRequest struct {
	Code string `json:"code"`
}

type verifyResponse struct {
	Status      string `json:"status"`
	AccessToken string `json:"access_token,omitempty"`
	Message     string `json:"message,omitempty"`
}

func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	var req verifyRequest
	if err := httpjson.Decode(w, r, maxBodyBytes, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	res, err := h.auth.VerifyLogin(r.Context(), token, req.Code)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	resp := verifyResponse{Status: string(res.Status)}
	if res.Status == authservice.StatusReissued {
		resp.AccessToken = res.AccessToken
		resp.Message = "previous session invalidated; a new code was sent"
	}
	httpjson.Write(w, http.StatusOK, resp)
}

type logoutResponse struct {
	PreviousSession *sessionInfo `json:"previous_session"`
}

type sessionInfo struct {
	AccountID string `json:"account_id"`
	Approved  bool   `json:"approved"`
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization")
		return
	}
	removed, err := h.auth.Logout(r.Context(), token)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, logoutResponse{
		PreviousSession: &sessionInfo{AccountID: removed.AccountID, Approved: removed.Approved},
	})
}

type meResponse struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.GetAccount(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization")
		return
	}
	httpjson.Write(w, http.StatusOK, meResponse{
		AccountID:   account.ID,
		DisplayName: account.DisplayName,
		Role:        string(account.Role),
		Phone:       account.Phone,
		Email:       account.Email,
	})
}

func (h *AuthHandler) handleDevCode(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("access_token")
	code, err := h.auth.PendingCode(r.Context(), token)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"code": code})
}

// writeAuthError maps auth service sentinels to HTTP statuses without
// collapsing the distinct kinds.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authservice.ErrAccountNotFound):
		httpjson.Error(w, http.StatusNotFound, "account_not_found", "no account matches the given credentials")
	case errors.Is(err, authservice.ErrUnauthenticated):
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization")
	case errors.Is(err, authservice.ErrSessionNotApproved):
		httpjson.Error(w, http.StatusForbidden, "session_not_approved", "session is not approved")
	case errors.Is(err, authservice.ErrSessionNotPending):
		httpjson.Error(w, http.StatusConflict, "session_not_pending", "session is not pending")
	case errors.Is(err, authservice.ErrCodeExpired):
		httpjson.Error(w, http.StatusGone, "code_expired", "no active verification code")
	case errors.Is(err, authservice.ErrInvalidCode):
		httpjson.Error(w, http.StatusBadRequest, "invalid_code", "verification code does not match")
	case errors.Is(err, authservice.ErrSessionNotFound):
		httpjson.Error(w, http.StatusNotFound, "session_not_found", "session not found")
	default:
		httpjson.Error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
