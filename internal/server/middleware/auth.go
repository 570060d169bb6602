package middleware

import (
	"context"
	"errors"
	"net/http"

	accountdomain "report-api/internal/account/domain"
	authservice "report-api/internal/auth/service"
	"report-api/internal/server/httpjson"
)

// SessionGate resolves a bearer token to an approved session's account.
type SessionGate interface {
	RequireApprovedSession(ctx context.Context, token string) (*accountdomain.Account, error)
}

// Auth returns middleware that validates the Bearer access token on every
// request and injects the resolved account into the request context. It fails
// closed: a missing, unknown, or unapproved token never reaches the handler.
func Auth(gate SessionGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			account, err := gate.RequireApprovedSession(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, authservice.ErrSessionNotApproved):
					httpjson.Error(w, http.StatusForbidden, "session_not_approved", "session is not approved")
				case errors.Is(err, authservice.ErrUnauthenticated):
					httpjson.Error(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization")
				default:
					httpjson.Error(w, http.StatusInternalServerError, "internal", "internal error")
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account, token)))
		})
	}
}
