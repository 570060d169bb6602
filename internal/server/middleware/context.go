package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	accountdomain "report-api/internal/account/domain"
)

type contextKey struct{ name string }

var (
	accountKey  = contextKey{"account"}
	tokenKey    = contextKey{"access_token"}
	clientIPKey = contextKey{"client_ip"}
)

// WithAccount returns a context carrying the authenticated account and the
// access token it presented. Handlers read these via GetAccount and GetToken.
func WithAccount(ctx context.Context, a *accountdomain.Account, token string) context.Context {
	ctx = context.WithValue(ctx, accountKey, a)
	ctx = context.WithValue(ctx, tokenKey, token)
	return ctx
}

// GetAccount returns the authenticated account from context and true if set.
func GetAccount(ctx context.Context) (*accountdomain.Account, bool) {
	a, ok := ctx.Value(accountKey).(*accountdomain.Account)
	return a, ok
}

// GetToken returns the presented access token from context and true if set.
func GetToken(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tokenKey).(string)
	return v, ok
}

// WithClientIP stores the request's client IP on the context.
func WithClientIP(ctx context.Context, r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return context.WithValue(ctx, clientIPKey, host)
}

// ClientIP returns the client IP recorded on the context, or "" if absent.
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

// BearerToken returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func BearerToken(r *http.Request) string {
	const bearerPrefix = "bearer "
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
