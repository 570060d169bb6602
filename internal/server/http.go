// Package server assembles the HTTP API: routing, middleware chain, and the
// split between public auth endpoints and approved-session-only endpoints.
package server

import (
	"net/http"

	accounthandler "report-api/internal/account/handler"
	audithandler "report-api/internal/audit/handler"
	authhandler "report-api/internal/auth/handler"
	healthhandler "report-api/internal/health/handler"
	reporthandler "report-api/internal/report/handler"
	"report-api/internal/server/middleware"
)

// Handlers holds the feature handlers mounted on the server.
type Handlers struct {
	Auth     *authhandler.AuthHandler
	Reports  *reporthandler.ReportHandler
	Accounts *accounthandler.AccountHandler
	Audit    *audithandler.AuditHandler
	Health   *healthhandler.HealthHandler
}

// New builds the root HTTP handler. Login, verify, logout, dev code, and
// health are public (verify and logout operate on pending sessions, so they
// cannot sit behind the approved-session gate); everything else under /api/
// requires an approved session.
func New(h Handlers, gate middleware.SessionGate, allowedOrigins []string) http.Handler {
	protected := http.NewServeMux()
	h.Auth.RegisterProtected(protected)
	h.Reports.Register(protected)
	h.Accounts.Register(protected)
	h.Audit.Register(protected)

	root := http.NewServeMux()
	h.Health.Register(root)
	h.Auth.Register(root)
	// Exact public patterns above take precedence over this subtree.
	root.Handle("/api/", middleware.Auth(gate)(protected))

	var handler http.Handler = root
	handler = middleware.Telemetry()(handler)
	handler = middleware.RecordClientIP(handler)
	handler = middleware.CORS(allowedOrigins)(handler)
	return handler
}
