// Package audit records who did what: auth transitions and report mutations.
// Logging is best-effort; a failed audit write never fails the user request.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"report-api/internal/audit/domain"
	auditrepo "report-api/internal/audit/repository"
)

// Auth/report actions recorded by the service layer.
const (
	ActionLoginIssued   = "login_issued"
	ActionLoginReissued = "login_reissued"
	ActionLoginVerified = "login_verified"
	ActionLoginFailed   = "login_failed"
	ActionLogout        = "logout"
	ActionReportCreated = "report_created"
	ActionReportUpdated = "report_updated"
	ActionReportDeleted = "report_deleted"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, accountID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP
// extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor
// for the client IP. ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit entry. Best-effort: errors are logged, not returned.
func (l *Logger) LogEvent(ctx context.Context, accountID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.Entry{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Append(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
