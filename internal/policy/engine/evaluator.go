package engine

import (
	"context"

	accountdomain "report-api/internal/account/domain"
)

// Resource identifies what an action targets: its kind and, when applicable,
// the account that owns it.
type Resource struct {
	Kind    string
	OwnerID string
}

// Actions evaluated by the policy engine.
const (
	ActionReportCreate  = "report.create"
	ActionReportUpdate  = "report.update"
	ActionReportDelete  = "report.delete"
	ActionAccountCreate = "account.create"
	ActionAccountList   = "account.list"
	ActionAuditList     = "audit.list"
)

// Evaluator decides whether an account may perform an action on a resource.
// Account.Privileged stays the pure primitive; the evaluator is the
// policy-driven gate layered on top of it.
type Evaluator interface {
	Allow(ctx context.Context, account *accountdomain.Account, action string, resource Resource) (bool, error)
}
