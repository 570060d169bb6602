package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"

	accountdomain "report-api/internal/account/domain"
)

const policyQuery = "data.reportapi.access.allow"

// Default Rego policy: admins may do everything; any authenticated account may
// create reports; authors may update or delete their own reports.
const defaultRegoPolicy = `package reportapi.access

default allow = false

allow if {
	input.account.privileged
}

allow if {
	input.action == "report.create"
	input.account.id != ""
}

allow if {
	input.action in {"report.update", "report.delete"}
	input.resource.owner_id == input.account.id
	input.account.id != ""
}
`

// OPAEvaluator evaluates access decisions with an embedded OPA Rego policy.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles the default policy and returns an evaluator.
func NewOPAEvaluator(ctx context.Context) (*OPAEvaluator, error) {
	q, err := rego.New(
		rego.Query(policyQuery),
		rego.Module("access.rego", defaultRegoPolicy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: compile: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// Allow evaluates the policy for the given account, action, and resource.
// A nil account is never allowed.
func (e *OPAEvaluator) Allow(ctx context.Context, account *accountdomain.Account, action string, resource Resource) (bool, error) {
	if account == nil {
		return false, nil
	}
	input := map[string]interface{}{
		"account": map[string]interface{}{
			"id":         account.ID,
			"role":       string(account.Role),
			"privileged": account.Privileged(),
		},
		"action": action,
		"resource": map[string]interface{}{
			"kind":     resource.Kind,
			"owner_id": resource.OwnerID,
		},
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("policy: eval: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}
