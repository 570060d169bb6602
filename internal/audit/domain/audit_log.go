package domain

import "time"

// Entry is one audit log record for an auth or report action.
type Entry struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
