package domain

import (
	"errors"
	"time"
)

// Account is a registered identity. AccessToken is the account's current
// bearer secret; logout rotates it, which is what invalidates old sessions.
type Account struct {
	ID          string    `json:"account_id"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token"`
	CreatedAt   time.Time `json:"created_at"`
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Privileged reports whether the account may perform admin-only operations
// (account management, deleting others' reports).
func (a *Account) Privileged() bool {
	return a != nil && a.Role == RoleAdmin
}

// Validate validates the account for persistence.
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("account id is required")
	}
	if a.DisplayName == "" {
		return errors.New("display name is required")
	}
	if a.Role == "" {
		a.Role = RoleMember
	}
	if a.Role != RoleAdmin && a.Role != RoleMember {
		return errors.New("role must be admin or member")
	}
	return nil
}
