package domain

import "time"

// Method is the identifier kind a login presents.
type Method string

const (
	MethodUsername Method = "username"
	MethodPhone    Method = "phone"
	MethodEmail    Method = "email"
)

// Credentials is a lookup key for resolving an account. It is never stored on
// its own; sessions carry a copy so a superseded session can be replayed.
type Credentials struct {
	Method Method `json:"method"`
	Value  string `json:"value"`
}

// Valid reports whether the credentials name a known method and a value.
func (c Credentials) Valid() bool {
	switch c.Method {
	case MethodUsername, MethodPhone, MethodEmail:
		return c.Value != ""
	}
	return false
}

// Session is one authentication attempt, keyed by the account's access token
// in the session store. Approved false means the one-time code has not been
// verified yet (pending). StartTime is set when the session is approved.
type Session struct {
	Credentials Credentials `json:"credentials"`
	AccountID   string      `json:"account_id"`
	Code        string      `json:"verification_code"`
	Approved    bool        `json:"approved"`
	StartTime   *time.Time  `json:"start_time,omitempty"`
	AccessToken string      `json:"access_token"`
}
