// Package store defines the document store the service persists through: named
// JSON documents read and replaced wholesale. Repositories layer typed maps on
// top of it (accounts, sessions, reports, audit).
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when the named document does not exist.
var ErrNotFound = errors.New("store: document not found")

// UpdateFunc transforms the current raw document into its replacement.
// raw is nil when the document does not exist yet.
type UpdateFunc func(raw json.RawMessage) (json.RawMessage, error)

// Store is a key-value document store. Documents are whole JSON values keyed
// by name; there is no partial-update API.
type Store interface {
	// Get returns the current content of the named document.
	Get(ctx context.Context, name string) (json.RawMessage, error)
	// Put replaces the named document wholesale, creating it if absent.
	Put(ctx context.Context, name string, raw json.RawMessage) error
	// Update applies fn to the named document as a single read-modify-write.
	// Implementations must not interleave two Updates on the same name.
	Update(ctx context.Context, name string, fn UpdateFunc) error
}

// Document names used by the service.
const (
	DocAccounts = "accounts"
	DocSessions = "sessions"
	DocReports  = "reports"
	DocAudit    = "audit"
)
