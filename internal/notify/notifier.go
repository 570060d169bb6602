// Package notify delivers one-time verification codes out-of-band. The auth
// core only hands a code to a Notifier; it never inspects delivery success.
package notify

import (
	"context"
	"log"

	accountdomain "report-api/internal/account/domain"
)

// Notifier delivers a verification code to the account's phone or email.
type Notifier interface {
	SendCode(ctx context.Context, account *accountdomain.Account, code string) error
}

// LogNotifier is a dev Notifier that only logs that a code was issued. It
// never logs the code itself.
type LogNotifier struct{}

// SendCode logs the delivery target and returns nil.
func (LogNotifier) SendCode(ctx context.Context, account *accountdomain.Account, code string) error {
	log.Printf("notify: verification code issued for account %s", account.ID)
	return nil
}

// NoopNotifier discards codes. Used in tests.
type NoopNotifier struct{}

// SendCode does nothing.
func (NoopNotifier) SendCode(ctx context.Context, account *accountdomain.Account, code string) error {
	return nil
}
