// Package service implements the session lifecycle: challenge login, code
// verification, logout with access-token rotation, and forced supersession of
// a still-approved session when its account logs in again.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	accountdomain "report-api/internal/account/domain"
	"report-api/internal/audit"
	"report-api/internal/notify"
	"report-api/internal/security"
	sessiondomain "report-api/internal/session/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses.
// The service always surfaces the precise kind and never coerces one into
// another.
var (
	ErrAccountNotFound    = errors.New("no account matches the given credentials")
	ErrUnauthenticated    = errors.New("access token is not authenticated")
	ErrSessionNotPending  = errors.New("session is not pending")
	ErrSessionNotApproved = errors.New("session is not approved")
	ErrCodeExpired        = errors.New("session has no active verification code")
	ErrInvalidCode        = errors.New("verification code does not match")
	ErrSessionNotFound    = errors.New("session not found")
)

// Status distinguishes a fresh login from one that invalidated a previous
// session, so clients can show the right message.
type Status string

const (
	StatusIssued   Status = "issued"
	StatusReissued Status = "reissued"
	StatusApproved Status = "approved"
)

// LoginResult is the outcome of Login: the token the client must present to
// VerifyLogin, and whether a previous session was superseded.
type LoginResult struct {
	AccessToken string
	Status      Status
}

// VerifyResult is the outcome of VerifyLogin. Status is StatusApproved for a
// successful verification, StatusReissued when a live approved session forced
// a supersession instead. AccessToken is set only on the reissued path (the
// old token is dead after rotation).
type VerifyResult struct {
	Status      Status
	AccessToken string
}

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	Find(ctx context.Context, method sessiondomain.Method, value string) (*accountdomain.Account, error)
	Update(ctx context.Context, a *accountdomain.Account) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByToken(ctx context.Context, token string) (*sessiondomain.Session, error)
	Put(ctx context.Context, s *sessiondomain.Session) error
	Delete(ctx context.Context, token string) (*sessiondomain.Session, error)
}

// AuthService is the session state machine. A single mutex serializes every
// mutating operation, so the supersession cascade (logout + reissue) is one
// logical transaction: no other in-process request observes the intermediate
// state. With two service instances on a shared external store that window
// reopens; see DESIGN.md.
type AuthService struct {
	mu          sync.Mutex
	accountRepo AccountRepo
	sessionRepo SessionRepo
	notifier    notify.Notifier
	audit       audit.AuditLogger
	now         func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
// notifier and auditLogger may be nil.
func NewAuthService(accountRepo AccountRepo, sessionRepo SessionRepo, notifier notify.Notifier, auditLogger audit.AuditLogger) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		notifier:    notifier,
		audit:       auditLogger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Login resolves credentials to an account and issues a pending session with
// a fresh verification code. If the account already has an approved session,
// that session is forcibly logged out first (rotating the account's token)
// and the result is StatusReissued.
func (s *AuthService) Login(ctx context.Context, creds sessiondomain.Credentials) (*LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, existing, err := s.resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Approved {
		token, err := s.supersede(ctx, existing)
		if err != nil {
			return nil, err
		}
		return &LoginResult{AccessToken: token, Status: StatusReissued}, nil
	}
	// Absent or still pending: a new session overwrites any stale pending
	// entry under the same token.
	token, err := s.issue(ctx, account, creds)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, Status: StatusIssued}, nil
}

// VerifyLogin checks the submitted one-time code for the session stored under
// token. A correct code approves the session; a second verification against an
// already-approved session triggers the same supersession cascade as Login.
func (s *AuthService) VerifyLogin(ctx context.Context, token, submittedCode string) (*VerifyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrUnauthenticated
	}
	if sess.Approved {
		// A second verification raced a live approved session.
		newToken, err := s.supersede(ctx, sess)
		if err != nil {
			return nil, err
		}
		return &VerifyResult{Status: StatusReissued, AccessToken: newToken}, nil
	}
	if sess.Code == "" {
		return nil, ErrCodeExpired
	}
	// Exact comparison: case-sensitive, no normalization. A mismatch leaves
	// the session untouched; every attempt is an independent check.
	if submittedCode != sess.Code {
		return nil, ErrInvalidCode
	}

	sess.Approved = true
	start := s.now()
	sess.StartTime = &start
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return nil, err
	}
	if s.audit != nil {
		s.audit.LogEvent(ctx, sess.AccountID, audit.ActionLoginVerified, "session", "")
	}
	return &VerifyResult{Status: StatusApproved}, nil
}

// Logout removes the session stored under token and rotates the owning
// account's access token, making the old token permanently unusable. Returns
// the removed session; its credentials are what the supersession cascade
// replays.
func (s *AuthService) Logout(ctx context.Context, token string) (*sessiondomain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logout(ctx, token)
}

// RequireApprovedSession is the gate every protected endpoint calls first.
// It resolves token to an approved session's account and fails closed:
// unknown tokens are ErrUnauthenticated, pending sessions ErrSessionNotApproved.
func (s *AuthService) RequireApprovedSession(ctx context.Context, token string) (*accountdomain.Account, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	sess, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrUnauthenticated
	}
	if !sess.Approved {
		return nil, ErrSessionNotApproved
	}
	account, err := s.accountRepo.GetByID(ctx, sess.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.AccessToken != token {
		return nil, ErrUnauthenticated
	}
	return account, nil
}

// PendingCode returns the active verification code for a pending session.
// Exposed only through the dev-mode endpoint; production builds refuse to
// enable it.
func (s *AuthService) PendingCode(ctx context.Context, token string) (string, error) {
	sess, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrUnauthenticated
	}
	if sess.Approved {
		return "", ErrSessionNotPending
	}
	if sess.Code == "" {
		return "", ErrCodeExpired
	}
	return sess.Code, nil
}

// resolve maps credentials to an account and the session currently stored
// under the account's token, if any.
func (s *AuthService) resolve(ctx context.Context, creds sessiondomain.Credentials) (*accountdomain.Account, *sessiondomain.Session, error) {
	if !creds.Valid() {
		return nil, nil, ErrAccountNotFound
	}
	account, err := s.accountRepo.Find(ctx, creds.Method, creds.Value)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		if s.audit != nil {
			s.audit.LogEvent(ctx, "", audit.ActionLoginFailed, "session", string(creds.Method))
		}
		return nil, nil, ErrAccountNotFound
	}
	sess, err := s.sessionRepo.GetByToken(ctx, account.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	return account, sess, nil
}

// issue creates a pending session for account under its current token and
// hands the code to the notifier. Delivery is best-effort: a notifier failure
// never fails the login.
func (s *AuthService) issue(ctx context.Context, account *accountdomain.Account, creds sessiondomain.Credentials) (string, error) {
	code, err := security.GenerateVerificationCode()
	if err != nil {
		return "", err
	}
	sess := &sessiondomain.Session{
		Credentials: creds,
		AccountID:   account.ID,
		Code:        code,
		Approved:    false,
		AccessToken: account.AccessToken,
	}
	if err := s.sessionRepo.Put(ctx, sess); err != nil {
		return "", err
	}
	if s.notifier != nil {
		if err := s.notifier.SendCode(ctx, account, code); err != nil {
			log.Printf("auth: code delivery for account %s failed: %v", account.ID, err)
		}
	}
	if s.audit != nil {
		s.audit.LogEvent(ctx, account.ID, audit.ActionLoginIssued, "session", "")
	}
	return account.AccessToken, nil
}

// supersede forcibly logs out an approved session and issues a fresh pending
// one with the same credentials. It is a single bounded step, not a recursive
// call through Login: after the logout the account's token slot is empty by
// construction, and we verify that instead of assuming it.
func (s *AuthService) supersede(ctx context.Context, existing *sessiondomain.Session) (string, error) {
	removed, err := s.logout(ctx, existing.AccessToken)
	if err != nil {
		return "", err
	}
	account, stale, err := s.resolve(ctx, removed.Credentials)
	if err != nil {
		return "", err
	}
	if stale != nil && stale.Approved {
		// Logout rotated the token, so the fresh token cannot map to an
		// approved session. If it does, the store broke the postcondition;
		// bail out rather than cascade again.
		return "", fmt.Errorf("auth: account %s still has an approved session after logout", account.ID)
	}
	token, err := s.issue(ctx, account, removed.Credentials)
	if err != nil {
		return "", err
	}
	if s.audit != nil {
		s.audit.LogEvent(ctx, account.ID, audit.ActionLoginReissued, "session", "")
	}
	return token, nil
}

// logout performs the atomic check-and-delete of the session and rotates the
// owning account's access token. Caller must hold s.mu.
func (s *AuthService) logout(ctx context.Context, token string) (*sessiondomain.Session, error) {
	removed, err := s.sessionRepo.Delete(ctx, token)
	if err != nil {
		return nil, err
	}
	if removed == nil {
		// Concurrent logout already removed it; no account mutation.
		return nil, ErrSessionNotFound
	}
	account, err := s.accountRepo.GetByID(ctx, removed.AccountID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		fresh, err := security.GenerateAccessToken()
		if err != nil {
			return nil, err
		}
		account.AccessToken = fresh
		if err := s.accountRepo.Update(ctx, account); err != nil {
			return nil, err
		}
	}
	if s.audit != nil {
		s.audit.LogEvent(ctx, removed.AccountID, audit.ActionLogout, "session", "")
	}
	return removed, nil
}
