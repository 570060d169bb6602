package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	accountdomain "report-api/internal/account/domain"
	accountrepo "report-api/internal/account/repository"
	sessiondomain "report-api/internal/session/domain"
	sessionrepo "report-api/internal/session/repository"
	"report-api/internal/store"
)

func newTestService(t *testing.T) (*AuthService, *accountrepo.DocStoreRepository, *sessionrepo.DocStoreRepository) {
	t.Helper()
	mem := store.NewMemoryStore()
	accounts := accountrepo.NewDocStoreRepository(mem)
	sessions := sessionrepo.NewDocStoreRepository(mem)
	return NewAuthService(accounts, sessions, nil, nil), accounts, sessions
}

func seedAccount(t *testing.T, accounts *accountrepo.DocStoreRepository, name string) *accountdomain.Account {
	t.Helper()
	a := &accountdomain.Account{
		ID:          "acct-" + name,
		DisplayName: name,
		Role:        accountdomain.RoleMember,
		Phone:       "15550001111",
		Email:       name + "@example.com",
		AccessToken: "token-" + name,
		CreatedAt:   time.Now().UTC(),
	}
	if err := accounts.Create(context.Background(), a); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func usernameCreds(name string) sessiondomain.Credentials {
	return sessiondomain.Credentials{Method: sessiondomain.MethodUsername, Value: name}
}

func storedSession(t *testing.T, sessions *sessionrepo.DocStoreRepository, token string) *sessiondomain.Session {
	t.Helper()
	s, err := sessions.GetByToken(context.Background(), token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	return s
}

func TestLogin_UnknownAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Login(context.Background(), usernameCreds("nobody"))
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestLogin_InvalidMethod(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	seedAccount(t, accounts, "alice")
	_, err := svc.Login(context.Background(), sessiondomain.Credentials{Method: "passport", Value: "alice"})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestLogin_IssuesPendingSession(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	a := seedAccount(t, accounts, "alice")

	res, err := svc.Login(context.Background(), usernameCreds("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Status != StatusIssued {
		t.Errorf("status = %q, want issued", res.Status)
	}
	if res.AccessToken != a.AccessToken {
		t.Errorf("token = %q, want the account's current token %q", res.AccessToken, a.AccessToken)
	}

	sess := storedSession(t, sessions, res.AccessToken)
	if sess == nil {
		t.Fatal("no session stored under the issued token")
	}
	if sess.Approved {
		t.Error("new session should be pending, not approved")
	}
	if sess.StartTime != nil {
		t.Error("pending session must not have a start time")
	}
	if len(sess.Code) != 6 {
		t.Errorf("code length = %d, want 6", len(sess.Code))
	}
	if sess.AccountID != a.ID {
		t.Errorf("session account = %q, want %q", sess.AccountID, a.ID)
	}
	if sess.Credentials != usernameCreds("alice") {
		t.Errorf("session credentials = %+v, want the login credentials", sess.Credentials)
	}
}

func TestLogin_SecondLoginOverwritesPendingSession(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	a := seedAccount(t, accounts, "alice")
	ctx := context.Background()

	first, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	codeBefore := storedSession(t, sessions, first.AccessToken).Code

	second, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if second.Status != StatusIssued {
		t.Errorf("status = %q, want issued (pending sessions are replaced, not superseded)", second.Status)
	}
	if second.AccessToken != a.AccessToken {
		t.Errorf("token changed to %q; replacing a pending session must keep the account token", second.AccessToken)
	}
	sess := storedSession(t, sessions, second.AccessToken)
	if sess.Code == codeBefore {
		t.Error("replacing a pending session should issue a fresh code")
	}
	all, err := sessions.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("session count = %d, want 1", len(all))
	}
}

func TestVerifyLogin_ApprovesWithCorrectCode(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	seedAccount(t, accounts, "alice")
	ctx := context.Background()

	res, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	code := storedSession(t, sessions, res.AccessToken).Code

	vres, err := svc.VerifyLogin(ctx, res.AccessToken, code)
	if err != nil {
		t.Fatalf("VerifyLogin: %v", err)
	}
	if vres.Status != StatusApproved {
		t.Errorf("status = %q, want approved", vres.Status)
	}
	sess := storedSession(t, sessions, res.AccessToken)
	if !sess.Approved {
		t.Error("session should be approved")
	}
	if sess.StartTime == nil {
		t.Error("approved session must record a start time")
	}
}

func TestVerifyLogin_WrongCodeDoesNotMutate(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	a := seedAccount(t, accounts, "alice")
	ctx := context.Background()

	res, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	code := storedSession(t, sessions, res.AccessToken).Code

	// Every wrong attempt is an independent comparison: no lockout, no
	// state change, no token rotation.
	for i := 0; i < 3; i++ {
		_, err := svc.VerifyLogin(ctx, res.AccessToken, "wrong")
		if !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidCode", i, err)
		}
	}

	sess := storedSession(t, sessions, res.AccessToken)
	if sess.Approved {
		t.Error("failed verification must not approve the session")
	}
	if sess.Code != code {
		t.Error("failed verification must not change the code")
	}
	got, err := accounts.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AccessToken != res.AccessToken {
		t.Error("failed verification must not rotate the account token")
	}

	// The original code still works afterwards.
	if _, err := svc.VerifyLogin(ctx, res.AccessToken, code); err != nil {
		t.Fatalf("VerifyLogin with correct code after failures: %v", err)
	}
}

func TestVerifyLogin_UnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.VerifyLogin(context.Background(), "no-such-token", "123456")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestVerifyLogin_ClearedCodeIsExpired(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	seedAccount(t, accounts, "alice")
	ctx := context.Background()

	res, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	sess := storedSession(t, sessions, res.AccessToken)
	sess.Code = ""
	if err := sessions.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}

	_, err = svc.VerifyLogin(ctx, res.AccessToken, "123456")
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("err = %v, want ErrCodeExpired", err)
	}
}

func approve(t *testing.T, svc *AuthService, sessions *sessionrepo.DocStoreRepository, token string) {
	t.Helper()
	code := storedSession(t, sessions, token).Code
	if _, err := svc.VerifyLogin(context.Background(), token, code); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func TestLogin_SupersedesApprovedSession(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	a := seedAccount(t, accounts, "alice")
	ctx := context.Background()

	first, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	t1 := first.AccessToken
	c1 := storedSession(t, sessions, t1).Code
	approve(t, svc, sessions, t1)

	second, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if second.Status != StatusReissued {
		t.Errorf("status = %q, want reissued", second.Status)
	}
	t2 := second.AccessToken
	if t2 == t1 {
		t.Fatal("superseding must rotate the access token")
	}

	// Old token is dead everywhere.
	if _, err := svc.RequireApprovedSession(ctx, t1); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("old token RequireApprovedSession err = %v, want ErrUnauthenticated", err)
	}
	if _, err := svc.VerifyLogin(ctx, t1, c1); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("old token VerifyLogin err = %v, want ErrUnauthenticated", err)
	}

	// New session is pending under the rotated token with a fresh code.
	sess := storedSession(t, sessions, t2)
	if sess == nil {
		t.Fatal("no session under the new token")
	}
	if sess.Approved {
		t.Error("reissued session must be pending")
	}
	if sess.Code == c1 {
		t.Error("reissued session must carry a fresh code")
	}
	if sess.Credentials != usernameCreds("alice") {
		t.Error("reissued session must replay the original credentials")
	}

	got, err := accounts.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AccessToken != t2 {
		t.Errorf("account token = %q, want the reissued token %q", got.AccessToken, t2)
	}

	all, err := sessions.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("session count = %d, want exactly 1 after supersession", len(all))
	}
}

func TestVerifyLogin_OnApprovedSessionSupersedes(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	seedAccount(t, accounts, "alice")
	ctx := context.Background()

	res, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	t1 := res.AccessToken
	code := storedSession(t, sessions, t1).Code
	approve(t, svc, sessions, t1)

	// A second verification against the live approved session forces the
	// same cascade as Login.
	vres, err := svc.VerifyLogin(ctx, t1, code)
	if err != nil {
		t.Fatalf("VerifyLogin on approved session: %v", err)
	}
	if vres.Status != StatusReissued {
		t.Errorf("status = %q, want reissued", vres.Status)
	}
	if vres.AccessToken == "" || vres.AccessToken == t1 {
		t.Errorf("reissued token = %q, want a fresh token", vres.AccessToken)
	}
	if _, err := svc.RequireApprovedSession(ctx, t1); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("old token err = %v, want ErrUnauthenticated", err)
	}
	sess := storedSession(t, sessions, vres.AccessToken)
	if sess == nil || sess.Approved {
		t.Error("reissued session must exist and be pending")
	}
}

func TestLogout_RemovesSessionAndRotatesToken(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	a := seedAccount(t, accounts, "alice")
	ctx := context.Background()

	res, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	approve(t, svc, sessions, res.AccessToken)

	removed, err := svc.Logout(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if removed.AccountID != a.ID {
		t.Errorf("removed session account = %q, want %q", removed.AccountID, a.ID)
	}
	if removed.Credentials != usernameCreds("alice") {
		t.Error("Logout must return the removed session with its credentials")
	}

	if _, err := svc.RequireApprovedSession(ctx, res.AccessToken); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("old token err = %v, want ErrUnauthenticated", err)
	}
	got, err := accounts.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AccessToken == res.AccessToken {
		t.Error("Logout must rotate the account token")
	}
	all, err := sessions.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("session count = %d, want 0 after logout", len(all))
	}
}

func TestLogout_PendingSessionAllowed(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	seedAccount(t, accounts, "alice")
	ctx := context.Background()

	res, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	removed, err := svc.Logout(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("Logout of pending session: %v", err)
	}
	if removed.Approved {
		t.Error("removed session should have been pending")
	}
}

func TestLogout_UnknownTokenNoAccountMutation(t *testing.T) {
	svc, accounts, _ := newTestService(t)
	a := seedAccount(t, accounts, "alice")
	ctx := context.Background()

	_, err := svc.Logout(ctx, "already-removed")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	got, err := accounts.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AccessToken != a.AccessToken {
		t.Error("failed logout must not rotate any account token")
	}
}

func TestRequireApprovedSession(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	a := seedAccount(t, accounts, "alice")
	ctx := context.Background()

	if _, err := svc.RequireApprovedSession(ctx, ""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("empty token err = %v, want ErrUnauthenticated", err)
	}

	res, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.RequireApprovedSession(ctx, res.AccessToken); !errors.Is(err, ErrSessionNotApproved) {
		t.Errorf("pending token err = %v, want ErrSessionNotApproved", err)
	}

	approve(t, svc, sessions, res.AccessToken)
	got, err := svc.RequireApprovedSession(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("RequireApprovedSession: %v", err)
	}
	if got.ID != a.ID {
		t.Errorf("account = %q, want %q", got.ID, a.ID)
	}
}

func TestPendingCode(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	seedAccount(t, accounts, "alice")
	ctx := context.Background()

	if _, err := svc.PendingCode(ctx, "no-such-token"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("unknown token err = %v, want ErrUnauthenticated", err)
	}

	res, err := svc.Login(ctx, usernameCreds("alice"))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	code, err := svc.PendingCode(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("PendingCode: %v", err)
	}
	if code != storedSession(t, sessions, res.AccessToken).Code {
		t.Error("PendingCode must return the stored code")
	}

	approve(t, svc, sessions, res.AccessToken)
	if _, err := svc.PendingCode(ctx, res.AccessToken); !errors.Is(err, ErrSessionNotPending) {
		t.Errorf("approved session err = %v, want ErrSessionNotPending", err)
	}
}

func TestSingleApprovedSessionInvariant(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	seedAccount(t, accounts, "alice")
	seedAccount(t, accounts, "bob")
	ctx := context.Background()

	// Repeated full login cycles per account; at every step at most one
	// approved session may exist per account.
	for i := 0; i < 5; i++ {
		for _, name := range []string{"alice", "bob"} {
			res, err := svc.Login(ctx, usernameCreds(name))
			if err != nil {
				t.Fatalf("Login %s: %v", name, err)
			}
			approve(t, svc, sessions, res.AccessToken)

			all, err := sessions.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			approvedPerAccount := make(map[string]int)
			for _, s := range all {
				if s.Approved {
					approvedPerAccount[s.AccountID]++
				}
			}
			for id, n := range approvedPerAccount {
				if n > 1 {
					t.Fatalf("account %s has %d approved sessions", id, n)
				}
			}
		}
	}
}

func TestConcurrentLogins_ExactlyOneSession(t *testing.T) {
	svc, accounts, sessions := newTestService(t)
	seedAccount(t, accounts, "alice")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Login(ctx, usernameCreds("alice")); err != nil {
				t.Errorf("Login: %v", err)
			}
		}()
	}
	wg.Wait()

	all, err := sessions.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("session count = %d, want exactly 1 for a single account", len(all))
	}
	if all[0].Approved {
		t.Error("racing logins must leave a pending session")
	}
}
