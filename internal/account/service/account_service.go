// Package service implements admin-gated account management.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"report-api/internal/account/domain"
	"report-api/internal/policy/engine"
	"report-api/internal/security"
)

// ErrPermissionDenied is returned when the caller may not manage accounts.
var ErrPermissionDenied = errors.New("account may not perform this action")

// AccountRepo is the minimal account repository needed by the service.
type AccountRepo interface {
	Create(ctx context.Context, a *domain.Account) error
	List(ctx context.Context) ([]*domain.Account, error)
}

// AccountService lists and creates accounts on behalf of an admin caller.
type AccountService struct {
	repo   AccountRepo
	policy engine.Evaluator
	now    func() time.Time
}

// NewAccountService returns an AccountService with the given dependencies.
func NewAccountService(repo AccountRepo, policy engine.Evaluator) *AccountService {
	return &AccountService{
		repo:   repo,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *AccountService) allow(ctx context.Context, caller *domain.Account, action string) error {
	ok, err := s.policy.Allow(ctx, caller, action, engine.Resource{Kind: "account"})
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// List returns all accounts. Admin only.
func (s *AccountService) List(ctx context.Context, caller *domain.Account) ([]*domain.Account, error) {
	if err := s.allow(ctx, caller, engine.ActionAccountList); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Create registers a new account with a fresh access token. Admin only.
func (s *AccountService) Create(ctx context.Context, caller *domain.Account, displayName string, role domain.Role, phone, email string) (*domain.Account, error) {
	if err := s.allow(ctx, caller, engine.ActionAccountCreate); err != nil {
		return nil, err
	}
	token, err := security.GenerateAccessToken()
	if err != nil {
		return nil, err
	}
	a := &domain.Account{
		ID:          uuid.New().String(),
		DisplayName: displayName,
		Role:        role,
		Phone:       phone,
		Email:       email,
		AccessToken: token,
		CreatedAt:   s.now(),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
