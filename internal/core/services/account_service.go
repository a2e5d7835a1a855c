package services

import (
	"context"
	"fmt"

	"github.com/maidsafe/safeload/internal/core/domain"
	"github.com/maidsafe/safeload/internal/core/ports"
)

// AccountService creates funded test accounts outside of a run
type AccountService struct {
	client ports.SafeClient
}

// NewAccountService creates a new account service
func NewAccountService(client ports.SafeClient) *AccountService {
	return &AccountService{
		client: client,
	}
}

// AccountCreateRequest represents a request to create a test account
type AccountCreateRequest struct {
	Preload          string
	PersistAsDefault bool
}

// Execute creates the account
func (s *AccountService) Execute(ctx context.Context, req AccountCreateRequest) (*domain.Account, error) {
	if req.Preload == "" {
		return nil, fmt.Errorf("preload amount is required")
	}

	account, err := s.client.CreateAccount(ctx, ports.AccountRequest{
		Preload:          req.Preload,
		PersistAsDefault: req.PersistAsDefault,
	})
	if err != nil {
		return nil, domain.NewStepError(domain.AccountCreationFailed, domain.NoIndex, err)
	}

	return account, nil
}
