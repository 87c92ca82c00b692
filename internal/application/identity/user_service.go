// Package identity registers riders and signs them in.
package identity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/movr/backend/internal/application/unitofwork"
	"github.com/movr/backend/internal/domain/identity"
	"github.com/movr/backend/internal/domain/shared"
)

// Messages returned to API clients
const (
	MsgUserCreated = "User successfully created"
	MsgUserDeleted = "You have successfully deleted your account."
	MsgNoEmail     = "No user email provided."
	MsgNoUser      = "No user to delete"
)

// TokenIssuer signs an access token for an authenticated email
type TokenIssuer interface {
	IssueToken(email string) (string, error)
}

// RegisterInput carries a registration request
type RegisterInput struct {
	Email        string
	FirstName    string
	LastName     string
	PhoneNumbers []string
}

// LoginResult is returned on successful login
type LoginResult struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	AccessToken     string `json:"access_token,omitempty"`
}

// UserService manages rider accounts
type UserService struct {
	scope  unitofwork.TransactionScope
	tokens TokenIssuer
	logger *zap.Logger
}

// NewUserService creates a UserService. tokens may be nil, in which case
// login succeeds without issuing a token.
func NewUserService(scope unitofwork.TransactionScope, tokens TokenIssuer, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{scope: scope, tokens: tokens, logger: logger}
}

// Register creates a rider account; a taken email is rejected
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*identity.User, error) {
	u, err := identity.NewUser(in.Email, in.FirstName, in.LastName, in.PhoneNumbers)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		exists, err := repos.Users().ExistsByEmail(ctx, u.Email)
		if err != nil {
			return err
		}
		if exists {
			return identity.ErrUserExists
		}
		if err := repos.Users().Create(ctx, &u); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return identity.ErrUserExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("email", u.Email))
	return &u, nil
}

// Profile returns the account for an email
func (s *UserService) Profile(ctx context.Context, email string) (*identity.User, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, shared.InvalidInput(MsgNoEmail)
	}
	return s.find(ctx, email)
}

// Login authenticates by email and issues an access token
func (s *UserService) Login(ctx context.Context, email string) (*LoginResult, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, shared.InvalidInput("No email provided.")
	}
	if _, err := s.find(ctx, email); err != nil {
		return nil, err
	}

	result := &LoginResult{IsAuthenticated: true}
	if s.tokens != nil {
		token, err := s.tokens.IssueToken(email)
		if err != nil {
			return nil, fmt.Errorf("issue token: %w", err)
		}
		result.AccessToken = token
	}
	s.logger.Info("User logged in", zap.String("email", email))
	return result, nil
}

// Delete removes an account. Riders with ride records are kept so the
// ride ledger stays complete.
func (s *UserService) Delete(ctx context.Context, email string) error {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return shared.InvalidInput(MsgNoEmail)
	}

	err := s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		rides, err := repos.Rides().CountByUser(ctx, email)
		if err != nil {
			return err
		}
		if rides > 0 {
			return shared.Conflict("User has ride history and cannot be deleted")
		}
		err = repos.Users().Delete(ctx, email)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound(MsgNoUser)
		}
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info("User deleted", zap.String("email", email))
	return nil
}

func (s *UserService) find(ctx context.Context, email string) (*identity.User, error) {
	var u *identity.User
	err := s.scope.Execute(ctx, func(repos unitofwork.Repositories) error {
		var err error
		u, err = repos.Users().FindByEmail(ctx, email)
		if errors.Is(err, shared.ErrNotFound) {
			return identity.ErrUserNotFound(email)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
