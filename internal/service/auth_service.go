package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmr/account-service/internal/auth"
	"github.com/dmr/account-service/internal/domain"
	"github.com/dmr/account-service/internal/repository"
)

// AuthService orchestrates signup, login, profile lookup and logout. It holds
// no per-request state; every call stands alone.
type AuthService struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	log    *slog.Logger
}

func NewAuthService(users repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenManager, log *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
	}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User  *domain.User
	Token string
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	// Existence pre-check. This races with concurrent signups; the store's
	// unique constraint is what actually prevents a second row.
	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailExists
	}

	user, err := s.users.Create(ctx, input.Name, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.log.Info("user signed up", "userId", user.ID, "email", user.Email)
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.users.GetByEmailWithSecret(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same failure as a wrong password, so callers cannot
			// tell which emails have accounts.
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	s.log.Info("user logged in", "userId", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Logout is advisory. Tokens are stateless, so there is nothing to invalidate
// server side; the client discards its copy.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	s.log.Info("user logged out", "userId", userID)
	return nil
}

func (s *AuthService) ValidateToken(tokenString string) (*auth.Claims, error) {
	return s.tokens.Verify(tokenString)
}
