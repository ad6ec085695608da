package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/praxis-pm/praxis/internal/shared"
	"github.com/praxis-pm/praxis/internal/users"
)

// Service handles credential checks and token lifecycle.
type Service struct {
	users  *users.Service
	tokens *TokenManager
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(userSvc *users.Service, tokens *TokenManager, logger *slog.Logger) *Service {
	return &Service{users: userSvc, tokens: tokens, logger: logger}
}

// Login verifies the credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth: lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", shared.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, user.Email)
	if err != nil {
		return "", err
	}
	s.logger.Info("user logged in", slog.String("email", user.Email))
	return token, nil
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}
