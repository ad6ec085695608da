package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/praxis-pm/praxis/internal/platform/db"
)

// DefaultRole is the legacy coarse role label applied at registration.
const DefaultRole = "USER"

// Service handles user account business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new account with a bcrypt-hashed password. Returns
// (nil, nil) when the email is already taken.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Insert(ctx, User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         DefaultRole,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, nil
		}
		return nil, err
	}
	return &created, nil
}

// FindByID fetches a user by id.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByEmail fetches a user by email.
func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// FindAll returns every user.
func (s *Service) FindAll(ctx context.Context) ([]User, error) {
	return s.repo.FindAll(ctx)
}

// UpdateProfile merges the present fields of upd into the stored user.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (User, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if upd.FirstName != nil {
		existing.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		existing.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Password != nil && *upd.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		existing.PasswordHash = string(hash)
	}

	return s.repo.Save(ctx, existing)
}
