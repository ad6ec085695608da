package roles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praxis-pm/praxis/internal/platform/db"
)

// ErrNameRequired indicates a create call with an empty role name.
var ErrNameRequired = errors.New("roles: role name required")

// CacheInvalidator clears derived permission caches after registry changes.
type CacheInvalidator interface {
	ClearAll()
}

// Registry owns named roles and their active/inactive lifecycle.
type Registry struct {
	repo   Repository
	caches CacheInvalidator
}

// NewRegistry constructs a Registry. caches may be nil.
func NewRegistry(repo Repository, caches CacheInvalidator) *Registry {
	return &Registry{repo: repo, caches: caches}
}

// Create registers a new role. Returns (nil, nil) when the name is taken.
func (s *Registry) Create(ctx context.Context, name, description string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	exists, err := s.repo.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	created, err := s.repo.Insert(ctx, Role{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, nil
		}
		return nil, err
	}
	return &created, nil
}

// FindByID fetches a role by id.
func (s *Registry) FindByID(ctx context.Context, id uuid.UUID) (Role, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByName fetches a role by its unique name.
func (s *Registry) FindByName(ctx context.Context, name string) (Role, error) {
	return s.repo.FindByName(ctx, strings.TrimSpace(name))
}

// FindAll returns every role.
func (s *Registry) FindAll(ctx context.Context) ([]Role, error) {
	return s.repo.FindAll(ctx)
}

// FindAllActive returns active roles only.
func (s *Registry) FindAllActive(ctx context.Context) ([]Role, error) {
	return s.repo.FindAllActive(ctx)
}

// ApplyUpdate merges the present fields of upd into the stored role. Absent
// fields are left untouched; in particular a nil Active never deactivates.
func (s *Registry) ApplyUpdate(ctx context.Context, id uuid.UUID, upd Update) (Role, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Role{}, err
	}

	changedActive := false
	if upd.Description != nil {
		existing.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Active != nil && existing.Active != *upd.Active {
		existing.Active = *upd.Active
		changedActive = true
	}

	saved, err := s.repo.Save(ctx, existing)
	if err != nil {
		return Role{}, err
	}
	if changedActive && s.caches != nil {
		s.caches.ClearAll()
	}
	return saved, nil
}

// Activate marks a role active. A missing id is a silent no-op.
func (s *Registry) Activate(ctx context.Context, id uuid.UUID) error {
	return s.setActive(ctx, id, true)
}

// Deactivate marks a role inactive. Assignments and grants survive; the role
// simply stops contributing to effective permission sets.
func (s *Registry) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.setActive(ctx, id, false)
}

func (s *Registry) setActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	if s.caches != nil {
		s.caches.ClearAll()
	}
	return nil
}

// Delete removes a role. Junction rows referencing it dangle.
func (s *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.caches != nil {
		s.caches.ClearAll()
	}
	return nil
}
