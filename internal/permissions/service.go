package permissions

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/praxis-pm/praxis/internal/platform/db"
)

// ErrInvalidToken indicates a resource or action outside the [A-Z_]+ alphabet.
var ErrInvalidToken = errors.New("permissions: resource and action must match [A-Z_]+")

// CacheInvalidator clears derived permission caches after registry changes.
type CacheInvalidator interface {
	ClearAll()
}

// Registry owns the catalog of grantable permissions.
type Registry struct {
	repo   Repository
	caches CacheInvalidator
}

// NewRegistry constructs a Registry. caches may be nil when no verification
// cache is attached (tests, seed scripts).
func NewRegistry(repo Repository, caches CacheInvalidator) *Registry {
	return &Registry{repo: repo, caches: caches}
}

// Create registers a new permission. The (resource, action) pair is normalized
// to uppercase before the uniqueness check. Returns (nil, nil) when the pair
// already exists; duplicates are a recoverable outcome, not an error.
func (s *Registry) Create(ctx context.Context, resource, action, description string) (*Permission, error) {
	resource = strings.ToUpper(strings.TrimSpace(resource))
	action = strings.ToUpper(strings.TrimSpace(action))
	if !Valid(resource + ":" + action) {
		return nil, ErrInvalidToken
	}

	exists, err := s.repo.ExistsByResourceAndAction(ctx, resource, action)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	created, err := s.repo.Insert(ctx, Permission{
		ID:          uuid.New(),
		Resource:    resource,
		Action:      action,
		Description: strings.TrimSpace(description),
		Active:      true,
	})
	if err != nil {
		// Concurrent create of the same pair loses the race but stays a no-op.
		if db.IsUniqueViolation(err) {
			return nil, nil
		}
		return nil, err
	}
	return &created, nil
}

// FindByID fetches a permission by id.
func (s *Registry) FindByID(ctx context.Context, id uuid.UUID) (Permission, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByResource returns all permissions under a resource.
func (s *Registry) FindByResource(ctx context.Context, resource string) ([]Permission, error) {
	return s.repo.FindByResource(ctx, strings.ToUpper(strings.TrimSpace(resource)))
}

// FindByResourceAndAction fetches the unique permission for a pair.
func (s *Registry) FindByResourceAndAction(ctx context.Context, resource, action string) (Permission, error) {
	return s.repo.FindByResourceAndAction(ctx,
		strings.ToUpper(strings.TrimSpace(resource)),
		strings.ToUpper(strings.TrimSpace(action)))
}

// FindAll returns every permission.
func (s *Registry) FindAll(ctx context.Context) ([]Permission, error) {
	return s.repo.FindAll(ctx)
}

// FindAllActive returns active permissions only.
func (s *Registry) FindAllActive(ctx context.Context) ([]Permission, error) {
	return s.repo.FindAllActive(ctx)
}

// Activate marks a permission active. A missing id is a silent no-op.
func (s *Registry) Activate(ctx context.Context, id uuid.UUID) error {
	return s.setActive(ctx, id, true)
}

// Deactivate marks a permission inactive without touching junction rows.
// A missing id is a silent no-op.
func (s *Registry) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.setActive(ctx, id, false)
}

func (s *Registry) setActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	// The affected user set is unknown without a join, so clear everyone.
	if s.caches != nil {
		s.caches.ClearAll()
	}
	return nil
}

// Delete removes a permission. Grants referencing it dangle and stop matching.
func (s *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.caches != nil {
		s.caches.ClearAll()
	}
	return nil
}
