package rbac

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/praxis-pm/praxis/internal/permissions"
	"github.com/praxis-pm/praxis/internal/shared"
)

// Verifier is the read-path decision service. It answers permission and role
// queries from a per-user write-invalidate cache, falling back to the store
// on a miss.
type Verifier struct {
	store Store
	perms PermissionDirectory
	cache *Cache
	group singleflight.Group
}

// NewVerifier builds a Verifier over the given store and permission registry.
func NewVerifier(store Store, perms PermissionDirectory, cache *Cache) *Verifier {
	if cache == nil {
		cache = NewCache(0, 0)
	}
	return &Verifier{store: store, perms: perms, cache: cache}
}

// HasPermission reports whether the permission string matches the user's
// effective permission set, case-insensitively.
func (v *Verifier) HasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	key := strings.ToUpper(strings.TrimSpace(permission))
	if cached, ok := v.cache.Check(userID, key); ok {
		return cached, nil
	}

	perms, err := v.GetUserPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	granted := false
	for _, p := range perms {
		if strings.EqualFold(p.String(), key) {
			granted = true
			break
		}
	}
	v.cache.StoreCheck(userID, key, granted)
	return granted, nil
}

// HasAnyPermission reports whether at least one of the permissions matches.
// Each sub-check goes through HasPermission so it benefits from the cache
// independently.
func (v *Verifier) HasAnyPermission(ctx context.Context, userID uuid.UUID, perms []string) (bool, error) {
	for _, p := range perms {
		ok, err := v.HasPermission(ctx, userID, p)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// HasAllPermissions reports whether every permission matches.
func (v *Verifier) HasAllPermissions(ctx context.Context, userID uuid.UUID, perms []string) (bool, error) {
	for _, p := range perms {
		ok, err := v.HasPermission(ctx, userID, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// HasRole reports whether the user holds an active role with the given name,
// case-insensitively. Assignments to inactive roles never count.
func (v *Verifier) HasRole(ctx context.Context, userID uuid.UUID, roleName string) (bool, error) {
	key := strings.ToUpper(strings.TrimSpace(roleName))
	if cached, ok := v.cache.RoleCheck(userID, key); ok {
		return cached, nil
	}

	names, err := v.store.ActiveRoleNames(ctx, userID)
	if err != nil {
		return false, err
	}
	member := false
	for _, name := range names {
		if strings.EqualFold(name, key) {
			member = true
			break
		}
	}
	v.cache.StoreRoleCheck(userID, key, member)
	return member, nil
}

// Exists checks whether a declared permission string resolves to a registered
// permission. Malformed strings are unmatchable, not errors.
func (v *Verifier) Exists(ctx context.Context, permission string) (bool, error) {
	resource, action, err := permissions.Parse(strings.ToUpper(strings.TrimSpace(permission)))
	if err != nil {
		return false, nil
	}
	if _, err := v.perms.FindByResourceAndAction(ctx, resource, action); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetUserPermissions returns the user's effective permission set, computing
// and caching it on a miss. Concurrent misses for the same user collapse into
// one store query.
func (v *Verifier) GetUserPermissions(ctx context.Context, userID uuid.UUID) ([]permissions.Permission, error) {
	if cached, ok := v.cache.PermissionSet(userID); ok {
		return cached, nil
	}

	result, err, _ := v.group.Do(userID.String(), func() (any, error) {
		perms, err := v.store.EffectivePermissions(ctx, userID)
		if err != nil {
			return nil, err
		}
		v.cache.StorePermissionSet(userID, perms)
		return perms, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]permissions.Permission), nil
}

// ClearUserPermissionCache invalidates every cache entry scoped to one user.
func (v *Verifier) ClearUserPermissionCache(userID uuid.UUID) {
	v.cache.ClearUser(userID)
}

// ClearAll invalidates every cache bucket for every user. Used after any
// role-to-permission topology change since the affected user set is unknown
// without an extra query.
func (v *Verifier) ClearAll() {
	v.cache.ClearAll()
}
