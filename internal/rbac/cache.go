package rbac

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/praxis-pm/praxis/internal/permissions"
)

// Cache holds the verification engine's three logical cache spaces, bucketed
// per user: individual permission-check results, the computed effective
// permission set, and role-membership results. Bucketing by user keeps
// per-user invalidation a single LRU removal.
//
// The TTL is a safety net only. Correctness relies on the write paths
// invalidating explicitly after their store commit.
type Cache struct {
	entries *expirable.LRU[uuid.UUID, *userEntry]
}

type userEntry struct {
	mu     sync.RWMutex
	checks map[string]bool
	roles  map[string]bool
	perms  []permissions.Permission
	hasSet bool
}

// NewCache builds a cache bounded to size users with a safety-net TTL.
// A non-positive ttl disables expiry.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1024
	}
	return &Cache{entries: expirable.NewLRU[uuid.UUID, *userEntry](size, nil, ttl)}
}

func (c *Cache) bucket(userID uuid.UUID) *userEntry {
	if e, ok := c.entries.Get(userID); ok {
		return e
	}
	e := &userEntry{checks: make(map[string]bool), roles: make(map[string]bool)}
	c.entries.Add(userID, e)
	return e
}

// Check returns a cached permission-check result.
func (c *Cache) Check(userID uuid.UUID, permission string) (value, ok bool) {
	e, found := c.entries.Get(userID)
	if !found {
		return false, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	value, ok = e.checks[permission]
	return value, ok
}

// StoreCheck records a permission-check result.
func (c *Cache) StoreCheck(userID uuid.UUID, permission string, value bool) {
	e := c.bucket(userID)
	e.mu.Lock()
	e.checks[permission] = value
	e.mu.Unlock()
}

// PermissionSet returns the cached effective permission set.
func (c *Cache) PermissionSet(userID uuid.UUID) ([]permissions.Permission, bool) {
	e, found := c.entries.Get(userID)
	if !found {
		return nil, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.hasSet {
		return nil, false
	}
	return e.perms, true
}

// StorePermissionSet records the effective permission set. The slice must not
// be mutated by the caller afterwards.
func (c *Cache) StorePermissionSet(userID uuid.UUID, perms []permissions.Permission) {
	e := c.bucket(userID)
	e.mu.Lock()
	e.perms = perms
	e.hasSet = true
	e.mu.Unlock()
}

// RoleCheck returns a cached role-membership result.
func (c *Cache) RoleCheck(userID uuid.UUID, roleName string) (value, ok bool) {
	e, found := c.entries.Get(userID)
	if !found {
		return false, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	value, ok = e.roles[roleName]
	return value, ok
}

// StoreRoleCheck records a role-membership result.
func (c *Cache) StoreRoleCheck(userID uuid.UUID, roleName string, value bool) {
	e := c.bucket(userID)
	e.mu.Lock()
	e.roles[roleName] = value
	e.mu.Unlock()
}

// ClearUser drops every cached entry scoped to one user.
func (c *Cache) ClearUser(userID uuid.UUID) {
	c.entries.Remove(userID)
}

// ClearAll drops every cache bucket for every user.
func (c *Cache) ClearAll() {
	c.entries.Purge()
}
