package rbac

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/praxis-pm/praxis/internal/audit"
	"github.com/praxis-pm/praxis/internal/permissions"
	"github.com/praxis-pm/praxis/internal/roles"
	"github.com/praxis-pm/praxis/internal/shared"
	"github.com/praxis-pm/praxis/internal/users"
)

// memStore is an in-memory Store keeping an operation log so tests can assert
// the ordering of junction writes relative to their audit entries.
type memStore struct {
	grants      map[string]RolePermission
	assignments map[string]UserRole
	audits      []audit.Entry
	ops         []string

	roleDir *memRoleDir
	permDir *memPermDir

	effectiveCalls int
	roleNamesCalls int
}

func pairKey(a, b uuid.UUID) string {
	return a.String() + "|" + b.String()
}

func newMemStore(roleDir *memRoleDir, permDir *memPermDir) *memStore {
	return &memStore{
		grants:      make(map[string]RolePermission),
		assignments: make(map[string]UserRole),
		roleDir:     roleDir,
		permDir:     permDir,
	}
}

func (s *memStore) GrantExists(_ context.Context, roleID, permissionID uuid.UUID) (bool, error) {
	_, ok := s.grants[pairKey(roleID, permissionID)]
	return ok, nil
}

func (s *memStore) GrantsByRole(_ context.Context, roleID uuid.UUID) ([]RolePermission, error) {
	var out []RolePermission
	for _, g := range s.grants {
		if g.RoleID == roleID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *memStore) PermissionsByRole(_ context.Context, roleID uuid.UUID) ([]permissions.Permission, error) {
	var out []permissions.Permission
	for _, g := range s.grants {
		if g.RoleID != roleID {
			continue
		}
		if p, ok := s.permDir.perms[g.PermissionID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) CreateGrant(_ context.Context, grant RolePermission, entry audit.Entry) error {
	s.grants[pairKey(grant.RoleID, grant.PermissionID)] = grant
	s.ops = append(s.ops, "insert_grant")
	s.audits = append(s.audits, entry)
	s.ops = append(s.ops, "audit")
	return nil
}

func (s *memStore) DeleteGrant(_ context.Context, roleID, permissionID uuid.UUID, entry audit.Entry) error {
	s.audits = append(s.audits, entry)
	s.ops = append(s.ops, "audit")
	delete(s.grants, pairKey(roleID, permissionID))
	s.ops = append(s.ops, "delete_grant")
	return nil
}

func (s *memStore) AssignmentExists(_ context.Context, userID, roleID uuid.UUID) (bool, error) {
	_, ok := s.assignments[pairKey(userID, roleID)]
	return ok, nil
}

func (s *memStore) AssignmentsByUser(_ context.Context, userID uuid.UUID) ([]UserRole, error) {
	var out []UserRole
	for _, a := range s.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) AssignmentsByRole(_ context.Context, roleID uuid.UUID) ([]UserRole, error) {
	var out []UserRole
	for _, a := range s.assignments {
		if a.RoleID == roleID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) CreateAssignment(_ context.Context, assignment UserRole, entry audit.Entry) error {
	s.assignments[pairKey(assignment.UserID, assignment.RoleID)] = assignment
	s.ops = append(s.ops, "insert_assignment")
	s.audits = append(s.audits, entry)
	s.ops = append(s.ops, "audit")
	return nil
}

func (s *memStore) DeleteAssignment(_ context.Context, userID, roleID uuid.UUID, entry audit.Entry) error {
	s.audits = append(s.audits, entry)
	s.ops = append(s.ops, "audit")
	delete(s.assignments, pairKey(userID, roleID))
	s.ops = append(s.ops, "delete_assignment")
	return nil
}

func (s *memStore) EffectivePermissions(_ context.Context, userID uuid.UUID) ([]permissions.Permission, error) {
	s.effectiveCalls++
	seen := make(map[uuid.UUID]bool)
	var out []permissions.Permission
	for _, a := range s.assignments {
		if a.UserID != userID {
			continue
		}
		role, ok := s.roleDir.roles[a.RoleID]
		if !ok || !role.Active {
			continue
		}
		for _, g := range s.grants {
			if g.RoleID != a.RoleID {
				continue
			}
			p, ok := s.permDir.perms[g.PermissionID]
			if !ok || !p.Active || seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) ActiveRoleNames(_ context.Context, userID uuid.UUID) ([]string, error) {
	s.roleNamesCalls++
	var out []string
	for _, a := range s.assignments {
		if a.UserID != userID {
			continue
		}
		if role, ok := s.roleDir.roles[a.RoleID]; ok && role.Active {
			out = append(out, role.Name)
		}
	}
	return out, nil
}

type memRoleDir struct {
	roles map[uuid.UUID]roles.Role
}

func (d *memRoleDir) FindByID(_ context.Context, id uuid.UUID) (roles.Role, error) {
	if r, ok := d.roles[id]; ok {
		return r, nil
	}
	return roles.Role{}, shared.ErrNotFound
}

type memPermDir struct {
	perms map[uuid.UUID]permissions.Permission
}

func (d *memPermDir) FindByID(_ context.Context, id uuid.UUID) (permissions.Permission, error) {
	if p, ok := d.perms[id]; ok {
		return p, nil
	}
	return permissions.Permission{}, shared.ErrNotFound
}

func (d *memPermDir) FindByResourceAndAction(_ context.Context, resource, action string) (permissions.Permission, error) {
	for _, p := range d.perms {
		if p.Resource == resource && p.Action == action {
			return p, nil
		}
	}
	return permissions.Permission{}, shared.ErrNotFound
}

type memUserDir struct {
	users map[uuid.UUID]users.User
}

func (d *memUserDir) FindByID(_ context.Context, id uuid.UUID) (users.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return users.User{}, shared.ErrNotFound
}

func (d *memUserDir) FindByEmail(_ context.Context, email string) (users.User, error) {
	email = strings.ToLower(email)
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return users.User{}, shared.ErrNotFound
}

// fixture wires the kernel against the in-memory fakes.
type fixture struct {
	store       *memStore
	roleDir     *memRoleDir
	permDir     *memPermDir
	userDir     *memUserDir
	cache       *Cache
	verifier    *Verifier
	grants      *GrantService
	assignments *AssignmentService
	guard       *Guard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	roleDir := &memRoleDir{roles: make(map[uuid.UUID]roles.Role)}
	permDir := &memPermDir{perms: make(map[uuid.UUID]permissions.Permission)}
	userDir := &memUserDir{users: make(map[uuid.UUID]users.User)}
	store := newMemStore(roleDir, permDir)
	c := NewCache(16, time.Minute)
	verifier := NewVerifier(store, permDir, c)
	logger := slog.New(slog.DiscardHandler)
	return &fixture{
		store:       store,
		roleDir:     roleDir,
		permDir:     permDir,
		userDir:     userDir,
		cache:       c,
		verifier:    verifier,
		grants:      NewGrantService(store, roleDir, permDir, verifier, logger),
		assignments: NewAssignmentService(store, userDir, roleDir, verifier, logger),
		guard:       NewGuard(verifier, userDir, nil),
	}
}

func (f *fixture) addUser(email string) users.User {
	u := users.User{ID: uuid.New(), Email: email}
	f.userDir.users[u.ID] = u
	return u
}

func (f *fixture) addRole(name string) roles.Role {
	r := roles.Role{ID: uuid.New(), Name: name, Active: true, CreatedAt: time.Now().UTC()}
	f.roleDir.roles[r.ID] = r
	return r
}

func (f *fixture) addPermission(resource, action string) permissions.Permission {
	p := permissions.Permission{ID: uuid.New(), Resource: resource, Action: action, Active: true}
	f.permDir.perms[p.ID] = p
	return p
}

func (f *fixture) setRoleActive(id uuid.UUID, active bool) {
	r := f.roleDir.roles[id]
	r.Active = active
	f.roleDir.roles[id] = r
}

func (f *fixture) setPermissionActive(id uuid.UUID, active bool) {
	p := f.permDir.perms[id]
	p.Active = active
	f.permDir.perms[id] = p
}
