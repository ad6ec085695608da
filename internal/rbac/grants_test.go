package rbac

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/praxis-pm/praxis/internal/audit"
)

func TestGrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.addRole("EDITOR")
	perm := f.addPermission("DOC", "WRITE")
	actor := f.addUser("admin@example.com")

	grant, err := f.grants.Grant(ctx, role.ID, perm.ID, &actor.ID)
	require.NoError(t, err)
	require.NotNil(t, grant)
	require.Equal(t, role.ID, grant.RoleID)
	require.Equal(t, perm.ID, grant.PermissionID)

	require.Len(t, f.store.audits, 1)
	entry := f.store.audits[0]
	require.Equal(t, audit.ActionGrantPermission, entry.Action)
	require.Equal(t, role.ID, *entry.RoleID)
	require.Equal(t, perm.ID, *entry.PermissionID)
	require.Equal(t, actor.ID, *entry.PerformedBy)
}

func TestGrantDuplicateIsSoftNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.addRole("EDITOR")
	perm := f.addPermission("DOC", "WRITE")

	first, err := f.grants.Grant(ctx, role.ID, perm.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.grants.Grant(ctx, role.ID, perm.ID, nil)
	require.NoError(t, err)
	require.Nil(t, second)

	// The duplicate left no trace in the audit log.
	require.Len(t, f.store.audits, 1)
}

func TestGrantUnresolvedReferencesAreSoftNoops(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.addRole("EDITOR")
	perm := f.addPermission("DOC", "WRITE")

	grant, err := f.grants.Grant(ctx, uuid.New(), perm.ID, nil)
	require.NoError(t, err)
	require.Nil(t, grant)

	grant, err = f.grants.Grant(ctx, role.ID, uuid.New(), nil)
	require.NoError(t, err)
	require.Nil(t, grant)

	require.Empty(t, f.store.audits)
}

func TestGrantInvalidatesEveryUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.addRole("EDITOR")
	perm := f.addPermission("DOC", "WRITE")
	alice := f.addUser("alice@example.com")
	bob := f.addUser("bob@example.com")

	_, err := f.assignments.Assign(ctx, alice.ID, role.ID, nil, "")
	require.NoError(t, err)
	_, err = f.assignments.Assign(ctx, bob.ID, role.ID, nil, "")
	require.NoError(t, err)

	// Prime both caches with a negative result.
	ok, err := f.verifier.HasPermission(ctx, alice.ID, "DOC:WRITE")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = f.verifier.HasPermission(ctx, bob.ID, "DOC:WRITE")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = f.grants.Grant(ctx, role.ID, perm.ID, nil)
	require.NoError(t, err)

	// Both users see the new grant immediately.
	ok, err = f.verifier.HasPermission(ctx, alice.ID, "DOC:WRITE")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = f.verifier.HasPermission(ctx, bob.ID, "DOC:WRITE")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRevokeGrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.addRole("EDITOR")
	perm := f.addPermission("DOC", "WRITE")
	user := f.addUser("alice@example.com")

	_, err := f.assignments.Assign(ctx, user.ID, role.ID, nil, "")
	require.NoError(t, err)
	_, err = f.grants.Grant(ctx, role.ID, perm.ID, nil)
	require.NoError(t, err)

	ok, err := f.verifier.HasPermission(ctx, user.ID, "DOC:WRITE")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, f.grants.Revoke(ctx, role.ID, perm.ID, nil))

	ok, err = f.verifier.HasPermission(ctx, user.ID, "DOC:WRITE")
	require.NoError(t, err)
	require.False(t, ok)

	last := f.store.audits[len(f.store.audits)-1]
	require.Equal(t, audit.ActionRevokePermission, last.Action)
}

func TestRevokeMissingGrantIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.grants.Revoke(context.Background(), uuid.New(), uuid.New(), nil))
	require.Empty(t, f.store.audits)
}

func TestRevokeAuditsBeforeDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.addRole("EDITOR")
	perm := f.addPermission("DOC", "WRITE")

	_, err := f.grants.Grant(ctx, role.ID, perm.ID, nil)
	require.NoError(t, err)

	f.store.ops = nil
	require.NoError(t, f.grants.Revoke(ctx, role.ID, perm.ID, nil))
	require.Equal(t, []string{"audit", "delete_grant"}, f.store.ops)
}

func TestListPermissionsByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.addRole("EDITOR")
	read := f.addPermission("DOC", "READ")
	write := f.addPermission("DOC", "WRITE")

	_, err := f.grants.Grant(ctx, role.ID, read.ID, nil)
	require.NoError(t, err)
	_, err = f.grants.Grant(ctx, role.ID, write.ID, nil)
	require.NoError(t, err)

	perms, err := f.grants.ListPermissionsByRole(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 2)

	has, err := f.grants.RoleHasPermission(ctx, role.ID, read.ID)
	require.NoError(t, err)
	require.True(t, has)
}
