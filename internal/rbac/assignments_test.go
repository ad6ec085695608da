package rbac

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/praxis-pm/praxis/internal/audit"
)

func TestAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser("alice@example.com")
	role := f.addRole("MEMBER")
	actor := f.addUser("admin@example.com")

	assignment, err := f.assignments.Assign(ctx, user.ID, role.ID, &actor.ID, "onboarding")
	require.NoError(t, err)
	require.NotNil(t, assignment)
	require.Equal(t, user.ID, assignment.UserID)
	require.Equal(t, actor.ID, *assignment.AssignedBy)

	require.Len(t, f.store.audits, 1)
	entry := f.store.audits[0]
	require.Equal(t, audit.ActionAssignRole, entry.Action)
	require.Equal(t, user.ID, *entry.UserID)
	require.Equal(t, role.ID, *entry.RoleID)
	require.Equal(t, actor.ID, *entry.PerformedBy)
	require.Equal(t, "onboarding", entry.Reason)
}

func TestAssignDuplicateIsSoftNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser("alice@example.com")
	role := f.addRole("MEMBER")

	first, err := f.assignments.Assign(ctx, user.ID, role.ID, nil, "")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := f.assignments.Assign(ctx, user.ID, role.ID, nil, "")
	require.NoError(t, err)
	require.Nil(t, second)
	require.Len(t, f.store.audits, 1)
}

func TestAssignUnresolvedReferencesAreSoftNoops(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser("alice@example.com")
	role := f.addRole("MEMBER")

	got, err := f.assignments.Assign(ctx, uuid.New(), role.ID, nil, "")
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = f.assignments.Assign(ctx, user.ID, uuid.New(), nil, "")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestAssignUnknownActorRecordedAsAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser("alice@example.com")
	role := f.addRole("MEMBER")
	ghost := uuid.New()

	assignment, err := f.assignments.Assign(ctx, user.ID, role.ID, &ghost, "")
	require.NoError(t, err)
	require.NotNil(t, assignment)
	require.Nil(t, assignment.AssignedBy)
	require.Nil(t, f.store.audits[0].PerformedBy)
}

func TestAssignInvalidatesOnlyAffectedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.addRole("MEMBER")
	perm := f.addPermission("PROJECT", "READ")
	alice := f.addUser("alice@example.com")
	bob := f.addUser("bob@example.com")

	_, err := f.grants.Grant(ctx, role.ID, perm.ID, nil)
	require.NoError(t, err)
	_, err = f.assignments.Assign(ctx, bob.ID, role.ID, nil, "")
	require.NoError(t, err)

	// Prime both users. Alice has nothing yet.
	ok, err := f.verifier.HasPermission(ctx, alice.ID, "PROJECT:READ")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = f.verifier.HasPermission(ctx, bob.ID, "PROJECT:READ")
	require.NoError(t, err)
	require.True(t, ok)

	calls := f.store.effectiveCalls

	_, err = f.assignments.Assign(ctx, alice.ID, role.ID, nil, "")
	require.NoError(t, err)

	// Alice's next check recomputes and flips to granted.
	ok, err = f.verifier.HasPermission(ctx, alice.ID, "PROJECT:READ")
	require.NoError(t, err)
	require.True(t, ok)

	// Bob's cached entry survived the assign: no extra store query.
	ok, err = f.verifier.HasPermission(ctx, bob.ID, "PROJECT:READ")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, calls+1, f.store.effectiveCalls)
}

func TestRevokeAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser("alice@example.com")
	role := f.addRole("MEMBER")
	perm := f.addPermission("PROJECT", "READ")

	_, err := f.grants.Grant(ctx, role.ID, perm.ID, nil)
	require.NoError(t, err)
	_, err = f.assignments.Assign(ctx, user.ID, role.ID, nil, "")
	require.NoError(t, err)

	ok, err := f.verifier.HasPermission(ctx, user.ID, "PROJECT:READ")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, f.assignments.Revoke(ctx, user.ID, role.ID, nil, "offboarding"))

	ok, err = f.verifier.HasPermission(ctx, user.ID, "PROJECT:READ")
	require.NoError(t, err)
	require.False(t, ok)

	last := f.store.audits[len(f.store.audits)-1]
	require.Equal(t, audit.ActionRevokeRole, last.Action)
	require.Equal(t, "offboarding", last.Reason)
}

func TestRevokeAssignmentAuditsBeforeDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser("alice@example.com")
	role := f.addRole("MEMBER")

	_, err := f.assignments.Assign(ctx, user.ID, role.ID, nil, "")
	require.NoError(t, err)

	f.store.ops = nil
	require.NoError(t, f.assignments.Revoke(ctx, user.ID, role.ID, nil, ""))
	require.Equal(t, []string{"audit", "delete_assignment"}, f.store.ops)
}

func TestRevokeMissingAssignmentIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.assignments.Revoke(context.Background(), uuid.New(), uuid.New(), nil, ""))
	require.Empty(t, f.store.audits)
}

func TestUserHasRoleBypassesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.addUser("alice@example.com")
	role := f.addRole("MEMBER")

	has, err := f.assignments.UserHasRole(ctx, user.ID, role.ID)
	require.NoError(t, err)
	require.False(t, has)

	_, err = f.assignments.Assign(ctx, user.ID, role.ID, nil, "")
	require.NoError(t, err)

	has, err = f.assignments.UserHasRole(ctx, user.ID, role.ID)
	require.NoError(t, err)
	require.True(t, has)
}
