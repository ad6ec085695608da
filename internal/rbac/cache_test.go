package rbac

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/praxis-pm/praxis/internal/permissions"
)

func TestCacheCheckRoundTrip(t *testing.T) {
	c := NewCache(8, time.Minute)
	user := uuid.New()

	_, ok := c.Check(user, "PROJECT:READ")
	require.False(t, ok)

	c.StoreCheck(user, "PROJECT:READ", true)
	v, ok := c.Check(user, "PROJECT:READ")
	require.True(t, ok)
	require.True(t, v)

	c.StoreCheck(user, "PROJECT:WRITE", false)
	v, ok = c.Check(user, "PROJECT:WRITE")
	require.True(t, ok)
	require.False(t, v)
}

func TestCachePermissionSet(t *testing.T) {
	c := NewCache(8, time.Minute)
	user := uuid.New()

	_, ok := c.PermissionSet(user)
	require.False(t, ok)

	// An empty set is still a valid cached value.
	c.StorePermissionSet(user, nil)
	perms, ok := c.PermissionSet(user)
	require.True(t, ok)
	require.Empty(t, perms)

	c.StorePermissionSet(user, []permissions.Permission{{Resource: "PROJECT", Action: "READ"}})
	perms, ok = c.PermissionSet(user)
	require.True(t, ok)
	require.Len(t, perms, 1)
}

func TestClearUserLeavesOthersIntact(t *testing.T) {
	c := NewCache(8, time.Minute)
	alice := uuid.New()
	bob := uuid.New()

	c.StoreCheck(alice, "PROJECT:READ", true)
	c.StoreRoleCheck(alice, "MEMBER", true)
	c.StoreCheck(bob, "PROJECT:READ", true)

	c.ClearUser(alice)

	_, ok := c.Check(alice, "PROJECT:READ")
	require.False(t, ok)
	_, ok = c.RoleCheck(alice, "MEMBER")
	require.False(t, ok)

	v, ok := c.Check(bob, "PROJECT:READ")
	require.True(t, ok)
	require.True(t, v)
}

func TestClearAll(t *testing.T) {
	c := NewCache(8, time.Minute)
	alice := uuid.New()
	bob := uuid.New()

	c.StoreCheck(alice, "PROJECT:READ", true)
	c.StorePermissionSet(bob, nil)

	c.ClearAll()

	_, ok := c.Check(alice, "PROJECT:READ")
	require.False(t, ok)
	_, ok = c.PermissionSet(bob)
	require.False(t, ok)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewCache(8, 20*time.Millisecond)
	user := uuid.New()

	c.StoreCheck(user, "PROJECT:READ", true)
	_, ok := c.Check(user, "PROJECT:READ")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok := c.Check(user, "PROJECT:READ")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
