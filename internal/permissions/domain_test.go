package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	resource, action, err := Parse("PROJECT:READ")
	require.NoError(t, err)
	require.Equal(t, "PROJECT", resource)
	require.Equal(t, "READ", action)

	resource, action, err = Parse("AUDIT_LOG:VIEW_ALL")
	require.NoError(t, err)
	require.Equal(t, "AUDIT_LOG", resource)
	require.Equal(t, "VIEW_ALL", action)
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{
		"",
		"PROJECT",
		"PROJECT:",
		":READ",
		"project:read",
		"PROJECT:READ:EXTRA",
		"PROJECT READ",
		"PROJECT-X:READ",
		"PROJECT:READ ",
	} {
		_, _, err := Parse(s)
		require.ErrorIs(t, err, ErrMalformed, "input %q", s)
	}
}

func TestPermissionString(t *testing.T) {
	p := Permission{Resource: "TASK", Action: "WRITE"}
	require.Equal(t, "TASK:WRITE", p.String())
}
