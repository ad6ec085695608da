package permissions

import (
	"errors"
	"regexp"

	"github.com/google/uuid"
)

// Permission represents an atomic (resource, action) capability.
type Permission struct {
	ID          uuid.UUID `json:"id"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
}

// String returns the canonical RESOURCE:ACTION form.
func (p Permission) String() string {
	return p.Resource + ":" + p.Action
}

var permissionPattern = regexp.MustCompile(`^([A-Z_]+):([A-Z_]+)$`)

// ErrMalformed indicates a permission string that does not match RESOURCE:ACTION.
var ErrMalformed = errors.New("permissions: malformed permission string")

// Parse splits a RESOURCE:ACTION string into its parts. Lowercase input,
// missing colon, and extra segments are rejected.
func Parse(s string) (resource, action string, err error) {
	m := permissionPattern.FindStringSubmatch(s)
	if m == nil {
		return "", "", ErrMalformed
	}
	return m[1], m[2], nil
}

// Valid reports whether s is a well-formed permission string.
func Valid(s string) bool {
	return permissionPattern.MatchString(s)
}
