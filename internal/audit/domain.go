package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action tags the kind of authorization mutation an entry documents.
type Action string

// Audit actions recorded by the grant and assignment write paths.
const (
	ActionAssignRole       Action = "ASSIGN_ROLE"
	ActionRevokeRole       Action = "REVOKE_ROLE"
	ActionGrantPermission  Action = "GRANT_PERMISSION"
	ActionRevokePermission Action = "REVOKE_PERMISSION"
)

// Entry is one append-only audit record. The subject references are optional:
// role grants carry role+permission, assignments carry user+role.
type Entry struct {
	ID           uuid.UUID  `json:"id"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	RoleID       *uuid.UUID `json:"role_id,omitempty"`
	PermissionID *uuid.UUID `json:"permission_id,omitempty"`
	Action       Action     `json:"action"`
	PerformedBy  *uuid.UUID `json:"performed_by,omitempty"`
	PerformedAt  time.Time  `json:"performed_at"`
	Reason       string     `json:"reason,omitempty"`
}

// RangeFilter selects entries inside a closed time range.
type RangeFilter struct {
	From time.Time
	To   time.Time
}
