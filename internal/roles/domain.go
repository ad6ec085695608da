package roles

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a named bundle of permissions assignable to users.
type Role struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Update carries a partial role update. Nil fields are left untouched.
type Update struct {
	Description *string
	Active      *bool
}
