package users

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. The Role field is a coarse legacy
// label kept for compatibility; authorization decisions go through RBAC only.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProfileUpdate carries a partial self-service profile update.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Password  *string
}
