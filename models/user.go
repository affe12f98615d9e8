package models

import (
	"time"

	"github.com/google/uuid"
)

// Role governs visibility and mutation rights across the application
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleLegalAnalyst Role = "legal_analyst"
	RoleUser         Role = "user"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLegalAnalyst, RoleUser:
		return true
	}
	return false
}

// Profile represents a user account
type Profile struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserWithRole is a profile joined with its single role, used by the
// user-administration view
type UserWithRole struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}
