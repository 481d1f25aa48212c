package models

import (
	"time"

	"github.com/google/uuid"
)

// Account providers
const (
	ProviderLocal    = "local"    // registered with username and password
	ProviderImplicit = "implicit" // created as the recipient of a transfer
)

// User represents a user record in the database
type User struct {
	UserID       uuid.UUID `json:"user_id" db:"user_id"`       // Primary key
	Username     string    `json:"username" db:"username"`     // Unique username, case-insensitive
	Email        *string   `json:"email,omitempty" db:"email"` // Optional email
	PasswordHash *string   `json:"-" db:"password_hash"`       // Hashed password, nil for implicit accounts
	Provider     string    `json:"provider" db:"provider"`     // How the account was created
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // Creation timestamp
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // Last update timestamp
}

// Identity is the verified caller of an operation.
type Identity struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
}

// NewIdentity builds the identity of a stored user.
func NewIdentity(u *User) Identity {
	id := Identity{ID: u.UserID, Username: u.Username}
	if u.Email != nil {
		id.Email = *u.Email
	}
	return id
}
