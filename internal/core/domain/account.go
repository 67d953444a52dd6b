package domain

import (
	"errors"
	"time"
)

// Role scopes what an authenticated account may do. The set is closed:
// any other value is rejected at the boundary rather than stored.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSeller   Role = "seller"
	RoleCustomer Role = "customer"
)

// IsValid reports whether r is one of the recognized role tags.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSeller, RoleCustomer:
		return true
	}
	return false
}

var ErrMissingFields = errors.New("all fields required")
var ErrEmailExists = errors.New("email already exists")
var ErrAccountNotFound = errors.New("account not found or role mismatch")
var ErrInvalidCredentials = errors.New("invalid credentials")

// Account is the sole persistent entity of the auth core. Email is the
// primary key, unique across all accounts regardless of role.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountRef is what a successful login hands back to the caller: the
// account's role and an opaque identifier, never the hash. The caller is
// trusted to present these on subsequent requests; no token is minted.
type AccountRef struct {
	ID   string `json:"user_id"`
	Role Role   `json:"role"`
}
