package user

import (
	"errors"
	"time"
)

// Staff roles. Admin manages settings and accounts, nurse and triage work
// the bed board and queue.
const (
	RoleAdmin  = "admin"
	RoleNurse  = "nurse"
	RoleTriage = "triage"
)

// ValidRole reports whether role is one of the staff roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleNurse, RoleTriage:
		return true
	}
	return false
}

// User is a staff account. The password hash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactive           = errors.New("account is disabled")
	ErrInvalidRole        = errors.New("invalid role")
	ErrMissingField       = errors.New("missing required field")
)
