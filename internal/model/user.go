package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is a user's authorization level.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// UserStore defines persistence operations for users.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	// CreateWithSession stores user and its first refresh token atomically.
	CreateWithSession(ctx context.Context, user User, session RefreshToken) (User, error)
	// GetByEmail returns the user with the exact email, soft-deleted users included.
	GetByEmail(ctx context.Context, email string) (User, error)
	// GetByID returns a non-deleted user.
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	// ToggleBlocked and ToggleActive flip a flag of a non-deleted user atomically.
	ToggleBlocked(ctx context.Context, id uuid.UUID) (User, error)
	ToggleActive(ctx context.Context, id uuid.UUID) (User, error)
	// SoftDelete marks a non-deleted user as deleted at and returns the updated row.
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) (User, error)
}

// User represents a stored user with its password hash.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         *string    `json:"name"`
	Role         Role       `json:"role"`
	Active       bool       `json:"active"`
	Blocked      bool       `json:"blocked"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"-"`
}

// Deleted reports whether the user was soft-deleted.
func (u User) Deleted() bool {
	return u.DeletedAt != nil
}

// Claims returns the access token claims describing u.
func (u User) Claims() Claims {
	return Claims{UserID: u.ID, Email: u.Email, Role: u.Role}
}
