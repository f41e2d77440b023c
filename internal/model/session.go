package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore persists issued refresh tokens.
//
// A session is active while it is not revoked and now is strictly before its expiry.
type SessionStore interface {
	Create(ctx context.Context, session RefreshToken) error
	FindActive(ctx context.Context, tokenHash string, userID uuid.UUID, now time.Time) (RefreshToken, error)
	// Rotate revokes oldID and inserts next in one transaction.
	// It returns ErrSessionNotActive when oldID is no longer active.
	Rotate(ctx context.Context, oldID uuid.UUID, next RefreshToken, now time.Time) error
	RevokeAll(ctx context.Context, userID uuid.UUID) error
	// RevokeOne revokes a single session owned by userID and reports whether a row changed.
	RevokeOne(ctx context.Context, sessionID, userID uuid.UUID) (bool, error)
	ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]Session, error)
	// SweepExpired deletes expired and revoked sessions and returns how many were removed.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// RefreshToken is a stored session record. The token itself is kept as a hash.
type RefreshToken struct {
	ID        uuid.UUID
	TokenHash string
	UserID    uuid.UUID
	ExpiresAt time.Time
	Revoked   bool
	IPAddress *string
	UserAgent *string
	CreatedAt time.Time
}

// Active reports whether the session can still authorize a refresh at now.
func (t RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// Session returns the listing projection of t.
func (t RefreshToken) Session() Session {
	return Session{
		ID:        t.ID,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
		IPAddress: t.IPAddress,
		UserAgent: t.UserAgent,
	}
}

// Session is a refresh token as shown to its owner.
type Session struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress *string   `json:"ipAddress"`
	UserAgent *string   `json:"userAgent"`
}

// ClientInfo describes where a login or refresh came from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}
