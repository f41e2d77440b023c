package model

import (
	"time"

	"github.com/google/uuid"
)

// Claims is the identity carried inside access and refresh tokens.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// TokenManager generates and validates access/refresh tokens.
type TokenManager interface {
	GenerateAccessToken(claims Claims) (string, error)
	GenerateRefreshToken(claims Claims) (token string, expiresAt time.Time, err error)
	ParseAccessToken(token string) (Claims, error)
	ParseRefreshToken(token string) (Claims, error)
}
