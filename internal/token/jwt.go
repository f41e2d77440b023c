package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/taskboard-server/internal/model"
)

var (
	// ErrInvalidToken is returned for malformed tokens, bad signatures and wrong token types.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token's exp is not after the current time.
	ErrExpiredToken = errors.New("token expired")
)

// Claims represents JWT claims with token type and user identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID  `json:"userId"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	TokenType string     `json:"typ"`
}

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// Options configures a JWT token manager.
type Options struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

var _ model.TokenManager = (*JWT)(nil)

// JWT implements TokenManager backed by symmetric HMAC with separate keys per token type.
type JWT struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWT creates a new JWT token manager.
func NewJWT(opts Options) *JWT {
	return &JWT{
		accessKey:  []byte(opts.AccessSecret),
		refreshKey: []byte(opts.RefreshSecret),
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        time.Now,
	}
}

// GenerateAccessToken creates a short-lived access token.
func (j *JWT) GenerateAccessToken(claims model.Claims) (string, error) {
	token, _, err := j.sign(claims, typeAccess, j.accessKey, j.accessTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// GenerateRefreshToken creates a long-lived refresh token and returns its expiry.
func (j *JWT) GenerateRefreshToken(claims model.Claims) (string, time.Time, error) {
	token, expiresAt, err := j.sign(claims, typeRefresh, j.refreshKey, j.refreshTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return token, expiresAt, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (j *JWT) ParseAccessToken(tokenString string) (model.Claims, error) {
	return j.parse(tokenString, typeAccess, j.accessKey)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func (j *JWT) ParseRefreshToken(tokenString string) (model.Claims, error) {
	return j.parse(tokenString, typeRefresh, j.refreshKey)
}

func (j *JWT) sign(claims model.Claims, tokenType string, key []byte, ttl time.Duration) (string, time.Time, error) {
	now := j.now()
	expiresAt := jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claims.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: expiresAt,
		},
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		TokenType: tokenType,
	})

	signed, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt.Time, nil
}

func (j *JWT) parse(tokenString, tokenType string, key []byte) (model.Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Claims{}, fmt.Errorf("%w: %s", ErrExpiredToken, tokenType)
		}
		return model.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return model.Claims{}, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return model.Claims{}, fmt.Errorf("%w: token type mismatch: %s", ErrInvalidToken, claims.TokenType)
	}
	if claims.UserID == uuid.Nil {
		return model.Claims{}, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	return model.Claims{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}
