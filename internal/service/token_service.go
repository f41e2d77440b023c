package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/model"
)

// TokenPair is an access token with the refresh token issued alongside it.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService provides high-level operations for issuing, refreshing,
// and revoking tokens. It composes the TokenManager and SessionStore.
type TokenService struct {
	manager model.TokenManager
	store   model.SessionStore
	logger  *logger.Logger
	now     func() time.Time
}

func NewTokenService(manager model.TokenManager, store model.SessionStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger, now: time.Now}
}

// Issue mints a token pair for claims and records the refresh token as a new session.
func (s *TokenService) Issue(ctx context.Context, claims model.Claims, client model.ClientInfo) (TokenPair, error) {
	pair, session, err := s.Mint(claims, client)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.store.Create(ctx, session); err != nil {
		return TokenPair{}, fmt.Errorf("persist refresh: %w", err)
	}

	return pair, nil
}

// Verify checks a presented refresh token and returns its claims with the active
// session it belongs to. Every failure of the token itself is ErrInvalidRefreshToken.
func (s *TokenService) Verify(ctx context.Context, presented string) (model.Claims, model.RefreshToken, error) {
	claims, err := s.manager.ParseRefreshToken(presented)
	if err != nil {
		s.logger.Debug("Token service: refresh token rejected", "error", err.Error())
		return model.Claims{}, model.RefreshToken{}, ErrInvalidRefreshToken
	}

	session, err := s.store.FindActive(ctx, hashToken(presented), claims.UserID, s.now())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Info("Token service: refresh token not active", "user_id", claims.UserID)
			return model.Claims{}, model.RefreshToken{}, ErrInvalidRefreshToken
		}
		return model.Claims{}, model.RefreshToken{}, fmt.Errorf("find session: %w", err)
	}

	return claims, session, nil
}

// Rotate replaces session with a new one for claims. A session already rotated
// or revoked by a concurrent request yields ErrInvalidRefreshToken.
func (s *TokenService) Rotate(ctx context.Context, session model.RefreshToken, claims model.Claims, client model.ClientInfo) (TokenPair, error) {
	pair, next, err := s.Mint(claims, client)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.store.Rotate(ctx, session.ID, next, s.now()); err != nil {
		if errors.Is(err, model.ErrSessionNotActive) {
			s.logger.Warn("Token service: refresh token reused or lost rotation race",
				"user_id", claims.UserID,
				"session_id", session.ID)
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, fmt.Errorf("rotate session: %w", err)
	}

	return pair, nil
}

func (s *TokenService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// RevokeSession revokes one of userID's sessions. Unknown or foreign ids are ignored.
func (s *TokenService) RevokeSession(ctx context.Context, sessionID, userID uuid.UUID) error {
	changed, err := s.store.RevokeOne(ctx, sessionID, userID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if !changed {
		s.logger.Debug("Token service: session revoke matched nothing",
			"user_id", userID,
			"session_id", sessionID)
	}
	return nil
}

func (s *TokenService) ListSessions(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	sessions, err := s.store.ListActive(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Sweep deletes expired and revoked sessions.
func (s *TokenService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.SweepExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	s.logger.Info("Token service: swept sessions", "deleted", n)
	return n, nil
}

// ParseAccess validates an access token.
func (s *TokenService) ParseAccess(token string) (model.Claims, error) {
	return s.manager.ParseAccessToken(token)
}

// Mint creates a token pair for claims and the session recording its refresh
// token. Nothing is stored.
func (s *TokenService) Mint(claims model.Claims, client model.ClientInfo) (TokenPair, model.RefreshToken, error) {
	access, err := s.manager.GenerateAccessToken(claims)
	if err != nil {
		return TokenPair{}, model.RefreshToken{}, fmt.Errorf("issue access: %w", err)
	}

	refresh, expiresAt, err := s.manager.GenerateRefreshToken(claims)
	if err != nil {
		return TokenPair{}, model.RefreshToken{}, fmt.Errorf("issue refresh: %w", err)
	}

	session := model.RefreshToken{
		ID:        uuid.New(),
		TokenHash: hashToken(refresh),
		UserID:    claims.UserID,
		ExpiresAt: expiresAt,
		IPAddress: optional(client.IPAddress),
		UserAgent: optional(client.UserAgent),
		CreatedAt: s.now().UTC(),
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, session, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
