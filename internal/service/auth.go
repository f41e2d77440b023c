package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/model"
)

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

// LoginInput is the payload of a login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by successful registrations and logins.
type AuthResult struct {
	User   model.User
	Tokens TokenPair
}

// Auth orchestrates the register, login, refresh, logout and session flows.
type Auth struct {
	credentials *Credentials
	tokens      *TokenService
	users       model.UserStore
	events      model.EventPublisher
	logger      *logger.Logger
}

func NewAuth(
	credentials *Credentials,
	tokens *TokenService,
	users model.UserStore,
	events model.EventPublisher,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		credentials: credentials,
		tokens:      tokens,
		users:       users,
		events:      events,
		logger:      logger,
	}
}

func (a *Auth) Register(ctx context.Context, in RegisterInput, client model.ClientInfo) (AuthResult, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return AuthResult{}, ErrValidation
	}

	a.logger.Debug("Auth service: registering user", "email", in.Email)

	user, err := a.credentials.PrepareUser(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			a.logger.Error("Auth service: registration failed",
				"email", in.Email,
				"error", err.Error())
		}
		return AuthResult{}, err
	}

	pair, session, err := a.tokens.Mint(user.Claims(), client)
	if err != nil {
		a.logger.Error("Auth service: failed to issue tokens",
			"user_id", user.ID,
			"error", err.Error())
		return AuthResult{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	// The account and its first session are stored together.
	user, err = a.users.CreateWithSession(ctx, user, session)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			a.logger.Info("Auth service: email registered concurrently", "email", in.Email)
			return AuthResult{}, ErrEmailTaken
		}
		a.logger.Error("Auth service: registration failed",
			"email", in.Email,
			"error", err.Error())
		return AuthResult{}, fmt.Errorf("failed to create user: %w", err)
	}

	publish(ctx, a.events, a.logger, model.AuthEvent{
		Type:      model.EventRegister,
		UserID:    user.ID,
		Email:     user.Email,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})

	a.logger.Info("Auth service: user registered", "user_id", user.ID)

	return AuthResult{User: user, Tokens: pair}, nil
}

func (a *Auth) Login(ctx context.Context, in LoginInput, client model.ClientInfo) (AuthResult, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return AuthResult{}, ErrValidation
	}

	user, err := a.credentials.VerifyLogin(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			a.logger.Info("Auth service: login rejected", "email", in.Email)
			publish(ctx, a.events, a.logger, model.AuthEvent{
				Type:      model.EventLoginFailure,
				Email:     in.Email,
				IPAddress: client.IPAddress,
				UserAgent: client.UserAgent,
			})
			return AuthResult{}, err
		}
		a.logger.Error("Auth service: login failed",
			"email", in.Email,
			"error", err.Error())
		return AuthResult{}, err
	}

	pair, err := a.tokens.Issue(ctx, user.Claims(), client)
	if err != nil {
		a.logger.Error("Auth service: failed to issue tokens",
			"user_id", user.ID,
			"error", err.Error())
		return AuthResult{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	publish(ctx, a.events, a.logger, model.AuthEvent{
		Type:      model.EventLoginSuccess,
		UserID:    user.ID,
		Email:     user.Email,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})

	a.logger.Info("Auth service: login successful", "user_id", user.ID)

	return AuthResult{User: user, Tokens: pair}, nil
}

// Refresh exchanges an active refresh token for a new pair. The presented token
// can be used once; claims of the new pair reflect the current user record.
func (a *Auth) Refresh(ctx context.Context, refreshToken string, client model.ClientInfo) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, ErrRefreshTokenRequired
	}

	claims, session, err := a.tokens.Verify(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, a.refreshFailed(ctx, claims.UserID, client, err)
	}

	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return TokenPair{}, a.refreshFailed(ctx, claims.UserID, client, ErrInvalidRefreshToken)
		}
		return TokenPair{}, a.refreshFailed(ctx, claims.UserID, client, fmt.Errorf("failed to get user: %w", err))
	}

	pair, err := a.tokens.Rotate(ctx, session, user.Claims(), client)
	if err != nil {
		return TokenPair{}, a.refreshFailed(ctx, user.ID, client, err)
	}

	sessionID := session.ID
	publish(ctx, a.events, a.logger, model.AuthEvent{
		Type:      model.EventRefreshSuccess,
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: &sessionID,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})

	a.logger.Info("Auth service: token refreshed", "user_id", user.ID)

	return pair, nil
}

func (a *Auth) refreshFailed(ctx context.Context, userID uuid.UUID, client model.ClientInfo, err error) error {
	if errors.Is(err, ErrInvalidRefreshToken) {
		publish(ctx, a.events, a.logger, model.AuthEvent{
			Type:      model.EventRefreshFailure,
			UserID:    userID,
			IPAddress: client.IPAddress,
			UserAgent: client.UserAgent,
		})
		return err
	}
	a.logger.Error("Auth service: token refresh failed",
		"user_id", userID,
		"error", err.Error())
	return err
}

// Logout revokes every session of userID. Repeated calls succeed.
func (a *Auth) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := a.tokens.RevokeAll(ctx, userID); err != nil {
		a.logger.Error("Auth service: logout failed",
			"user_id", userID,
			"error", err.Error())
		return err
	}

	publish(ctx, a.events, a.logger, model.AuthEvent{Type: model.EventLogout, UserID: userID})
	a.logger.Info("Auth service: logged out from all devices", "user_id", userID)

	return nil
}

func (a *Auth) Sessions(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	sessions, err := a.tokens.ListSessions(ctx, userID)
	if err != nil {
		a.logger.Error("Auth service: failed to list sessions",
			"user_id", userID,
			"error", err.Error())
		return nil, err
	}
	return sessions, nil
}

// RevokeSession revokes one session of userID; ids that do not belong to the caller are ignored.
func (a *Auth) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := a.tokens.RevokeSession(ctx, sessionID, userID); err != nil {
		a.logger.Error("Auth service: failed to revoke session",
			"user_id", userID,
			"session_id", sessionID,
			"error", err.Error())
		return err
	}

	publish(ctx, a.events, a.logger, model.AuthEvent{
		Type:      model.EventSessionRevoked,
		UserID:    userID,
		SessionID: &sessionID,
	})

	return nil
}

// ParseAccess validates an access token for middlewares.
func (a *Auth) ParseAccess(token string) (model.Claims, error) {
	return a.tokens.ParseAccess(token)
}

// Sweep removes dead sessions; it is triggered externally.
func (a *Auth) Sweep(ctx context.Context) (int64, error) {
	return a.tokens.Sweep(ctx)
}
