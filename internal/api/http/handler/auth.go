package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dtroode/taskboard-server/internal/api/http/middleware"
	"github.com/dtroode/taskboard-server/internal/model"
	"github.com/dtroode/taskboard-server/internal/service"
)

// AuthService is the part of service.Auth the HTTP handlers use.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput, client model.ClientInfo) (service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput, client model.ClientInfo) (service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string, client model.ClientInfo) (service.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Sessions(ctx context.Context, userID uuid.UUID) ([]model.Session, error)
	RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error
}

// Auth serves the /auth routes.
type Auth struct {
	svc AuthService
}

func NewAuth(svc AuthService) *Auth {
	return &Auth{svc: svc}
}

type authResponse struct {
	Message      string     `json:"message"`
	User         model.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type sessionsResponse struct {
	Sessions []model.Session `json:"sessions"`
}

func clientInfo(c echo.Context) model.ClientInfo {
	return model.ClientInfo{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

func (h *Auth) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return service.ErrValidation
	}

	res, err := h.svc.Register(c.Request().Context(), in, clientInfo(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{
		Message:      "User registered successfully",
		User:         res.User,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

func (h *Auth) Login(c echo.Context) error {
	var in service.LoginInput
	if err := c.Bind(&in); err != nil {
		return service.ErrValidation
	}

	res, err := h.svc.Login(c.Request().Context(), in, clientInfo(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Message:      "Login successful",
		User:         res.User,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

func (h *Auth) Refresh(c echo.Context) error {
	var in refreshRequest
	if err := c.Bind(&in); err != nil {
		return service.ErrRefreshTokenRequired
	}

	pair, err := h.svc.Refresh(c.Request().Context(), in.RefreshToken, clientInfo(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, refreshResponse{
		Message:      "Token refreshed successfully",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the caller's sessions on every device.
func (h *Auth) Logout(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	if err := h.svc.Logout(c.Request().Context(), claims.UserID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out from all devices"})
}

func (h *Auth) Sessions(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	sessions, err := h.svc.Sessions(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return c.JSON(http.StatusOK, sessionsResponse{Sessions: sessions})
}

// RevokeSession revokes one of the caller's sessions. Ids that are malformed,
// unknown or owned by someone else succeed without effect.
func (h *Auth) RevokeSession(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	if sessionID, err := uuid.Parse(c.Param("id")); err == nil {
		if err := h.svc.RevokeSession(c.Request().Context(), claims.UserID, sessionID); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Session revoked successfully"})
}
