package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/service"
)

const internalErrorMessage = "Internal server error"

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// statusFor maps service errors to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "Email and password are required"
	case errors.Is(err, service.ErrRefreshTokenRequired):
		return http.StatusBadRequest, "Refresh token is required"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusForbidden, "Invalid or expired refresh token"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

// NewErrorHandler renders every error as {"error": message}. Unexpected errors
// are logged and replaced with a generic message.
func NewErrorHandler(base *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := statusFor(err)
		if code >= http.StatusInternalServerError {
			logger.FromContext(c.Request().Context(), base).Error("HTTP handler failed", "error", err)
			msg = internalErrorMessage
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, errorResponse{Error: msg})
		}
		if writeErr != nil {
			base.Error("HTTP handler: failed to write error response", "error", writeErr)
		}
	}
}
