package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/model"
)

const claimsKey = "auth.claims"

// AccessTokenParser validates access tokens.
type AccessTokenParser interface {
	ParseAccess(token string) (model.Claims, error)
}

// Authenticate guards routes with bearer access tokens.
type Authenticate struct {
	parser AccessTokenParser
	logger *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(parser AccessTokenParser, logger *logger.Logger) *Authenticate {
	return &Authenticate{parser: parser, logger: logger}
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" access
// token and stores the token's claims for later handlers.
func (m *Authenticate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
		}

		claims, err := m.parser.ParseAccess(strings.TrimSpace(token))
		if err != nil {
			logger.FromContext(c.Request().Context(), m.logger).Debug("Authenticate: rejected token", "error", err)
			return echo.NewHTTPError(http.StatusForbidden, "Invalid or expired token")
		}

		SetClaims(c, claims)
		return next(c)
	}
}

// RequireRole admits only authenticated callers with the given role.
// It must run after RequireAuth.
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Claims(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			if claims.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "Access denied: "+roleLabel(role)+" only")
			}
			return next(c)
		}
	}
}

func roleLabel(role model.Role) string {
	s := strings.ToLower(string(role))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SetClaims stores authenticated claims on the request.
func SetClaims(c echo.Context, claims model.Claims) {
	c.Set(claimsKey, claims)
}

// Claims returns the claims stored by RequireAuth.
func Claims(c echo.Context) (model.Claims, bool) {
	claims, ok := c.Get(claimsKey).(model.Claims)
	return claims, ok
}
