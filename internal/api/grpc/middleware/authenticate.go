package middleware

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/model"
)

// AccessTokenParser validates access tokens.
type AccessTokenParser interface {
	ParseAccess(token string) (model.Claims, error)
}

// Authenticate validates bearer tokens and injects claims into context.
type Authenticate struct {
	parser         AccessTokenParser
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(parser AccessTokenParser, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{parser: parser, contextManager: contextManager, logger: logger}
}

// AuthFunc reads the bearer token from the authorization metadata, validates it
// and returns a context with the caller's claims.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	token, err := auth.AuthFromMD(ctx, "bearer")
	if err != nil || token == "" {
		return nil, status.Error(codes.Unauthenticated, "access token required")
	}

	claims, err := m.parser.ParseAccess(token)
	if err != nil {
		m.logger.Debug("Authenticate: rejected token", "error", err)
		return nil, status.Error(codes.PermissionDenied, "invalid or expired token")
	}

	return m.contextManager.SetClaimsToContext(ctx, claims), nil
}
