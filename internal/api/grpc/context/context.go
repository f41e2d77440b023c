package context

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/taskboard-server/internal/model"
)

// Metadata keys used to carry authenticated claims in gRPC context.
const (
	userIDKey string = "x-user-id"
	emailKey  string = "x-user-email"
	roleKey   string = "x-user-role"
)

var _ model.ContextManager = (*Manager)(nil)

// Manager represents a gRPC context manager for authenticated claims.
// Claims are stored in incoming metadata so handlers behind the auth
// interceptor can read them.
type Manager struct{}

// NewManager creates a new gRPC context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetClaimsToContext sets the claims in the incoming metadata and returns a new context.
// Values previously stored under the same keys are replaced.
func (m *Manager) SetClaimsToContext(ctx context.Context, claims model.Claims) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.New(nil)
	} else {
		md = md.Copy()
	}
	md.Set(userIDKey, claims.UserID.String())
	md.Set(emailKey, claims.Email)
	md.Set(roleKey, string(claims.Role))

	return metadata.NewIncomingContext(ctx, md)
}

// GetClaimsFromContext retrieves the claims from incoming metadata.
// It reports false when the user id is missing or malformed.
func (m *Manager) GetClaimsFromContext(ctx context.Context) (model.Claims, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return model.Claims{}, false
	}

	userID, err := uuid.Parse(first(md, userIDKey))
	if err != nil || userID == uuid.Nil {
		return model.Claims{}, false
	}

	return model.Claims{
		UserID: userID,
		Email:  first(md, emailKey),
		Role:   model.Role(first(md, roleKey)),
	}, true
}

func first(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
