package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/model"
)

// IntrospectFullMethod is the full gRPC method name of Introspect.
const IntrospectFullMethod = "/taskboard.auth.v1.Introspection/Introspect"

// IntrospectionServer is the server API for the Introspection service.
type IntrospectionServer interface {
	Introspect(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
}

// IntrospectionServiceDesc describes the Introspection service. The messages are
// well-known protobuf types, so no generated code is needed.
var IntrospectionServiceDesc = grpc.ServiceDesc{
	ServiceName: "taskboard.auth.v1.Introspection",
	HandlerType: (*IntrospectionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Introspect",
			Handler:    introspectHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskboard/auth/v1/introspection.proto",
}

// RegisterIntrospectionServer registers srv on s.
func RegisterIntrospectionServer(s grpc.ServiceRegistrar, srv IntrospectionServer) {
	s.RegisterService(&IntrospectionServiceDesc, srv)
}

func introspectHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IntrospectionServer).Introspect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: IntrospectFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IntrospectionServer).Introspect(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Introspection answers who the bearer of an access token is.
type Introspection struct {
	contextManager model.ContextManager
	logger         *logger.Logger
}

var _ IntrospectionServer = (*Introspection)(nil)

// NewIntrospection creates a new Introspection handler.
func NewIntrospection(contextManager model.ContextManager, logger *logger.Logger) *Introspection {
	return &Introspection{contextManager: contextManager, logger: logger}
}

// Introspect returns the claims the auth interceptor put into the context.
func (h *Introspection) Introspect(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	claims, ok := h.contextManager.GetClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "access token required")
	}

	resp, err := structpb.NewStruct(map[string]interface{}{
		"userId": claims.UserID.String(),
		"email":  claims.Email,
		"role":   string(claims.Role),
	})
	if err != nil {
		h.logger.Error("Introspection handler: failed to build response", "error", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return resp, nil
}
