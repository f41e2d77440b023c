package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/taskboard-server/internal/api/grpc/handler"
	"github.com/dtroode/taskboard-server/internal/api/grpc/middleware"
	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/model"
)

const authServicePrefix = "/taskboard.auth.v1."

// Router represents a gRPC router for the token introspection API.
// It manages gRPC service registration and middleware configuration.
type Router struct {
	parser         middleware.AccessTokenParser
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates new gRPC Router instance.
func New(
	parser middleware.AccessTokenParser,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		parser:         parser,
		contextManager: contextManager,
		logger:         logger,
	}
}

// requiresAuth matches our own services; health and reflection stay public.
func requiresAuth(_ context.Context, c interceptors.CallMeta) bool {
	return strings.HasPrefix(c.FullMethod(), authServicePrefix)
}

// Register registers all gRPC services and middleware.
// It sets up the gRPC server with recovery, request logging and authentication interceptors.
func (r *Router) Register() *grpc.Server {
	recovery := middleware.NewRecovery(r.logger)
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.parser, r.contextManager, r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recovery.Unary(),
			logging.Unary(),
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresAuth),
			),
		),
		grpc.ChainStreamInterceptor(
			recovery.Stream(),
			logging.Stream(),
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresAuth),
			),
		),
	)
	r.registerIntrospectionRoutes(s)
	healthpb.RegisterHealthServer(s, health.NewServer())
	reflection.Register(s)

	return s
}

func (r *Router) registerIntrospectionRoutes(server *grpc.Server) {
	introspection := handler.NewIntrospection(r.contextManager, r.logger)
	handler.RegisterIntrospectionServer(server, introspection)
}
