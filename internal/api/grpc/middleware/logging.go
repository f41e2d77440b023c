package middleware

import (
	"context"
	"log/slog"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"google.golang.org/grpc"

	"github.com/dtroode/taskboard-server/internal/logger"
)

// Logging logs the outcome of every gRPC call through the application logger.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

func (l *Logging) log(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
	l.logger.Log(ctx, slog.Level(lvl), "gRPC "+msg, fields...)
}

func (l *Logging) options() []logging.Option {
	return []logging.Option{logging.WithLogOnEvents(logging.FinishCall)}
}

// Unary returns the unary server interceptor.
func (l *Logging) Unary() grpc.UnaryServerInterceptor {
	return logging.UnaryServerInterceptor(logging.LoggerFunc(l.log), l.options()...)
}

// Stream returns the stream server interceptor.
func (l *Logging) Stream() grpc.StreamServerInterceptor {
	return logging.StreamServerInterceptor(logging.LoggerFunc(l.log), l.options()...)
}
