package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	grpcctx "github.com/dtroode/taskboard-server/internal/api/grpc/context"
	grpcrouter "github.com/dtroode/taskboard-server/internal/api/grpc/router"
	grpcserver "github.com/dtroode/taskboard-server/internal/api/grpc/server"
	httprouter "github.com/dtroode/taskboard-server/internal/api/http/router"
	httpserver "github.com/dtroode/taskboard-server/internal/api/http/server"
	"github.com/dtroode/taskboard-server/internal/model"
	"github.com/dtroode/taskboard-server/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		return serve(ctx, a)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger

	proxies, err := cfg.HTTP.TrustedNetworks()
	if err != nil {
		return err
	}

	e := httprouter.New(a.auth, a.users, a.auth, a.db, cfg.HTTP.CORSOrigins, proxies, logger).Register()
	g := grpcrouter.New(a.auth, grpcctx.NewManager(), logger).Register()

	servers := []struct {
		srv model.Server
		sl  model.SecurityLayer
	}{
		{
			srv: httpserver.NewHTTPServer(e, fmt.Sprintf(":%s", cfg.HTTP.Port)),
			sl:  server.NewPlainListener(),
		},
		{
			srv: grpcserver.NewGRPCServer(g, fmt.Sprintf(":%s", cfg.GRPC.Port)),
			sl:  server.New(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName),
		},
	}

	logAppVersion(logger)

	failed := make(chan error, len(servers))
	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server, sl model.SecurityLayer) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				failed <- err
			}
		}(s.srv, s.sl)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received interruption signal, shutting down")
	case runErr = <-failed:
		logger.Info("server failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, s := range servers {
		if err := s.srv.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.srv.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
	return runErr
}
