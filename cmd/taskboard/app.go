package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dtroode/taskboard-server/internal/config"
	"github.com/dtroode/taskboard-server/internal/events"
	"github.com/dtroode/taskboard-server/internal/logger"
	"github.com/dtroode/taskboard-server/internal/model"
	"github.com/dtroode/taskboard-server/internal/password"
	"github.com/dtroode/taskboard-server/internal/repository/postgres"
	"github.com/dtroode/taskboard-server/internal/service"
	"github.com/dtroode/taskboard-server/internal/token"
)

type publisher interface {
	model.EventPublisher
	io.Closer
}

// app holds the dependencies shared by the commands.
type app struct {
	cfg         *config.Config
	logger      *logger.Logger
	db          *postgres.Connection
	events      publisher
	credentials *service.Credentials
	auth        *service.Auth
	users       *service.Users
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.NewConfig(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, logger.New(cfg.LogLevel), nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, lg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := postgres.NewConection(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var pub publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, lg)
	}

	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	tokenManager := token.NewJWT(token.Options{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})

	credentials := service.NewCredentials(userRepo, password.NewBcrypt(cfg.Hash.Cost), lg)
	tokenService := service.NewTokenService(tokenManager, sessionRepo, lg)

	return &app{
		cfg:         cfg,
		logger:      lg,
		db:          db,
		events:      pub,
		credentials: credentials,
		auth:        service.NewAuth(credentials, tokenService, userRepo, pub, lg),
		users:       service.NewUsers(userRepo, tokenService, pub, lg),
	}, nil
}

func (a *app) Close() {
	if err := a.events.Close(); err != nil {
		a.logger.Error("failed to close event publisher", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
}
