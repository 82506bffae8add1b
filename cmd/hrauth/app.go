package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/hrauth/internal/db"
	"github.com/nkiryanov/hrauth/internal/handlers"
	"github.com/nkiryanov/hrauth/internal/logger"
	"github.com/nkiryanov/hrauth/internal/repository"
	"github.com/nkiryanov/hrauth/internal/repository/memory"
	"github.com/nkiryanov/hrauth/internal/repository/postgres"
	"github.com/nkiryanov/hrauth/internal/repository/rediscache"
	"github.com/nkiryanov/hrauth/internal/service/auth"
	"github.com/nkiryanov/hrauth/internal/service/auth/session"
	"github.com/nkiryanov/hrauth/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/hrauth/internal/service/policy"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: l}

	// Initialize repositories
	var storage repository.Storage
	if c.DatabaseDSN != "" {
		// Connect to the database and run migrations
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		storage = postgres.NewStorage(pool)
	} else {
		l.Warn("database is not configured, sessions are kept in memory")
		storage = memory.NewStorage()
	}

	configs := storage.TenantConfig()
	if c.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		configs = rediscache.NewTenantConfigRepo(configs, rdb, c.PolicyCacheTTL, l)
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	sessions, err := session.New(session.Config{}, storage, l)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while creating session manager. Err: %w", err)
	}
	authService, err := auth.NewService(
		auth.Config{SecureCookies: c.Environment != logger.EnvDevelopment},
		tokenManager,
		sessions,
		storage.User(),
		l,
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	policyEngine := policy.New(configs, l)

	app.Handler = handlers.NewRouter(
		handlers.Config{CORSOrigins: c.CORSOrigins},
		authService,
		policyEngine,
		l,
	)

	return app, nil
}

// Close releases database and cache connections
func (s *ServerApp) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
