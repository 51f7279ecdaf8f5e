// Package server holds the process lifecycle shared by the service binaries:
// config, logger, database pool, HTTP server and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/frostx76/microservices-project/internal/config"
	"github.com/frostx76/microservices-project/pkg/database"
	"github.com/frostx76/microservices-project/pkg/utilities"
)

// ShutdownGrace bounds how long in-flight requests get after a stop signal.
const ShutdownGrace = 5 * time.Second

type App struct {
	Config *config.Config
	Logger *zap.SugaredLogger
	DB     *sqlx.DB
	IDs    *utilities.IDGenerator

	base *zap.Logger
}

// Start loads the configuration for service and builds the logger and id generator.
func Start(service string) (*App, error) {
	cfg, err := config.Load(service)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New builds an App from an already loaded configuration.
func New(cfg *config.Config) (*App, error) {
	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	ids, err := utilities.NewIDGenerator(cfg.SnowflakeNode)
	if err != nil {
		return nil, err
	}
	sugar := lg.Sugar().With("service", cfg.Service)
	sugar.Infow("starting", "addr", cfg.HTTPAddr, "verify_mode", cfg.JWT.VerifyMode)
	return &App{Config: cfg, Logger: sugar, IDs: ids, base: lg}, nil
}

// OpenDB connects the pool named by DATABASE_URL.
func (a *App) OpenDB() error {
	db, err := database.Open(a.Config.Database)
	if err != nil {
		return err
	}
	a.DB = db
	return nil
}

// Serve listens on the configured address until ctx is done, then shuts down.
func (a *App) Serve(ctx context.Context, handler http.Handler) error {
	ln, err := net.Listen("tcp", a.Config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Config.HTTPAddr, err)
	}
	return a.serve(ctx, ln, handler)
}

func (a *App) serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	a.Logger.Infow("service is running", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()

	if a.DB != nil {
		if err := a.DB.PingContext(doneCtx); err != nil {
			a.Logger.Warnf("db ping on shutdown failed: %v", err)
		}
	}
	if err := srv.Shutdown(doneCtx); err != nil {
		a.Logger.Warnf("http server shutdown failed: %v", err)
		return err
	}
	return nil
}

// Close releases the pool and flushes the logger.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	a.Logger.Info("goodbye")
	_ = a.base.Sync()
}

// EnsureTables runs each schema bootstrap with a bounded context.
func (a *App) EnsureTables(ensure ...func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Database.Timeout)
	defer cancel()
	for _, fn := range ensure {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("ensure table: %w", err)
		}
	}
	return nil
}
