// Package server assembles and runs the gophgate server: storage and
// migrations, token and password services, the REST and gRPC transports,
// and the background maintenance loops.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/logging"
	"github.com/dmitrijs2005/gophgate/internal/server/auth"
	"github.com/dmitrijs2005/gophgate/internal/server/config"
	"github.com/dmitrijs2005/gophgate/internal/server/metrics"
	"github.com/dmitrijs2005/gophgate/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophgate/internal/server/rest"
	"github.com/dmitrijs2005/gophgate/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophgate/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	metrics  *metrics.Metrics
	limiter  *ratelimit.Limiter
	identity *services.IdentityService
	admin    *services.AccountAdminService
}

// NewApp opens the database, applies migrations and builds the services.
// Log output goes to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, w)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, repos, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := metrics.New()

	tokens, err := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration, auth.WithIssuer(c.Issuer))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	hasher, err := auth.NewPasswordHasher(c.BcryptCost, c.HashConcurrency, m.HashingGauge())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	deps := services.Dependencies{
		DB:         db,
		Repos:      repos,
		Tokens:     tokens,
		Hasher:     hasher,
		RefreshTTL: c.RefreshTokenValidityDuration,
		Logger:     logger,
		Metrics:    m,
	}

	app := &App{
		config:   c,
		logger:   logger,
		db:       db,
		metrics:  m,
		identity: services.NewIdentityService(deps),
		admin:    services.NewAccountAdminService(deps),
	}
	if c.LoginRateLimit > 0 {
		app.limiter = ratelimit.New(c.LoginRateLimit, c.LoginRateBurst, c.CleanupInterval)
	}
	return app, nil
}

// Close releases the database handle.
func (app *App) Close() error {
	return app.db.Close()
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, lis net.Listener) error {
	opts := []rest.Option{
		rest.WithMetrics(app.metrics),
		rest.WithHealthCheck(app.db.PingContext),
	}
	if app.limiter != nil {
		opts = append(opts, rest.WithRateLimiter(app.limiter))
	}
	handler := rest.NewServer(app.identity, app.admin, app.logger, opts...).Handler()

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		app.logger.Info(ctx, "Stopping HTTP server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *App) startGRPCServer(ctx context.Context, lis net.Listener) error {
	opts := []gs.Option{gs.WithMetrics(app.metrics)}
	if app.limiter != nil {
		opts = append(opts, gs.WithRateLimiter(app.limiter))
	}
	return gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.identity, app.admin, opts...).Serve(ctx, lis)
}

func (app *App) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(app.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.identity.PurgeExpiredRefreshTokens(ctx)
			if err != nil {
				app.logger.Warn(ctx, "refresh token purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "purged expired refresh tokens", "count", n)
			}
		}
	}
}

// Run serves both transports until ctx is done, a shutdown signal arrives
// or one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(ctx, cancelFunc)

	httpLis, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	grpcLis, err := net.Listen("tcp", app.config.GRPCAddr)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.startHTTPServer(ctx, httpLis) })
	g.Go(func() error { return app.startGRPCServer(ctx, grpcLis) })
	g.Go(func() error {
		app.purgeLoop(ctx)
		return nil
	})
	if app.limiter != nil {
		g.Go(func() error {
			app.limiter.Run(ctx, app.config.CleanupInterval)
			return nil
		})
	}

	err = g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}
