package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"EngDB/internal/service/mast"
	"EngDB/internal/usecase"
	"EngDB/pkg/config"
	xhttp "EngDB/pkg/http"
	applogger "EngDB/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

// App owns the wired engineering database client and, for the serve
// command, the viewer HTTP server.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	client      *mast.Client
	edb         *usecase.EngineeringDB
	httpHandler xhttp.Handler
	limiter     interface{ Allow(string) bool }
	registry    *prometheus.Registry
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	client *mast.Client,
	edb *usecase.EngineeringDB,
	handler xhttp.Handler,
	limiter interface{ Allow(string) bool },
	registry *prometheus.Registry,
) *App {
	return &App{
		cfg:         cfg,
		logger:      l,
		client:      client,
		edb:         edb,
		httpHandler: handler,
		limiter:     limiter,
		registry:    registry,
	}
}

// EngineeringDB returns the query façade.
func (a *App) EngineeringDB() *usecase.EngineeringDB { return a.edb }

// Logger returns the application logger.
func (a *App) Logger() *applogger.Logger { return a.logger }

// VerifyToken checks the MAST token when mast.verify_token is set.
func (a *App) VerifyToken(ctx context.Context) error {
	if !a.cfg.Mast.VerifyToken {
		return nil
	}
	if _, err := a.client.Login(ctx); err != nil {
		return err
	}
	return nil
}

// Serve starts the viewer HTTP server and blocks until ctx is done, an
// interrupt arrives or the listener fails.
func (a *App) Serve(ctx context.Context) error {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	}
	if a.cfg.Metrics.Enabled && a.registry != nil {
		opts = append(opts, xhttp.WithMetrics(a.cfg.Metrics.Path, a.registry, a.registry))
	}
	if a.limiter != nil && a.cfg.Server.RateLimit > 0 {
		opts = append(opts, xhttp.WithRateLimit(a.limiter))
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, opts...)

	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-a.httpServer.Err():
	}

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}
	return runErr
}
