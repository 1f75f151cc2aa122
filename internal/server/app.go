// Package server initializes and runs the prompta server: it wires config,
// storage, services and the HTTP API together, and handles OS signals and
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prompta-dev/prompta-server/internal/logging"
	"github.com/prompta-dev/prompta-server/internal/server/config"
	"github.com/prompta-dev/prompta-server/internal/server/httpapi"
	"github.com/prompta-dev/prompta-server/internal/server/repositories/repomanager"
	"github.com/prompta-dev/prompta-server/internal/server/services"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	rm     repomanager.RepositoryManager
	server *http.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	rm, err := repomanager.NewPostgresManager(ctx, cfg.DatabaseDSN, cfg.LockWaitTimeout, cfg.WriteRetryBudget)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	promptService := services.NewPromptService(rm, logger)
	versionService := services.NewVersionService(rm, logger)
	searchService := services.NewSearchService(rm, logger, cfg.DefaultPageSize, cfg.MaxPageSize)
	diffService := services.NewDiffService(rm, logger)

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Prompts:   promptService,
		Versions:  versionService,
		Search:    searchService,
		Diffs:     diffService,
		SecretKey: []byte(cfg.SecretKey),
		Logger:    logger,
		Health: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rm.Ping(ctx)
		},
	})

	srv := &http.Server{
		Addr:         cfg.EndpointAddrHTTP,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{config: cfg, logger: logger, rm: rm, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the HTTP server and blocks until the context is cancelled or
// an OS signal arrives, then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddrHTTP)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if err := app.rm.Close(); err != nil {
		return fmt.Errorf("db close error: %w", err)
	}

	app.logger.Info(ctx, "server stopped")
	return nil
}
