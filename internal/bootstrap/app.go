package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/fishcast/internal/infra/config"
	"github.com/yanqian/fishcast/internal/infra/scheduler"
)

// App encapsulates the HTTP server and maintenance lifecycle.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	server      *http.Server
	maintenance *scheduler.Maintenance
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, maintenance *scheduler.Maintenance) *App {
	return &App{
		cfg:         cfg,
		logger:      logger.With("component", "bootstrap"),
		server:      server,
		maintenance: maintenance,
	}
}

// Run starts the HTTP server and the maintenance scheduler and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if err := a.maintenance.Start(); err != nil {
		return err
	}
	defer a.maintenance.Stop()

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address, "storage", a.cfg.Storage.Driver)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
