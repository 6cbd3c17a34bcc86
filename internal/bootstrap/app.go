package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yanqian/moonwatch/internal/infra/config"
)

const defaultShutdownTimeout = 10 * time.Second

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server) *App {
	timeout := defaultShutdownTimeout
	// let an in-flight scan finish before the listener goes away
	if cfg.Scanner.Timeout > timeout {
		timeout = cfg.Scanner.Timeout
	}
	return &App{
		cfg:             cfg,
		logger:          logger.With("component", "bootstrap"),
		server:          server,
		shutdownTimeout: timeout,
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return err
	}
	return a.serve(ctx, ln)
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("moonrise api listening",
			"address", ln.Addr().String(),
			"max_days", a.cfg.Scanner.MaxDays,
			"workers", a.cfg.Scanner.Workers,
		)
		if err := a.server.Serve(ln); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
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
