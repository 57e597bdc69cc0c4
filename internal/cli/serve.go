package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aretw0/ouvidoria/internal/config"
	httpAdapter "github.com/aretw0/ouvidoria/pkg/adapters/http"
	"github.com/aretw0/ouvidoria/pkg/ports"
	"github.com/aretw0/ouvidoria/pkg/runner"
	"github.com/go-chi/chi/v5"
)

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 5 * time.Second

// Serve runs the bot on the configured transport until ctx is done.
// Chat transports also expose /health and /metrics on http.addr when
// metrics are enabled.
func Serve(ctx context.Context, app *App, in io.Reader, out io.Writer, version string) error {
	if app.Config.Transport == config.TransportHTTP {
		server := httpAdapter.NewServer(app.Bot, app.Sessions,
			httpAdapter.WithLogger(app.Logger),
			httpAdapter.WithMetricsHandler(app.MetricsHandler()),
			httpAdapter.WithVersion(version),
		)
		return ListenAndServe(ctx, app, server.Routes())
	}

	transport, err := NewTransport(app.Config, app.Logger, in, out)
	if err != nil {
		return err
	}

	if h := app.MetricsHandler(); h != nil {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		r := chi.NewRouter()
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.Handle("/metrics", h)

		metricsErr := make(chan error, 1)
		go func() { metricsErr <- ListenAndServe(ctx, app, r) }()
		defer func() {
			cancel()
			if err := <-metricsErr; err != nil {
				app.Logger.Error("Metrics server failed", "err", err)
			}
		}()
	}

	return RunChat(ctx, app, transport)
}

// RunChat dispatches inbound messages from transport to the bot and closes
// the transport when done.
func RunChat(ctx context.Context, app *App, transport ports.Transport) error {
	defer func() {
		if err := transport.Close(); err != nil {
			app.Logger.Warn("Failed to close transport", "err", err)
		}
	}()

	d := runner.NewDispatcher(app.Bot, runner.WithDispatcherLogger(app.Logger))
	return d.Run(ctx, transport)
}

// ListenAndServe serves handler on http.addr until ctx is done, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, app *App, handler http.Handler) error {
	srv := &http.Server{
		Addr:              app.Config.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("HTTP server listening", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			return srv.Close()
		}
		app.Logger.Info("HTTP server stopped gracefully")
		return nil
	}
}
