package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) httpHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}))
	return mux
}

// startHealthcheckServer binds the health check port and serves /health and
// /metrics on g until done is closed or ctx is cancelled.
func (a *App) startHealthcheckServer(ctx context.Context, g *errgroup.Group, done <-chan struct{}) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring health check server.")

	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("health check server: %w", err)
	}
	srv := &http.Server{
		Handler:           a.httpHandler(),
		ReadHeaderTimeout: shutdownTimeout,
	}

	g.Go(func() error {
		logger.Info("Health check server starting.", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health check server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-done:
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		logger.Info("Shutting down health check server.")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Health check server shutdown failed.", "error", err)
			return err
		}
		logger.Debug("Health check server shut down gracefully.")
		return nil
	})
	return nil
}
