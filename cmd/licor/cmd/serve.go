package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/licor/internal/dictionary"
	"github.com/JonMunkholm/licor/internal/logging"
	"github.com/JonMunkholm/licor/internal/metrics"
	"github.com/JonMunkholm/licor/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP parse API",
		Long: `Serves the parse API until interrupted.

Endpoints:
  POST /api/parse?device=&config=&rows=   parse a log (raw body or multipart "file")
  GET  /api/devices                       supported devices
  GET  /api/measurements                  configurations and their required variables
  GET  /api/variables[/{name}]            dictionary entries
  GET  /healthz                           liveness and parse slot usage
  GET  /metrics                           Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port != 0 {
				a.cfg.Server.Port = port
			}
			return a.runServe(cmd.Context())
		},
	}

	c.Flags().StringVar(&host, "host", "", "interface to bind (default: $SERVER_HOST)")
	c.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default: $SERVER_PORT)")
	return c
}

func (a *app) runServe(ctx context.Context) error {
	// The server logs to stdout at the configured level.
	logging.Setup(a.cfg.Logging.Level, a.cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", a.cfg.Server.Addr(),
		"max_concurrent", a.cfg.Server.MaxConcurrent,
		"max_file_size", a.cfg.Convert.MaxFileSize,
		"api_key_required", a.cfg.Security.RequireAPIKey,
	)

	entries, err := dictionary.LoadEntriesOrDefault(a.cfg.Dictionary.Path)
	if err != nil {
		return err
	}
	slog.Info("dictionary loaded", "path", a.cfg.Dictionary.Path, "entries", len(entries))

	server := web.NewServer(a.cfg, entries, metrics.New())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Wait for active parses to complete (with timeout)
	if status := server.LimiterStatus(); status.Active > 0 {
		slog.Info("waiting for parses to complete", "active", status.Active)
		if err := server.WaitForParses(shutdownCtx); err != nil {
			slog.Warn("parses did not complete in time", "error", err)
		} else {
			slog.Info("all parses completed")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
