package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/snapfactlabs/snapfact/internal/analysis"
	"github.com/snapfactlabs/snapfact/internal/handlers"
	"github.com/snapfactlabs/snapfact/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the snapfact web server",
		Long: `Starts the Snapfact web interface on the specified port.

The web interface lets you capture or upload a photo, sends it to a
vision-capable LLM for a safety check and a one-paragraph fact, and keeps
the five most recent discoveries in a local SQLite database.`,
		Example: `  # Start server on default port 8888
  snapfact serve

  # Start server on custom port with a custom database location
  snapfact serve --port 3000 --db /var/lib/snapfact/discoveries.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			service, err := analysis.NewService()
			if err != nil {
				return err
			}

			handler := handlers.New(store, service)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/analyze-image", handler.WithCORS(handler.HandleAnalyzeImage))
			mux.HandleFunc("/api/discoveries", handler.WithCORS(handler.HandleDiscoveries))
			mux.HandleFunc("/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Snapfact interface available", "addr", addr, "url", "http://localhost"+addr, "db", dbPath)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&dbPath, "db", "snapfact.db", "Path to the discoveries database")

	return cmd
}
