package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matsen/biblary/internal/adapter"
	"github.com/matsen/biblary/internal/author"
	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/web"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bibliography over HTTP",
	Long: `Serve the bibliography over HTTP.

Endpoints:
  GET  /                                   HTML index of entries
  GET  /entries.json                       entries with their stored files
  POST /entries                            add an entry (raw body or form field "content")
  GET  /file/{identifier}/{file_type}      download a stored PDF
  POST /file/{identifier}/{file_type}      upload a PDF (raw body or form field "content")
  GET  /health                             liveness check

The bibliography is reloaded on every request.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	// Fail fast on an unreadable bibliography instead of on the first request.
	bib := mustOpenBibliography(cfg)
	adapter.Close(bib.Adapter())

	matcher, err := author.NewMatcher(cfg.MainAuthor.Patterns, cfg.MainAuthor.Class)
	if err != nil {
		exitWithError(ExitConfigError, "main author patterns: %v", err)
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	handler := web.NewHandler(web.HandlerConfig{
		Bibliography: func() (*bibliography.Bibliography, error) {
			return openBibliography(cfg)
		},
		MainAuthors:    matcher,
		UploadRate:     cfg.Server.UploadRate,
		UploadBurst:    cfg.Server.UploadBurst,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	srv, err := web.NewServer(addr, handler)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("serving bibliography", "adapter", cfg.Adapter.Kind, "path", cfg.Adapter.Path, "port", srv.Port())
	if err := srv.Run(ctx); err != nil {
		exitWithError(ExitError, "server: %v", err)
	}
	slog.Info("server stopped")
	return nil
}
