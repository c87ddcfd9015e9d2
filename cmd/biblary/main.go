// Package main provides the biblary CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lepinkainen/humanlog"
	"github.com/spf13/cobra"

	"github.com/matsen/biblary/internal/adapter"
	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/config"
	"github.com/matsen/biblary/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	humanOutput bool   // Use human-readable output instead of JSON
	verbose     bool   // Log at debug level
	configPath  string // Explicit config file
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "biblary",
	Short: "Manage a bibliography and the files attached to its entries",
	Long: `biblary manages a bibliography stored as BibTeX, JSONL or SQLite,
together with manuscript, preprint and supplementary PDFs for each entry.

Settings come from biblary.yml (working directory or ~/.config/biblary),
BIBLARY_* environment variables and .env. Run 'biblary config init' to
create a config file.

All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: biblary.yml)")
	rootCmd.Version = Version
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// openStorage returns the configured file storage, or nil when none is configured.
func openStorage(cfg *config.Config) *storage.FileSystem {
	if cfg.Storage.Kind != config.StorageFileSystem {
		return nil
	}
	return storage.NewFileSystem(cfg.Storage.Path)
}

// openBibliography loads the configured bibliography.
// The caller is responsible for releasing the adapter with adapter.Close.
func openBibliography(cfg *config.Config) (*bibliography.Bibliography, error) {
	a, err := adapter.Open(cfg.Adapter.Kind, cfg.Adapter.Path)
	if err != nil {
		return nil, err
	}

	var store bibliography.Storage
	if fs := openStorage(cfg); fs != nil {
		store = fs
	}

	bib, err := bibliography.New(a, store)
	if err != nil {
		adapter.Close(a)
		return nil, fmt.Errorf("loading %s: %w", cfg.Adapter.Path, err)
	}
	return bib, nil
}

// mustOpenBibliography loads the configured bibliography, exits on error.
// The caller is responsible for calling adapter.Close(bib.Adapter()).
func mustOpenBibliography(cfg *config.Config) *bibliography.Bibliography {
	bib, err := openBibliography(cfg)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}
	return bib
}
