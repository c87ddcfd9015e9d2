package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/biblary/internal/config"
)

var (
	configForce  bool
	configGlobal bool
)

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing config file")
	configInitCmd.Flags().BoolVarP(&configGlobal, "global", "g", false, "Write to the global config directory")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a default biblary.yml to the working directory, or with --global
to the global config directory (~/.config/biblary).`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after applying the config file,
BIBLARY_* environment variables and .env.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// ConfigResponse is the JSON output of config show.
type ConfigResponse struct {
	Source string         `json:"source,omitempty"`
	Config *config.Config `json:"config"`
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := initConfigPath(configPath, configGlobal, config.GlobalConfigPath())
	if path == "" {
		exitWithError(ExitConfigError, "cannot determine global config directory")
	}

	if err := config.WriteDefault(path, configForce); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			exitWithError(ExitConfigError, "%v (use --force to overwrite)", err)
		}
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Wrote %s\n", path)
		return nil
	}
	return outputJSON(StatusResponse{Status: "created", Path: path})
}

// initConfigPath picks where config init writes: an explicit --config path,
// the global directory, or the working directory.
func initConfigPath(explicit string, global bool, globalDir string) string {
	switch {
	case explicit != "":
		return explicit
	case global:
		if globalDir == "" {
			return ""
		}
		return filepath.Join(globalDir, config.ConfigFile)
	default:
		return config.ConfigFile
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if humanOutput {
		data, err := cfg.YAML()
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if cfg.Source() != "" {
			outputHuman("# %s\n", cfg.Source())
		}
		outputHuman("%s", data)
		return nil
	}
	return outputJSON(ConfigResponse{Source: cfg.Source(), Config: cfg})
}
