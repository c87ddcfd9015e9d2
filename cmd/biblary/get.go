package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/biblary/internal/adapter"
	"github.com/matsen/biblary/internal/entry"
	"github.com/matsen/biblary/internal/storage"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <identifier>",
	Short: "Get a single entry by identifier",
	Long: `Get a single entry by its identifier, with the files stored for it.

Example:
  biblary get einstein1905`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

// GetResponse is the JSON output of the get command.
type GetResponse struct {
	*entry.Entry
	Files map[storage.FileType]bool `json:"files,omitempty"`
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	bib := mustOpenBibliography(cfg)
	defer adapter.Close(bib.Adapter())

	e, err := bib.Lookup(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	files, err := bib.Files(e)
	if err != nil {
		exitWithError(ExitError, "checking files: %v", err)
	}

	if humanOutput {
		printEntryDetail(e, files)
		return nil
	}
	return outputJSON(GetResponse{Entry: e, Files: files})
}
