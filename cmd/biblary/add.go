package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/biblary/internal/adapter"
)

func init() {
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add [file|-]",
	Short: "Add an entry to the bibliography",
	Long: `Add an entry to the bibliography and save it.

The entry is read from the named file, or from stdin when the argument is
"-" or absent. Its format follows the configured adapter: BibTeX for bibtex,
a JSON object or BibTeX for jsonl and sqlite.

Examples:
  biblary add entry.bib
  pbpaste | biblary add`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	text, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		exitWithError(ExitError, "reading entry: %v", err)
	}

	cfg := mustLoadConfig()
	bib := mustOpenBibliography(cfg)
	defer adapter.Close(bib.Adapter())

	e, err := bib.AddText(text)
	if err != nil {
		exitWithError(exitCodeFor(err), "adding entry: %v", err)
	}
	if err := bib.Save(); err != nil {
		exitWithError(exitCodeFor(err), "saving bibliography: %v", err)
	}

	if humanOutput {
		outputHuman("Added %s (%d entries)\n", e.Identifier, bib.Len())
		return nil
	}
	return outputJSON(e)
}

// readInput reads the named file, or stdin for "-" or no argument.
func readInput(args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
