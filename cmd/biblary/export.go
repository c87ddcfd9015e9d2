package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/biblary/internal/adapter"
	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/entry"
)

var (
	exportKeys []string
	exportSort string
)

func init() {
	exportCmd.Flags().StringSliceVar(&exportKeys, "keys", nil, "Export only these identifiers (comma-separated)")
	exportCmd.Flags().StringVarP(&exportSort, "sort", "s", "", "Sort by: year, author, author-year, identifier, title")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries as BibTeX",
	Long: `Export entries as BibTeX to stdout, whatever the configured adapter.

Examples:
  biblary export > refs.bib
  biblary export --keys einstein1905,epr1935`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cmp, err := bibliography.SortKey(exportSort)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	cfg := mustLoadConfig()
	bib := mustOpenBibliography(cfg)
	defer adapter.Close(bib.Adapter())

	entries, err := selectEntries(bib, cmp, exportKeys)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	text, err := adapter.FormatBibTeX(entries)
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}
	fmt.Print(text)
	return nil
}

// selectEntries returns the entries named by keys in that order, or all
// entries sorted by cmp when keys is empty.
func selectEntries(bib *bibliography.Bibliography, cmp bibliography.Compare, keys []string) ([]*entry.Entry, error) {
	if len(keys) == 0 {
		return bib.List(cmp, false), nil
	}
	entries := make([]*entry.Entry, 0, len(keys))
	for _, k := range keys {
		e, err := bib.Lookup(k)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
