package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/biblary/internal/adapter"
	"github.com/matsen/biblary/internal/author"
	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/entry"
)

var (
	listSort    string
	listReverse bool
	listAuthors []string
	listLimit   int
)

func init() {
	listCmd.Flags().StringVarP(&listSort, "sort", "s", "", "Sort by: year, author, author-year, identifier, title (default: source order)")
	listCmd.Flags().BoolVarP(&listReverse, "reverse", "r", false, "Reverse the sort order (requires --sort)")
	listCmd.Flags().StringArrayVarP(&listAuthors, "author", "a", nil, "Only entries by this author (repeatable, AND logic)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum number of entries (0 for all)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries of the bibliography",
	Long: `List entries of the bibliography.

Author queries accept "Last", "First Last" or "Last, First"; first names
match by prefix.

Examples:
  biblary list --sort year --reverse
  biblary list -a Einstein -a "B Podolsky"`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cmp, err := bibliography.SortKey(listSort)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	cfg := mustLoadConfig()
	bib := mustOpenBibliography(cfg)
	defer adapter.Close(bib.Adapter())

	entries := filterEntries(bib.List(cmp, listReverse), listAuthors, listLimit)

	if humanOutput {
		if len(entries) == 0 {
			outputHuman("No entries found\n")
			return nil
		}
		for _, e := range entries {
			outputHuman("%s\n", formatEntryLine(e))
		}
		return nil
	}

	if entries == nil {
		entries = []*entry.Entry{}
	}
	return outputJSON(entries)
}

// filterEntries keeps the entries matching every author query, up to limit (0 for all).
func filterEntries(entries []*entry.Entry, authors []string, limit int) []*entry.Entry {
	queries := make([]author.Query, 0, len(authors))
	for _, a := range authors {
		if q := author.ParseQuery(a); q.Last != "" {
			queries = append(queries, q)
		}
	}

	var out []*entry.Entry
	for _, e := range entries {
		if !author.AllMatch(queries, e.Author) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
