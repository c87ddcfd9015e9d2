package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/config"
	"github.com/matsen/biblary/internal/entry"
	"github.com/matsen/biblary/internal/pdf"
	"github.com/matsen/biblary/internal/storage"
)

// Constants for output formatting.
const (
	ListTitleMaxLen   = 50 // Used in list command output
	ListAuthorsMaxLen = 30 // Used in list command output
	DetailTitleMaxLen = 70 // Used in get command detail view
)

// ErrorResponse is the JSON body written for a failed command.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitCodeFor maps an error to the exit code reported for it.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfigError
	case bibliography.IsDuplicate(err):
		return ExitDuplicate
	case bibliography.IsParsing(err), bibliography.IsInvalid(err),
		errors.Is(err, entry.ErrMissingField), errors.Is(err, pdf.ErrNotPDF),
		errors.Is(err, storage.ErrInvalidFileType):
		return ExitDataError
	default:
		return ExitError
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// formatYear renders an optional year, "n.d." when absent.
func formatYear(year *int) string {
	if year == nil {
		return "n.d."
	}
	return fmt.Sprintf("%d", *year)
}

// formatAuthors renders the author list for one-line output.
func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " and " + authors[1]
	default:
		return authors[0] + " et al."
	}
}

// formatEntryLine renders an entry as a single list line.
func formatEntryLine(e *entry.Entry) string {
	return fmt.Sprintf("%-20s %-5s %-*s %s",
		e.Identifier,
		formatYear(e.Year),
		ListAuthorsMaxLen, truncate(formatAuthors(e.Author), ListAuthorsMaxLen),
		truncate(entry.StringValue(e.Title), ListTitleMaxLen))
}

// printEntryDetail prints every present field of an entry.
func printEntryDetail(e *entry.Entry, files map[storage.FileType]bool) {
	fmt.Println(e.Identifier)
	fmt.Println(strings.Repeat("=", DetailTitleMaxLen))

	fmt.Printf("Type:      %s\n", e.Type)
	if e.Author != nil {
		fmt.Printf("Authors:   %s\n", strings.Join(e.Author, "; "))
	}
	printField := func(label string, v *string) {
		if v != nil {
			fmt.Printf("%-10s %s\n", label+":", *v)
		}
	}
	printInt := func(label string, v *int) {
		if v != nil {
			fmt.Printf("%-10s %d\n", label+":", *v)
		}
	}
	printField("Title", e.Title)
	printField("Journal", e.Journal)
	printField("Publisher", e.Publisher)
	printField("Volume", e.Volume)
	printField("Issue", e.Issue)
	printField("Pages", e.Pages)
	printInt("Month", e.Month)
	printInt("Year", e.Year)
	printField("Keyword", e.Keyword)
	printField("URL", e.URL)
	printField("DOI", e.DOI)

	if files != nil {
		fmt.Println()
		fmt.Println("Files:")
		for _, ft := range storage.FileTypes() {
			mark := "-"
			if files[ft] {
				mark = "x"
			}
			fmt.Printf("  [%s] %s\n", mark, ft)
		}
	}
}
