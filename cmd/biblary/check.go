package main

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/biblary/internal/adapter"
	"github.com/matsen/biblary/internal/entry"
	"github.com/matsen/biblary/internal/pdf"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify bibliography integrity",
	Long: `Verify bibliography integrity, checking for duplicate DOIs and entries
missing an author, title or year. Loading the bibliography already rejects
duplicate identifiers.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status  string       `json:"status"`
	Entries int          `json:"entries"`
	Issues  []CheckIssue `json:"issues"`
}

// CheckIssue represents a single issue found during check.
type CheckIssue struct {
	Type  string   `json:"type"`
	ID    string   `json:"id,omitempty"`
	IDs   []string `json:"ids,omitempty"`
	DOI   string   `json:"doi,omitempty"`
	Field string   `json:"field,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	bib := mustOpenBibliography(cfg)
	defer adapter.Close(bib.Adapter())

	issues := checkEntries(bib.List(nil, false))

	result := CheckResult{Status: "ok", Entries: bib.Len(), Issues: issues}
	if len(issues) > 0 {
		result.Status = "issues"
	}

	if humanOutput {
		if len(issues) == 0 {
			outputHuman("Bibliography check: OK\n\n%d entries checked\n", result.Entries)
		} else {
			outputHuman("Bibliography check: %d issues found\n\n", len(issues))
			for _, issue := range issues {
				switch issue.Type {
				case "duplicate_doi":
					outputHuman("  [WARN] Duplicate DOI %s\n", issue.DOI)
					outputHuman("         Found in: %s\n", strings.Join(issue.IDs, ", "))
				case "missing_field":
					outputHuman("  [WARN] %s has no %s\n", issue.ID, issue.Field)
				}
			}
		}
	} else {
		outputJSON(result)
	}

	return nil
}

// checkEntries reports duplicate DOIs and missing author, title or year fields.
func checkEntries(entries []*entry.Entry) []CheckIssue {
	issues := []CheckIssue{}

	doiMap := make(map[string][]string) // normalized DOI -> identifiers
	for _, e := range entries {
		if e.DOI != nil && *e.DOI != "" {
			doi := pdf.NormalizeDOI(*e.DOI)
			doiMap[doi] = append(doiMap[doi], e.Identifier)
		}
	}
	dois := make([]string, 0, len(doiMap))
	for doi := range doiMap {
		dois = append(dois, doi)
	}
	sort.Strings(dois)
	for _, doi := range dois {
		if ids := doiMap[doi]; len(ids) > 1 {
			issues = append(issues, CheckIssue{Type: "duplicate_doi", DOI: doi, IDs: ids})
		}
	}

	for _, e := range entries {
		if len(e.Author) == 0 {
			issues = append(issues, CheckIssue{Type: "missing_field", ID: e.Identifier, Field: "author"})
		}
		if strings.TrimSpace(entry.StringValue(e.Title)) == "" {
			issues = append(issues, CheckIssue{Type: "missing_field", ID: e.Identifier, Field: "title"})
		}
		if e.Year == nil {
			issues = append(issues, CheckIssue{Type: "missing_field", ID: e.Identifier, Field: "year"})
		}
	}
	return issues
}
