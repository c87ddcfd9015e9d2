// Package adapter reads and writes bibliographies in concrete formats:
// BibTeX files, JSONL files and SQLite databases.
package adapter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/bibtex"
	"github.com/matsen/biblary/internal/entry"
)

// BibTeX is a bibliography adapter backed by a single .bib file.
type BibTeX struct {
	path   string
	indent string
}

var _ bibliography.Adapter = (*BibTeX)(nil)

// NewBibTeX returns an adapter for the BibTeX file at path.
// The file need not exist yet.
func NewBibTeX(path string) *BibTeX {
	return &BibTeX{path: path, indent: bibtex.DefaultIndent}
}

// Path returns the file the adapter reads and writes.
func (a *BibTeX) Path() string {
	return a.path
}

// Entries parses every entry in the file. A missing file, or one holding
// only comments, is an empty bibliography.
func (a *BibTeX) Entries() ([]*entry.Entry, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}

	text := string(data)
	if isBlankBibTeX(text) {
		return nil, nil
	}
	return parseBibTeX(text)
}

// ParseEntry parses the first BibTeX entry in text.
func (a *BibTeX) ParseEntry(text string) (*entry.Entry, error) {
	entries, err := parseBibTeX(text)
	if err != nil {
		return nil, err
	}
	return entries[0], nil
}

// SaveEntries replaces the file with the given entries, in order.
func (a *BibTeX) SaveEntries(entries []*entry.Entry) error {
	records, err := entriesToRecords(entries)
	if err != nil {
		return err
	}
	return writeFileAtomic(a.path, func(w io.Writer) error {
		if err := bibtex.Write(w, records, a.indent); err != nil {
			return fmt.Errorf("writing bibliography: %w", err)
		}
		return nil
	})
}

// isBlankBibTeX reports whether text holds nothing but whitespace and
// '%' comment lines.
func isBlankBibTeX(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "%") {
			return false
		}
	}
	return true
}

// FormatBibTeX renders entries as BibTeX text in the same layout SaveEntries writes.
func FormatBibTeX(entries []*entry.Entry) (string, error) {
	records, err := entriesToRecords(entries)
	if err != nil {
		return "", err
	}
	return bibtex.Format(records...), nil
}

// entriesToRecords converts entries to records, rejecting any whose type or
// identifier could not be read back from BibTeX.
func entriesToRecords(entries []*entry.Entry) ([]bibtex.Record, error) {
	records := make([]bibtex.Record, len(entries))
	for i, e := range entries {
		records[i] = entryToRecord(e)
		if err := records[i].Check(); err != nil {
			return nil, fmt.Errorf("%w: %w", bibliography.ErrInvalidBibliography, err)
		}
	}
	return records, nil
}
