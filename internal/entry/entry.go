// Package entry defines the bibliographic entry record.
package entry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrMissingField is returned when a required field of an entry is empty.
var ErrMissingField = errors.New("missing required field")

// Entry represents one citation in a bibliography.
//
// Optional fields are nil when absent. An empty string or a zero is a value
// that was present in the source, not a missing one.
type Entry struct {
	// Identity
	Type       string `json:"entry_type"` // BibTeX entry type (article, book, ...)
	Identifier string `json:"identifier"` // Citation key, unique within a bibliography

	// Metadata
	Author    []string `json:"author"` // Author names in "First Last" form; null when absent, [] when present but empty
	Title     *string  `json:"title,omitempty"`
	Publisher *string  `json:"publisher,omitempty"`
	Journal   *string  `json:"journal,omitempty"`
	Volume    *string  `json:"volume,omitempty"` // Free text: "12A", "3-4" and "S1" are all valid
	Issue     *string  `json:"issue,omitempty"`
	Pages     *string  `json:"pages,omitempty"`
	Month     *int     `json:"month,omitempty"` // 1-12
	Year      *int     `json:"year,omitempty"`
	Keyword   *string  `json:"keyword,omitempty"`
	URL       *string  `json:"url,omitempty"`
	DOI       *string  `json:"doi,omitempty"`
}

// Option sets an optional field on an entry being constructed.
type Option func(*Entry)

// New constructs an entry, failing if the type or identifier is empty.
func New(entryType, identifier string, opts ...Option) (*Entry, error) {
	e := &Entry{Type: entryType, Identifier: identifier}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks that the required fields are present.
func (e *Entry) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil entry", ErrMissingField)
	}
	if strings.TrimSpace(e.Type) == "" {
		return fmt.Errorf("%w: entry_type", ErrMissingField)
	}
	if strings.TrimSpace(e.Identifier) == "" {
		return fmt.Errorf("%w: identifier", ErrMissingField)
	}
	return nil
}

// Equal reports whether two entries have identical field values.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Type == other.Type &&
		e.Identifier == other.Identifier &&
		slices.Equal(e.Author, other.Author) &&
		(e.Author == nil) == (other.Author == nil) &&
		equalPtr(e.Title, other.Title) &&
		equalPtr(e.Publisher, other.Publisher) &&
		equalPtr(e.Journal, other.Journal) &&
		equalPtr(e.Volume, other.Volume) &&
		equalPtr(e.Issue, other.Issue) &&
		equalPtr(e.Pages, other.Pages) &&
		equalPtr(e.Month, other.Month) &&
		equalPtr(e.Year, other.Year) &&
		equalPtr(e.Keyword, other.Keyword) &&
		equalPtr(e.URL, other.URL) &&
		equalPtr(e.DOI, other.DOI)
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Author != nil {
		c.Author = slices.Clone(e.Author)
	}
	c.Title = clonePtr(e.Title)
	c.Publisher = clonePtr(e.Publisher)
	c.Journal = clonePtr(e.Journal)
	c.Volume = clonePtr(e.Volume)
	c.Issue = clonePtr(e.Issue)
	c.Pages = clonePtr(e.Pages)
	c.Month = clonePtr(e.Month)
	c.Year = clonePtr(e.Year)
	c.Keyword = clonePtr(e.Keyword)
	c.URL = clonePtr(e.URL)
	c.DOI = clonePtr(e.DOI)
	return &c
}

// AuthorString joins the author list with " and ", or returns "" when absent.
func (e *Entry) AuthorString() string {
	return strings.Join(e.Author, " and ")
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// String returns a pointer to s, for populating optional fields.
func String(s string) *string { return &s }

// Int returns a pointer to n, for populating optional fields.
func Int(n int) *int { return &n }

// StringValue returns the value of an optional string or "" when absent.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// IntValue returns the value of an optional int or 0 when absent.
func IntValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
