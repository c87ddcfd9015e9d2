package adapter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/bibtex"
	"github.com/matsen/biblary/internal/entry"
)

// monthNames maps lower-cased month names and abbreviations to month numbers.
var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

// parseBibTeX parses BibTeX text into entries. Any syntax or field error
// wraps bibliography.ErrParsing.
func parseBibTeX(text string) ([]*entry.Entry, error) {
	records, err := bibtex.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", bibliography.ErrParsing, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: failed to parse entries from bibliography", bibliography.ErrParsing)
	}

	entries := make([]*entry.Entry, 0, len(records))
	for _, rec := range records {
		e, err := recordToEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %w", bibliography.ErrParsing, rec.Key, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// recordToEntry converts a BibTeX record, decoding LaTeX markup and
// normalising authors ("Last, First" becomes "First Last") and page ranges.
func recordToEntry(rec bibtex.Record) (*entry.Entry, error) {
	e := &entry.Entry{Type: strings.ToLower(rec.Type), Identifier: rec.Key}

	if v, ok := rec.Get("author"); ok {
		e.Author = parseAuthors(v)
	}

	e.Title = decodedField(rec, "title")
	e.Publisher = decodedField(rec, "publisher")
	e.Journal = decodedField(rec, "journal")
	e.Keyword = decodedField(rec, "keyword", "keywords")
	e.URL = decodedField(rec, "url")
	e.DOI = decodedField(rec, "doi")
	e.Volume = decodedField(rec, "volume")
	e.Issue = decodedField(rec, "number", "issue")

	if pages := decodedField(rec, "pages"); pages != nil {
		e.Pages = entry.String(doubleHyphen(*pages))
	}

	var err error
	if e.Year, err = intField(rec, "year"); err != nil {
		return nil, err
	}
	if e.Month, err = monthField(rec); err != nil {
		return nil, err
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// entryToRecord converts an entry back to a BibTeX record with escaped values.
func entryToRecord(e *entry.Entry) bibtex.Record {
	rec := bibtex.Record{Type: e.Type, Key: e.Identifier}

	if e.Author != nil {
		names := make([]string, len(e.Author))
		for i, a := range e.Author {
			names[i] = bibtex.Escape(strings.TrimSpace(a))
		}
		rec.Set("author", strings.Join(names, " and "))
	}

	setString := func(name string, v *string) {
		if v != nil {
			rec.Set(name, bibtex.Escape(*v))
		}
	}
	setInt := func(name string, v *int) {
		if v != nil {
			rec.Set(name, strconv.Itoa(*v))
		}
	}

	setString("title", e.Title)
	setString("publisher", e.Publisher)
	setString("journal", e.Journal)
	setString("volume", e.Volume)
	setString("number", e.Issue)
	setString("pages", e.Pages)
	setInt("month", e.Month)
	setInt("year", e.Year)
	setString("keyword", e.Keyword)
	setString("url", e.URL)
	setString("doi", e.DOI)

	return rec
}

// parseAuthors splits an author field on top-level " and " separators.
func parseAuthors(raw string) []string {
	authors := []string{}
	for _, part := range splitTopLevel(raw, " and ") {
		name := strings.TrimSpace(bibtex.Decode(part))
		if name == "" {
			continue
		}
		if strings.Contains(name, ",") {
			pieces := strings.Split(name, ",")
			for i, j := 0, len(pieces)-1; i < j; i, j = i+1, j-1 {
				pieces[i], pieces[j] = pieces[j], pieces[i]
			}
			var kept []string
			for _, p := range pieces {
				if p = strings.TrimSpace(p); p != "" {
					kept = append(kept, p)
				}
			}
			name = strings.Join(kept, " ")
		}
		authors = append(authors, name)
	}
	return authors
}

// splitTopLevel splits s on sep, case-insensitively, ignoring separators inside braces.
func splitTopLevel(s, sep string) []string {
	var parts []string
	lower := strings.ToLower(s)
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 && strings.HasPrefix(lower[i:], sep) {
				parts = append(parts, s[start:i])
				i += len(sep) - 1
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// doubleHyphen normalises a page range to use "--" between pages.
func doubleHyphen(pages string) string {
	if !strings.Contains(pages, "-") {
		return pages
	}
	var kept []string
	for _, p := range strings.Split(pages, "-") {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "--")
}

// decodedField returns the decoded value of the first present field among names.
func decodedField(rec bibtex.Record, names ...string) *string {
	for _, name := range names {
		if v, ok := rec.Get(name); ok {
			return entry.String(bibtex.Decode(v))
		}
	}
	return nil
}

func intField(rec bibtex.Record, names ...string) (*int, error) {
	v := decodedField(rec, names...)
	if v == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*v))
	if err != nil {
		return nil, fmt.Errorf("field %s: %q is not an integer", names[0], *v)
	}
	return &n, nil
}

func monthField(rec bibtex.Record) (*int, error) {
	v := decodedField(rec, "month")
	if v == nil {
		return nil, nil
	}
	s := strings.ToLower(strings.TrimSpace(*v))
	n, ok := monthNames[s]
	if !ok {
		var err error
		if n, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("field month: %q is not a month", *v)
		}
	}
	if n < 1 || n > 12 {
		return nil, fmt.Errorf("field month: %d is out of range", n)
	}
	return &n, nil
}
