// Package author matches author names: search queries for filtering
// entries and main-author patterns for highlighting.
package author

import "strings"

// Query represents a parsed author search query.
type Query struct {
	First string // First name (may be empty for last-name-only queries)
	Last  string // Last name (required)
}

// ParseQuery parses an author search string into a structured Query.
//
// Supported formats:
//   - "Bohr"         → last="Bohr" (single word = last name only)
//   - "Niels Bohr"   → first="Niels", last="Bohr" (space-separated = First Last)
//   - "Bohr, Niels"  → first="Niels", last="Bohr" (comma = Last, First)
//
// Names are trimmed but case is preserved (matching is case-insensitive).
func ParseQuery(input string) Query {
	input = strings.TrimSpace(input)
	if input == "" {
		return Query{}
	}

	if idx := strings.Index(input, ","); idx > 0 {
		return Query{
			First: strings.TrimSpace(input[idx+1:]),
			Last:  strings.TrimSpace(input[:idx]),
		}
	}

	parts := strings.Fields(input)
	if len(parts) == 1 {
		return Query{Last: parts[0]}
	}

	// "Niels Henrik David Bohr" → first="Niels Henrik David", last="Bohr"
	return Query{
		First: strings.Join(parts[:len(parts)-1], " "),
		Last:  parts[len(parts)-1],
	}
}

// splitName splits an entry author in "First Last" form.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// Matches checks if the query matches an author name in "First Last" form.
//
// Matching rules:
//   - Last name: case-insensitive exact match (required)
//   - First name: case-insensitive prefix match (if query has first name)
//
// This lets "A Einstein" match "Albert Einstein" while "Ein" matches nobody.
func (q Query) Matches(name string) bool {
	if q.Last == "" {
		return false
	}

	first, last := splitName(name)
	if !strings.EqualFold(q.Last, last) {
		return false
	}
	if q.First == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(first), strings.ToLower(q.First))
}

// MatchesAny checks if the query matches any author in the list.
func (q Query) MatchesAny(authors []string) bool {
	for _, a := range authors {
		if q.Matches(a) {
			return true
		}
	}
	return false
}

// AllMatch checks if all queries match at least one author each.
func AllMatch(queries []Query, authors []string) bool {
	for _, q := range queries {
		if !q.MatchesAny(authors) {
			return false
		}
	}
	return true
}
