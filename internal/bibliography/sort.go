package bibliography

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/matsen/biblary/internal/entry"
)

// Compare orders two entries, returning a negative number when a sorts before b.
type Compare func(a, b *entry.Entry) int

// ByYear orders entries by publication year. Entries without a year come first.
func ByYear(a, b *entry.Entry) int {
	return compareOptional(a.Year, b.Year)
}

// ByAuthor orders entries by their author lists, compared name by name.
func ByAuthor(a, b *entry.Entry) int {
	return slices.Compare(a.Author, b.Author)
}

// ByIdentifier orders entries by identifier.
func ByIdentifier(a, b *entry.Entry) int {
	return cmp.Compare(a.Identifier, b.Identifier)
}

// ByTitle orders entries by title, case-insensitively.
func ByTitle(a, b *entry.Entry) int {
	switch {
	case a.Title == nil && b.Title == nil:
		return 0
	case a.Title == nil:
		return -1
	case b.Title == nil:
		return 1
	}
	return cmp.Compare(strings.ToLower(*a.Title), strings.ToLower(*b.Title))
}

// ByAuthorYear orders entries by author list, then by year.
var ByAuthorYear = Then(ByAuthor, ByYear)

// Then combines comparators into a composite key: later comparators break
// ties left by earlier ones.
func Then(cmps ...Compare) Compare {
	return func(a, b *entry.Entry) int {
		for _, c := range cmps {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}

// Reverse inverts a comparator. Equal entries stay equal, so a stable sort
// keeps their relative order.
func Reverse(c Compare) Compare {
	return func(a, b *entry.Entry) int {
		return c(b, a)
	}
}

// SortKey resolves a sort key name as used on the command line and in query strings.
func SortKey(name string) (Compare, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return nil, nil
	case "year":
		return ByYear, nil
	case "author":
		return ByAuthor, nil
	case "author-year", "author,year":
		return ByAuthorYear, nil
	case "identifier", "id":
		return ByIdentifier, nil
	case "title":
		return ByTitle, nil
	}
	return nil, fmt.Errorf("unknown sort key: %s (valid: year, author, author-year, identifier, title)", name)
}

func compareOptional[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}
