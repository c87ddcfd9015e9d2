// Package bibtex reads and writes BibTeX databases.
//
// Values are kept as BibTeX source text: outer delimiters removed, macros
// expanded, concatenations joined and whitespace collapsed, but LaTeX markup
// left in place. Use Decode and Escape to convert between that text and
// plain Unicode.
package bibtex

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned by Check for an entry type or citation key that
// would not parse back.
var ErrInvalidKey = errors.New("bibtex: invalid entry type or citation key")

// Field is one "name = value" pair of an entry.
type Field struct {
	Name  string
	Value string
}

// Record is a single BibTeX entry.
type Record struct {
	Type   string  // Entry type, lower-cased (article, book, ...)
	Key    string  // Citation key
	Fields []Field // Fields in source order, names lower-cased
}

// Get returns the value of the named field.
func (r Record) Get(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the named field or appends it if absent.
func (r *Record) Set(name, value string) {
	name = strings.ToLower(name)
	for i, f := range r.Fields {
		if f.Name == name {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// Check reports whether the record's type and key survive Write followed by Parse.
func (r Record) Check() error {
	switch {
	case r.Type == "":
		return fmt.Errorf("%w: empty entry type", ErrInvalidKey)
	case strings.IndexFunc(r.Type, func(c rune) bool { return c > 0x7f || !isIdentChar(byte(c)) }) >= 0:
		return fmt.Errorf("%w: entry type %q", ErrInvalidKey, r.Type)
	}
	switch strings.ToLower(r.Type) {
	case "comment", "preamble", "string":
		return fmt.Errorf("%w: reserved entry type %q", ErrInvalidKey, r.Type)
	}
	if r.Key == "" {
		return fmt.Errorf("%w: empty citation key", ErrInvalidKey)
	}
	if i := strings.IndexAny(r.Key, " \t\r\n,{}()"); i >= 0 {
		return fmt.Errorf("%w: citation key %q contains %q", ErrInvalidKey, r.Key, r.Key[i])
	}
	return nil
}

// SyntaxError describes malformed BibTeX input.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bibtex: line %d: %s", e.Line, e.Msg)
}
