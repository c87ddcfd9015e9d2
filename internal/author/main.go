package author

import (
	"fmt"
	"regexp"
)

// Matcher recognises the main authors of a bibliography.
// A nil Matcher matches nothing.
type Matcher struct {
	patterns []*regexp.Regexp
	class    string
}

// NewMatcher compiles patterns, each of which must match at the start of an
// author name. Matching authors are labelled with class.
func NewMatcher(patterns []string, class string) (*Matcher, error) {
	m := &Matcher{class: class}
	for _, p := range patterns {
		re, err := regexp.Compile(`^(?:` + p + `)`)
		if err != nil {
			return nil, fmt.Errorf("compiling main author pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// IsMain reports whether name matches any pattern.
func (m *Matcher) IsMain(name string) bool {
	if m == nil {
		return false
	}
	for _, re := range m.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Class returns the highlight class for name, or "" when it is not a main author.
func (m *Matcher) Class(name string) string {
	if !m.IsMain(name) {
		return ""
	}
	return m.class
}
