package bibtex

import (
	"fmt"
	"io"
	"strings"
)

// monthMacros are the predefined BibTeX month strings.
var monthMacros = map[string]string{
	"jan": "January", "feb": "February", "mar": "March", "apr": "April",
	"may": "May", "jun": "June", "jul": "July", "aug": "August",
	"sep": "September", "oct": "October", "nov": "November", "dec": "December",
}

// Parse reads all entries from a BibTeX database.
// Text outside of entries is ignored, as are @comment and @preamble blocks.
func Parse(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bibtex: %w", err)
	}
	return ParseString(string(data))
}

// ParseString reads all entries from BibTeX source text.
func ParseString(src string) ([]Record, error) {
	p := &parser{src: src, macros: make(map[string]string, len(monthMacros))}
	for k, v := range monthMacros {
		p.macros[k] = v
	}

	var records []Record
	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			break
		}
		p.pos += at + 1

		rec, ok, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

type parser struct {
	src    string
	pos    int
	macros map[string]string
}

// parseBlock parses whatever follows an '@'. It reports ok=false for blocks
// that are not entries (comments, preambles, string definitions, stray '@').
func (p *parser) parseBlock() (Record, bool, error) {
	typ := strings.ToLower(p.readWhile(isIdentChar))
	if typ == "" {
		return Record{}, false, nil
	}
	p.skipSpace()
	if p.eof() {
		return Record{}, false, nil
	}

	var closer byte
	switch p.src[p.pos] {
	case '{':
		closer = '}'
	case '(':
		closer = ')'
	default:
		return Record{}, false, nil
	}
	opener := p.src[p.pos]
	p.pos++

	switch typ {
	case "comment", "preamble":
		return Record{}, false, p.skipBalanced(opener, closer)
	case "string":
		return Record{}, false, p.parseStringDef(closer)
	}

	rec, err := p.parseEntry(typ, closer)
	return rec, err == nil, err
}

func (p *parser) parseEntry(typ string, closer byte) (Record, error) {
	rec := Record{Type: typ}

	p.skipSpace()
	rec.Key = p.readWhile(func(c byte) bool {
		return c != ',' && c != closer && !isSpace(c)
	})
	if rec.Key == "" {
		return Record{}, p.errorf("missing citation key in @%s entry", typ)
	}

	for {
		p.skipSpace()
		if p.eof() {
			return Record{}, p.errorf("unterminated entry %s", rec.Key)
		}
		switch p.src[p.pos] {
		case closer:
			p.pos++
			return rec, nil
		case ',':
			p.pos++
			continue
		}

		name := strings.ToLower(p.readWhile(isIdentChar))
		if name == "" {
			return Record{}, p.errorf("expected field name in entry %s, found %q", rec.Key, p.src[p.pos])
		}
		p.skipSpace()
		if !p.consume('=') {
			return Record{}, p.errorf("expected '=' after field %s in entry %s", name, rec.Key)
		}

		value, err := p.readValue()
		if err != nil {
			return Record{}, err
		}
		rec.Fields = append(rec.Fields, Field{Name: name, Value: value})

		p.skipSpace()
		if p.eof() {
			return Record{}, p.errorf("unterminated entry %s", rec.Key)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case closer:
			p.pos++
			return rec, nil
		default:
			return Record{}, p.errorf("expected ',' or '%c' after field %s in entry %s", closer, name, rec.Key)
		}
	}
}

func (p *parser) parseStringDef(closer byte) error {
	p.skipSpace()
	name := strings.ToLower(p.readWhile(isIdentChar))
	if name == "" {
		return p.errorf("missing name in @string definition")
	}
	p.skipSpace()
	if !p.consume('=') {
		return p.errorf("expected '=' in @string definition of %s", name)
	}
	value, err := p.readValue()
	if err != nil {
		return err
	}
	p.skipSpace()
	if !p.consume(closer) {
		return p.errorf("unterminated @string definition of %s", name)
	}
	p.macros[name] = value
	return nil
}

// readValue reads a field value: braced or quoted strings, numbers and macro
// names, joined with '#'.
func (p *parser) readValue() (string, error) {
	var b strings.Builder
	for {
		p.skipSpace()
		if p.eof() {
			return "", p.errorf("unexpected end of input in value")
		}

		c := p.src[p.pos]
		switch {
		case c == '{':
			s, err := p.readDelimited('}')
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case c == '"':
			s, err := p.readDelimited('"')
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case isDigit(c):
			b.WriteString(p.readWhile(isDigit))
		case isIdentChar(c):
			name := p.readWhile(isIdentChar)
			if v, ok := p.macros[strings.ToLower(name)]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(name)
			}
		default:
			return "", p.errorf("unexpected %q in value", c)
		}

		p.skipSpace()
		if p.consume('#') {
			continue
		}
		return collapseSpace(b.String()), nil
	}
}

// readDelimited reads a value starting at an opening '{' or '"' up to the
// matching end delimiter and returns its content. Braces nest; a backslash
// escapes the following character.
func (p *parser) readDelimited(end byte) (string, error) {
	startLine := p.line()
	p.pos++ // opening delimiter
	start := p.pos
	depth := 0

	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '\\':
			p.pos += 2
			continue
		case c == '{':
			depth++
		case c == '}' && depth > 0:
			depth--
		case c == end && depth == 0:
			s := p.src[start:p.pos]
			p.pos++
			return s, nil
		case c == '}':
			return "", p.errorf("unbalanced '}' in value")
		}
		p.pos++
	}
	return "", &SyntaxError{Line: startLine, Msg: "unterminated value"}
}

func (p *parser) skipBalanced(opener, closer byte) error {
	startLine := p.line()
	depth := 1
	for !p.eof() {
		switch p.src[p.pos] {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				p.pos++
				return nil
			}
		}
		p.pos++
	}
	return &SyntaxError{Line: startLine, Msg: "unterminated block"}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) consume(c byte) bool {
	if !p.eof() && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) readWhile(ok func(byte) bool) string {
	start := p.pos
	for !p.eof() && ok(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) line() int {
	end := min(p.pos, len(p.src))
	return strings.Count(p.src[:end], "\n") + 1
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.line(), Msg: fmt.Sprintf(format, args...)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) ||
		c == '_' || c == '-' || c == ':' || c == '.' || c == '+' || c == '/'
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
