package bibtex

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// escaper escapes special LaTeX characters.
// Backslash comes first so that the escapes themselves are not re-escaped.
var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

// Escape converts plain text to a BibTeX value that Decode maps back to the same text.
func Escape(s string) string {
	return escaper.Replace(s)
}

// accents maps LaTeX accent commands to Unicode combining marks.
var accents = map[string]rune{
	`"`: '\u0308', // diaeresis
	`'`: '\u0301', // acute
	"`": '\u0300', // grave
	"^": '\u0302', // circumflex
	"~": '\u0303', // tilde
	"=": '\u0304', // macron
	".": '\u0307', // dot above
	"u": '\u0306', // breve
	"v": '\u030C', // caron
	"H": '\u030B', // double acute
	"c": '\u0327', // cedilla
	"k": '\u0328', // ogonek
	"r": '\u030A', // ring above
}

// symbols maps LaTeX text commands to the characters they produce.
var symbols = map[string]string{
	"textbackslash":   `\`,
	"textasciitilde":  "~",
	"textasciicircum": "^",
	"ss":              "ß",
	"o":               "ø",
	"O":               "Ø",
	"ae":              "æ",
	"AE":              "Æ",
	"oe":              "œ",
	"OE":              "Œ",
	"aa":              "å",
	"AA":              "Å",
	"l":               "ł",
	"L":               "Ł",
	"i":               "ı",
	"j":               "ȷ",
}

// Decode converts a BibTeX value to plain Unicode text: escaped characters
// and accent commands are resolved, grouping braces are removed and '~'
// becomes a space. Unknown commands are kept verbatim.
func Decode(s string) string {
	if !strings.ContainsAny(s, `\{}~`) {
		return s
	}
	return norm.NFC.String(decode(s))
}

func decode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		switch c {
		case '{', '}':
			i++
		case '~':
			b.WriteByte(' ')
			i++
		case '\\':
			i = decodeCommand(&b, s, i+1)
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// decodeCommand decodes the command starting after a backslash at s[i] and
// returns the index following it.
func decodeCommand(b *strings.Builder, s string, i int) int {
	if i >= len(s) {
		return i
	}

	c := s[i]
	if strings.IndexByte(`&%$#_{}\ `, c) >= 0 {
		b.WriteByte(c)
		return i + 1
	}

	// Control symbol accents: \"o, \'{e}
	if mark, ok := accents[string(c)]; ok && !isLetter(c) {
		return applyAccent(b, s, i+1, mark)
	}

	if !isLetter(c) {
		b.WriteByte('\\')
		b.WriteByte(c)
		return i + 1
	}

	start := i
	for i < len(s) && isLetter(s[i]) {
		i++
	}
	name := s[start:i]

	if mark, ok := accents[name]; ok && len(name) == 1 {
		return applyAccent(b, s, skipOneSpace(s, i), mark)
	}
	if sym, ok := symbols[name]; ok {
		b.WriteString(sym)
		return skipEmptyGroup(s, i)
	}

	b.WriteByte('\\')
	b.WriteString(name)
	return i
}

// applyAccent writes the accented form of the argument at s[i], which is
// either a braced group or a single character.
func applyAccent(b *strings.Builder, s string, i int, mark rune) int {
	if i >= len(s) {
		return i
	}

	var arg string
	if s[i] == '{' {
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			arg, i = s[i+1:], len(s)
		} else {
			arg, i = s[i+1:i+end], i+end+1
		}
	} else if s[i] == '\\' {
		// \'\i: the argument is itself a command
		var inner strings.Builder
		i = decodeCommand(&inner, s, i+1)
		arg = inner.String()
	} else {
		arg, i = s[i:i+1], i+1
	}

	decoded := []rune(decode(arg))
	if len(decoded) == 0 {
		b.WriteRune(mark)
		return i
	}
	b.WriteRune(decoded[0])
	b.WriteRune(mark)
	b.WriteString(string(decoded[1:]))
	return i
}

func skipOneSpace(s string, i int) int {
	if i < len(s) && s[i] == ' ' {
		return i + 1
	}
	return i
}

func skipEmptyGroup(s string, i int) int {
	if strings.HasPrefix(s[i:], "{}") {
		return i + 2
	}
	return skipOneSpace(s, i)
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
