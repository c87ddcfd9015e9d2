package bibtex

import (
	"errors"
	"strings"
	"testing"
)

const basicBib = `% A comment line outside of any entry
@comment{ignored {nested} block}

@string{ap = "Annalen der Physik"}

@article{Einstein1905,
  author = {Einstein, Albert},
  title = {{Zur Elektrodynamik bewegter K\"orper}},
  journal = ap,
  volume = 322,
  number = {10},
  pages = {891-921},
  month = jun,
  year = 1905,
  doi = {10.1002/andp.19053221004}
}

@Book(Planck1906,
  author = "Planck, Max",
  title = "Vorlesungen " # "{\"u}ber die Theorie der W{\"a}rmestrahlung",
  publisher = {J. A. Barth},
  year = {1906},
)
`

func TestParseString_Basic(t *testing.T) {
	records, err := ParseString(basicBib)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ParseString() returned %d records, want 2", len(records))
	}

	einstein := records[0]
	if einstein.Type != "article" || einstein.Key != "Einstein1905" {
		t.Errorf("first record = %s/%s, want article/Einstein1905", einstein.Type, einstein.Key)
	}

	tests := []struct {
		field string
		want  string
	}{
		{"author", "Einstein, Albert"},
		{"title", `{Zur Elektrodynamik bewegter K\"orper}`},
		{"journal", "Annalen der Physik"},
		{"volume", "322"},
		{"number", "10"},
		{"pages", "891-921"},
		{"month", "June"},
		{"year", "1905"},
		{"doi", "10.1002/andp.19053221004"},
	}
	for _, tt := range tests {
		got, ok := einstein.Get(tt.field)
		if !ok {
			t.Errorf("Get(%q) missing", tt.field)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}

	planck := records[1]
	if planck.Type != "book" || planck.Key != "Planck1906" {
		t.Errorf("second record = %s/%s, want book/Planck1906", planck.Type, planck.Key)
	}
	if got, _ := planck.Get("title"); got != `Vorlesungen {\"u}ber die Theorie der W{\"a}rmestrahlung` {
		t.Errorf("concatenated title = %q", got)
	}
}

func TestParseString_FieldOrderPreserved(t *testing.T) {
	records, err := ParseString(`@misc{k, zeta = {1}, alpha = {2}, Mid = {3}}`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	var names []string
	for _, f := range records[0].Fields {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "zeta,alpha,mid" {
		t.Errorf("field names = %v, want [zeta alpha mid]", names)
	}
}

func TestParseString_CollapsesWhitespace(t *testing.T) {
	records, err := ParseString("@misc{k, title = {A\n      long\ttitle  }}")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if got, _ := records[0].Get("title"); got != "A long title" {
		t.Errorf("title = %q, want %q", got, "A long title")
	}
}

func TestParseString_NoEntries(t *testing.T) {
	for _, src := range []string{"", "invalid", "contact: someone@example.org", "@comment{only}"} {
		records, err := ParseString(src)
		if err != nil {
			t.Errorf("ParseString(%q) error = %v", src, err)
		}
		if len(records) != 0 {
			t.Errorf("ParseString(%q) returned %d records, want 0", src, len(records))
		}
	}
}

func TestParseString_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantLine int
	}{
		{"missing key", "@article{,\n title = {x}}", 1},
		{"missing equals", "@article{k,\n title {x}}", 2},
		{"unterminated entry", "@article{k,\n title = {x},\n", 3},
		{"unterminated value", "@article{k,\n\n title = {x", 3},
		{"garbage after value", "@article{k, title = {x} year = 1}", 1},
		{"bad value start", "@article{k, title = ,}", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.src)
			var synErr *SyntaxError
			if !errors.As(err, &synErr) {
				t.Fatalf("ParseString() error = %v, want *SyntaxError", err)
			}
			if synErr.Line != tt.wantLine {
				t.Errorf("SyntaxError.Line = %d, want %d (%v)", synErr.Line, tt.wantLine, synErr)
			}
		})
	}
}

func TestParse_Reader(t *testing.T) {
	records, err := Parse(strings.NewReader("@article{a, year = 2000}"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 || records[0].Key != "a" {
		t.Errorf("Parse() = %+v", records)
	}
}

func TestRecordSet(t *testing.T) {
	r := Record{Type: "article", Key: "k"}
	r.Set("Title", "First")
	r.Set("year", "2000")
	r.Set("title", "Second")

	if len(r.Fields) != 2 {
		t.Fatalf("Fields = %v, want 2 fields", r.Fields)
	}
	if got, _ := r.Get("TITLE"); got != "Second" {
		t.Errorf("Get(title) = %q, want Second", got)
	}
}

func TestWriteThenParse(t *testing.T) {
	records := []Record{
		{Type: "article", Key: "a", Fields: []Field{{"author", "Bohr, Niels"}, {"title", Escape("50% of {all} cases & more")}}},
		{Type: "book", Key: "b"},
	}

	out := Format(records...)
	if !strings.HasPrefix(out, "@article{a,\n    author = {Bohr, Niels},\n") {
		t.Errorf("Format() output:\n%s", out)
	}

	parsed, err := ParseString(out)
	if err != nil {
		t.Fatalf("ParseString() error = %v\n%s", err, out)
	}
	if len(parsed) != 2 {
		t.Fatalf("ParseString() returned %d records, want 2", len(parsed))
	}
	title, _ := parsed[0].Get("title")
	if Decode(title) != "50% of {all} cases & more" {
		t.Errorf("round-tripped title = %q", Decode(title))
	}
	if parsed[1].Key != "b" || len(parsed[1].Fields) != 0 {
		t.Errorf("second record = %+v", parsed[1])
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{`{Zur Elektrodynamik bewegter K\"orper}`, "Zur Elektrodynamik bewegter Körper"},
		{`Schr{\"o}dinger`, "Schrödinger"},
		{`Poincar\'{e}`, "Poincaré"},
		{`Erd\H{o}s`, "Erdős"},
		{`Ga\ss{}`, "Gaß"},
		{`\c Ca\u{g}lar`, "Çağlar"},
		{`Sm\o rgrav`, "Smørgrav"},
		{`Rock \& Roll`, "Rock & Roll"},
		{`100\%`, "100%"},
		{`A.~Einstein`, "A. Einstein"},
		{`\emph{kept}`, `\emphkept`},
		{`\textasciitilde{}home`, "~home"},
		{`a\textbackslash{}b`, `a\b`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Decode(tt.in); got != tt.want {
				t.Errorf("Decode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeDecodeRoundTrip(t *testing.T) {
	for _, s := range []string{
		"plain",
		`back\slash`,
		"50% & $5 #1 snake_case {braces} ~tilde ^caret",
		"Körper",
	} {
		if got := Decode(Escape(s)); got != s {
			t.Errorf("Decode(Escape(%q)) = %q", s, got)
		}
	}
}

func TestRecordCheck(t *testing.T) {
	tests := []struct {
		typ     string
		key     string
		wantErr bool
	}{
		{"article", "Einstein1905", false},
		{"Article", "doi:10.1000/x_y-z.1", false},
		{"", "k", true},
		{"article", "", true},
		{"journal article", "k", true},
		{"art{icle", "k", true},
		{"string", "k", true},
		{"Comment", "k", true},
		{"article", "smith, 2020", true},
		{"article", "smith 2020", true},
		{"article", "smith\t2020", true},
		{"article", "smith}", true},
		{"article", "{smith", true},
		{"article", "smith(2020)", true},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.key, func(t *testing.T) {
			r := Record{Type: tt.typ, Key: tt.key}
			err := r.Check()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Check() error = %v, want ErrInvalidKey", err)
				}
				return
			}

			parsed, err := ParseString(Format(r))
			if err != nil {
				t.Fatalf("ParseString(Format()) error = %v", err)
			}
			if len(parsed) != 1 || parsed[0].Key != tt.key {
				t.Errorf("round trip = %+v, want key %q", parsed, tt.key)
			}
		})
	}
}
