package entry

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	e, err := New("article", "Planck1901",
		WithAuthor("M. Planck"),
		WithTitle("Ueber das Gesetz der Energieverteilung im Normalspectrum"),
		WithYear(1901),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if e.Type != "article" || e.Identifier != "Planck1901" {
		t.Errorf("New() = %+v, want type article and identifier Planck1901", e)
	}
	if IntValue(e.Year) != 1901 {
		t.Errorf("Year = %v, want 1901", e.Year)
	}
	if e.Journal != nil {
		t.Errorf("Journal = %q, want absent", *e.Journal)
	}
}

func TestNew_MissingFields(t *testing.T) {
	tests := []struct {
		name       string
		entryType  string
		identifier string
	}{
		{"missing type", "", "id"},
		{"missing identifier", "article", ""},
		{"whitespace identifier", "article", "   "},
		{"both missing", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entryType, tt.identifier)
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("New(%q, %q) error = %v, want ErrMissingField", tt.entryType, tt.identifier, err)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	var e *Entry
	if err := e.Validate(); !errors.Is(err, ErrMissingField) {
		t.Errorf("Validate() on nil = %v, want ErrMissingField", err)
	}
}

func TestEqual(t *testing.T) {
	base := func() *Entry {
		e, _ := New("article", "a", WithAuthor("A. Einstein"), WithYear(1905), WithDOI("10.1002/andp.19053220607"))
		return e
	}

	tests := []struct {
		name   string
		modify func(*Entry)
		want   bool
	}{
		{"identical", func(*Entry) {}, true},
		{"different year", func(e *Entry) { e.Year = Int(1906) }, false},
		{"absent vs present title", func(e *Entry) { e.Title = String("") }, false},
		{"different author", func(e *Entry) { e.Author = []string{"N. Bohr"} }, false},
		{"absent author", func(e *Entry) { e.Author = nil }, false},
		{"different type", func(e *Entry) { e.Type = "book" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base()
			tt.modify(other)
			if got := base().Equal(other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClone(t *testing.T) {
	e, _ := New("article", "a", WithAuthor("A. Einstein"), WithYear(1905))
	c := e.Clone()

	if !e.Equal(c) {
		t.Fatalf("Clone() not equal to original")
	}

	*c.Year = 1916
	c.Author[0] = "N. Bohr"
	if IntValue(e.Year) != 1905 || e.Author[0] != "A. Einstein" {
		t.Errorf("mutating clone changed original: %+v", e)
	}
}

func TestJSON_AbsentFieldsOmitted(t *testing.T) {
	e, _ := New("article", "a", WithYear(0), WithVolume("12A"))

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Year == nil || *decoded.Year != 0 {
		t.Errorf("Year = %v, want present zero", decoded.Year)
	}
	if StringValue(decoded.Volume) != "12A" {
		t.Errorf("Volume = %v, want 12A", decoded.Volume)
	}
	if decoded.Title != nil {
		t.Errorf("Title = %v, want absent", decoded.Title)
	}
}

func TestJSON_AuthorPresence(t *testing.T) {
	tests := []struct {
		name   string
		author []string
	}{
		{"absent", nil},
		{"present but empty", []string{}},
		{"present", []string{"Niels Bohr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Entry{Type: "misc", Identifier: "a", Author: tt.author}
			data, err := json.Marshal(e)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var decoded Entry
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !e.Equal(&decoded) {
				t.Errorf("decoded %s = %#v, want %#v", data, decoded.Author, e.Author)
			}
		})
	}
}

func TestAuthorString(t *testing.T) {
	e, _ := New("article", "a", WithAuthor("Niels Bohr", "Albert Einstein"))
	if got := e.AuthorString(); got != "Niels Bohr and Albert Einstein" {
		t.Errorf("AuthorString() = %q", got)
	}
}
