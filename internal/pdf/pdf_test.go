package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/biblary/internal/testutil"
)

func TestValidate_RejectsNonPDF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("just some text")},
		{"header only", []byte("%PDF-1.4\n")},
		{"bibtex", []byte("@article{a, title = {x}}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.data); !errors.Is(err, ErrNotPDF) {
				t.Errorf("Validate() error = %v, want ErrNotPDF", err)
			}
			if _, err := ExtractDOI(tt.data); !errors.Is(err, ErrNotPDF) {
				t.Errorf("ExtractDOI() error = %v, want ErrNotPDF", err)
			}
		})
	}
}

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "See doi 10.1103/PhysRev.47.777 for details", "10.1103/PhysRev.47.777"},
		{"trailing punctuation", "(https://doi.org/10.1002/andp.19053221004).", "10.1002/andp.19053221004"},
		{"first of many", "10.1234/first and 10.5678/second", "10.1234/first"},
		{"too few registrant digits", "10.12/abc", ""},
		{"none", "no identifier here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findDOI(tt.text); got != tt.want {
				t.Errorf("findDOI(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSameDOI(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"10.1103/PhysRev.47.777", "10.1103/physrev.47.777", true},
		{"https://doi.org/10.1103/PhysRev.47.777", "10.1103/PhysRev.47.777", true},
		{"doi:10.1000/xyz", " 10.1000/XYZ ", true},
		{"10.1000/a", "10.1000/b", false},
	}

	for _, tt := range tests {
		if got := SameDOI(tt.a, tt.b); got != tt.want {
			t.Errorf("SameDOI(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOpenerCommand(t *testing.T) {
	tests := []struct {
		goos, reader string
		wantArgs     []string
		wantErr      bool
	}{
		{"darwin", "", []string{"open", "f.pdf"}, false},
		{"darwin", "skim", []string{"open", "-a", "Skim", "f.pdf"}, false},
		{"linux", "system", []string{"xdg-open", "f.pdf"}, false},
		{"linux", "zathura", []string{"zathura", "f.pdf"}, false},
		{"windows", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.reader, func(t *testing.T) {
			o := NewOpener(tt.reader)
			o.goos = tt.goos
			cmd, err := o.command("f.pdf")
			if (err != nil) != tt.wantErr {
				t.Fatalf("command() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(cmd.Args) != len(tt.wantArgs) {
				t.Fatalf("command() args = %v, want %v", cmd.Args, tt.wantArgs)
			}
			for i := range tt.wantArgs {
				if cmd.Args[i] != tt.wantArgs[i] {
					t.Errorf("command() args = %v, want %v", cmd.Args, tt.wantArgs)
					break
				}
			}
		})
	}
}

func TestOpenerMissingFile(t *testing.T) {
	err := NewOpener("").Open(filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Fatal("Open() on a missing file should fail")
	}
	if _, statErr := os.Stat("missing.pdf"); statErr == nil {
		t.Fatal("unexpected file in working directory")
	}
}

func TestValidateAndExtractDOI(t *testing.T) {
	data := testutil.MinimalPDF("Published as doi:10.1234/abcdef.")
	if err := Validate(data); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	doi, err := ExtractDOI(data)
	if err != nil {
		t.Fatalf("ExtractDOI() error = %v", err)
	}
	if doi != "10.1234/abcdef" {
		t.Errorf("ExtractDOI() = %q, want 10.1234/abcdef", doi)
	}
}

func TestExtractDOI_NoDOI(t *testing.T) {
	doi, err := ExtractDOI(testutil.MinimalPDF("No identifier on this page"))
	if err != nil {
		t.Fatalf("ExtractDOI() error = %v", err)
	}
	if doi != "" {
		t.Errorf("ExtractDOI() = %q, want empty", doi)
	}
}
