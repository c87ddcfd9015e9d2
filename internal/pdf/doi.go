// Package pdf validates uploaded PDF documents, extracts their DOI and
// opens stored files in a viewer.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned when content is not a readable PDF document.
var ErrNotPDF = errors.New("not a PDF document")

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// doiPrefixes are URL and scheme forms stripped by NormalizeDOI.
var doiPrefixes = []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"}

// maxDOIPages is how many leading pages are searched for a DOI.
const maxDOIPages = 3

// Validate checks that data is a PDF document the reader can open.
func Validate(data []byte) error {
	_, err := open(data)
	return err
}

func open(data []byte) (r *pdf.Reader, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: missing %%PDF header", ErrNotPDF)
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("%w: %v", ErrNotPDF, p)
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotPDF, err)
	}
	return r, nil
}

// ExtractDOI searches the first pages of a PDF for a DOI.
// It returns "" without error when none is found.
func ExtractDOI(data []byte) (doi string, err error) {
	r, err := open(data)
	if err != nil {
		return "", err
	}

	// The reader panics on some malformed content streams.
	defer func() {
		if p := recover(); p != nil {
			doi, err = "", fmt.Errorf("%w: %v", ErrNotPDF, p)
		}
	}()

	pages := min(r.NumPage(), maxDOIPages)
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if doi := findDOI(text); doi != "" {
			return doi, nil
		}
	}

	return "", nil
}

// NormalizeDOI lower-cases a DOI and strips resolver URL prefixes.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(doi, prefix) {
			return strings.TrimPrefix(doi, prefix)
		}
	}
	return doi
}

// SameDOI reports whether two DOIs refer to the same object.
func SameDOI(a, b string) bool {
	return NormalizeDOI(a) == NormalizeDOI(b)
}

// findDOI finds a DOI in text.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}
