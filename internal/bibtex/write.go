package bibtex

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultIndent is the field indentation used by Format.
const DefaultIndent = "    "

// Write writes the records as a BibTeX database, one blank line between
// entries. Values are written verbatim inside braces.
func Write(w io.Writer, records []Record, indent string) error {
	bw := bufio.NewWriter(w)
	for i, r := range records {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "@%s{%s", r.Type, r.Key)
		for _, f := range r.Fields {
			fmt.Fprintf(bw, ",\n%s%s = {%s}", indent, f.Name, f.Value)
		}
		bw.WriteString("\n}\n")
	}
	return bw.Flush()
}

// Format renders the records as a string using DefaultIndent.
func Format(records ...Record) string {
	var b strings.Builder
	_ = Write(&b, records, DefaultIndent)
	return b.String()
}
