package testutil

import (
	"bytes"
	"testing"
)

func TestMinimalPDF(t *testing.T) {
	data := MinimalPDF("hello")
	if !bytes.HasPrefix(data, []byte("%PDF-1.4\n")) {
		t.Errorf("missing header: %q", data[:10])
	}
	if !bytes.HasSuffix(data, []byte("%%EOF\n")) {
		t.Errorf("missing trailer marker")
	}
	if !bytes.Contains(data, []byte("(hello) Tj")) {
		t.Errorf("page content missing text")
	}
}
