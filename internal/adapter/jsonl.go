package adapter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matsen/biblary/internal/bibliography"
	"github.com/matsen/biblary/internal/entry"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// JSONL is a bibliography adapter storing one JSON-encoded entry per line.
type JSONL struct {
	path string
}

var _ bibliography.Adapter = (*JSONL)(nil)

// NewJSONL returns an adapter for the JSONL file at path.
func NewJSONL(path string) *JSONL {
	return &JSONL{path: path}
}

// Path returns the file the adapter reads and writes.
func (a *JSONL) Path() string {
	return a.path
}

// Entries reads all entries from the file. A missing file is empty.
func (a *JSONL) Entries() ([]*entry.Entry, error) {
	f, err := os.Open(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening entries file: %w", err)
	}
	defer f.Close()

	var entries []*entry.Entry
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		e, err := decodeJSONEntry(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", bibliography.ErrParsing, lineNum, err)
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading entries file: %w", err)
	}

	return entries, nil
}

// ParseEntry accepts a JSON object or BibTeX text.
func (a *JSONL) ParseEntry(text string) (*entry.Entry, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") {
		e, err := decodeJSONEntry([]byte(trimmed))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", bibliography.ErrParsing, err)
		}
		return e, nil
	}

	entries, err := parseBibTeX(text)
	if err != nil {
		return nil, err
	}
	return entries[0], nil
}

// SaveEntries writes all entries to the file, replacing existing content.
func (a *JSONL) SaveEntries(entries []*entry.Entry) error {
	return writeFileAtomic(a.path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		for i, e := range entries {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encoding entry %d: %w", i, err)
			}
			bw.Write(data)
			bw.WriteByte('\n')
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("writing entries: %w", err)
		}
		return nil
	})
}

func decodeJSONEntry(data []byte) (*entry.Entry, error) {
	var e entry.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
