package bibliography

import (
	"fmt"

	"github.com/matsen/biblary/internal/entry"
	"github.com/matsen/biblary/internal/storage"
)

// AnnotatedEntry pairs an entry with the availability of its attached files,
// for display. Files is nil when no storage is configured.
type AnnotatedEntry struct {
	*entry.Entry
	Files map[storage.FileType]bool `json:"files,omitempty"`
}

// Files reports, for every file type, whether a file exists for the entry.
// It returns a nil map when the bibliography has no storage.
func (b *Bibliography) Files(e *entry.Entry) (map[storage.FileType]bool, error) {
	if b.storage == nil {
		return nil, nil
	}

	files := make(map[storage.FileType]bool, len(storage.FileTypes()))
	for _, ft := range storage.FileTypes() {
		exists, err := b.storage.Exists(e, ft)
		if err != nil {
			return nil, fmt.Errorf("checking %s for %s: %w", ft, e.Identifier, err)
		}
		files[ft] = exists
	}
	return files, nil
}

// Annotated lists the entries as List does, each with its file availability.
func (b *Bibliography) Annotated(cmp Compare, reverse bool) ([]AnnotatedEntry, error) {
	entries := b.List(cmp, reverse)
	annotated := make([]AnnotatedEntry, 0, len(entries))
	for _, e := range entries {
		files, err := b.Files(e)
		if err != nil {
			return nil, err
		}
		annotated = append(annotated, AnnotatedEntry{Entry: e, Files: files})
	}
	return annotated, nil
}
