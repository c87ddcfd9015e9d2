package bibliography

import (
	"io"

	"github.com/matsen/biblary/internal/entry"
	"github.com/matsen/biblary/internal/storage"
)

// Adapter provides access to the backend a bibliography is loaded from and saved to.
type Adapter interface {
	// Entries returns all entries of the backend in backend order.
	// A nil or empty result is a valid, empty bibliography.
	Entries() ([]*entry.Entry, error)

	// ParseEntry parses a single entry from text.
	// Failures wrap ErrParsing.
	ParseEntry(text string) (*entry.Entry, error)

	// SaveEntries replaces the backend content with the given entries.
	// A failed save must leave the previous content intact.
	SaveEntries(entries []*entry.Entry) error
}

// Storage reads and writes the files attached to entries.
type Storage interface {
	Exists(e *entry.Entry, ft storage.FileType) (bool, error)
	GetFile(e *entry.Entry, ft storage.FileType) ([]byte, error)
	PutFile(content io.Reader, e *entry.Entry, ft storage.FileType) error
}

var _ Storage = (*storage.FileSystem)(nil)
