// Package storage stores files attached to bibliographic entries.
package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/matsen/biblary/internal/entry"
)

var (
	// ErrFileNotFound indicates no file of the requested type exists for the entry.
	ErrFileNotFound = errors.New("file not found")

	// ErrContentType indicates file content that is neither bytes nor a byte stream.
	ErrContentType = errors.New("content must be bytes or a byte stream")
)

// FileSystem stores entry files under a root directory, one subdirectory per
// entry named after the SHA-256 of its identifier.
type FileSystem struct {
	root string
}

// NewFileSystem creates a FileSystem storage rooted at the given directory.
// The directory is created on first write.
func NewFileSystem(root string) *FileSystem {
	return &FileSystem{root: root}
}

// Root returns the base directory of the storage.
func (s *FileSystem) Root() string {
	return s.root
}

// Path returns the location where the file of the given type for the entry is stored.
func (s *FileSystem) Path(e *entry.Entry, ft FileType) (string, error) {
	if err := ft.Validate(); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(e.Identifier))
	return filepath.Join(s.root, hex.EncodeToString(sum[:]), string(ft)), nil
}

// Exists reports whether the file of the given type exists for the entry.
func (s *FileSystem) Exists(e *entry.Entry, ft FileType) (bool, error) {
	path, err := s.Path(e, ft)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking %s: %w", path, err)
}

// GetFile returns the content of the file of the given type for the entry.
func (s *FileSystem) GetFile(e *entry.Entry, ft FileType) ([]byte, error) {
	path, err := s.Path(e, ft)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s:%s", ErrFileNotFound, e.Identifier, ft)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// PutFile writes the content as the file of the given type for the entry,
// replacing any previous file. The write goes through a temporary file so a
// failed write leaves the previous file intact.
func (s *FileSystem) PutFile(content io.Reader, e *entry.Entry, ft FileType) error {
	if content == nil {
		return ErrContentType
	}
	path, err := s.Path(e, ft)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+string(ft)+"-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, content)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", ft, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	slog.Debug("Stored file", "identifier", e.Identifier, "file_type", string(ft), "bytes", n)
	return nil
}

// Content converts raw bytes or a byte stream into a reader suitable for PutFile.
func Content(v any) (io.Reader, error) {
	switch c := v.(type) {
	case []byte:
		return bytes.NewReader(c), nil
	case io.Reader:
		if c == nil {
			return nil, ErrContentType
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w, got %T", ErrContentType, v)
	}
}
