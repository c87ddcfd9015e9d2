package storage

import (
	"errors"
	"fmt"
)

// FileType identifies one of the files that can be attached to an entry.
// Each entry has at most one file of each type.
type FileType string

const (
	Manuscript    FileType = "manuscript"
	Preprint      FileType = "preprint"
	Supplementary FileType = "supplementary"
)

// ErrInvalidFileType is returned for a value outside the FileType enumeration.
var ErrInvalidFileType = errors.New("invalid file type")

// FileTypes returns all supported file types in display order.
func FileTypes() []FileType {
	return []FileType{Manuscript, Preprint, Supplementary}
}

// ParseFileType converts a string to a FileType.
func ParseFileType(s string) (FileType, error) {
	ft := FileType(s)
	if err := ft.Validate(); err != nil {
		return "", err
	}
	return ft, nil
}

// Validate checks that the file type is one of the supported values.
func (ft FileType) Validate() error {
	switch ft {
	case Manuscript, Preprint, Supplementary:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidFileType, string(ft))
}

func (ft FileType) String() string { return string(ft) }
