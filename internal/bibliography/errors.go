package bibliography

import (
	"errors"
	"fmt"
)

// Errors returned by the bibliography and its adapters.
var (
	// ErrParsing indicates source text that does not describe valid entries.
	ErrParsing = errors.New("failed to parse bibliographic entry")

	// ErrInvalidBibliography indicates the adapter returned entries that
	// violate the collection invariants.
	ErrInvalidBibliography = errors.New("invalid bibliography")

	// ErrDuplicateEntry indicates an attempt to add an identifier that is already present.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrTypeConstraint indicates a collaborator that cannot serve its role.
	ErrTypeConstraint = errors.New("collaborator does not satisfy the required interface")

	// ErrEntryNotFound indicates a lookup of an unknown identifier.
	ErrEntryNotFound = errors.New("entry not found")
)

// DuplicateEntryError reports the identifier that was already present.
type DuplicateEntryError struct {
	Identifier string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("the bibliography already contains an entry with identifier `%s`", e.Identifier)
}

// Is makes errors.Is(err, ErrDuplicateEntry) hold for a DuplicateEntryError.
func (e *DuplicateEntryError) Is(target error) bool {
	return target == ErrDuplicateEntry
}

// IsParsing returns true if the error is a parsing failure.
func IsParsing(err error) bool {
	return errors.Is(err, ErrParsing)
}

// IsDuplicate returns true if the error is a duplicate-identifier failure.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsInvalid returns true if the error is a bibliography invariant violation.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidBibliography)
}
