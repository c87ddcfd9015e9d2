// Package bibliography implements the in-memory collection of bibliographic
// entries loaded from an Adapter.
//
// A Bibliography behaves like an insertion-ordered map from identifier to
// entry. It is built once from the adapter, grows through Add and AddText,
// and is written back only when Save is called. It is not safe for concurrent
// use; callers that share one across goroutines must serialize access.
package bibliography

import (
	"fmt"
	"iter"
	"log/slog"
	"reflect"
	"slices"

	"github.com/matsen/biblary/internal/entry"
)

// Bibliography is a collection of entries keyed by identifier.
type Bibliography struct {
	adapter Adapter
	storage Storage

	order   []string
	entries map[string]*entry.Entry
}

// New loads a bibliography from the adapter. The storage is optional and may be nil.
//
// The adapter's Entries is called exactly once. Construction fails if the
// adapter is nil, if loading fails, or if two entries share an identifier.
func New(adapter Adapter, store Storage) (*Bibliography, error) {
	if isNil(adapter) {
		return nil, fmt.Errorf("%w: adapter should implement bibliography.Adapter, got %T", ErrTypeConstraint, adapter)
	}
	if isNil(store) {
		store = nil
	}

	loaded, err := adapter.Entries()
	if err != nil {
		return nil, err
	}

	b := &Bibliography{
		adapter: adapter,
		storage: store,
		order:   make([]string, 0, len(loaded)),
		entries: make(map[string]*entry.Entry, len(loaded)),
	}

	for _, e := range loaded {
		if e == nil {
			return nil, fmt.Errorf("%w: the configured bibliography contains a nil entry", ErrInvalidBibliography)
		}
		if _, exists := b.entries[e.Identifier]; exists {
			return nil, fmt.Errorf("%w: the configured bibliography contains entries with duplicate identifiers (%s)",
				ErrInvalidBibliography, e.Identifier)
		}
		b.entries[e.Identifier] = e
		b.order = append(b.order, e.Identifier)
	}

	slog.Debug("Loaded bibliography", "entries", len(b.order), "adapter", fmt.Sprintf("%T", adapter))
	return b, nil
}

// Adapter returns the adapter the bibliography was loaded from.
func (b *Bibliography) Adapter() Adapter {
	return b.adapter
}

// Storage returns the file storage, or nil if none is configured.
func (b *Bibliography) Storage() Storage {
	return b.storage
}

// Len returns the number of entries.
func (b *Bibliography) Len() int {
	return len(b.order)
}

// Get returns the entry with the given identifier.
func (b *Bibliography) Get(identifier string) (*entry.Entry, bool) {
	e, ok := b.entries[identifier]
	return e, ok
}

// Lookup returns the entry with the given identifier or ErrEntryNotFound.
func (b *Bibliography) Lookup(identifier string) (*entry.Entry, error) {
	e, ok := b.entries[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, identifier)
	}
	return e, nil
}

// Has reports whether an entry with the given identifier is present.
func (b *Bibliography) Has(identifier string) bool {
	_, ok := b.entries[identifier]
	return ok
}

// Contains reports whether an entry with the same identifier as e is present.
// Other fields are not compared.
func (b *Bibliography) Contains(e *entry.Entry) bool {
	if e == nil {
		return false
	}
	return b.Has(e.Identifier)
}

// Keys returns the identifiers in insertion order.
func (b *Bibliography) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, id := range b.order {
			if !yield(id) {
				return
			}
		}
	}
}

// All returns identifier and entry pairs in insertion order.
func (b *Bibliography) All() iter.Seq2[string, *entry.Entry] {
	return func(yield func(string, *entry.Entry) bool) {
		for _, id := range b.order {
			if !yield(id, b.entries[id]) {
				return
			}
		}
	}
}

// List returns the entries as a new slice.
//
// With a nil cmp the entries are in insertion order and reverse is ignored.
// Otherwise they are sorted stably by cmp, ascending or, when reverse is set,
// descending. Entries that compare equal keep their insertion order either way.
func (b *Bibliography) List(cmp Compare, reverse bool) []*entry.Entry {
	list := make([]*entry.Entry, 0, len(b.order))
	for _, id := range b.order {
		list = append(list, b.entries[id])
	}
	if cmp == nil {
		return list
	}

	if reverse {
		cmp = Reverse(cmp)
	}
	slices.SortStableFunc(list, cmp)
	return list
}

// Add inserts an entry at the end of the bibliography and returns it.
// The bibliography is left unchanged if the entry is invalid or its
// identifier is already present.
func (b *Bibliography) Add(e *entry.Entry) (*entry.Entry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if b.Contains(e) {
		return nil, &DuplicateEntryError{Identifier: e.Identifier}
	}

	b.entries[e.Identifier] = e
	b.order = append(b.order, e.Identifier)
	return e, nil
}

// AddText parses an entry with the adapter and adds it.
// Parse errors are returned unchanged.
func (b *Bibliography) AddText(text string) (*entry.Entry, error) {
	e, err := b.adapter.ParseEntry(text)
	if err != nil {
		return nil, err
	}
	return b.Add(e)
}

// Save writes all entries, in insertion order, through the adapter.
func (b *Bibliography) Save() error {
	if err := b.adapter.SaveEntries(b.List(nil, false)); err != nil {
		return err
	}
	slog.Debug("Saved bibliography", "entries", len(b.order))
	return nil
}

// isNil reports whether v is nil or an interface holding a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
