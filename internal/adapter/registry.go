package adapter

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/matsen/biblary/internal/bibliography"
)

// ErrUnknownKind is returned by Open for an adapter kind with no factory.
var ErrUnknownKind = errors.New("unknown adapter kind")

// Factory opens an adapter for the resource at path.
type Factory func(path string) (bibliography.Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"bibtex": func(path string) (bibliography.Adapter, error) { return NewBibTeX(path), nil },
		"jsonl":  func(path string) (bibliography.Adapter, error) { return NewJSONL(path), nil },
		"sqlite": func(path string) (bibliography.Adapter, error) { return OpenSQLite(path) },
	}
)

// Register adds or replaces the factory for kind.
func Register(kind string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = f
}

// Kinds returns the registered adapter kinds, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}

// Open creates an adapter of the given kind for path.
func Open(kind, path string) (bibliography.Adapter, error) {
	registryMu.RLock()
	f, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownKind, kind, Kinds())
	}

	a, err := f(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s adapter at %s: %w", kind, path, err)
	}
	return a, nil
}

// Close releases resources held by an adapter, if it holds any.
func Close(a bibliography.Adapter) error {
	if c, ok := a.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
