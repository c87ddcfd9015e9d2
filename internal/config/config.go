// Package config loads biblary settings from biblary.yml, BIBLARY_*
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/matsen/biblary/internal/adapter"
)

// ErrInvalidConfig is returned when configuration cannot be read or fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete biblary configuration.
type Config struct {
	Adapter    AdapterConfig    `mapstructure:"adapter" yaml:"adapter" json:"adapter"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage" json:"storage"`
	MainAuthor MainAuthorConfig `mapstructure:"main_author" yaml:"main_author" json:"main_author"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server" json:"server"`
	PDFReader  string           `mapstructure:"pdf_reader" yaml:"pdf_reader" json:"pdf_reader"` // Viewer for `file open`: system, skim, zathura, etc.

	source string // Config file that was read, if any
}

// AdapterConfig selects the bibliography adapter.
type AdapterConfig struct {
	Kind string `mapstructure:"kind" yaml:"kind" json:"kind"` // bibtex, jsonl or sqlite
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// StorageConfig selects the file storage. An empty kind disables storage.
type StorageConfig struct {
	Kind string `mapstructure:"kind" yaml:"kind" json:"kind"` // "" or filesystem
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

// MainAuthorConfig configures highlighting of the bibliography owner's names.
type MainAuthorConfig struct {
	Patterns []string `mapstructure:"patterns" yaml:"patterns" json:"patterns"` // Regexes matched at the start of an author name
	Class    string   `mapstructure:"class" yaml:"class" json:"class"`          // CSS class applied to matching authors
}

// ServerConfig configures `biblary serve`.
type ServerConfig struct {
	Addr           string  `mapstructure:"addr" yaml:"addr" json:"addr"`
	UploadRate     float64 `mapstructure:"upload_rate" yaml:"upload_rate" json:"upload_rate"` // Uploads per second
	UploadBurst    int     `mapstructure:"upload_burst" yaml:"upload_burst" json:"upload_burst"`
	MaxUploadBytes int64   `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" json:"max_upload_bytes"`
}

const (
	StorageNone       = ""
	StorageFileSystem = "filesystem"
)

// ValidReaders lists the supported PDF reader values.
var ValidReaders = []string{"system", "skim", "preview", "zathura", "evince", "okular"}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Adapter:    AdapterConfig{Kind: "bibtex", Path: "bibliography.bib"},
		Storage:    StorageConfig{Kind: StorageNone, Path: "files"},
		MainAuthor: MainAuthorConfig{Patterns: []string{}, Class: "main-author"},
		Server: ServerConfig{
			Addr:           ":8000",
			UploadRate:     1,
			UploadBurst:    5,
			MaxUploadBytes: 32 << 20,
		},
		PDFReader: "system",
	}
}

// Source returns the config file the configuration was read from, or "".
func (c *Config) Source() string {
	return c.source
}

// Validate checks every setting, reporting the first problem found.
func (c *Config) Validate() error {
	if !slices.Contains(adapter.Kinds(), c.Adapter.Kind) {
		return fmt.Errorf("%w: adapter.kind %q (valid: %v)", ErrInvalidConfig, c.Adapter.Kind, adapter.Kinds())
	}
	if c.Adapter.Path == "" {
		return fmt.Errorf("%w: adapter.path is empty", ErrInvalidConfig)
	}

	switch c.Storage.Kind {
	case StorageNone:
	case StorageFileSystem:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: storage.kind %q (valid: %q, %q)", ErrInvalidConfig, c.Storage.Kind, StorageNone, StorageFileSystem)
	}

	for _, p := range c.MainAuthor.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: main_author.patterns: %w", ErrInvalidConfig, err)
		}
	}

	if err := ValidatePDFReader(c.PDFReader); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is empty", ErrInvalidConfig)
	}
	if c.Server.UploadRate <= 0 {
		return fmt.Errorf("%w: server.upload_rate must be positive, got %v", ErrInvalidConfig, c.Server.UploadRate)
	}
	if c.Server.UploadBurst < 1 {
		return fmt.Errorf("%w: server.upload_burst must be at least 1, got %d", ErrInvalidConfig, c.Server.UploadBurst)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: server.max_upload_bytes must be positive, got %d", ErrInvalidConfig, c.Server.MaxUploadBytes)
	}

	return nil
}

// ValidatePDFReader checks that the reader value is valid.
func ValidatePDFReader(reader string) error {
	if reader == "" {
		return nil // Empty defaults to "system"
	}
	if !slices.Contains(ValidReaders, reader) {
		return fmt.Errorf("invalid pdf_reader: %s (valid: %v)", reader, ValidReaders)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
