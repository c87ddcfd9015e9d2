package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigName is the config file name without extension.
	ConfigName = "biblary"
	// ConfigFile is the file written by WriteDefault.
	ConfigFile = ConfigName + ".yml"
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "biblary"
	// EnvPrefix prefixes environment overrides, e.g. BIBLARY_ADAPTER_PATH.
	EnvPrefix = "BIBLARY"
)

// ErrConfigExists is returned by WriteDefault when the file already exists.
var ErrConfigExists = errors.New("config file already exists")

// GlobalConfigPath returns the directory searched after the working directory.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/biblary.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir)
}

// Load builds the configuration from defaults, the config file and the
// environment, in increasing order of precedence.
//
// When path is empty, biblary.yml is looked up in the working directory and
// then in GlobalConfigPath; a missing file is not an error. An explicit path
// must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(ExpandPath(path))
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := GlobalConfigPath(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config: %w", ErrInvalidConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding config: %w", ErrInvalidConfig, err)
	}
	cfg.source = v.ConfigFileUsed()
	cfg.Adapter.Path = ExpandPath(cfg.Adapter.Path)
	cfg.Storage.Path = ExpandPath(cfg.Storage.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("adapter.kind", d.Adapter.Kind)
	v.SetDefault("adapter.path", d.Adapter.Path)
	v.SetDefault("storage.kind", d.Storage.Kind)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("main_author.patterns", d.MainAuthor.Patterns)
	v.SetDefault("main_author.class", d.MainAuthor.Class)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.upload_rate", d.Server.UploadRate)
	v.SetDefault("server.upload_burst", d.Server.UploadBurst)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("pdf_reader", d.PDFReader)
}

// YAML renders the configuration in config file form.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}

// WriteDefault writes the default configuration to path.
// An existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	data, err := Defaults().YAML()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
