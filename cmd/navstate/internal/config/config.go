// Package config resolves navstate CLI settings from an optional
// navstate.yaml or navstate.toml file, the environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/navstate/pkg/navigation"
	"github.com/go-drift/navstate/pkg/persist"
)

// File names looked up in the project directory, in order.
const (
	YAMLFile = "navstate.yaml"
	TOMLFile = "navstate.toml"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// DefaultDevtoolsAddr is the inspector address when none is configured.
const DefaultDevtoolsAddr = "127.0.0.1:7474"

// Config is the navstate configuration. Environment variables override file
// values.
type Config struct {
	PersistenceKey string         `yaml:"persistence_key,omitempty" toml:"persistence_key" env:"NAVSTATE_PERSISTENCE_KEY"`
	URIPrefix      string         `yaml:"uri_prefix,omitempty" toml:"uri_prefix" env:"NAVSTATE_URI_PREFIX"`
	Codec          string         `yaml:"codec,omitempty" toml:"codec" env:"NAVSTATE_CODEC"`
	Debug          bool           `yaml:"debug,omitempty" toml:"debug" env:"NAVSTATE_LOGGING"`
	Store          StoreConfig    `yaml:"store" toml:"store" envPrefix:"NAVSTATE_STORE_"`
	Devtools       DevtoolsConfig `yaml:"devtools" toml:"devtools" envPrefix:"NAVSTATE_DEVTOOLS_"`
}

// StoreConfig selects and configures the snapshot backend.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty" toml:"backend" env:"BACKEND"`
	// Path is the SQLite database file.
	Path string `yaml:"path,omitempty" toml:"path" env:"PATH"`

	Bucket   string `yaml:"bucket,omitempty" toml:"bucket" env:"BUCKET"`
	Prefix   string `yaml:"prefix,omitempty" toml:"prefix" env:"PREFIX"`
	Region   string `yaml:"region,omitempty" toml:"region" env:"REGION"`
	Endpoint string `yaml:"endpoint,omitempty" toml:"endpoint" env:"ENDPOINT"`
}

// DevtoolsConfig configures the inspector.
type DevtoolsConfig struct {
	Addr string `yaml:"addr,omitempty" toml:"addr" env:"ADDR"`
}

// Resolved is a validated configuration plus where it came from.
type Resolved struct {
	Config
	Root string
	// Source is the config file that was read, or "" if none.
	Source     string
	ModulePath string
}

// LoadOptional reads navstate.yaml or navstate.toml from dir. A directory
// with neither yields an empty Config.
func LoadOptional(dir string) (*Config, string, error) {
	path := filepath.Join(dir, YAMLFile)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, "", fmt.Errorf("failed to parse %s: %w", YAMLFile, err)
		}
		return &cfg, path, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, "", fmt.Errorf("failed to read %s: %w", YAMLFile, err)
	}

	path = filepath.Join(dir, TOMLFile)
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, "", nil
		}
		return nil, "", fmt.Errorf("failed to parse %s: %w", TOMLFile, err)
	}
	return &cfg, path, nil
}

// Resolve loads the config file in dir (if present), applies the
// environment and fills in defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, source, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	modPath, err := modulePath(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg.PersistenceKey = strings.TrimSpace(cfg.PersistenceKey)
	if cfg.PersistenceKey == "" {
		cfg.PersistenceKey = DefaultKey(modPath, dir)
	}
	if cfg.URIPrefix == "" {
		cfg.URIPrefix = navigation.DefaultURIPrefix
	}
	cfg.Codec = strings.ToLower(strings.TrimSpace(cfg.Codec))
	if cfg.Codec == "" {
		cfg.Codec = persist.DefaultCodec.Name()
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendMemory
	}
	if cfg.Store.Backend == BackendSQLite && cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(dir, ".navstate", "snapshots.db")
	}
	if cfg.Devtools.Addr == "" {
		cfg.Devtools.Addr = DefaultDevtoolsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Resolved{Config: *cfg, Root: dir, Source: source, ModulePath: modPath}, nil
}

// Validate checks backend and codec settings.
func (c *Config) Validate() error {
	if _, ok := persist.CodecByName(c.Codec); !ok {
		return fmt.Errorf("unknown codec %q (want json or yaml)", c.Codec)
	}
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite:
	case BackendS3:
		if c.Store.Bucket == "" {
			return fmt.Errorf("store.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want memory, sqlite or s3)", c.Store.Backend)
	}
	return nil
}

// FindProjectRoot walks up from the current directory to the first
// directory holding a navstate config file or go.mod. It falls back to the
// current directory.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := cwd; ; {
		for _, name := range []string{YAMLFile, TOMLFile, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// DefaultKey derives a persistence key from the module path, or from dir
// when there is no module.
func DefaultKey(modPath, dir string) string {
	name := filepath.Base(dir)
	if modPath != "" {
		if prefix, _, ok := module.SplitPathVersion(modPath); ok {
			modPath = prefix
		}
		name = modPath
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "app"
	}
	return "navstate:" + name
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", err
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}
