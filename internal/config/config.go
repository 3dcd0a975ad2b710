// Package config loads catalog settings from a YAML file and CATALOG_* environment variables.
// Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iudanet/catalogkeeper/internal/validation"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "CATALOG_"

// Config holds the catalog configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Backup  BackupConfig  `yaml:"backup"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects the database backend
type StorageConfig struct {
	Driver string `yaml:"driver" validate:"oneof=boltdb sqlite"`
	Path   string `yaml:"path" validate:"required"`
}

// BackupConfig controls backup rotation
type BackupConfig struct {
	MaxCount     int           `yaml:"max_count" validate:"gte=0"`
	Interval     time.Duration `yaml:"interval" validate:"gt=0"`
	BeforeImport bool          `yaml:"before_import"` // BeforeImport снимок каталога перед каждым импортом
}

// LogConfig controls logging
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json auto"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: "boltdb",
			Path:   "catalog.db",
		},
		Backup: BackupConfig{
			MaxCount:     5,
			Interval:     24 * time.Hour,
			BeforeImport: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// LookupFunc reads an environment variable, os.LookupEnv in production
type LookupFunc func(key string) (string, bool)

// Load builds the configuration with precedence: environment, file, defaults.
// If path is empty, CATALOG_CONFIG is used; a missing file is an error only when a path was given.
func Load(path string, lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path, explicit = lookup(EnvPrefix + "CONFIG")
	}

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_PATH", &c.Storage.Path)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup(EnvPrefix + "BACKUP_MAX_COUNT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sBACKUP_MAX_COUNT %q: %w", EnvPrefix, v, err)
		}
		c.Backup.MaxCount = n
	}

	if v, ok := lookup(EnvPrefix + "BACKUP_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sBACKUP_INTERVAL %q: %w", EnvPrefix, v, err)
		}
		c.Backup.Interval = d
	}

	if v, ok := lookup(EnvPrefix + "BACKUP_BEFORE_IMPORT"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sBACKUP_BEFORE_IMPORT %q: %w", EnvPrefix, v, err)
		}
		c.Backup.BeforeImport = b
	}

	return nil
}

var validator = validation.New()

// Validate checks the configuration values
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))

	if err := validator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
