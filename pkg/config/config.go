package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete gridstore configuration.
//
// This structure captures all configurable aspects of the tool including:
//   - Logging configuration
//   - Bucket settings (name, chunk size, digest and consistency options)
//   - Document store selection and store-specific configuration
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (GRIDSTORE_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each backend defines its own configuration type. The Config struct
// contains type-specific sections (store.badger, store.mongo) and only the
// section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Bucket contains the chunked-storage settings
	Bucket BucketConfig `mapstructure:"bucket"`

	// Store specifies the document store type and type-specific configuration
	Store StoreConfig `mapstructure:"store"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// BucketConfig contains the chunked-storage settings.
type BucketConfig struct {
	// Name is the collection name prefix for the files and chunks
	// collections
	Name string `mapstructure:"name" validate:"required"`

	// ChunkSizeBytes is the default chunk payload size
	ChunkSizeBytes int32 `mapstructure:"chunk_size_bytes" validate:"gt=0"`

	// DisableMD5 skips digest computation on uploads
	DisableMD5 bool `mapstructure:"disable_md5"`

	// WriteConcern selects the write durability level
	// Valid values: (empty), acknowledged, majority, unacknowledged
	WriteConcern string `mapstructure:"write_concern" validate:"omitempty,oneof=acknowledged majority unacknowledged"`

	// ReadConcern selects the read isolation level
	// Valid values: (empty), local, available, majority, linearizable
	ReadConcern string `mapstructure:"read_concern" validate:"omitempty,oneof=local available majority linearizable"`

	// ReadPreference selects which replica set members serve reads
	// Valid values: (empty), primary, primaryPreferred, secondary, secondaryPreferred, nearest
	ReadPreference string `mapstructure:"read_preference" validate:"omitempty,oneof=primary primaryPreferred secondary secondaryPreferred nearest"`
}

// StoreConfig specifies document store configuration.
//
// The Type field determines which backend is used.
// Only the corresponding type-specific configuration section is used.
type StoreConfig struct {
	// Type specifies which document store backend to use
	// Valid values: memory, badger, mongo
	Type string `mapstructure:"type" validate:"required,oneof=memory badger mongo"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`

	// Mongo contains MongoDB-specific configuration
	// Only used when Type = "mongo"
	Mongo map[string]any `mapstructure:"mongo"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (GRIDSTORE_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the GRIDSTORE_ prefix and underscores
	// Example: GRIDSTORE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("GRIDSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/gridstore/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing file
// is acceptable; defaults and environment variables still apply.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		// SetConfigFile bypasses viper's not-found type; a missing explicit
		// file is treated the same as a missing default one.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "gridstore")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "gridstore")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
