package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Loader handles loading configuration from multiple sources
type Loader struct {
	config *Config
	path   string
}

// NewLoader creates a new configuration loader. The TOML file is taken from
// TSE_CONFIG when set, otherwise ~/.tse/config.toml.
func NewLoader() *Loader {
	return &Loader{
		config: NewConfig(),
		path:   DefaultConfigPath(),
	}
}

// NewLoaderWithPath creates a loader reading the given TOML file.
func NewLoaderWithPath(path string) *Loader {
	return &Loader{
		config: NewConfig(),
		path:   path,
	}
}

// DefaultConfigPath returns the config file location
func DefaultConfigPath() string {
	if p := os.Getenv("TSE_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tse", "config.toml")
}

// Load loads configuration using the cascading strategy:
// 1. Start with defaults
// 2. Override with the TOML file, if present
// 3. Override with environment variables
// 4. Override with command line flags (LoadWithOverrides)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadFile(); err != nil {
		return nil, err
	}

	if err := l.config.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	if err := l.config.Validate(); err != nil {
		return nil, err
	}

	return l.config, nil
}

func (l *Loader) loadFile() error {
	if l.path == "" {
		return nil
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, l.config); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// LoadWithOverrides loads configuration and applies command line overrides
func (l *Loader) LoadWithOverrides(overrides *ConfigOverrides) (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		l.applyOverrides(config, overrides)
	}

	// Re-validate after applying overrides
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ConfigOverrides holds command line flag overrides
type ConfigOverrides struct {
	DBDir      *string
	DBFilename *string

	PresenceSource *string
	PresenceDSN    *string

	TenantID *string
	Timezone *string
	Timeout  *int
	Verbose  *bool

	LogLevel  *string
	LogFormat *string

	SyncPageSize *int
}

// applyOverrides applies command line overrides to the configuration
func (l *Loader) applyOverrides(config *Config, overrides *ConfigOverrides) {
	if overrides.DBDir != nil {
		config.Database.Dir = *overrides.DBDir
	}
	if overrides.DBFilename != nil {
		config.Database.Filename = *overrides.DBFilename
	}

	if overrides.PresenceSource != nil {
		config.Presence.Source = *overrides.PresenceSource
	}
	if overrides.PresenceDSN != nil {
		config.Presence.DSN = *overrides.PresenceDSN
	}

	if overrides.TenantID != nil {
		config.Application.TenantID = *overrides.TenantID
	}
	if overrides.Timezone != nil {
		config.Application.Timezone = *overrides.Timezone
	}
	if overrides.Timeout != nil {
		config.Application.TimeoutSeconds = *overrides.Timeout
	}
	if overrides.Verbose != nil {
		config.Application.Verbose = *overrides.Verbose
	}

	if overrides.LogLevel != nil {
		config.Logging.Level = *overrides.LogLevel
	}
	if overrides.LogFormat != nil {
		config.Logging.Format = *overrides.LogFormat
	}

	if overrides.SyncPageSize != nil {
		config.Sync.PageSize = *overrides.SyncPageSize
	}
}
