package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete dittoh5 configuration.
//
// This structure captures all configurable aspects of the library:
//   - Logging configuration
//   - Handle limits and shutdown behavior
//   - Connector selection and configuration (backend-specific)
//   - Snapshot sink selection and configuration (sink-specific)
//   - Property list defaults used by the command line
//
// Configuration sources (in order of precedence):
//  1. Environment variables (DITTOH5_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
//
// Backend Configuration Pattern:
// Each connector and sink defines its own option struct, decoded by its
// factory. The Config struct keeps one map per type (e.g. connector.badger,
// snapshot.s3) and only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Library contains handle registry settings
	Library LibraryConfig `mapstructure:"library" yaml:"library"`

	// Connector specifies the backend type and type-specific configuration
	Connector ConnectorConfig `mapstructure:"connector" yaml:"connector"`

	// Snapshot specifies where the memory connector persists flushed groups
	Snapshot SnapshotConfig `mapstructure:"snapshot" yaml:"snapshot"`

	// Groups holds the property list defaults applied by the command line
	Groups GroupsConfig `mapstructure:"groups" yaml:"groups"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// LibraryConfig contains handle registry settings.
type LibraryConfig struct {
	// MaxHandles caps live handles per class (0 = unlimited)
	MaxHandles int `mapstructure:"max_handles" yaml:"max_handles" validate:"gte=0"`

	// ShutdownTimeout bounds the drain of open handles at shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// ConnectorConfig specifies the backend every handle is bound to.
type ConnectorConfig struct {
	// Type specifies which connector implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`
}

// SnapshotConfig specifies the snapshot sink of the memory connector.
type SnapshotConfig struct {
	// Type specifies which sink to use
	// Valid values: none, filesystem, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=none filesystem s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// GroupsConfig holds the link and group creation defaults.
type GroupsConfig struct {
	// CreateIntermediate creates missing parent groups on create
	CreateIntermediate bool `mapstructure:"create_intermediate" yaml:"create_intermediate"`

	// TrackCreationOrder records link creation order in new groups
	TrackCreationOrder bool `mapstructure:"track_creation_order" yaml:"track_creation_order"`

	// IndexCreationOrder indexes links by creation order (implies tracking)
	IndexCreationOrder bool `mapstructure:"index_creation_order" yaml:"index_creation_order"`

	// MaxCompact is the link count above which storage turns dense
	MaxCompact uint32 `mapstructure:"max_compact" yaml:"max_compact" validate:"lte=65535"`

	// MinDense is the link count below which storage turns compact again
	MinDense uint32 `mapstructure:"min_dense" yaml:"min_dense" validate:"lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTOH5_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath searches the default location; a missing file there is
// not an error.
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

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: DITTOH5_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DITTOH5")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"library.max_handles", "library.shutdown_timeout",
		"connector.type", "snapshot.type",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittoh5")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittoh5")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
