package config

import (
	"context"
	"time"
)

// Config represents the complete configuration for a cleanup run.
// Values come from defaults, an optional project YAML file, the
// environment and CLI flags, in increasing order of precedence.
type Config struct {
	Project ProjectConfig `koanf:"project" validate:"required"`
	Scanner ScannerConfig `koanf:"scanner"`
	Cleanup CleanupConfig `koanf:"cleanup" validate:"required"`
	Routing RoutingConfig `koanf:"routing"`
	Runtime RuntimeConfig `koanf:"runtime"`
	CLI     CLIConfig     `koanf:"cli"`
}

// ProjectConfig describes where the Mendix project and its library folders live.
type ProjectConfig struct {
	Dir           string `koanf:"dir"            env:"USERLIB_CLEANUP_PROJECT_DIR"`
	UserlibDir    string `koanf:"userlib_dir"    env:"USERLIB_CLEANUP_USERLIB_DIR"    validate:"required,dirname"`
	VendorlibDir  string `koanf:"vendorlib_dir"  env:"USERLIB_CLEANUP_VENDORLIB_DIR"  validate:"required,dirname"`
	BackupDir     string `koanf:"backup_dir"     env:"USERLIB_CLEANUP_BACKUP_DIR"     validate:"required,dirname"`
	MendixVersion string `koanf:"mendix_version" env:"USERLIB_CLEANUP_MENDIX_VERSION"`
}

// ScannerConfig configures the external signature-based scanner.
type ScannerConfig struct {
	Enabled bool          `koanf:"enabled" env:"USERLIB_CLEANUP_SCANNER_ENABLED"`
	Path    string        `koanf:"path"    env:"USERLIB_CLEANUP_SCANNER_PATH"`
	Args    string        `koanf:"args"    env:"USERLIB_CLEANUP_SCANNER_ARGS"`
	Timeout time.Duration `koanf:"timeout" env:"USERLIB_CLEANUP_SCANNER_TIMEOUT" validate:"min=0"`
}

// CleanupConfig controls candidate filtering and presentation.
type CleanupConfig struct {
	ExtraProtected  []string `koanf:"extra_protected"  env:"USERLIB_CLEANUP_EXTRA_PROTECTED"`
	CollisionPolicy string   `koanf:"collision_policy" env:"USERLIB_CLEANUP_COLLISION_POLICY" validate:"oneof=skip resolve"`
	DisplayLimit    int      `koanf:"display_limit"    env:"USERLIB_CLEANUP_DISPLAY_LIMIT"    validate:"min=1"`
	LockFile        string   `koanf:"lock_file"        env:"USERLIB_CLEANUP_LOCK_FILE"        validate:"required,dirname"`
}

// RoutingConfig points at an alternative version reference file.
type RoutingConfig struct {
	ReferenceFile string `koanf:"reference_file" env:"USERLIB_CLEANUP_REFERENCE_FILE"`
}

// RuntimeConfig contains logging behavior.
type RuntimeConfig struct {
	LogLevel  string `koanf:"log_level"  validate:"oneof=debug info warn error disabled" env:"USERLIB_CLEANUP_LOG_LEVEL"`
	LogJSON   bool   `koanf:"log_json"                                                   env:"USERLIB_CLEANUP_LOG_JSON"`
	LogSource bool   `koanf:"log_source"                                                 env:"USERLIB_CLEANUP_LOG_SOURCE"`
}

// CLIConfig contains interaction settings for the command line shell.
type CLIConfig struct {
	Format      string `koanf:"format"      validate:"oneof=text json" env:"USERLIB_CLEANUP_FORMAT"`
	AssumeYes   bool   `koanf:"assume_yes"                             env:"USERLIB_CLEANUP_ASSUME_YES"`
	Interactive bool   `koanf:"interactive"                            env:"USERLIB_CLEANUP_INTERACTIVE"`
	NoColor     bool   `koanf:"no_color"                               env:"USERLIB_CLEANUP_NO_COLOR"`
}

// Service defines the configuration management service interface.
type Service interface {
	// Load loads configuration from the given sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type for a specific configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata records where each configuration key came from.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// ProjectFileName is the optional per-project configuration file.
const ProjectFileName = ".userlib-cleanup.yaml"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Dir:          "",
			UserlibDir:   "userlib",
			VendorlibDir: "vendorlib",
			BackupDir:    "userlib_backup",
		},
		Scanner: ScannerConfig{
			Enabled: true,
			Path:    "",
			Timeout: 2 * time.Minute,
		},
		Cleanup: CleanupConfig{
			ExtraProtected:  []string{},
			CollisionPolicy: "skip",
			DisplayLimit:    15,
			LockFile:        ".userlib-cleanup.lock",
		},
		Runtime: RuntimeConfig{
			LogLevel: "info",
		},
		CLI: CLIConfig{
			Format: "text",
		},
	}
}
