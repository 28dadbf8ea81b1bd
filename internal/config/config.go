// =============================================================================
// dailyworker - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file.
//
// CONFIGURATION FILE:
//   ~/.dailyworkerdata/config.yaml (override with --config)
//
//   data_dir: ~/.dailyworkerdata
//   export_dir: ~/Documents
//   export_file_format: "{timestamp}.xml"
//   log_level: info
//   declaration:
//     taxpayer_tax_number: "12345678201"
//     taxpayer_name: "Minta Kft."
//     taxpayer_phone: "06301234567"
//
// ENVIRONMENT OVERRIDES:
//   DAILYWORKER_DATA_DIR, DAILYWORKER_EXPORT_DIR, DAILYWORKER_LOG_LEVEL
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mezeipetister/dailyworker/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvDataDir   = "DAILYWORKER_DATA_DIR"
	EnvExportDir = "DAILYWORKER_EXPORT_DIR"
	EnvLogLevel  = "DAILYWORKER_LOG_LEVEL"
)

// DefaultDataDir is the data directory used when none is configured.
const DefaultDataDir = "~/.dailyworkerdata"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// DataDir is the root of the application data.
	// Default: "~/.dailyworkerdata"
	DataDir string `yaml:"data_dir"`

	// WorkersDir holds one JSON file per worker.
	// Default: "<data_dir>/workers"
	WorkersDir string `yaml:"workers_dir"`

	// ExportDir is where declaration XML files are written.
	// Default: the current directory
	ExportDir string `yaml:"export_dir"`

	// ExportFileFormat is the export file name format. See
	// utils.GenerateOutputFileName for the placeholders.
	// Default: "{timestamp}.xml"
	ExportFileFormat string `yaml:"export_file_format"`

	// LegacyFile is the packed database of old releases, read by "migrate".
	// Default: "~/.dailyworkerdb/workersdb"
	LegacyFile string `yaml:"legacy_file"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// LogFile, when set, receives the log instead of stderr.
	LogFile string `yaml:"log_file,omitempty"`

	// =========================================================================
	// DECLARATION SETTINGS
	// =========================================================================

	Declaration DeclarationConfig `yaml:"declaration"`

	// StrictExport refuses to export when a selected worker fails a check.
	// Default: false
	StrictExport bool `yaml:"strict_export"`
}

// DeclarationConfig holds the form metadata and the identity of the
// employer submitting the declaration.
type DeclarationConfig struct {
	FormCode    string `yaml:"form_code"`
	FormVersion string `yaml:"form_version"`
	Remark      string `yaml:"remark"`

	TaxpayerTaxNumber string `yaml:"taxpayer_tax_number"`
	TaxpayerName      string `yaml:"taxpayer_name"`
	TaxpayerPhone     string `yaml:"taxpayer_phone"`
}

// HasTaxpayer reports whether the taxpayer identity is configured.
func (d DeclarationConfig) HasTaxpayer() bool {
	return d.TaxpayerTaxNumber != "" && d.TaxpayerName != ""
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	path, err := utils.ExpandHome(filepath.Join(DefaultDataDir, "config.yaml"))
	if err != nil {
		return "config.yaml"
	}
	return path
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	var config Config
	if err := finish(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Load loads the configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read or parsed.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := finish(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadOrDefault is like Load but returns the defaults when the file does not
// exist.
func LoadOrDefault(configPath string) (*Config, error) {
	config, err := Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	return config, err
}

// Save writes the configuration to path as YAML.
func Save(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := utils.EnsureDirectories(filepath.Dir(path)); err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, data, 0644)
}

// finish applies environment overrides, defaults and validation.
func finish(config *Config) error {
	applyEnvOverrides(config)
	applyDefaults(config)

	if err := expandPaths(config); err != nil {
		return err
	}

	if err := validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides replaces file values with environment values.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv(EnvDataDir); v != "" {
		config.DataDir = v
		config.WorkersDir = ""
	}
	if v := os.Getenv(EnvExportDir); v != "" {
		config.ExportDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
	}
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *Config) {
	if config.DataDir == "" {
		config.DataDir = DefaultDataDir
	}
	if config.WorkersDir == "" {
		config.WorkersDir = filepath.Join(config.DataDir, "workers")
	}
	if config.ExportDir == "" {
		config.ExportDir = "."
	}
	if config.ExportFileFormat == "" {
		config.ExportFileFormat = "{timestamp}.xml"
	}
	if config.LegacyFile == "" {
		config.LegacyFile = "~/.dailyworkerdb/workersdb"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}

	d := &config.Declaration
	if d.FormCode == "" {
		d.FormCode = "T1042E"
	}
	if d.FormVersion == "" {
		d.FormVersion = "1.0"
	}
	if d.Remark == "" {
		d.Remark = "Bejelentés"
	}
}

func expandPaths(config *Config) error {
	for _, p := range []*string{&config.DataDir, &config.WorkersDir, &config.ExportDir, &config.LegacyFile, &config.LogFile} {
		if *p == "" {
			continue
		}
		expanded, err := utils.ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// validate validates the configuration.
func validate(config *Config) error {
	switch strings.ToLower(config.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	switch config.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", config.LogFormat)
	}

	if strings.ContainsAny(config.ExportFileFormat, `/\`) {
		return fmt.Errorf("export_file_format must be a file name, got %q", config.ExportFileFormat)
	}

	return nil
}
