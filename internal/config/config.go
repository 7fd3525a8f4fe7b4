// =============================================================================
// Inventory Import - Configuration Module
// =============================================================================
//
// This module loads the application configuration and the field catalogs.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): directories, logging, parsing, matching,
//      standardization and consolidation settings. Loaded with viper, so
//      every key can be overridden from the environment with the INVENTORY_
//      prefix (INVENTORY_OUTPUT_DIR, INVENTORY_MATCHING_EDIT_THRESHOLD, ...).
//   2. Field Catalogs (catalogs/*.yaml): one target schema per file. Two
//      catalogs are built in ("g4it" and "generic").
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ginjaninja78/inventory-import/internal/textnorm"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "INVENTORY"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for inventory files to process.
	// Default: "./input"
	InputDir string `mapstructure:"input_dir" yaml:"input_dir"`

	// OutputDir receives consolidated exports, finding logs and summaries.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// InputArchiveDir receives input files once they were processed.
	// Default: "./input_archive"
	InputArchiveDir string `mapstructure:"input_archive_dir" yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every export.
	// Default: "./output_archive"
	OutputArchiveDir string `mapstructure:"output_archive_dir" yaml:"output_archive_dir"`

	// CatalogsDir holds additional catalog files (*.yaml, *.yml, *.xlsx).
	// Default: "./catalogs"
	CatalogsDir string `mapstructure:"catalogs_dir" yaml:"catalogs_dir"`

	// Catalog selects the active catalog: a built-in name, the name of a
	// catalog in CatalogsDir, or a path to a catalog file.
	// Default: "g4it"
	Catalog string `mapstructure:"catalog" yaml:"catalog"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel: "debug", "info", "warn" or "error".
	// Default: "info"
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// LogFormat: "console" or "json".
	// Default: "console"
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat of the consolidated export: "xml" or "xlsx".
	// Default: "xml"
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`

	// OutputNameFormat names export files. Placeholders: {uuid},
	// {timestamp}, {date}, {time}, {original}, {catalog}.
	// Default: "{original}_{timestamp}_{uuid}"
	OutputNameFormat string `mapstructure:"output_name_format" yaml:"output_name_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrentFiles bounds how many files are processed at once.
	// Default: 4
	MaxConcurrentFiles int `mapstructure:"max_concurrent_files" yaml:"max_concurrent_files"`

	// ContinueOnError keeps processing other files when one fails.
	// Default: true
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error"`

	// ArchiveOnSuccess moves inputs to InputArchiveDir after processing.
	// Default: true
	ArchiveOnSuccess bool `mapstructure:"archive_on_success" yaml:"archive_on_success"`

	// UseTimestampSubdirs files archives under YYYY/MM/DD.
	// Default: false
	UseTimestampSubdirs bool `mapstructure:"use_timestamp_subdirs" yaml:"use_timestamp_subdirs"`

	// ArchiveRetentionDays removes archived files older than this many
	// days at the end of a run. 0 keeps them forever.
	// Default: 0
	ArchiveRetentionDays int `mapstructure:"archive_retention_days" yaml:"archive_retention_days"`

	CSV             CSVSettings           `mapstructure:"csv" yaml:"csv"`
	Matching        MatchingSettings      `mapstructure:"matching" yaml:"matching"`
	Consolidation   ConsolidationSettings `mapstructure:"consolidation" yaml:"consolidation"`
	Standardization Vocabulary            `mapstructure:"standardization" yaml:"standardization"`
}

// CSVSettings contains settings for reading delimited text.
type CSVSettings struct {
	// Delimiter: ",", ";", "tab", "|", or empty to detect it from the header.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`

	// Encoding: any WHATWG label ("utf-8", "windows-1252", "iso-8859-1",
	// "utf-16le", ...), or empty to detect it from the bytes.
	Encoding string `mapstructure:"encoding" yaml:"encoding"`

	// TrimSpaces trims leading spaces of every field.
	// Default: true
	TrimSpaces bool `mapstructure:"trim_spaces" yaml:"trim_spaces"`

	// LazyQuotes tolerates stray quotes instead of reporting them.
	// Default: false
	LazyQuotes bool `mapstructure:"lazy_quotes" yaml:"lazy_quotes"`

	// MaxIssues caps the number of soft parse issues kept per file.
	// Default: 1000
	MaxIssues int `mapstructure:"max_issues" yaml:"max_issues"`
}

// MatchingSettings tunes approximate header matching.
type MatchingSettings struct {
	// EditThreshold: a header matches a field by similarity only above it.
	// Default: 0.7
	EditThreshold float64 `mapstructure:"edit_threshold" yaml:"edit_threshold"`

	// FallbackThreshold applies when a required field is still unmapped.
	// Default: 0.5
	FallbackThreshold float64 `mapstructure:"fallback_threshold" yaml:"fallback_threshold"`
}

// ConsolidationSettings chooses how rows are grouped.
type ConsolidationSettings struct {
	// GroupBy lists the fields of the group key. Empty means the catalog's
	// own grouping, or modele + type.
	GroupBy []string `mapstructure:"group_by" yaml:"group_by"`

	// QuantityField is summed per group. Empty means the catalog's first
	// quantity field.
	QuantityField string `mapstructure:"quantity_field" yaml:"quantity_field"`
}

// SynonymSet maps a list of spellings onto one canonical label.
type SynonymSet struct {
	Label    string   `mapstructure:"label" yaml:"label"`
	Synonyms []string `mapstructure:"synonyms" yaml:"synonyms"`
}

// Vocabulary holds the standardization tables.
type Vocabulary struct {
	// DefaultStatus replaces empty and "not applicable" statuses.
	// Default: "En service"
	DefaultStatus string `mapstructure:"default_status" yaml:"default_status"`

	// EmptyStatuses are the spellings treated like an empty status.
	EmptyStatuses []string `mapstructure:"empty_statuses" yaml:"empty_statuses"`

	Statuses []SynonymSet `mapstructure:"statuses" yaml:"statuses"`
	Types    []SynonymSet `mapstructure:"types" yaml:"types"`
}

// =============================================================================
// LOADING
// =============================================================================

// DefaultMainConfig returns the configuration used when no file is given.
func DefaultMainConfig() *MainConfig {
	cfg := &MainConfig{
		ContinueOnError:  true,
		ArchiveOnSuccess: true,
		CSV:              CSVSettings{TrimSpaces: true},
	}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. When empty, a
//     config.yaml in the working directory is used if there is one.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	v := viper.New()
	setViperDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config MainConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setViperDefaults registers every scalar key so environment overrides work
// even when the file omits it.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", "./input")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("input_archive_dir", "./input_archive")
	v.SetDefault("output_archive_dir", "./output_archive")
	v.SetDefault("catalogs_dir", "./catalogs")
	v.SetDefault("catalog", "g4it")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("output_format", "xml")
	v.SetDefault("output_name_format", "{original}_{timestamp}_{uuid}")
	v.SetDefault("max_concurrent_files", 4)
	v.SetDefault("continue_on_error", true)
	v.SetDefault("archive_on_success", true)
	v.SetDefault("use_timestamp_subdirs", false)
	v.SetDefault("archive_retention_days", 0)
	v.SetDefault("csv.delimiter", "")
	v.SetDefault("csv.encoding", "")
	v.SetDefault("csv.trim_spaces", true)
	v.SetDefault("csv.lazy_quotes", false)
	v.SetDefault("csv.max_issues", 1000)
	v.SetDefault("matching.edit_threshold", 0.7)
	v.SetDefault("matching.fallback_threshold", 0.5)
	v.SetDefault("consolidation.quantity_field", "")
	v.SetDefault("standardization.default_status", "En service")
}

// applyMainConfigDefaults sets default values for any unset option. Lists
// are filled here rather than through viper so that labels keep their case.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.CatalogsDir == "" {
		config.CatalogsDir = "./catalogs"
	}
	if config.Catalog == "" {
		config.Catalog = "g4it"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
	if config.OutputFormat == "" {
		config.OutputFormat = "xml"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{original}_{timestamp}_{uuid}"
	}
	if config.MaxConcurrentFiles == 0 {
		config.MaxConcurrentFiles = 4
	}
	if config.CSV.MaxIssues == 0 {
		config.CSV.MaxIssues = 1000
	}
	if config.Matching.EditThreshold == 0 {
		config.Matching.EditThreshold = 0.7
	}
	if config.Matching.FallbackThreshold == 0 {
		config.Matching.FallbackThreshold = 0.5
	}

	applyVocabularyDefaults(&config.Standardization)
}

func applyVocabularyDefaults(v *Vocabulary) {
	if v.DefaultStatus == "" {
		v.DefaultStatus = "En service"
	}
	if len(v.EmptyStatuses) == 0 {
		v.EmptyStatuses = DefaultVocabulary().EmptyStatuses
	}
	if len(v.Statuses) == 0 {
		v.Statuses = DefaultVocabulary().Statuses
	}
	if len(v.Types) == 0 {
		v.Types = DefaultVocabulary().Types
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration values.
func (c *MainConfig) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}

	switch c.OutputFormat {
	case "xml", "xlsx":
	default:
		return fmt.Errorf("unknown output_format %q", c.OutputFormat)
	}

	if c.ArchiveRetentionDays < 0 {
		return fmt.Errorf("archive_retention_days cannot be negative, got %d", c.ArchiveRetentionDays)
	}

	if c.MaxConcurrentFiles < 1 {
		return fmt.Errorf("max_concurrent_files must be at least 1, got %d", c.MaxConcurrentFiles)
	}

	if err := validateThreshold("matching.edit_threshold", c.Matching.EditThreshold); err != nil {
		return err
	}
	if err := validateThreshold("matching.fallback_threshold", c.Matching.FallbackThreshold); err != nil {
		return err
	}

	for i, key := range c.Consolidation.GroupBy {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("consolidation.group_by[%d] is empty", i)
		}
	}

	return c.Standardization.Validate()
}

func validateThreshold(name string, t float64) error {
	if t <= 0 || t > 1 {
		return fmt.Errorf("%s must be in (0, 1], got %v", name, t)
	}
	return nil
}

// Validate rejects a vocabulary where one spelling leads to two labels, or
// whose default status would be rewritten by a second standardization pass.
func (v Vocabulary) Validate() error {
	statuses, err := synonymOwners("statuses", v.Statuses)
	if err != nil {
		return err
	}
	if _, err := synonymOwners("types", v.Types); err != nil {
		return err
	}
	return v.validateDefaultStatus(statuses)
}

// validateDefaultStatus requires the default status to be stable: it must
// not be an empty-status spelling and, when it is a known spelling, it must
// be that label exactly.
func (v Vocabulary) validateDefaultStatus(statuses map[string]string) error {
	folded := textnorm.Value(v.DefaultStatus)
	if folded == "" {
		return nil
	}

	for _, e := range v.EmptyStatuses {
		if textnorm.Value(e) == folded {
			return fmt.Errorf("standardization.default_status %q is listed in empty_statuses", v.DefaultStatus)
		}
	}

	if label, ok := statuses[folded]; ok && label != v.DefaultStatus {
		return fmt.Errorf("standardization.default_status %q is a spelling of %q, use the label itself", v.DefaultStatus, label)
	}
	return nil
}

// synonymOwners maps every folded spelling to its label.
func synonymOwners(name string, sets []SynonymSet) (map[string]string, error) {
	owner := make(map[string]string)
	for _, set := range sets {
		if strings.TrimSpace(set.Label) == "" {
			return nil, fmt.Errorf("standardization.%s: a synonym set has no label", name)
		}
		for _, s := range append([]string{set.Label}, set.Synonyms...) {
			key := textnorm.Value(s)
			if prev, ok := owner[key]; ok && prev != set.Label {
				return nil, fmt.Errorf("standardization.%s: %q maps to both %q and %q", name, s, prev, set.Label)
			}
			owner[key] = set.Label
		}
	}
	return owner, nil
}
