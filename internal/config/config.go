// =============================================================================
// CSV File Validator - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the schema
// configurations that describe the expected columns of each kind of file.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Schema Configs (schemas/*.yaml): Columns and parsing rules per file kind
//
// A schema either lists its columns inline or points at an XLSX template in
// the templates directory (one row per column). Inline columns override
// template columns with the same name.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ginjaninja78/csv-file-validator/pkg/csvparser"
	"gopkg.in/yaml.v3"
)

// ErrNoSchema is returned by FindSchema when no schema matches a file.
var ErrNoSchema = errors.New("no schema matches file")

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory where files to validate are placed.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where validation reports are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir is the directory where processed input files are moved.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every report when ArchiveReports
	// is set.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// SchemasDir contains one YAML file per schema.
	// Default: "./schemas"
	SchemasDir string `yaml:"schemas_dir"`

	// TemplatesDir contains XLSX column templates referenced by schemas.
	// Default: "./templates"
	TemplatesDir string `yaml:"templates_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "trace", "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects "console" (human readable) or "json" output.
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// REPORT SETTINGS
	// =========================================================================

	// ReportNameFormat defines the base name of report files, without
	// extension. Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {schema}    - Schema code
	//   {original}  - Input file name without extension
	//
	// Default: "{original}_{timestamp}"
	ReportNameFormat string `yaml:"report_name_format"`

	// ReportFormats lists the reports written for every file.
	// Valid values: "xml", "json", "log"
	// Default: ["xml", "log"]
	ReportFormats []string `yaml:"report_formats"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files validated concurrently.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ArchiveInvalid moves input files with findings to the archive as well.
	// Valid files are always archived.
	// Default: false
	ArchiveInvalid bool `yaml:"archive_invalid"`

	// ArchiveReports copies every report to OutputArchiveDir.
	// Default: false
	ArchiveReports bool `yaml:"archive_reports"`

	// ArchiveRetention removes archived files older than this after each
	// batch run. Zero keeps archives forever.
	// Default: 0
	ArchiveRetention time.Duration `yaml:"archive_retention"`

	// =========================================================================
	// WATCH SETTINGS
	// =========================================================================

	// MetricsAddr is the listen address of the metrics server started by the
	// watch command. Empty disables the server.
	// Default: ":9090"
	MetricsAddr string `yaml:"metrics_addr"`

	// WatchDebounce is how long a file must be quiet before it is processed.
	// Default: 500ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// =============================================================================
// SCHEMA CONFIGURATION STRUCTURE
// =============================================================================

// SchemaConfig describes one kind of input file.
type SchemaConfig struct {
	// SchemaName is the human-readable name used in logs and reports.
	SchemaName string `yaml:"schema_name"`

	// SchemaCode is a short code used as key, metrics label and report name.
	SchemaCode string `yaml:"schema_code"`

	// FileMatchingPatterns is a list of glob patterns matched against the
	// input file name.
	// Examples:
	//   - "users_*.csv"
	//   - "*_payments.xlsx"
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// CSVSettings contains settings for tokenizing the input file.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// HeaderNameOptional treats a first row that does not match the column
	// names as data.
	HeaderNameOptional bool `yaml:"header_name_optional"`

	// ColumnIndexAlphabetic reports columns as letters (A, B, ..., AA).
	ColumnIndexAlphabetic bool `yaml:"column_index_alphabetic"`

	// Template is an XLSX file in the templates directory providing columns.
	Template string `yaml:"template,omitempty"`

	// Columns are the column definitions, in file order.
	Columns []ColumnDefinition `yaml:"columns"`

	// Source is the file the schema was loaded from.
	Source string `yaml:"-"`
}

// CSVSettings contains settings for parsing input files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), ";" , "|" (pipe), "tab"
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the file.
	// Common values: "utf-8", "iso-8859-1", "windows-1252", "utf-16"
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`

	// DynamicTyping converts booleans, numbers and empty fields.
	DynamicTyping bool `yaml:"dynamic_typing"`

	// LazyQuotes relaxes quote handling.
	LazyQuotes bool `yaml:"lazy_quotes"`

	// TrimLeadingSpace ignores leading white space in fields.
	TrimLeadingSpace bool `yaml:"trim_leading_space"`

	// Comment marks lines to skip.
	Comment string `yaml:"comment,omitempty"`

	// Sheet is the worksheet read from XLSX input. Empty selects the first.
	Sheet string `yaml:"sheet,omitempty"`
}

// ParserSettings converts the settings for the CSV tokenizer.
func (s CSVSettings) ParserSettings() csvparser.Settings {
	return csvparser.Settings{
		Delimiter:        s.Delimiter,
		Comment:          s.Comment,
		Encoding:         s.Encoding,
		DynamicTyping:    s.DynamicTyping,
		LazyQuotes:       s.LazyQuotes,
		TrimLeadingSpace: s.TrimLeadingSpace,
	}
}

// =============================================================================
// COLUMN DEFINITION STRUCTURE
// =============================================================================

// ColumnDefinition declares one expected column and its rules.
type ColumnDefinition struct {
	// Name is the expected header text.
	Name string `yaml:"name"`

	// InputName is the key of the column in output records.
	InputName string `yaml:"input_name"`

	Required bool `yaml:"required"`

	// Optional is informational only.
	Optional bool `yaml:"optional"`

	Unique  bool `yaml:"unique"`
	IsArray bool `yaml:"is_array"`

	// DataType is one of: string, numeric, decimal, decimal(p), alphanumeric,
	// alpha, date, date(layout), boolean, email, uuid.
	DataType string `yaml:"data_type,omitempty"`

	// MaxLength limits the value length in characters. Zero disables it.
	MaxLength int `yaml:"max_length,omitempty"`

	// Pattern is a regular expression the whole value must match.
	Pattern string `yaml:"pattern,omitempty"`

	// AllowedValues restricts the value to a fixed set.
	AllowedValues []string `yaml:"allowed_values,omitempty"`

	// RequiredIf makes the column required when a rule on another column
	// holds.
	// Examples:
	//   - "Country == 'US'"
	//   - "Amount > 100"
	//   - "Reference is_not_empty"
	RequiredIf string `yaml:"required_if,omitempty"`

	// Message templates. Placeholders: {name}, {row}, {col}, {value}.
	HeaderError   string `yaml:"header_error,omitempty"`
	RequiredError string `yaml:"required_error,omitempty"`
	UniqueError   string `yaml:"unique_error,omitempty"`
	ValidateError string `yaml:"validate_error,omitempty"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file, applies
// defaults and makes sure the working directories exist.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
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
	if config.SchemasDir == "" {
		config.SchemasDir = "./schemas"
	}
	if config.TemplatesDir == "" {
		config.TemplatesDir = "./templates"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
	if config.ReportNameFormat == "" {
		config.ReportNameFormat = "{original}_{timestamp}"
	}
	if len(config.ReportFormats) == 0 {
		config.ReportFormats = []string{"xml", "log"}
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.MetricsAddr == "" {
		config.MetricsAddr = ":9090"
	}
	if config.WatchDebounce <= 0 {
		config.WatchDebounce = 500 * time.Millisecond
	}
}

// validateMainConfig checks option values and creates missing directories.
func validateMainConfig(config *MainConfig) error {
	for _, format := range config.ReportFormats {
		switch format {
		case "xml", "json", "log":
		default:
			return fmt.Errorf("unknown report format %q", format)
		}
	}

	switch config.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", config.LogFormat)
	}

	if config.ArchiveRetention < 0 {
		return errors.New("archive_retention must not be negative")
	}

	dirs := []string{
		config.InputDir,
		config.OutputDir,
		config.SchemasDir,
		config.TemplatesDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// LoadSchemaConfigs loads all schema configurations from a directory.
// The map is keyed by schema code, or by file name when the code is empty.
func LoadSchemaConfigs(schemasDir string) (map[string]*SchemaConfig, error) {
	configs := make(map[string]*SchemaConfig)

	files, err := filepath.Glob(filepath.Join(schemasDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list schema files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(schemasDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list schema files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		schema, err := LoadSchemaConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		key := schema.SchemaCode
		if key == "" {
			key = filepath.Base(file)
		}

		if other, exists := configs[key]; exists {
			return nil, fmt.Errorf("schema code %q defined in both %s and %s", key, other.Source, file)
		}

		configs[key] = schema
	}

	return configs, nil
}

// LoadSchemaConfig loads a single schema configuration file.
func LoadSchemaConfig(filePath string) (*SchemaConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var schema SchemaConfig
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	schema.Source = filePath

	applySchemaConfigDefaults(&schema)

	if err := validateSchemaConfig(&schema); err != nil {
		return nil, err
	}

	return &schema, nil
}

// applySchemaConfigDefaults sets default values for a schema configuration.
func applySchemaConfigDefaults(schema *SchemaConfig) {
	if schema.CSVSettings.Delimiter == "" {
		schema.CSVSettings.Delimiter = ","
	}
	if schema.CSVSettings.Encoding == "" {
		schema.CSVSettings.Encoding = "utf-8"
	}
	if schema.SchemaName == "" {
		schema.SchemaName = schema.SchemaCode
	}

	for i := range schema.Columns {
		if schema.Columns[i].InputName == "" {
			schema.Columns[i].InputName = schema.Columns[i].Name
		}
	}
}

// validateSchemaConfig checks the parts of a schema that do not need the
// template: patterns, column names and duplicate input names.
func validateSchemaConfig(schema *SchemaConfig) error {
	if len(schema.FileMatchingPatterns) == 0 {
		return errors.New("file_matching_patterns must not be empty")
	}
	for _, pattern := range schema.FileMatchingPatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("bad file pattern %q: %w", pattern, err)
		}
	}

	if len(schema.Columns) == 0 && schema.Template == "" {
		return errors.New("schema needs columns or a template")
	}

	seen := make(map[string]bool, len(schema.Columns))
	for i, column := range schema.Columns {
		if column.Name == "" {
			return fmt.Errorf("column %d has no name", i+1)
		}
		if seen[column.InputName] {
			return fmt.Errorf("duplicate input_name %q", column.InputName)
		}
		seen[column.InputName] = true
	}

	return nil
}

// =============================================================================
// SCHEMA SELECTION
// =============================================================================

// Matches reports whether the file name matches one of the schema patterns.
// Only the base name is compared, case-insensitively.
func (s *SchemaConfig) Matches(fileName string) bool {
	base := strings.ToLower(filepath.Base(fileName))
	for _, pattern := range s.FileMatchingPatterns {
		if ok, _ := filepath.Match(strings.ToLower(pattern), base); ok {
			return true
		}
	}
	return false
}

// FindSchema returns the first schema, in key order, matching the file.
func FindSchema(fileName string, schemas map[string]*SchemaConfig) (*SchemaConfig, error) {
	keys := make([]string, 0, len(schemas))
	for key := range schemas {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if schemas[key].Matches(fileName) {
			return schemas[key], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNoSchema, filepath.Base(fileName))
}

// TemplatePath resolves the schema template inside the templates directory.
// It returns "" when the schema has no template.
func (s *SchemaConfig) TemplatePath(templatesDir string) string {
	if s.Template == "" {
		return ""
	}
	if filepath.IsAbs(s.Template) {
		return s.Template
	}
	return filepath.Join(templatesDir, s.Template)
}
