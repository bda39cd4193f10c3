// =============================================================================
// CSV File Validator - Processor Module
// =============================================================================
//
// This module orchestrates the validation pipeline for a single file, from
// tokenizing to writing reports.
//
// PROCESSING PIPELINE:
//   1. Resolve the columns of the schema (XLSX template plus inline columns)
//   2. Synthesize the validator configuration from the columns
//   3. Select the tokenizer from the file extension (CSV or XLSX)
//   4. Tokenize and validate the file
//   5. Write one report per configured format
//   6. Archive the input (and optionally the reports)
//
// A file whose rows violate the schema is not a processing failure: it gets
// reports like any other file and Result.Valid is false. Result.Error is only
// set when the file could not be validated at all (unknown schema settings,
// unreadable file, broken template).
//
// CONCURRENCY:
//   A Processor handles one file. Processors for different files can run in
//   parallel; they share the logger, metrics collector and file manager, all
//   of which are safe for concurrent use.
//
// =============================================================================

package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/csv-file-validator/internal/config"
	"github.com/ginjaninja78/csv-file-validator/internal/metrics"
	"github.com/ginjaninja78/csv-file-validator/internal/report"
	"github.com/ginjaninja78/csv-file-validator/internal/validation"
	"github.com/ginjaninja78/csv-file-validator/internal/xlsxparser"
	"github.com/ginjaninja78/csv-file-validator/pkg/csvparser"
	"github.com/ginjaninja78/csv-file-validator/pkg/utils"
	"github.com/ginjaninja78/csv-file-validator/pkg/validator"
	"github.com/rs/zerolog"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// Schema is the code of the schema the file was validated against.
	Schema string

	// Reports are the paths of the written reports. Empty on a dry run.
	Reports []string

	// ArchivePath is where the input file was moved, if it was archived.
	ArchivePath string

	// Valid reports whether validation produced no findings.
	Valid bool

	// Error is set when the file could not be validated.
	Error error

	// Findings holds the validation result. Nil when Error is set.
	Findings *validator.Result

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Records is the number of records produced.
	Records int

	// Findings is the number of validation findings.
	Findings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// Summary converts the result for the batch summary log.
func (r Result) Summary() utils.FileSummary {
	s := utils.FileSummary{
		InputFile:   r.FilePath,
		Schema:      r.Schema,
		Reports:     r.Reports,
		ArchivePath: r.ArchivePath,
		Records:     r.Stats.Records,
		Findings:    r.Stats.Findings,
		Valid:       r.Valid,
		ProcessTime: r.Stats.ProcessingTime,
	}
	if r.Error != nil {
		s.Error = r.Error.Error()
	}
	return s
}

// =============================================================================
// PROCESSOR STRUCTURE
// =============================================================================

// Options are the collaborators of a Processor. The zero value logs
// nothing, records no metrics and derives the file manager from the main
// configuration.
type Options struct {
	Logger  zerolog.Logger
	Metrics *metrics.Collector
	Files   *utils.FileManager

	// Formats overrides the report formats of the main configuration.
	Formats []string

	// DryRun validates without writing reports or moving files.
	DryRun bool
}

// Processor validates a single file.
type Processor struct {
	path   string
	schema *config.SchemaConfig
	main   *config.MainConfig
	opts   Options
	logger zerolog.Logger
}

// New creates a Processor for the file at path.
func New(path string, schema *config.SchemaConfig, main *config.MainConfig, opts Options) *Processor {
	if opts.Files == nil {
		opts.Files = utils.NewFileManager(main.InputDir, main.OutputDir, main.InputArchiveDir, main.OutputArchiveDir)
	}

	return &Processor{
		path:   path,
		schema: schema,
		main:   main,
		opts:   opts,
		logger: opts.Logger.With().
			Str("file", filepath.Base(path)).
			Str("schema", schema.SchemaCode).
			Logger(),
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the file.
func (p *Processor) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{
		FilePath: p.path,
		Schema:   p.schema.SchemaCode,
	}

	fail := func(err error) Result {
		result.Error = err
		result.Stats.ProcessingTime = time.Since(startTime)
		p.opts.Metrics.ObserveFailure(p.schema.SchemaCode)
		p.logger.Error().Err(err).Msg("file could not be validated")
		return result
	}

	p.logger.Info().Msg("processing file")

	// =========================================================================
	// STEP 1-2: BUILD VALIDATOR CONFIGURATION
	// =========================================================================

	cfg, err := BuildConfig(p.schema, p.main.TemplatesDir)
	if err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 3: SELECT TOKENIZER
	// =========================================================================

	tok, err := TokenizerFor(p.path, p.schema)
	if err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 4: TOKENIZE AND VALIDATE
	// =========================================================================

	findings, err := validateFile(ctx, tok, p.path, cfg)
	if err != nil {
		return fail(err)
	}

	result.Findings = findings
	result.Valid = findings.IsValid()
	result.Stats.Records = len(findings.Data)
	result.Stats.Findings = len(findings.Errors)
	p.opts.Metrics.ObserveResult(p.schema.SchemaCode, findings, time.Since(startTime))

	event := p.logger.Info()
	if !result.Valid {
		event = p.logger.Warn()
	}
	event.Int("records", result.Stats.Records).
		Int("findings", result.Stats.Findings).
		Bool("valid", result.Valid).
		Msg("validation complete")

	for _, f := range findings.Errors {
		p.logger.Debug().
			Str("kind", string(f.Kind)).
			Int("row", f.RowIndex).
			Str("column", f.ColumnIndex).
			Msg(f.Message)
	}

	if p.opts.DryRun {
		result.Stats.ProcessingTime = time.Since(startTime)
		return result
	}

	// =========================================================================
	// STEP 5: WRITE REPORTS
	// =========================================================================

	reports, err := p.writeReports(cfg, findings)
	result.Reports = reports
	if err != nil {
		return fail(err)
	}

	// =========================================================================
	// STEP 6: ARCHIVE FILES
	// =========================================================================
	// Archiving problems are logged but do not fail the file: the reports
	// are already written.

	p.archive(&result)

	result.Stats.ProcessingTime = time.Since(startTime)
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// BuildConfig resolves the columns of schema, reading its XLSX template from
// templatesDir when it has one, and synthesizes the validator configuration.
func BuildConfig(schema *config.SchemaConfig, templatesDir string) (*validator.Config, error) {
	var templateColumns []config.ColumnDefinition

	if path := schema.TemplatePath(templatesDir); path != "" {
		columns, err := xlsxparser.ParseTemplate(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template: %w", err)
		}
		templateColumns = columns
	}

	cfg, err := validation.Build(schema, validation.ResolveColumns(templateColumns, schema.Columns))
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", schema.SchemaCode, err)
	}

	return cfg, nil
}

// TokenizerFor picks the tokenizer for a file from its extension. Files
// that are not .xlsx are read as delimited text.
func TokenizerFor(path string, schema *config.SchemaConfig) (validator.Tokenizer, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return xlsxparser.Tokenizer{
			Sheet:         schema.CSVSettings.Sheet,
			DynamicTyping: schema.CSVSettings.DynamicTyping,
		}, nil
	}

	parser, err := csvparser.New(schema.CSVSettings.ParserSettings())
	if err != nil {
		return nil, fmt.Errorf("invalid csv settings: %w", err)
	}
	return parser, nil
}

// validateFile opens the file and runs the validation pass.
func validateFile(ctx context.Context, tok validator.Tokenizer, path string, cfg *validator.Config) (*validator.Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer file.Close()

	return validator.New(tok).Validate(ctx, validator.FromFile(file), cfg)
}

// writeReports writes one report per format. All reports of a file share
// the same base name and run id.
func (p *Processor) writeReports(cfg *validator.Config, findings *validator.Result) ([]string, error) {
	formats := p.opts.Formats
	if len(formats) == 0 {
		formats = p.main.ReportFormats
	}

	columns := make([]string, len(cfg.Headers))
	for i, h := range cfg.Headers {
		columns[i] = h.InputName
	}

	doc := report.NewDocument(p.path, p.schema.SchemaCode, p.schema.SchemaName, columns, findings)

	original := strings.TrimSuffix(filepath.Base(p.path), filepath.Ext(p.path))
	base := utils.GenerateOutputFileName(p.main.ReportNameFormat, map[string]string{
		"schema":   p.schema.SchemaCode,
		"original": original,
	}, "")

	var written []string
	for _, format := range formats {
		path := filepath.Join(p.opts.Files.OutputDir, base+report.Extension(format))
		if err := report.WriteFile(path, format, doc); err != nil {
			return written, err
		}
		written = append(written, path)
		p.logger.Debug().Str("report", path).Str("format", format).Msg("report written")
	}

	return written, nil
}

// archive moves the input and copies the reports as configured.
func (p *Processor) archive(result *Result) {
	if result.Valid || p.main.ArchiveInvalid {
		archived, err := p.opts.Files.ArchiveInputFile(p.path)
		if err != nil {
			p.logger.Warn().Err(err).Msg("failed to archive input file")
		} else {
			result.ArchivePath = archived
			p.logger.Debug().Str("archive", archived).Msg("input archived")
		}
	}

	if !p.main.ArchiveReports {
		return
	}
	for _, path := range result.Reports {
		if _, err := p.opts.Files.ArchiveOutputFile(path); err != nil {
			p.logger.Warn().Err(err).Str("report", path).Msg("failed to archive report")
		}
	}
}
