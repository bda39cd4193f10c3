// =============================================================================
// CSV File Validator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which validates a batch of files
// and writes their reports.
//
// COMMAND USAGE:
//   csvvalidator validate [files...] [flags]
//
// FLAGS:
//   --schema   : Validate every file against this schema code
//   --dry-run  : Validate without writing reports or moving files
//   --format   : Report formats to write (overrides report_formats)
//
// PROCESSING PIPELINE:
//   1. Load configuration and schemas
//   2. Collect the files (arguments, or everything in the input directory)
//   3. Validate the files concurrently, at most max_concurrency at a time
//   4. Write the summary log and prune old archives
//
// The command fails when any file has findings or could not be validated.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ginjaninja78/csv-file-validator/internal/metrics"
	"github.com/ginjaninja78/csv-file-validator/internal/processor"
	"github.com/ginjaninja78/csv-file-validator/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	schemaCode    string
	dryRun        bool
	reportFormats []string
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate files against their schemas",
	Long: `The validate command matches every file to a schema by its file name (or uses
--schema), validates it, and writes the configured reports to the output
directory.

On a valid file:
  - Reports are written to the output directory
  - The input is moved to the input archive

On a file with findings:
  - Reports are written to the output directory
  - The input stays in place unless archive_invalid is set

Files that cannot be read, or have no schema, are listed in the summary.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&schemaCode, "schema", "", "Validate all files against this schema code")
	validateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without writing reports or archiving files")
	validateCmd.Flags().StringSliceVar(&reportFormats, "format", nil, "Report formats to write: xml, json, log")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runValidate(ctx context.Context, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	log := env.logger

	for _, format := range reportFormats {
		switch format {
		case "xml", "json", "log":
		default:
			return fmt.Errorf("unknown report format %q", format)
		}
	}

	files := utils.NewFileManager(env.main.InputDir, env.main.OutputDir, env.main.InputArchiveDir, env.main.OutputArchiveDir)
	if !dryRun {
		if err := files.EnsureDirectories(); err != nil {
			return err
		}
	}

	inputs := args
	if len(inputs) == 0 {
		inputs, err = files.DiscoverInputFiles()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}
	if len(inputs) == 0 {
		log.Info().Str("dir", env.main.InputDir).Msg("no input files found")
		return nil
	}

	log.Info().Int("files", len(inputs)).Int("concurrency", env.main.MaxConcurrency).Msg("validating files")

	opts := processor.Options{
		Logger:  log,
		Metrics: metrics.New(prometheus.NewRegistry()),
		Files:   files,
		Formats: reportFormats,
		DryRun:  dryRun,
	}

	summary := utils.ProcessingSummary{StartTime: time.Now()}
	for _, result := range processAll(ctx, env, inputs, opts) {
		summary.Add(result.Summary())
	}
	summary.EndTime = time.Now()

	log.Info().
		Int("files", summary.TotalFiles).
		Int("valid", summary.ValidFiles).
		Int("invalid", summary.InvalidFiles).
		Int("failed", summary.FailedFiles).
		Int("records", summary.TotalRecords).
		Int("findings", summary.TotalFindings).
		Dur("elapsed", summary.EndTime.Sub(summary.StartTime)).
		Msg("validation complete")

	if !dryRun {
		path, err := utils.WriteSummaryLog(summary, env.main.OutputDir)
		if err != nil {
			log.Warn().Err(err).Msg("failed to write summary log")
		} else {
			log.Info().Str("summary", path).Msg("summary written")
		}
		pruneArchives(env)
	}

	if bad := summary.InvalidFiles + summary.FailedFiles; bad > 0 {
		return fmt.Errorf("%d of %d file(s) did not pass validation", bad, summary.TotalFiles)
	}
	return nil
}

// processAll validates the files with at most max_concurrency processors
// running. Results keep the order of files.
func processAll(ctx context.Context, env *environment, files []string, opts processor.Options) []processor.Result {
	results := make([]processor.Result, len(files))
	sem := make(chan struct{}, env.main.MaxConcurrency)
	var wg sync.WaitGroup

	for i, file := range files {
		schema, err := env.selectSchema(file, schemaCode)
		if err != nil {
			env.logger.Error().Err(err).Str("file", file).Msg("no schema for file")
			opts.Metrics.ObserveFailure("")
			results[i] = processor.Result{FilePath: file, Error: err}
			continue
		}

		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = processor.Result{FilePath: file, Schema: schema.SchemaCode, Error: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			results[i] = processor.New(file, schema, env.main, opts).Run(ctx)
		}(i, file)
	}

	wg.Wait()
	return results
}

// pruneArchives applies archive_retention to both archives.
func pruneArchives(env *environment) {
	if env.main.ArchiveRetention <= 0 {
		return
	}
	for _, dir := range []string{env.main.InputArchiveDir, env.main.OutputArchiveDir} {
		removed, err := utils.CleanOldArchives(dir, env.main.ArchiveRetention)
		if err != nil {
			env.logger.Warn().Err(err).Str("dir", dir).Msg("failed to prune archive")
			continue
		}
		if removed > 0 {
			env.logger.Info().Str("dir", dir).Int("removed", removed).Msg("archive pruned")
		}
	}
}
