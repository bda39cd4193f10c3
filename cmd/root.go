// =============================================================================
// CSV File Validator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (csvvalidator)
//   ├── validateCmd (csvvalidator validate)
//   ├── watchCmd    (csvvalidator watch)
//   ├── checkCmd    (csvvalidator check)
//   └── versionCmd  (csvvalidator version)
//
// The root command owns the global flags and the shared start-up sequence:
// loading config.yaml, loading the schemas and building the logger.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/csv-file-validator/internal/config"
	"github.com/ginjaninja78/csv-file-validator/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// logFormat overrides log_format from the configuration.
var logFormat string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "csvvalidator",
	Short: "CSV File Validator - Validate CSV and XLSX files against column schemas",
	Long: `CSV File Validator checks delimited text and XLSX files against declarative
column schemas and writes a report for every file.

Key Features:
  - Header checks, required and conditionally required columns
  - Data types, lengths, patterns, allowed values and uniqueness
  - Schemas in YAML, optionally backed by XLSX column templates
  - XML, JSON and plain text reports
  - Directory watching with Prometheus metrics

Example Usage:
  csvvalidator validate                     # Validate all files in the input directory
  csvvalidator validate users_jan.csv       # Validate specific files
  csvvalidator watch                        # Validate files as they arrive
  csvvalidator check --config ./my.yaml     # Check configuration and schemas`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main(). Interrupts cancel the
// command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		"",
		`Log output format, "console" or "json" (overrides log_format)`,
	)
}

// =============================================================================
// SHARED START-UP
// =============================================================================

// environment is what every command needs after start-up.
type environment struct {
	main    *config.MainConfig
	schemas map[string]*config.SchemaConfig
	logger  zerolog.Logger
}

// loadEnvironment loads the main configuration and all schemas and builds
// the logger.
func loadEnvironment() (*environment, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	level := mainConfig.LogLevel
	if verbose {
		level = "debug"
	}
	format := mainConfig.LogFormat
	if logFormat != "" {
		format = logFormat
	}
	logger := logging.Setup(level, format, os.Stderr)

	schemas, err := config.LoadSchemaConfigs(mainConfig.SchemasDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}

	logger.Debug().
		Str("config", cfgFile).
		Int("schemas", len(schemas)).
		Msg("configuration loaded")

	return &environment{main: mainConfig, schemas: schemas, logger: logger}, nil
}

// selectSchema returns the schema forced by code, or the one matching file.
func (env *environment) selectSchema(file, code string) (*config.SchemaConfig, error) {
	if code == "" {
		return config.FindSchema(file, env.schemas)
	}
	schema, ok := env.schemas[code]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", code)
	}
	return schema, nil
}
