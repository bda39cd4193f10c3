// =============================================================================
// CSV File Validator - Check Command
// =============================================================================
//
// This file defines the 'check' command, which loads the configuration, every
// schema and every referenced template and builds the validator
// configuration for each schema, without reading any input file.
//
// COMMAND USAGE:
//   csvvalidator check
//
// OUTPUT:
//   One line per schema with its column count or the problem found.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ginjaninja78/csv-file-validator/internal/config"
	"github.com/ginjaninja78/csv-file-validator/internal/processor"
	"github.com/ginjaninja78/csv-file-validator/pkg/utils"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the configuration, schemas and templates",
	Long: `The check command loads config.yaml and all schemas, reads the XLSX
templates they reference and compiles their rules. It reports every problem
found and fails if there is at least one.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		return checkSchemas(cmd.OutOrStdout(), env.schemas, env.main.TemplatesDir)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkSchemas builds every schema and prints one line per schema.
func checkSchemas(w io.Writer, schemas map[string]*config.SchemaConfig, templatesDir string) error {
	if len(schemas) == 0 {
		return fmt.Errorf("no schemas found")
	}

	codes := make([]string, 0, len(schemas))
	for code := range schemas {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	failed := 0
	for _, code := range codes {
		schema := schemas[code]
		cfg, err := processor.BuildConfig(schema, templatesDir)
		if err != nil {
			failed++
			fmt.Fprintf(w, "  ✗ %s (%s): %v\n", code, filepath.Base(schema.Source), err)
			continue
		}

		fmt.Fprintf(w, "  ✓ %s: %d column(s), patterns %s\n",
			code, len(cfg.Headers), strings.Join(schema.FileMatchingPatterns, ", "))
		for _, pattern := range schema.FileMatchingPatterns {
			if !watchable(pattern) {
				fmt.Fprintf(w, "    warning: pattern %q never matches a .csv or .xlsx file\n", pattern)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d schema(s) are invalid", failed, len(schemas))
	}
	return nil
}

// watchable reports whether a file pattern can select files that discovery
// and the watcher pick up.
func watchable(pattern string) bool {
	ext := filepath.Ext(pattern)
	if ext == "" || strings.ContainsAny(ext, "*?[") {
		return true
	}
	return utils.HasExtension(pattern, utils.DefaultExtensions)
}
