// =============================================================================
// CSV File Validator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the CSV File Validator CLI application.
// It delegates to the Cobra commands in the cmd package.
//
// USAGE:
//   csvvalidator validate   - Validate files in the input directory
//   csvvalidator watch      - Validate files as they arrive
//   csvvalidator check      - Check configuration, schemas and templates
//   csvvalidator version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Pipeline, configuration, reports, watching, metrics
//   - pkg/validator  : The validation engine, usable as a library
//   - pkg/csvparser  : The delimited text tokenizer
//   - pkg/utils      : File management
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/csv-file-validator/cmd"
)

func main() {
	cmd.Execute()
}
