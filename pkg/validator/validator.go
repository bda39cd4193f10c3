// =============================================================================
// CSV File Validator - Orchestrator
// =============================================================================
//
// This package validates tokenized tabular data against a declarative column
// schema. It produces the projected records and every validation finding in
// a single pass.
//
// VALIDATION PASS:
//   1. Row 0 is matched against the column names (unless header names are
//      optional, in which case unmatched cells are treated as data)
//   2. Every other row is checked for its field count and each cell runs
//      through required, validate and dependent validate rules
//   3. Each cell with a column is projected into the row's record
//   4. Unique columns are checked across all records
//
// ERROR HANDLING:
//   - Findings are collected, never returned as errors
//   - All rows are always processed
//   - The only error is a tokenizing failure, which happens before any row
//     is validated
//
// =============================================================================

package validator

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// =============================================================================
// TOKENIZER CONTRACT
// =============================================================================

// Tokenizer splits raw input into rows. Implementations must skip empty lines.
type Tokenizer interface {
	Tokenize(ctx context.Context, r io.Reader) ([]Row, error)
}

// TokenizerFunc adapts a function to the Tokenizer interface.
type TokenizerFunc func(ctx context.Context, r io.Reader) ([]Row, error)

// Tokenize calls f.
func (f TokenizerFunc) Tokenize(ctx context.Context, r io.Reader) ([]Row, error) {
	return f(ctx, r)
}

// Input is the raw data handed to the tokenizer. Name identifies the input in
// errors (a file path, an upload name); it may be empty.
type Input struct {
	Name   string
	Reader io.Reader
}

// FromString wraps raw text.
func FromString(s string) Input {
	return Input{Name: "<string>", Reader: strings.NewReader(s)}
}

// FromReader wraps an arbitrary stream.
func FromReader(name string, r io.Reader) Input {
	return Input{Name: name, Reader: r}
}

// FromFile wraps an open file handle.
func FromFile(f *os.File) Input {
	return Input{Name: f.Name(), Reader: f}
}

// ParseError is returned when the input could not be tokenized.
type ParseError struct {
	// Source is the Input.Name of the offending input.
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to tokenize %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator couples a tokenizer with the validation pass.
type Validator struct {
	tokenizer Tokenizer
}

// New creates a Validator that reads input with tok.
func New(tok Tokenizer) *Validator {
	return &Validator{tokenizer: tok}
}

// Validate tokenizes in and validates the rows against cfg.
//
// A nil cfg, or one without headers, resolves immediately with a single
// configuration finding and the input is not read. A tokenizing failure is
// returned as a *ParseError.
func (v *Validator) Validate(ctx context.Context, in Input, cfg *Config) (*Result, error) {
	if cfg == nil || len(cfg.Headers) == 0 {
		return missingConfigResult(), nil
	}

	rows, err := v.tokenizer.Tokenize(ctx, in.Reader)
	if err != nil {
		return nil, &ParseError{Source: in.Name, Err: err}
	}

	return ValidateRows(rows, cfg), nil
}

// ValidateRows runs the validation pass over already tokenized rows.
// The result depends only on rows and cfg; neither is modified.
func ValidateRows(rows []Row, cfg *Config) *Result {
	if cfg == nil || len(cfg.Headers) == 0 {
		return missingConfigResult()
	}

	result := &Result{
		Data:   []Record{},
		Errors: []Finding{},
	}
	// Source row (1-based) of each record, for uniqueness findings.
	var sources []int

	for index, row := range rows {
		var out rowOutcome

		if index == 0 {
			headerFindings, consumed := matchHeader(row, cfg)
			out.findings = headerFindings
			if cfg.IsHeaderNameOptional {
				data := validateRow(row, index, cfg, consumed)
				out.findings = append(out.findings, data.findings...)
				out.record = data.record
			}
		} else {
			out = validateRow(row, index, cfg, nil)
		}

		result.Errors = append(result.Errors, out.findings...)
		if out.record != nil {
			result.Data = append(result.Data, out.record)
			sources = append(sources, index+1)
		}
	}

	result.Errors = append(result.Errors, checkUnique(result.Data, sources, cfg)...)

	return result
}

func missingConfigResult() *Result {
	return &Result{
		Data: []Record{},
		Errors: []Finding{{
			Kind:    FindingConfig,
			Message: MissingConfigMessage,
		}},
	}
}
