// =============================================================================
// CSV File Validator - Schema and Result Types
// =============================================================================
//
// A Config is an ordered list of ColumnSchema values. The position of a
// column in Headers is the position the validator expects it in every row.
//
// Every message hook is optional. When a hook is nil the validator falls back
// to the default message templates in messages.go.
//
// =============================================================================

package validator

// =============================================================================
// HOOKS
// =============================================================================

// HeaderErrorFunc builds the message for a header cell that does not match
// the expected column name. col is rendered as a number or a letter
// depending on Config.IsColumnIndexAlphabetic.
type HeaderErrorFunc func(value, name string, row int, col string) string

// RequiredErrorFunc builds the message for an empty required cell.
type RequiredErrorFunc func(name string, row int, col string) string

// UniqueErrorFunc builds the message for a duplicated value in a unique column.
type UniqueErrorFunc func(name string, row int) string

// ValidateErrorFunc builds the message for a cell rejected by Validate or
// DependentValidate.
type ValidateErrorFunc func(name string, row int, col string) string

// ValidateFunc reports whether a cell value is valid.
type ValidateFunc func(value Cell) bool

// DependentValidateFunc reports whether a cell value is valid given the
// whole (normalized) row it belongs to.
type DependentValidateFunc func(value Cell, row Row) bool

// =============================================================================
// SCHEMA
// =============================================================================

// ColumnSchema describes one expected column.
type ColumnSchema struct {
	// Name is the header title; it is compared against the header row and
	// used in messages.
	Name string

	// InputName is the key the cell value is stored under in each Record.
	// If two columns share an InputName the later column wins.
	InputName string

	// Required marks blank values as errors.
	Required bool

	// Optional documents that the column may be left blank. Every column
	// with a cell is projected whether or not it is optional.
	Optional bool

	// Unique requires the projected value to be unique across all records.
	Unique bool

	// IsArray splits the value on commas into a []string.
	IsArray bool

	HeaderError       HeaderErrorFunc
	RequiredError     RequiredErrorFunc
	UniqueError       UniqueErrorFunc
	Validate          ValidateFunc
	ValidateError     ValidateErrorFunc
	DependentValidate DependentValidateFunc
}

// Config drives a validation pass. It is only read, never modified.
type Config struct {
	Headers []ColumnSchema

	// IsHeaderNameOptional lets the first row be either a header row or
	// data. Cells of row 0 that equal their column name are skipped; the
	// rest are validated and projected as data.
	IsHeaderNameOptional bool

	// IsColumnIndexAlphabetic renders column numbers as spreadsheet
	// letters (A, B, ..., Z, AA) instead of 1-based integers.
	IsColumnIndexAlphabetic bool
}

// =============================================================================
// RESULT
// =============================================================================

// FindingKind classifies a Finding.
type FindingKind string

const (
	FindingConfig      FindingKind = "config"
	FindingHeader      FindingKind = "header"
	FindingHeaderCount FindingKind = "header_count"
	FindingFieldCount  FindingKind = "field_count"
	FindingRequired    FindingKind = "required"
	FindingValidate    FindingKind = "validate"
	FindingDependent   FindingKind = "dependent"
	FindingUnique      FindingKind = "unique"
)

// Finding is a single validation error.
type Finding struct {
	// RowIndex is the row the finding refers to; zero means absent.
	// Cell findings use 1-based rows. Field count findings keep the
	// 0-based index of the row in the input, which is also what their
	// message prints.
	RowIndex int `json:"rowIndex,omitempty" xml:"row,attr,omitempty"`

	// ColumnIndex is the 1-based column, rendered as a decimal number or
	// letters. Empty means absent.
	ColumnIndex string `json:"columnIndex,omitempty" xml:"column,attr,omitempty"`

	Kind    FindingKind `json:"kind" xml:"kind,attr"`
	Message string      `json:"message" xml:",chardata"`
}

// Record maps InputName to the projected value. Scalars hold the native cell
// value (string, float64, bool or nil); array columns hold []string.
type Record map[string]any

// Result is the outcome of a validation pass.
type Result struct {
	Data   []Record  `json:"data"`
	Errors []Finding `json:"errors"`
}

// IsValid reports whether the pass produced no findings.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// CountByKind tallies findings per kind.
func (r *Result) CountByKind() map[FindingKind]int {
	counts := make(map[FindingKind]int)
	for _, f := range r.Errors {
		counts[f.Kind]++
	}
	return counts
}
