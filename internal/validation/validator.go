// =============================================================================
// CSV File Validator - Rule Synthesis
// =============================================================================
//
// This module turns declarative column definitions (YAML schema files and
// XLSX templates) into the hook-based configuration of pkg/validator.
//
// Each column may declare:
//   - A data type (numeric, decimal, date, email, uuid, ...)
//   - A maximum length, a pattern and a set of allowed values
//   - A required_if rule referencing another column in the same row
//   - Message templates for every kind of finding
//
// All value checks of a column are combined into one Validate hook, so a
// cell yields at most one validate finding. Empty values always pass the
// value checks; emptiness is the concern of Required and RequiredIf.
//
// =============================================================================

package validation

import (
	"fmt"

	"github.com/ginjaninja78/csv-file-validator/internal/config"
	"github.com/ginjaninja78/csv-file-validator/pkg/validator"
)

// =============================================================================
// BUILD
// =============================================================================

// Build converts the schema settings and its resolved columns into a
// validator configuration. columns are usually ResolveColumns(template,
// schema.Columns).
//
// Build rejects duplicate input names, unknown data types, invalid patterns
// and required_if rules that reference unknown columns.
func Build(schema *config.SchemaConfig, columns []config.ColumnDefinition) (*validator.Config, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema %s has no columns", schema.SchemaCode)
	}

	cfg := &validator.Config{
		Headers:                 make([]validator.ColumnSchema, 0, len(columns)),
		IsHeaderNameOptional:    schema.HeaderNameOptional,
		IsColumnIndexAlphabetic: schema.ColumnIndexAlphabetic,
	}

	index := newColumnIndex(columns)
	seen := make(map[string]bool, len(columns))

	for _, def := range columns {
		inputName := def.InputName
		if inputName == "" {
			inputName = def.Name
		}
		if seen[inputName] {
			return nil, fmt.Errorf("duplicate input_name %q", inputName)
		}
		seen[inputName] = true

		column, err := buildColumn(def, inputName, index)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", def.Name, err)
		}
		cfg.Headers = append(cfg.Headers, column)
	}

	return cfg, nil
}

// buildColumn synthesizes the hooks of a single column.
func buildColumn(def config.ColumnDefinition, inputName string, index columnIndex) (validator.ColumnSchema, error) {
	column := validator.ColumnSchema{
		Name:      def.Name,
		InputName: inputName,
		Required:  def.Required,
		Optional:  def.Optional,
		Unique:    def.Unique,
		IsArray:   def.IsArray,
	}

	var checks []valueCheck

	if def.DataType != "" {
		check, err := dataTypeCheck(def.DataType)
		if err != nil {
			return column, err
		}
		if check != nil {
			checks = append(checks, check)
		}
	}

	if def.MaxLength > 0 {
		checks = append(checks, maxLengthCheck(def.MaxLength))
	}

	if def.Pattern != "" {
		check, err := patternCheck(def.Pattern)
		if err != nil {
			return column, err
		}
		checks = append(checks, check)
	}

	if len(def.AllowedValues) > 0 {
		checks = append(checks, allowedValuesCheck(def.AllowedValues))
	}

	if len(checks) > 0 {
		column.Validate = combine(checks)
	}

	if def.RequiredIf != "" {
		cond, err := parseCondition(def.RequiredIf, index)
		if err != nil {
			return column, err
		}
		column.DependentValidate = requiredIf(cond)
	}

	if def.HeaderError != "" {
		tpl := def.HeaderError
		column.HeaderError = func(value, name string, row int, col string) string {
			return render(tpl, name, row, col, value)
		}
	}
	if def.RequiredError != "" {
		tpl := def.RequiredError
		column.RequiredError = func(name string, row int, col string) string {
			return render(tpl, name, row, col, "")
		}
	}
	if def.UniqueError != "" {
		tpl := def.UniqueError
		column.UniqueError = func(name string, row int) string {
			return render(tpl, name, row, "", "")
		}
	}
	if def.ValidateError != "" {
		tpl := def.ValidateError
		column.ValidateError = func(name string, row int, col string) string {
			return render(tpl, name, row, col, "")
		}
	}

	return column, nil
}

// =============================================================================
// COLUMN RESOLUTION
// =============================================================================

// ResolveColumns merges template columns with inline schema columns. An
// inline column replaces the template column with the same name; the rest
// are appended in their order.
func ResolveColumns(template, inline []config.ColumnDefinition) []config.ColumnDefinition {
	resolved := make([]config.ColumnDefinition, len(template))
	copy(resolved, template)

	positions := make(map[string]int, len(resolved))
	for i, column := range resolved {
		positions[column.Name] = i
	}

	for _, column := range inline {
		if i, ok := positions[column.Name]; ok {
			resolved[i] = column
			continue
		}
		positions[column.Name] = len(resolved)
		resolved = append(resolved, column)
	}

	return resolved
}

// columnIndex locates columns by input name or header name.
type columnIndex map[string]int

func newColumnIndex(columns []config.ColumnDefinition) columnIndex {
	index := make(columnIndex, 2*len(columns))
	// Header names first so that input names win on a clash.
	for i, c := range columns {
		index[c.Name] = i
	}
	for i, c := range columns {
		if c.InputName != "" {
			index[c.InputName] = i
		}
	}
	return index
}
