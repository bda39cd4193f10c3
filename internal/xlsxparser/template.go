// =============================================================================
// CSV File Validator - XLSX Template Parser
// =============================================================================
//
// This module reads column definitions from XLSX template files. A template
// lists one expected column per row, so business users can maintain schemas
// in a spreadsheet instead of YAML.
//
// TEMPLATE STRUCTURE (Expected Columns):
//   Column positions are configurable via the TemplateColumns struct.
//
//   | A           | B          | C         | D          | E          | F                  | G      | H     | I        | J              |
//   |-------------|------------|-----------|------------|------------|--------------------|--------|-------|----------|----------------|
//   | Column Name | Input Name | Data Type | Max Length | Required   | Required If        | Unique | Array | Pattern  | Allowed Values |
//   | First Name  | firstName  | alpha     | 40         | required   |                    |        |       |          |                |
//   | Email       | email      | email     | 120        | required   |                    | yes    |       |          |                |
//   | Roles       | roles      | string    |            | optional   |                    |        | yes   |          | admin,user     |
//   | State       | state      | alpha     | 2          | conditional| country == 'US'    |        |       | [A-Z]{2} |                |
//
// The first row holds titles and is skipped. Empty rows are ignored.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/csv-file-validator/internal/config"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TEMPLATE COLUMN CONFIGURATION
// =============================================================================

// TemplateColumns defines which columns in the XLSX template contain which data.
// Column indices are 0-based (A=0, B=1, C=2, etc.)
type TemplateColumns struct {
	NameColumn          int
	InputNameColumn     int
	DataTypeColumn      int
	MaxLengthColumn     int
	RequiredColumn      int
	RequiredIfColumn    int
	UniqueColumn        int
	ArrayColumn         int
	PatternColumn       int
	AllowedValuesColumn int

	// DataStartRow is the row number where column definitions begin (0-based).
	// Default: 1 (Row 2)
	DataStartRow int
}

// DefaultTemplateColumns returns the default column configuration.
func DefaultTemplateColumns() TemplateColumns {
	return TemplateColumns{
		NameColumn:          0, // Column A
		InputNameColumn:     1, // Column B
		DataTypeColumn:      2, // Column C
		MaxLengthColumn:     3, // Column D
		RequiredColumn:      4, // Column E
		RequiredIfColumn:    5, // Column F
		UniqueColumn:        6, // Column G
		ArrayColumn:         7, // Column H
		PatternColumn:       8, // Column I
		AllowedValuesColumn: 9, // Column J
		DataStartRow:        1, // Row 2
	}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseTemplate reads column definitions from the first sheet of an XLSX
// template using the default layout.
func ParseTemplate(templatePath string) ([]config.ColumnDefinition, error) {
	return ParseTemplateWithConfig(templatePath, DefaultTemplateColumns())
}

// ParseTemplateWithConfig reads column definitions using a custom layout.
func ParseTemplateWithConfig(templatePath string, columns TemplateColumns) ([]config.ColumnDefinition, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("template file has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var definitions []config.ColumnDefinition
	for i := columns.DataStartRow; i < len(rows); i++ {
		row := rows[i]

		if isRowEmpty(row) {
			continue
		}

		definition, err := parseRow(row, columns)
		if err != nil {
			return nil, fmt.Errorf("error parsing row %d: %w", i+1, err)
		}

		definitions = append(definitions, definition)
	}

	if len(definitions) == 0 {
		return nil, fmt.Errorf("template %s defines no columns", templatePath)
	}

	return definitions, nil
}

// parseRow extracts a ColumnDefinition from a single template row.
func parseRow(row []string, columns TemplateColumns) (config.ColumnDefinition, error) {
	getCell := func(index int) string {
		if index >= 0 && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	def := config.ColumnDefinition{
		Name:       getCell(columns.NameColumn),
		InputName:  getCell(columns.InputNameColumn),
		DataType:   normalizeDataType(getCell(columns.DataTypeColumn)),
		RequiredIf: getCell(columns.RequiredIfColumn),
		Unique:     isYes(getCell(columns.UniqueColumn)),
		IsArray:    isYes(getCell(columns.ArrayColumn)),
		Pattern:    getCell(columns.PatternColumn),
	}

	if def.Name == "" {
		return def, fmt.Errorf("column name is empty")
	}
	if def.InputName == "" {
		def.InputName = def.Name
	}

	if maxLength := getCell(columns.MaxLengthColumn); maxLength != "" {
		n, err := strconv.Atoi(maxLength)
		if err != nil || n < 0 {
			return def, fmt.Errorf("invalid max length %q", maxLength)
		}
		def.MaxLength = n
	}

	switch normalizeRequiredType(getCell(columns.RequiredColumn)) {
	case "required":
		def.Required = true
	case "conditional":
		if def.RequiredIf == "" {
			return def, fmt.Errorf("conditional column %q has no rule", def.Name)
		}
	default:
		def.Optional = true
	}

	if allowed := getCell(columns.AllowedValuesColumn); allowed != "" {
		for _, v := range strings.Split(allowed, ",") {
			if v = strings.TrimSpace(v); v != "" {
				def.AllowedValues = append(def.AllowedValues, v)
			}
		}
	}

	return def, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func isYes(value string) bool {
	switch strings.ToLower(value) {
	case "yes", "y", "true", "1", "x":
		return true
	}
	return false
}

// normalizeRequiredType normalizes the required type to a standard value.
// Unrecognized values are treated as optional.
func normalizeRequiredType(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))

	switch value {
	case "required", "req", "r", "yes", "y", "true", "1", "mandatory":
		return "required"
	case "conditional", "cond", "c", "if":
		return "conditional"
	default:
		return "optional"
	}
}

// normalizeDataType maps spreadsheet terminology onto data type names.
// Unknown names are returned unchanged so that schema building reports them.
func normalizeDataType(value string) string {
	value = strings.TrimSpace(value)
	lower := strings.ToLower(value)

	// Parameters are kept as written: "decimal(2)", "date(02.01.2006)".
	if strings.Contains(lower, "(") {
		return value
	}

	switch lower {
	case "":
		return ""
	case "string", "str", "text", "varchar":
		return "string"
	case "numeric", "num", "number", "int", "integer":
		return "numeric"
	case "decimal", "dec", "float", "double", "money", "currency":
		return "decimal"
	case "alphanumeric", "alphanum", "an":
		return "alphanumeric"
	case "alpha", "a", "letters":
		return "alpha"
	case "date":
		return "date"
	case "boolean", "bool", "bit":
		return "boolean"
	case "email", "e-mail":
		return "email"
	case "uuid", "guid":
		return "uuid"
	default:
		return value
	}
}
