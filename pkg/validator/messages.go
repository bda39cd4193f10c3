// =============================================================================
// CSV File Validator - Default Messages
// =============================================================================
//
// Default messages used when a column does not supply its own hook. The
// wording is part of the public contract; callers match on it.
//
// =============================================================================

package validator

import (
	"fmt"
	"strconv"
)

// MissingConfigMessage is the only finding returned when a Config has no headers.
const MissingConfigMessage = "config headers are required"

func defaultHeaderError(value, name string, row int, col string) string {
	return fmt.Sprintf("Header name %s is not correct or missing in the %d row / %s column. The Header name should be %s",
		value, row, col, name)
}

func defaultHeaderCountError(name string) string {
	return fmt.Sprintf("Header name %s is not correct or missing", name)
}

func defaultRequiredError(name string, row int, col string) string {
	return fmt.Sprintf("%s is required in the %d row / %s column", name, row, col)
}

func defaultValidateError(name string, row int, col string) string {
	return fmt.Sprintf("%s is not valid in the %d row / %s column", name, row, col)
}

func defaultDependentError(name string, row int, col string) string {
	return fmt.Sprintf("%s not passed dependent validation in the %d row / %s column", name, row, col)
}

func defaultUniqueError(name string, row int) string {
	return fmt.Sprintf("%s is not unique at the %d row", name, row)
}

func fieldCountError(expected, parsed, rowIndex int) string {
	return fmt.Sprintf("Number of fields mismatch: expected %d fields but parsed %d. In the row %d",
		expected, parsed, rowIndex)
}

// ColumnLetter converts a 1-based column number to spreadsheet letters:
// 1 -> A, 26 -> Z, 27 -> AA. Non-positive numbers yield "".
func ColumnLetter(n int) string {
	var letters []byte
	for n > 0 {
		digit := (n - 1) % 26
		letters = append([]byte{byte('A' + digit)}, letters...)
		n = (n - 1) / 26
	}
	return string(letters)
}

// columnLabel renders a 0-based column index for messages and findings.
func (c *Config) columnLabel(index int) string {
	if c.IsColumnIndexAlphabetic {
		return ColumnLetter(index + 1)
	}
	return strconv.Itoa(index + 1)
}
