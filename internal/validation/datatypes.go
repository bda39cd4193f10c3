package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ginjaninja78/csv-file-validator/pkg/validator"
	"github.com/google/uuid"
)

// valueCheck reports whether a non-empty cell value is acceptable.
type valueCheck func(value string) bool

// combine joins checks with AND. Empty cells pass.
func combine(checks []valueCheck) validator.ValidateFunc {
	return func(cell validator.Cell) bool {
		if cell.IsEmpty() {
			return true
		}
		value := cell.String()
		for _, check := range checks {
			if !check(value) {
				return false
			}
		}
		return true
	}
}

// =============================================================================
// DATA TYPE VALIDATORS
// =============================================================================

// dataTypeCheck returns the check for a data type name.
//
// SUPPORTED DATA TYPES:
//   - string: Any text value (no check)
//   - numeric: Integer numbers only
//   - decimal, decimal(p): Decimal numbers, at most p decimal places
//   - alphanumeric: Letters, digits and spaces
//   - alpha: Letters and spaces
//   - date, date(layout): A date in a common format or the Go layout given
//   - boolean: true/false, yes/no, 1/0, y/n, t/f
//   - email: Something that looks like an email address
//   - uuid: A UUID in any of the usual textual forms
func dataTypeCheck(dataType string) (valueCheck, error) {
	name, arg := splitDataType(dataType)

	switch name {
	case "string":
		return nil, nil

	case "numeric":
		return validateNumeric, nil

	case "decimal":
		precision := -1
		if arg != "" {
			p, err := strconv.Atoi(arg)
			if err != nil || p < 0 {
				return nil, fmt.Errorf("invalid decimal precision %q", arg)
			}
			precision = p
		}
		return func(value string) bool { return validateDecimal(value, precision) }, nil

	case "alphanumeric":
		return validateAlphanumeric, nil

	case "alpha":
		return validateAlpha, nil

	case "date":
		return func(value string) bool { return validateDate(value, arg) }, nil

	case "boolean":
		return validateBoolean, nil

	case "email":
		return emailPattern.MatchString, nil

	case "uuid":
		return validateUUID, nil
	}

	return nil, fmt.Errorf("unknown data type %q", dataType)
}

// validateNumeric validates that a value is a valid integer.
func validateNumeric(value string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	return err == nil
}

// validateDecimal validates that a value is a decimal number. A negative
// precision accepts any number of decimal places.
func validateDecimal(value string, precision int) bool {
	value = strings.TrimSpace(value)

	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return false
	}

	if precision >= 0 {
		if _, fraction, found := strings.Cut(value, "."); found && len(fraction) > precision {
			return false
		}
	}

	return true
}

// validateAlphanumeric validates that a value contains only letters and numbers.
func validateAlphanumeric(value string) bool {
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// validateAlpha validates that a value contains only letters.
func validateAlpha(value string) bool {
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// commonDateLayouts are tried when a date column has no explicit layout.
var commonDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
	time.RFC3339,
}

// validateDate validates that a value is a date in layout, or in one of the
// common layouts when layout is empty.
func validateDate(value, layout string) bool {
	value = strings.TrimSpace(value)

	if layout != "" {
		_, err := time.Parse(layout, value)
		return err == nil
	}

	for _, l := range commonDateLayouts {
		if _, err := time.Parse(l, value); err == nil {
			return true
		}
	}
	return false
}

// validateBoolean validates that a value is a valid boolean.
func validateBoolean(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "false", "yes", "no", "1", "0", "y", "n", "t", "f":
		return true
	}
	return false
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateUUID(value string) bool {
	return uuid.Validate(strings.TrimSpace(value)) == nil
}

// =============================================================================
// CONSTRAINT VALIDATORS
// =============================================================================

// maxLengthCheck limits the number of characters, not bytes.
func maxLengthCheck(max int) valueCheck {
	return func(value string) bool {
		return utf8.RuneCountInString(value) <= max
	}
}

// patternCheck requires the whole value to match pattern.
func patternCheck(pattern string) (valueCheck, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return re.MatchString, nil
}

func allowedValuesCheck(allowed []string) valueCheck {
	set := make(map[string]bool, len(allowed))
	for _, v := range allowed {
		set[v] = true
	}
	return func(value string) bool {
		return set[value]
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// splitDataType separates a data type from its argument.
// Example: "decimal(2)" -> "decimal", "2"
func splitDataType(dataType string) (name, arg string) {
	dataType = strings.TrimSpace(dataType)

	start := strings.Index(dataType, "(")
	end := strings.LastIndex(dataType, ")")
	if start == -1 || end < start {
		return strings.ToLower(dataType), ""
	}

	return strings.ToLower(strings.TrimSpace(dataType[:start])), strings.TrimSpace(dataType[start+1 : end])
}
