package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/csv-file-validator/pkg/validator"
)

// =============================================================================
// CONDITIONAL RULE EVALUATION
// =============================================================================

// SUPPORTED RULE SYNTAX (the "if " prefix is optional):
//   - "if Field == 'value'"
//   - "if Field != 'value'"
//   - "if Field > 100"  (also <, >=, <=)
//   - "if Field starts_with 'prefix'"
//   - "if Field ends_with 'suffix'"
//   - "if Field contains 'substring'"
//   - "if Field is_empty"
//   - "if Field is_not_empty"
//
// Field is a column input name or header name. Header names containing
// spaces are written in double quotes: "if \"Zip Code\" is_empty".
var conditionPattern = regexp.MustCompile(
	`^\s*(?:if\s+)?(?:"([^"]+)"|([\w.]+))\s*(==|!=|>=|<=|>|<|starts_with|ends_with|contains|is_not_empty|is_empty)\s*(.*?)\s*$`,
)

// condition is a parsed rule bound to a column position.
type condition struct {
	rule    string
	column  int
	op      string
	operand string
	number  float64
}

// parseCondition parses a rule and resolves its column.
func parseCondition(rule string, index columnIndex) (*condition, error) {
	m := conditionPattern.FindStringSubmatch(rule)
	if m == nil {
		return nil, fmt.Errorf("invalid required_if rule %q", rule)
	}

	field := m[1]
	if field == "" {
		field = m[2]
	}
	column, ok := index[field]
	if !ok {
		return nil, fmt.Errorf("required_if rule %q references unknown column %q", rule, field)
	}

	c := &condition{rule: rule, column: column, op: m[3]}
	operand := m[4]

	switch c.op {
	case "is_empty", "is_not_empty":
		if operand != "" {
			return nil, fmt.Errorf("required_if rule %q: %s takes no operand", rule, c.op)
		}

	case ">", "<", ">=", "<=":
		n, err := strconv.ParseFloat(unquote(operand), 64)
		if err != nil {
			return nil, fmt.Errorf("required_if rule %q: %s needs a number", rule, c.op)
		}
		c.number = n

	default:
		if operand == "" {
			return nil, fmt.Errorf("required_if rule %q: %s needs an operand", rule, c.op)
		}
		c.operand = unquote(operand)
	}

	return c, nil
}

// holds evaluates the condition against a row. A missing cell reads as "".
func (c *condition) holds(row validator.Row) bool {
	var actual string
	if c.column < len(row) {
		actual = row[c.column].String()
	}

	switch c.op {
	case "==":
		return actual == c.operand
	case "!=":
		return actual != c.operand
	case "starts_with":
		return strings.HasPrefix(actual, c.operand)
	case "ends_with":
		return strings.HasSuffix(actual, c.operand)
	case "contains":
		return strings.Contains(actual, c.operand)
	case "is_empty":
		return strings.TrimSpace(actual) == ""
	case "is_not_empty":
		return strings.TrimSpace(actual) != ""
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(actual), 64)
	if err != nil {
		return false
	}
	switch c.op {
	case ">":
		return n > c.number
	case "<":
		return n < c.number
	case ">=":
		return n >= c.number
	case "<=":
		return n <= c.number
	}
	return false
}

// requiredIf fails an empty cell when the condition holds.
func requiredIf(c *condition) validator.DependentValidateFunc {
	return func(cell validator.Cell, row validator.Row) bool {
		return !cell.IsEmpty() || !c.holds(row)
	}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

// =============================================================================
// MESSAGE TEMPLATES
// =============================================================================

// render fills the {name}, {row}, {col} and {value} placeholders.
func render(tpl, name string, row int, col, value string) string {
	return strings.NewReplacer(
		"{name}", name,
		"{row}", strconv.Itoa(row),
		"{col}", col,
		"{value}", value,
	).Replace(tpl)
}
