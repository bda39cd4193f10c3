// =============================================================================
// CSV File Validator - Cell Values
// =============================================================================
//
// Tokenizers hand the validator rows of cells. A cell is either text, a
// number, a boolean or nil; the last three only appear when the tokenizer
// runs with dynamic typing enabled.
//
// =============================================================================

package validator

import (
	"strconv"
	"strings"
)

// byteOrderMark is stripped from the start of text cells.
const byteOrderMark = "\ufeff"

// CellKind identifies the variant held by a Cell.
type CellKind int

const (
	// KindNil is an absent value (e.g. an empty field under dynamic typing).
	KindNil CellKind = iota
	// KindText is a raw string value.
	KindText
	// KindNumber is a numeric value produced by dynamic typing.
	KindNumber
	// KindBoolean is a boolean value produced by dynamic typing.
	KindBoolean
)

// String returns the name of the kind.
func (k CellKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	default:
		return "nil"
	}
}

// Cell is a single tokenized value.
// The zero value is a nil cell.
type Cell struct {
	kind CellKind
	text string
	num  float64
	b    bool
}

// Row is one tokenized record.
type Row []Cell

// Text returns a text cell.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{kind: KindNumber, num: f} }

// Bool returns a boolean cell.
func Bool(b bool) Cell { return Cell{kind: KindBoolean, b: b} }

// Nil returns a nil cell.
func Nil() Cell { return Cell{} }

// TextRow builds a row of text cells. Handy for callers that tokenize
// without dynamic typing.
func TextRow(values ...string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Text(v)
	}
	return row
}

// Kind reports the variant held by the cell.
func (c Cell) Kind() CellKind { return c.kind }

// IsText reports whether the cell holds a string.
func (c Cell) IsText() bool { return c.kind == KindText }

// String renders the cell as text. Nil renders as the empty string.
func (c Cell) String() string {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(c.b)
	default:
		return ""
	}
}

// Value returns the native Go value: string, float64, bool or nil.
func (c Cell) Value() any {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return c.num
	case KindBoolean:
		return c.b
	default:
		return nil
	}
}

// IsEmpty reports whether the cell counts as missing for required checks.
// Text is empty when it is blank after trimming, nil is always empty and
// numbers and booleans never are.
func (c Cell) IsEmpty() bool {
	switch c.kind {
	case KindText:
		return len(strings.TrimSpace(c.text)) == 0
	case KindNil:
		return true
	default:
		return false
	}
}

// Normalize removes a single leading byte-order mark from text cells.
// Other kinds are returned unchanged.
func Normalize(c Cell) Cell {
	if c.kind != KindText {
		return c
	}
	c.text = strings.TrimPrefix(c.text, byteOrderMark)
	return c
}

// normalizeRow returns a normalized copy of the row. The caller's row is
// left untouched.
func normalizeRow(row Row) Row {
	clean := make(Row, len(row))
	for i, c := range row {
		clean[i] = Normalize(c)
	}
	return clean
}
