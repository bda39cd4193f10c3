// =============================================================================
// CSV File Validator - CSV Tokenizer
// =============================================================================
//
// This module splits CSV input into rows of cells for the validator. It
// handles:
//   - Different delimiters (comma, semicolon, pipe, tab, etc.)
//   - Non UTF-8 encodings (Windows-1252, ISO-8859-1, UTF-16, ...)
//   - Quoted fields, optionally with lazy quote handling
//   - Dynamic typing of cells (booleans, numbers, nil for empty fields)
//
// Empty lines are always skipped. A leading byte-order mark is removed
// before tokenizing and, for UTF-8 and UTF-16, selects the decoder.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/csv-file-validator/pkg/validator"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls how input is tokenized.
type Settings struct {
	// Delimiter separates fields. Accepts a single character or one of the
	// names "tab", "pipe", "semicolon", "comma".
	// Default: ","
	Delimiter string

	// Comment marks lines to ignore when it is the first character.
	// Default: none
	Comment string

	// Encoding is the character encoding of the input, by its WHATWG name
	// (e.g. "windows-1252", "iso-8859-1", "utf-16le").
	// Default: "utf-8"
	Encoding string

	// DynamicTyping converts "true"/"false" to booleans, numeric fields to
	// numbers and empty fields to nil.
	DynamicTyping bool

	// LazyQuotes allows quotes in unquoted fields and unescaped quotes in
	// quoted fields.
	LazyQuotes bool

	// TrimLeadingSpace ignores leading white space in a field.
	TrimLeadingSpace bool
}

// ErrInvalidDelimiter is returned for a delimiter longer than one character.
var ErrInvalidDelimiter = errors.New("delimiter must be a single character")

// =============================================================================
// PARSER
// =============================================================================

// Parser tokenizes CSV input. It implements validator.Tokenizer and is safe
// for concurrent use.
type Parser struct {
	comma    rune
	comment  rune
	encoding encoding.Encoding
	settings Settings
}

// New validates the settings and returns a Parser.
func New(settings Settings) (*Parser, error) {
	comma, err := resolveDelimiter(settings.Delimiter)
	if err != nil {
		return nil, err
	}

	p := &Parser{comma: comma, settings: settings}

	if settings.Comment != "" {
		runes := []rune(settings.Comment)
		if len(runes) != 1 {
			return nil, fmt.Errorf("comment must be a single character, got %q", settings.Comment)
		}
		p.comment = runes[0]
	}

	p.encoding = unicode.UTF8
	if !isUTF8(settings.Encoding) {
		enc, err := htmlindex.Get(settings.Encoding)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", settings.Encoding, err)
		}
		p.encoding = enc
	}

	return p, nil
}

// Tokenize reads all records from r. The context is checked between records.
func (p *Parser) Tokenize(ctx context.Context, r io.Reader) ([]validator.Row, error) {
	// A BOM in front of a quoted first field would otherwise make
	// encoding/csv reject it as a bare quote.
	r = transform.NewReader(r, unicode.BOMOverride(p.encoding.NewDecoder()))

	reader := csv.NewReader(bufio.NewReader(r))
	p.configureReader(reader)

	var rows []validator.Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		if isEmptyLine(record) {
			continue
		}

		rows = append(rows, p.toRow(record))
	}

	return rows, nil
}

// configureReader applies the settings to an encoding/csv reader.
func (p *Parser) configureReader(reader *csv.Reader) {
	reader.Comma = p.comma
	reader.Comment = p.comment

	// Field count is checked by the validator, not the tokenizer.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = p.settings.LazyQuotes
	reader.TrimLeadingSpace = p.settings.TrimLeadingSpace
}

func (p *Parser) toRow(record []string) validator.Row {
	row := make(validator.Row, len(record))
	for i, field := range record {
		if p.settings.DynamicTyping {
			row[i] = TypedCell(field)
		} else {
			row[i] = validator.Text(field)
		}
	}
	return row
}

// =============================================================================
// DYNAMIC TYPING
// =============================================================================

var floatPattern = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// maxSafeInteger bounds numbers that survive a float64 round trip.
const maxSafeInteger = 1<<53 - 1

// TypedCell converts a raw field the way DynamicTyping does: "true"/"TRUE"
// and "false"/"FALSE" become booleans, numbers within the exactly
// representable range become numbers, the empty string becomes nil and
// everything else stays text.
func TypedCell(field string) validator.Cell {
	switch field {
	case "":
		return validator.Nil()
	case "true", "TRUE":
		return validator.Bool(true)
	case "false", "FALSE":
		return validator.Bool(false)
	}

	if floatPattern.MatchString(field) {
		f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err == nil && math.Abs(f) <= maxSafeInteger {
			return validator.Number(f)
		}
	}

	return validator.Text(field)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// resolveDelimiter maps the configured delimiter to a rune.
func resolveDelimiter(delimiter string) (rune, error) {
	switch strings.ToLower(delimiter) {
	case "":
		return ',', nil
	case "\\t", "tab":
		return '\t', nil
	case "pipe":
		return '|', nil
	case "semicolon":
		return ';', nil
	case "comma":
		return ',', nil
	}

	runes := []rune(delimiter)
	if len(runes) != 1 {
		return 0, fmt.Errorf("%w, got %q", ErrInvalidDelimiter, delimiter)
	}
	return runes[0], nil
}

func isUTF8(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// isEmptyLine reports whether a record came from a line with no content.
// encoding/csv already drops blank lines; a lone quoted empty field is the
// remaining case.
func isEmptyLine(record []string) bool {
	return len(record) == 1 && record[0] == ""
}
