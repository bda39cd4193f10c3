// =============================================================================
// CSV File Validator - Report Module
// =============================================================================
//
// This module renders the outcome of a validation pass for people and for
// downstream systems. Every report is built from a Document, which wraps the
// validator.Result with the run metadata:
//   - A run id (UUID) shared by all reports of one file
//   - The source file and the schema it was validated against
//   - The generation time
//
// FORMATS:
//   - xml:  Findings and projected records as an XML document
//   - json: The same content as JSON
//   - log:  A plain text error log for troubleshooting
//
// =============================================================================

package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/ginjaninja78/csv-file-validator/pkg/validator"
	"github.com/google/uuid"
)

// Report formats.
const (
	FormatXML  = "xml"
	FormatJSON = "json"
	FormatLog  = "log"
)

// Extension returns the file extension, with dot, for a report format.
func Extension(format string) string {
	if format == FormatLog {
		return ".errors.log"
	}
	return "." + format
}

// Document is the content shared by all report formats.
type Document struct {
	RunID       string            `json:"runId"`
	Source      string            `json:"source"`
	Schema      string            `json:"schema"`
	SchemaName  string            `json:"schemaName,omitempty"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Valid       bool              `json:"valid"`
	Columns     []string          `json:"columns"`
	Result      *validator.Result `json:"result"`
}

// NewDocument wraps a result with a fresh run id. columns fixes the order
// of fields in each record; keys not listed are written after them in
// sorted order.
func NewDocument(source, schema, schemaName string, columns []string, result *validator.Result) *Document {
	return &Document{
		RunID:       uuid.NewString(),
		Source:      source,
		Schema:      schema,
		SchemaName:  schemaName,
		GeneratedAt: time.Now().UTC(),
		Valid:       result.IsValid(),
		Columns:     columns,
		Result:      result,
	}
}

// Write renders doc in the given format.
func Write(w io.Writer, format string, doc *Document) error {
	switch format {
	case FormatXML:
		return WriteXML(w, doc)
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatLog:
		return WriteErrorLog(w, doc)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// WriteFile renders doc into a new file at path.
func WriteFile(path, format string, doc *Document) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if err := Write(file, format, doc); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s report: %w", format, err)
	}

	return file.Close()
}

// fieldOrder returns the keys of record in column order.
func (d *Document) fieldOrder(record validator.Record) []string {
	keys := make([]string, 0, len(record))
	listed := make(map[string]bool, len(d.Columns))

	for _, name := range d.Columns {
		if listed[name] {
			continue
		}
		listed[name] = true
		if _, ok := record[name]; ok {
			keys = append(keys, name)
		}
	}

	var rest []string
	for name := range record {
		if !listed[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	return append(keys, rest...)
}
