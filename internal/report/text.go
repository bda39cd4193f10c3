package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// FormatFinding renders a finding on one line for logs.
func FormatFinding(n int, kind, message string) string {
	return fmt.Sprintf("%d. [%s] %s", n, kind, message)
}

// WriteErrorLog writes a plain text log of the findings: a header with the
// run metadata and a summary, followed by one numbered line per finding.
func WriteErrorLog(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Validation report for %s\n", doc.Source)
	fmt.Fprintf(bw, "Schema:    %s\n", schemaLabel(doc))
	fmt.Fprintf(bw, "Run:       %s\n", doc.RunID)
	fmt.Fprintf(bw, "Generated: %s\n", doc.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintln(bw)

	if doc.Result == nil || len(doc.Result.Errors) == 0 {
		records := 0
		if doc.Result != nil {
			records = len(doc.Result.Data)
		}
		fmt.Fprintf(bw, "No validation errors. %d record(s) validated.\n", records)
		return bw.Flush()
	}

	fmt.Fprintf(bw, "Validation completed with %d error(s) in %d record(s):\n\n",
		len(doc.Result.Errors), len(doc.Result.Data))

	for i, finding := range doc.Result.Errors {
		fmt.Fprintln(bw, FormatFinding(i+1, string(finding.Kind), finding.Message))
	}

	return bw.Flush()
}

func schemaLabel(doc *Document) string {
	if doc.SchemaName != "" && doc.SchemaName != doc.Schema {
		return fmt.Sprintf("%s (%s)", doc.SchemaName, doc.Schema)
	}
	return doc.Schema
}
