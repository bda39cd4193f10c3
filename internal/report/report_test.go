package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/csv-file-validator/pkg/validator"
)

func sampleDocument() *Document {
	result := &validator.Result{
		Data: []validator.Record{
			{"firstName": "Vasyl & Co", "roles": []string{"admin", "manager"}, "age": nil, "extra": true},
			{"firstName": "Ann", "roles": []string{}, "age": float64(31)},
		},
		Errors: []validator.Finding{
			{RowIndex: 2, ColumnIndex: "3", Kind: validator.FindingRequired, Message: "Email is required in the 2 row / 3 column"},
			{Kind: validator.FindingHeaderCount, Message: "Header name Age is not correct or missing"},
		},
	}
	doc := NewDocument("users.csv", "users", "Users", []string{"firstName", "roles", "age"}, result)
	doc.RunID = "run-1"
	doc.GeneratedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return doc
}

func TestWriteXML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXML(&buf, sampleDocument()); err != nil {
		t.Fatalf("WriteXML() error = %v", err)
	}

	want := `<?xml version="1.0" encoding="UTF-8"?>
<validationReport runId="run-1" source="users.csv" schema="users" valid="false" generated="2024-05-01T10:00:00Z">
  <summary records="2" findings="2"/>
  <errors>
    <error n="1" kind="required" row="2" column="3">Email is required in the 2 row / 3 column</error>
    <error n="2" kind="header_count">Header name Age is not correct or missing</error>
  </errors>
  <records>
    <record n="1">
      <field name="firstName">Vasyl &amp; Co</field>
      <field name="roles">
        <item>admin</item>
        <item>manager</item>
      </field>
      <field name="age" nil="true"/>
      <field name="extra">true</field>
    </record>
    <record n="2">
      <field name="firstName">Ann</field>
      <field name="roles"/>
      <field name="age">31</field>
    </record>
  </records>
</validationReport>
`
	if got := buf.String(); got != want {
		t.Errorf("WriteXML() =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleDocument()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var decoded struct {
		RunID  string `json:"runId"`
		Valid  bool   `json:"valid"`
		Result struct {
			Data   []map[string]any `json:"data"`
			Errors []struct {
				RowIndex    int    `json:"rowIndex"`
				ColumnIndex string `json:"columnIndex"`
				Kind        string `json:"kind"`
				Message     string `json:"message"`
			} `json:"errors"`
		} `json:"result"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}

	if decoded.RunID != "run-1" || decoded.Valid {
		t.Errorf("metadata = %q valid=%v", decoded.RunID, decoded.Valid)
	}
	if len(decoded.Result.Data) != 2 || decoded.Result.Data[0]["age"] != nil {
		t.Errorf("data = %v", decoded.Result.Data)
	}
	if e := decoded.Result.Errors[1]; e.RowIndex != 0 || e.ColumnIndex != "" || e.Kind != "header_count" {
		t.Errorf("absent indices were not omitted: %+v", e)
	}
	if !strings.Contains(buf.String(), `"errors": [`) {
		t.Error("findings are not under the errors key")
	}
}

func TestWriteErrorLog(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteErrorLog(&buf, sampleDocument()); err != nil {
		t.Fatal(err)
	}
	got := buf.String()

	for _, want := range []string{
		"Validation report for users.csv",
		"Schema:    Users (users)",
		"Validation completed with 2 error(s) in 2 record(s):",
		"1. [required] Email is required in the 2 row / 3 column",
		"2. [header_count] Header name Age is not correct or missing",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("error log misses %q:\n%s", want, got)
		}
	}

	clean := NewDocument("ok.csv", "users", "", nil, &validator.Result{Data: []validator.Record{{}}})
	buf.Reset()
	if err := WriteErrorLog(&buf, clean); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No validation errors. 1 record(s) validated.") {
		t.Errorf("clean log = %s", buf.String())
	}
	if !clean.Valid || clean.RunID == "" {
		t.Errorf("NewDocument() = %+v", clean)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDocument()

	for _, format := range []string{FormatXML, FormatJSON, FormatLog} {
		path := filepath.Join(dir, "report"+Extension(format))
		if err := WriteFile(path, format, doc); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", format, err)
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%s report is missing or empty", format)
		}
	}

	if err := WriteFile(filepath.Join(dir, "x.pdf"), "pdf", doc); err == nil {
		t.Error("WriteFile() with unknown format error = nil")
	}
}

func TestEscapeXML(t *testing.T) {
	got := escapeXML("a<b>&\"c'\x01\td")
	if got != "a&lt;b&gt;&amp;&quot;c&apos;\td" {
		t.Errorf("escapeXML() = %q", got)
	}
}
