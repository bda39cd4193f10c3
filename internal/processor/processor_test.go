package processor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/csv-file-validator/internal/config"
	"github.com/ginjaninja78/csv-file-validator/internal/metrics"
	"github.com/ginjaninja78/csv-file-validator/internal/xlsxparser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

type workspace struct {
	main *config.MainConfig
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	main := &config.MainConfig{
		InputDir:         filepath.Join(root, "input"),
		OutputDir:        filepath.Join(root, "output"),
		InputArchiveDir:  filepath.Join(root, "input_archive"),
		OutputArchiveDir: filepath.Join(root, "output_archive"),
		TemplatesDir:     filepath.Join(root, "templates"),
		ReportNameFormat: "{schema}_{original}",
		ReportFormats:    []string{"xml", "json", "log"},
	}
	for _, dir := range []string{main.InputDir, main.OutputDir, main.TemplatesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	return workspace{main: main}
}

func (w workspace) input(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(w.main.InputDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func usersSchema() *config.SchemaConfig {
	return &config.SchemaConfig{
		SchemaName:           "Users",
		SchemaCode:           "users",
		FileMatchingPatterns: []string{"users*.csv"},
		CSVSettings:          config.CSVSettings{Delimiter: ",", Encoding: "utf-8"},
		Columns: []config.ColumnDefinition{
			{Name: "First Name", InputName: "firstName", Required: true},
			{Name: "Last Name", InputName: "lastName", Required: true},
			{Name: "Email", InputName: "email", Unique: true, DataType: "email"},
		},
	}
}

func TestRun_ValidFile(t *testing.T) {
	w := newWorkspace(t)
	path := w.input(t, "users.csv", "First Name,Last Name,Email\nVasyl,Stokolosa,v@example.com\nAnn,Lee,a@example.com\n")

	reg := prometheus.NewRegistry()
	result := New(path, usersSchema(), w.main, Options{Logger: zerolog.Nop(), Metrics: metrics.New(reg)}).Run(context.Background())

	if result.Error != nil {
		t.Fatalf("Run() error = %v", result.Error)
	}
	if !result.Valid || result.Stats.Records != 2 || result.Stats.Findings != 0 {
		t.Errorf("result = %+v", result)
	}

	wantReports := []string{"users_users.xml", "users_users.json", "users_users.errors.log"}
	if len(result.Reports) != len(wantReports) {
		t.Fatalf("reports = %v", result.Reports)
	}
	for i, name := range wantReports {
		if filepath.Base(result.Reports[i]) != name {
			t.Errorf("report %d = %s, want %s", i, result.Reports[i], name)
		}
		if _, err := os.Stat(result.Reports[i]); err != nil {
			t.Errorf("report %s not written: %v", name, err)
		}
	}

	if result.ArchivePath != filepath.Join(w.main.InputArchiveDir, "users.csv") {
		t.Errorf("ArchivePath = %q", result.ArchivePath)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("valid input was not moved to the archive")
	}

	data, err := os.ReadFile(result.Reports[1])
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Schema string `json:"schema"`
		Valid  bool   `json:"valid"`
		Result struct {
			Data []map[string]any `json:"data"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("json report: %v", err)
	}
	if doc.Schema != "users" || !doc.Valid || len(doc.Result.Data) != 2 || doc.Result.Data[0]["firstName"] != "Vasyl" {
		t.Errorf("json report = %+v", doc)
	}
}

func TestRun_InvalidFileKeepsInput(t *testing.T) {
	w := newWorkspace(t)
	w.main.ReportFormats = []string{"log"}
	path := w.input(t, "users_bad.csv", "First Name,Last Name,Email\n,Stokolosa,v@example.com\nAnn,Lee,v@example.com\n")

	result := New(path, usersSchema(), w.main, Options{Logger: zerolog.Nop()}).Run(context.Background())

	if result.Error != nil {
		t.Fatalf("Run() error = %v", result.Error)
	}
	if result.Valid || result.Stats.Findings != 2 {
		t.Errorf("Valid = %v, findings = %d", result.Valid, result.Stats.Findings)
	}
	if result.ArchivePath != "" {
		t.Errorf("invalid input archived to %s", result.ArchivePath)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("invalid input removed")
	}

	log, err := os.ReadFile(result.Reports[0])
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"First Name is required in the 2 row / 1 column",
		"Email is not unique at the 3 row",
	} {
		if !strings.Contains(string(log), want) {
			t.Errorf("error log missing %q:\n%s", want, log)
		}
	}
}

func TestRun_ArchiveInvalidAndReports(t *testing.T) {
	w := newWorkspace(t)
	w.main.ArchiveInvalid = true
	w.main.ArchiveReports = true
	w.main.ReportFormats = []string{"xml"}
	w.input(t, "users.csv", "First Name,Last Name,Email\n,,\n")

	result := New(filepath.Join(w.main.InputDir, "users.csv"), usersSchema(), w.main, Options{Logger: zerolog.Nop()}).Run(context.Background())

	if result.Valid || result.ArchivePath == "" {
		t.Errorf("Valid = %v, ArchivePath = %q", result.Valid, result.ArchivePath)
	}
	if _, err := os.Stat(filepath.Join(w.main.OutputArchiveDir, "users_users.xml")); err != nil {
		t.Errorf("report not archived: %v", err)
	}
}

func TestRun_DryRun(t *testing.T) {
	w := newWorkspace(t)
	path := w.input(t, "users.csv", "First Name,Last Name,Email\nVasyl,Stokolosa,v@example.com\n")

	result := New(path, usersSchema(), w.main, Options{Logger: zerolog.Nop(), DryRun: true}).Run(context.Background())

	if result.Error != nil || !result.Valid {
		t.Fatalf("Run() = %+v", result)
	}
	if len(result.Reports) != 0 || result.ArchivePath != "" {
		t.Errorf("dry run wrote reports %v / archived to %q", result.Reports, result.ArchivePath)
	}
	entries, _ := os.ReadDir(w.main.OutputDir)
	if len(entries) != 0 {
		t.Errorf("output directory has %d entries", len(entries))
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("dry run moved the input")
	}
}

func TestRun_FormatOverride(t *testing.T) {
	w := newWorkspace(t)
	path := w.input(t, "users.csv", "First Name,Last Name,Email\nVasyl,Stokolosa,v@example.com\n")

	result := New(path, usersSchema(), w.main, Options{Logger: zerolog.Nop(), Formats: []string{"json"}}).Run(context.Background())

	if len(result.Reports) != 1 || !strings.HasSuffix(result.Reports[0], ".json") {
		t.Errorf("reports = %v", result.Reports)
	}
}

func TestRun_Failures(t *testing.T) {
	w := newWorkspace(t)

	badDelimiter := usersSchema()
	badDelimiter.CSVSettings.Delimiter = ";;"

	badType := usersSchema()
	badType.Columns[0].DataType = "money"

	missingTemplate := usersSchema()
	missingTemplate.Template = "missing.xlsx"

	tests := []struct {
		name    string
		file    string
		schema  *config.SchemaConfig
		wantErr string
	}{
		{"bad delimiter", "users.csv", badDelimiter, "invalid csv settings"},
		{"unknown data type", "users.csv", badType, "invalid schema users"},
		{"missing template", "users.csv", missingTemplate, "failed to parse template"},
		{"missing input", "gone.csv", usersSchema(), "failed to open input"},
		{"broken workbook", "users.xlsx", usersSchema(), "failed to tokenize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(w.main.InputDir, tt.file)
			if tt.file != "gone.csv" {
				w.input(t, tt.file, "First Name,Last Name,Email\n")
			}

			reg := prometheus.NewRegistry()
			result := New(path, tt.schema, w.main, Options{Logger: zerolog.Nop(), Metrics: metrics.New(reg)}).Run(context.Background())

			if result.Error == nil || !strings.Contains(result.Error.Error(), tt.wantErr) {
				t.Fatalf("Run() error = %v, want %q", result.Error, tt.wantErr)
			}
			if result.Valid || len(result.Reports) != 0 {
				t.Errorf("failed run = %+v", result)
			}
			if s := result.Summary(); s.Error == "" {
				t.Error("Summary() lost the error")
			}
		})
	}
}

func TestRun_CancelledContext(t *testing.T) {
	w := newWorkspace(t)
	path := w.input(t, "users.csv", "First Name,Last Name,Email\nVasyl,Stokolosa,v@example.com\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(path, usersSchema(), w.main, Options{Logger: zerolog.Nop()}).Run(ctx)
	if result.Error == nil {
		t.Error("Run() with cancelled context error = nil")
	}
}

func TestRun_XLSXWithTemplate(t *testing.T) {
	w := newWorkspace(t)

	template := excelize.NewFile()
	rows := [][]any{
		{"Column Name", "Input Name", "Data Type", "Max Length", "Required"},
		{"Code", "code", "alphanumeric", 4, "Y"},
		{"Amount", "amount", "decimal(2)", "", "N"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := template.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := template.SaveAs(filepath.Join(w.main.TemplatesDir, "orders.xlsx")); err != nil {
		t.Fatal(err)
	}

	input := excelize.NewFile()
	data := [][]any{
		{"Code", "Amount"},
		{"AB12", "10.50"},
		{"TOOLONG", "1.234"},
	}
	for i, row := range data {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := input.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(w.main.InputDir, "orders.xlsx")
	if err := input.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	schema := &config.SchemaConfig{
		SchemaCode:           "orders",
		FileMatchingPatterns: []string{"orders*.xlsx"},
		Template:             "orders.xlsx",
		Columns:              []config.ColumnDefinition{{Name: "Amount", InputName: "amount", Required: true, DataType: "decimal(2)"}},
	}

	result := New(path, schema, w.main, Options{Logger: zerolog.Nop(), DryRun: true}).Run(context.Background())
	if result.Error != nil {
		t.Fatalf("Run() error = %v", result.Error)
	}
	if result.Stats.Records != 2 {
		t.Errorf("records = %d", result.Stats.Records)
	}

	var kinds []string
	for _, f := range result.Findings.Errors {
		kinds = append(kinds, string(f.Kind)+"@"+f.ColumnIndex)
	}
	if strings.Join(kinds, ",") != "validate@1,validate@2" {
		t.Errorf("findings = %v", result.Findings.Errors)
	}
}

func TestBuildConfig_TemplateColumnsFirst(t *testing.T) {
	w := newWorkspace(t)
	f := excelize.NewFile()
	rows := [][]any{
		{"Column Name", "Input Name"},
		{"A", "a"},
		{"B", "b"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(filepath.Join(w.main.TemplatesDir, "t.xlsx")); err != nil {
		t.Fatal(err)
	}

	schema := &config.SchemaConfig{SchemaCode: "t", Template: "t.xlsx", Columns: []config.ColumnDefinition{{Name: "C", InputName: "c"}}}
	cfg, err := BuildConfig(schema, w.main.TemplatesDir)
	if err != nil {
		t.Fatalf("BuildConfig() error = %v", err)
	}

	var names []string
	for _, h := range cfg.Headers {
		names = append(names, h.InputName)
	}
	if strings.Join(names, ",") != "a,b,c" {
		t.Errorf("columns = %v", names)
	}
}

func TestTokenizerFor(t *testing.T) {
	schema := usersSchema()
	schema.CSVSettings.Sheet = "Data"

	tok, err := TokenizerFor("in/ORDERS.XLSX", schema)
	if err != nil {
		t.Fatal(err)
	}
	if x, ok := tok.(xlsxparser.Tokenizer); !ok || x.Sheet != "Data" {
		t.Errorf("TokenizerFor(.xlsx) = %#v", tok)
	}

	if _, err := TokenizerFor("in/users.txt", schema); err != nil {
		t.Errorf("TokenizerFor(.txt) error = %v", err)
	}
}
