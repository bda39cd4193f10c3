package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "input_archive"),
		filepath.Join(root, "output_archive"),
	)
	fm.now = func() time.Time { return time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC) }
	if err := fm.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}
	return fm
}

func TestDiscoverInputFiles(t *testing.T) {
	fm := newTestManager(t)
	for _, name := range []string{"b_users.csv", "a_orders.XLSX", "notes.txt", ".hidden.csv", "~$a_orders.xlsx"} {
		writeFile(t, filepath.Join(fm.InputDir, name), "x")
	}
	if err := os.Mkdir(filepath.Join(fm.InputDir, "sub.csv"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := fm.DiscoverInputFiles()
	if err != nil {
		t.Fatalf("DiscoverInputFiles() error = %v", err)
	}
	want := []string{
		filepath.Join(fm.InputDir, "a_orders.XLSX"),
		filepath.Join(fm.InputDir, "b_users.csv"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DiscoverInputFiles() = %v, want %v", got, want)
	}

	got, err = fm.DiscoverInputFiles(".txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "notes.txt" {
		t.Errorf("DiscoverInputFiles(.txt) = %v", got)
	}
}

func TestDiscoverInputFiles_MissingDir(t *testing.T) {
	fm := NewFileManager(filepath.Join(t.TempDir(), "nope"), "", "", "")
	if _, err := fm.DiscoverInputFiles(); err == nil {
		t.Error("DiscoverInputFiles() error = nil")
	}
}

func TestArchiveInputFile(t *testing.T) {
	fm := newTestManager(t)
	src := filepath.Join(fm.InputDir, "users.csv")
	writeFile(t, src, "first")

	archived, err := fm.ArchiveInputFile(src)
	if err != nil {
		t.Fatalf("ArchiveInputFile() error = %v", err)
	}
	if archived != filepath.Join(fm.InputArchiveDir, "users.csv") {
		t.Errorf("archived to %s", archived)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("input file still present after archiving")
	}

	// A second file with the same name must not overwrite the first.
	writeFile(t, src, "second")
	again, err := fm.ArchiveInputFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if again == archived || !strings.HasPrefix(filepath.Base(again), "users_20240115_143022") {
		t.Errorf("second archive path = %s", again)
	}
	data, _ := os.ReadFile(archived)
	if string(data) != "first" {
		t.Errorf("first archive overwritten: %q", data)
	}
}

func TestArchiveOutputFile_TimestampSubdirs(t *testing.T) {
	fm := newTestManager(t)
	fm.UseTimestampSubdirs = true
	report := filepath.Join(fm.OutputDir, "users.xml")
	writeFile(t, report, "<validationReport/>")

	archived, err := fm.ArchiveOutputFile(report)
	if err != nil {
		t.Fatalf("ArchiveOutputFile() error = %v", err)
	}
	if want := filepath.Join(fm.OutputArchiveDir, "2024", "01", "15", "users.xml"); archived != want {
		t.Errorf("archived to %s, want %s", archived, want)
	}
	if _, err := os.Stat(report); err != nil {
		t.Error("report removed from output directory")
	}
}

func TestArchive_NoDirectory(t *testing.T) {
	fm := NewFileManager(t.TempDir(), "", "", "")
	if _, err := fm.ArchiveInputFile(filepath.Join(fm.InputDir, "x.csv")); err == nil {
		t.Error("ArchiveInputFile() without archive dir error = nil")
	}
}

func TestCleanOldArchives(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "2023", "old.csv")
	fresh := filepath.Join(dir, "fresh.csv")
	writeFile(t, old, "x")
	writeFile(t, fresh, "x")

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	removed, err := CleanOldArchives(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanOldArchives() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh archive removed")
	}

	if n, err := CleanOldArchives(filepath.Join(dir, "missing"), time.Hour); err != nil || n != 0 {
		t.Errorf("CleanOldArchives(missing) = %d, %v", n, err)
	}
}

func TestGenerateOutputFileName(t *testing.T) {
	tests := []struct {
		format string
		params map[string]string
		ext    string
		check  func(string) bool
	}{
		{
			format: "{schema}_{original}",
			params: map[string]string{"schema": "users", "original": "users_jan"},
			ext:    ".xml",
			check:  func(s string) bool { return s == "users_users_jan.xml" },
		},
		{
			format: "{original}.errors.log",
			params: map[string]string{"original": "users"},
			ext:    ".errors.log",
			check:  func(s string) bool { return s == "users.errors.log" },
		},
		{
			format: "{original}",
			params: map[string]string{"original": "../etc/passwd"},
			ext:    ".json",
			check:  func(s string) bool { return s == ".._etc_passwd.json" },
		},
		{
			format: "{uuid}",
			ext:    ".xml",
			check:  func(s string) bool { return len(s) == 36+len(".xml") },
		},
		{
			format: "{date}_{time}",
			check:  func(s string) bool { return len(s) == len("20240115_143022") },
		},
	}

	for _, tt := range tests {
		if got := GenerateOutputFileName(tt.format, tt.params, tt.ext); !tt.check(got) {
			t.Errorf("GenerateOutputFileName(%q) = %q", tt.format, got)
		}
	}
}

func TestProcessingSummary(t *testing.T) {
	start := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	summary := ProcessingSummary{StartTime: start, EndTime: start.Add(3 * time.Second)}
	summary.Add(FileSummary{InputFile: "users.csv", Schema: "users", Valid: true, Records: 10, Reports: []string{"out/users.xml"}})
	summary.Add(FileSummary{InputFile: "orders.csv", Schema: "orders", Records: 4, Findings: 2})
	summary.Add(FileSummary{InputFile: "broken.csv", Error: "no schema matches file: broken.csv"})

	if summary.TotalFiles != 3 || summary.ValidFiles != 1 || summary.InvalidFiles != 1 || summary.FailedFiles != 1 {
		t.Errorf("counts = %+v", summary)
	}
	if summary.TotalRecords != 14 || summary.TotalFindings != 2 {
		t.Errorf("totals records=%d findings=%d", summary.TotalRecords, summary.TotalFindings)
	}

	dir := t.TempDir()
	path, err := WriteSummaryLog(summary, dir)
	if err != nil {
		t.Fatalf("WriteSummaryLog() error = %v", err)
	}
	if filepath.Base(path) != "validation_summary_20240115_143003.txt" {
		t.Errorf("summary path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		"Total Files:    3",
		"Invalid:        1",
		"Duration:       3s",
		"Report:       out/users.xml",
		"Status:       invalid",
		"Error: no schema matches file: broken.csv",
		"End of Summary",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}
