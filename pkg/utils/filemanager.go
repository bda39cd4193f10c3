// =============================================================================
// CSV File Validator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the validator:
//   - Input discovery (CSV and XLSX files waiting in the input directory)
//   - Archival of validated inputs and written reports
//   - Report file naming
//   - The processing summary written after a batch run
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive once validated
//   - Reports are copied to output_archive when requested
//   - Files that could not be read stay in the input directory
//   - Name clashes in an archive get a timestamp suffix instead of
//     overwriting the earlier file
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultExtensions are the input file types picked up by discovery.
var DefaultExtensions = []string{".csv", ".xlsx"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the validator.
type FileManager struct {
	// InputDir is the directory where input files are placed.
	InputDir string

	// OutputDir is the directory where reports are written.
	OutputDir string

	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// OutputArchiveDir is the directory for archived reports.
	OutputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: input_archive/2024/01/15/users.csv
	UseTimestampSubdirs bool

	// now is replaced in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:         inputDir,
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		OutputArchiveDir: outputArchiveDir,
		now:              time.Now,
	}
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{
		fm.InputDir,
		fm.OutputDir,
		fm.InputArchiveDir,
		fm.OutputArchiveDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the files in the input directory whose extension
// is one of extensions (DefaultExtensions when none are given). Hidden files
// and Office lock files ("~$...") are skipped. The result is sorted.
func (fm *FileManager) DiscoverInputFiles(extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if HasExtension(name, extensions) {
			result = append(result, filepath.Join(fm.InputDir, name))
		}
	}

	sort.Strings(result)
	return result, nil
}

// HasExtension reports whether name ends in one of extensions, ignoring case.
func HasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the input archive and returns the
// new path.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath, err := fm.prepareArchivePath(fm.InputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	// Move the file.
	if err := os.Rename(filePath, archivePath); err != nil {
		// If rename fails (e.g., cross-device), try copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// ArchiveOutputFile copies a report to the output archive and returns the
// path of the copy. The report stays in the output directory.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	archivePath, err := fm.prepareArchivePath(fm.OutputArchiveDir, filePath)
	if err != nil {
		return "", err
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// prepareArchivePath creates the target directory and picks a free name.
func (fm *FileManager) prepareArchivePath(archiveDir, filePath string) (string, error) {
	if archiveDir == "" {
		return "", fmt.Errorf("no archive directory configured for %s", filePath)
	}

	archivePath := fm.getArchivePath(archiveDir, filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if _, err := os.Stat(archivePath); err == nil {
		ext := filepath.Ext(archivePath)
		stem := strings.TrimSuffix(archivePath, ext)
		archivePath = fmt.Sprintf("%s_%s%s", stem, fm.clock().Format("20060102_150405.000000000"), ext)
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := fm.clock()
		return filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(archiveDir, fileName)
}

// CleanOldArchives removes archived files last modified before maxAge ago
// and returns how many were removed.
func CleanOldArchives(archiveDir string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if info.IsDir() {
			return nil
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}

		return nil
	})

	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName builds a report file name from a format string.
//
// Placeholders:
//
//	{uuid}      - A random UUID
//	{timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//	{date}      - Current date (YYYYMMDD)
//	{time}      - Current time (HHMMSS)
//	{key}       - Any key of params, e.g. {schema} or {original}
//
// ext is appended unless the name already ends with it.
//
// Example:
//
//	GenerateOutputFileName("{schema}_{timestamp}", map[string]string{"schema": "users"}, ".xml")
//	// users_20240115_143022.xml
func GenerateOutputFileName(format string, params map[string]string, ext string) string {
	now := time.Now()

	pairs := []string{
		"{uuid}", uuid.NewString(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", sanitizeFileName(value))
	}

	result := strings.NewReplacer(pairs...).Replace(format)

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// sanitizeFileName replaces path separators so a placeholder value cannot
// escape the output directory.
func sanitizeFileName(value string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(value)
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a batch run.
type ProcessingSummary struct {
	StartTime     time.Time
	EndTime       time.Time
	TotalFiles    int
	ValidFiles    int
	InvalidFiles  int
	FailedFiles   int
	TotalRecords  int
	TotalFindings int
	Files         []FileSummary
}

// FileSummary describes the outcome for one input file.
type FileSummary struct {
	InputFile   string
	Schema      string
	Reports     []string
	ArchivePath string
	Records     int
	Findings    int
	Valid       bool
	ProcessTime time.Duration

	// Error is set when the file could not be validated at all.
	Error string
}

// Add records one file outcome and updates the totals.
func (s *ProcessingSummary) Add(file FileSummary) {
	s.TotalFiles++
	switch {
	case file.Error != "":
		s.FailedFiles++
	case file.Valid:
		s.ValidFiles++
	default:
		s.InvalidFiles++
	}
	s.TotalRecords += file.Records
	s.TotalFindings += file.Findings
	s.Files = append(s.Files, file)
}

// WriteSummaryLog writes a processing summary to a file in outputDir and
// returns its path.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	timestamp := summary.EndTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("validation_summary_%s.txt", timestamp))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	if err := writeSummary(file, summary); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}

	return summaryPath, nil
}

const rule = "================================================================================\n"
const thinRule = "--------------------------------------------------------------------------------\n"

func writeSummary(w io.Writer, summary ProcessingSummary) error {
	writer := bufio.NewWriter(w)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "CSV File Validator - Validation Summary\n"+
		rule+"\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Files:    %d\n"+
		"  Valid:          %d\n"+
		"  Invalid:        %d\n"+
		"  Failed:         %d\n"+
		"  Total Records:  %d\n"+
		"  Total Findings: %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.TotalFiles,
		summary.ValidFiles,
		summary.InvalidFiles,
		summary.FailedFiles,
		summary.TotalRecords,
		summary.TotalFindings)

	var done, failed []FileSummary
	for _, f := range summary.Files {
		if f.Error != "" {
			failed = append(failed, f)
		} else {
			done = append(done, f)
		}
	}

	if len(done) > 0 {
		writer.WriteString("Validated Files:\n")
		writer.WriteString(thinRule)
		for _, f := range done {
			status := "valid"
			if !f.Valid {
				status = "invalid"
			}
			fmt.Fprintf(writer, "  Input:        %s\n", f.InputFile)
			fmt.Fprintf(writer, "  Schema:       %s\n", f.Schema)
			fmt.Fprintf(writer, "  Status:       %s\n", status)
			fmt.Fprintf(writer, "  Records:      %d\n", f.Records)
			fmt.Fprintf(writer, "  Findings:     %d\n", f.Findings)
			for _, report := range f.Reports {
				fmt.Fprintf(writer, "  Report:       %s\n", report)
			}
			if f.ArchivePath != "" {
				fmt.Fprintf(writer, "  Archived To:  %s\n", f.ArchivePath)
			}
			fmt.Fprintf(writer, "  Process Time: %s\n\n", f.ProcessTime.String())
		}
	}

	if len(failed) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString(thinRule)
		for _, f := range failed {
			fmt.Fprintf(writer, "  File:  %s\n", f.InputFile)
			fmt.Fprintf(writer, "  Error: %s\n\n", f.Error)
		}
	}

	writer.WriteString(rule + "End of Summary\n")

	return writer.Flush()
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}
