// package formatter renders finish summaries as plain text, JSON and YAML reports
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
)

// Format names an output encoding for reports.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a flag value onto a [Format].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "txt", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension used when writing a report in this format.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".log"
	}
}

// Export renders summary in the given format.
func Export(summary *models.Summary, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ExportToJSON(summary)
	case FormatYAML:
		return ExportToYAML(summary)
	default:
		return ExportToText(summary)
	}
}

func section(buf *bytes.Buffer, title string, lines []string) {
	rule := strings.Repeat("=", len(title))
	fmt.Fprintf(buf, "\n%s\n%s\n%s\n", rule, title, rule)
	for _, l := range lines {
		fmt.Fprintf(buf, " - %s\n", l)
	}
}

// ExportToText converts a Summary to the sectioned plain text report: a header with counts,
// then Errors, Files Edited, Files Deleted, Files Ignored and Files Exported.
func ExportToText(summary *models.Summary) ([]byte, error) {
	if summary == nil {
		return nil, fmt.Errorf("%w: empty summary", shared.ErrInvalidArgument)
	}

	var buf bytes.Buffer
	stamp := summary.CompletedAt
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}

	fmt.Fprintf(&buf, "Process Images Report [%s]\n", shared.FormatDate(stamp))
	fmt.Fprintf(&buf, "Task: %s (%s)\n", summary.TaskID, summary.Stage)
	if summary.SourceFolder != "" {
		fmt.Fprintf(&buf, "Source folder: %s\n", summary.SourceFolder)
	}
	total := len(summary.Edited) + len(summary.Deleted) + len(summary.Ignored)
	fmt.Fprintf(&buf, "Number of files resolved: %d\n", total)
	fmt.Fprintf(&buf, "Number of items exported: %d\n", len(summary.Exported))

	section(&buf, "Errors", summary.Errors)
	section(&buf, "Files Edited", summary.Edited)
	section(&buf, "Files Deleted", summary.Deleted)
	section(&buf, "Files Ignored", summary.Ignored)
	section(&buf, "Files Exported", summary.Exported)

	if s := summary.Script; s != nil {
		section(&buf, "Post Process", append([]string{fmt.Sprintf("%s (exit %d, %s)", s.Command, s.ExitCode, s.Duration.Round(time.Millisecond))}, s.Output...))
	}

	section(&buf, "End of Report", nil)
	return buf.Bytes(), nil
}

// ExportToJSON converts a Summary to indented JSON.
func ExportToJSON(summary *models.Summary) ([]byte, error) {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToYAML converts a Summary to YAML.
func ExportToYAML(summary *models.Summary) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(summary); err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportFilename returns report_<completed>_<task>.<ext>, sortable by completion time.
func ReportFilename(summary *models.Summary, f Format) string {
	stamp := summary.CompletedAt
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	return fmt.Sprintf("report_%s_%s%s", stamp.UTC().Format("20060102T150405"), summary.TaskID, f.Ext())
}

// WriteReport renders summary and writes it under dir, creating dir when missing.
//
// Returns the written file path.
func WriteReport(summary *models.Summary, dir string, f Format) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: folders.reports", shared.ErrMissingConfig)
	}

	data, err := Export(summary, f)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, ReportFilename(summary, f))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// ReadYAMLReport loads a summary previously written with [WriteReport] in YAML.
func ReadYAMLReport(path string) (*models.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var summary models.Summary
	if err := yaml.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("%w: failed to parse report: %v", shared.ErrInvalidInput, err)
	}
	return &summary, nil
}
