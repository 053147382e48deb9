package formatter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/photox/internal/models"
)

func sampleSummary() *models.Summary {
	return &models.Summary{
		TaskID:       "01J0TASK",
		Stage:        models.StageFinished,
		SourceFolder: "/photos/trip",
		Edited:       []string{"a.jpg (2020-03-10 00:00:00, file_date)"},
		Deleted:      []string{"blurry.jpg"},
		Ignored:      []string{"scan.png"},
		Exported:     []string{"a.jpg", "scan.png", "notes.txt"},
		Errors:       []string{},
		Script: &models.Script{
			Command:  "sync.sh",
			Output:   []string{"uploaded 3 files"},
			ExitCode: 0,
			Duration: 1500 * time.Millisecond,
		},
		StartedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2024, 5, 1, 10, 5, 30, 0, time.UTC),
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleSummary())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "Process Images Report [2024-05-01 10:05:30]") {
			t.Errorf("Text missing header, got: %s", output)
		}
		if !strings.Contains(output, "Task: 01J0TASK (FINISHED)") {
			t.Errorf("Text missing task line")
		}
		if !strings.Contains(output, "Number of files resolved: 3") {
			t.Errorf("Text missing resolved count")
		}
		if !strings.Contains(output, "Number of items exported: 3") {
			t.Errorf("Text missing exported count")
		}

		order := []string{"Errors", "Files Edited", "Files Deleted", "Files Ignored", "Files Exported", "Post Process", "End of Report"}
		last := -1
		for _, title := range order {
			i := strings.Index(output, "\n"+title+"\n")
			if i < 0 {
				t.Fatalf("Text missing section %q", title)
			}
			if i < last {
				t.Errorf("section %q out of order", title)
			}
			last = i
		}

		if !strings.Contains(output, " - blurry.jpg") {
			t.Errorf("Text missing deleted file")
		}
		if !strings.Contains(output, "sync.sh (exit 0, 1.5s)") {
			t.Errorf("Text missing script line, got: %s", output)
		}
		if !strings.Contains(output, " - uploaded 3 files") {
			t.Errorf("Text missing script output")
		}
	})

	t.Run("ExportToText without script", func(t *testing.T) {
		s := sampleSummary()
		s.Script = nil
		data, err := ExportToText(s)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		if strings.Contains(string(data), "Post Process") {
			t.Errorf("Text should omit the Post Process section")
		}
	})

	t.Run("ExportToText nil summary", func(t *testing.T) {
		if _, err := ExportToText(nil); err == nil {
			t.Error("expected an error for a nil summary")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleSummary())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["task_id"] != "01J0TASK" {
			t.Errorf("expected task_id 01J0TASK, got %v", decoded["task_id"])
		}
		if decoded["stage"] != "FINISHED" {
			t.Errorf("expected stage FINISHED, got %v", decoded["stage"])
		}
		if exported, _ := decoded["exported"].([]any); len(exported) != 3 {
			t.Errorf("expected 3 exported files, got %v", decoded["exported"])
		}
	})

	t.Run("ExportToYAML", func(t *testing.T) {
		data, err := ExportToYAML(sampleSummary())
		if err != nil {
			t.Fatalf("ExportToYAML failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, "task_id: 01J0TASK") {
			t.Errorf("YAML missing task id, got: %s", output)
		}
		if !strings.Contains(output, "stage: FINISHED") {
			t.Errorf("YAML should encode the stage by name, got: %s", output)
		}
		if !strings.Contains(output, "  - blurry.jpg") {
			t.Errorf("YAML should indent lists by two spaces, got: %s", output)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
		ext  string
	}{
		{"", FormatText, ".log"},
		{"txt", FormatText, ".log"},
		{"TEXT", FormatText, ".log"},
		{"json", FormatJSON, ".json"},
		{"yml", FormatYAML, ".yaml"},
		{" yaml ", FormatYAML, ".yaml"},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("ParseFormat(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if got.Ext() != tt.ext {
				t.Errorf("%q.Ext() = %q, want %q", got, got.Ext(), tt.ext)
			}
		})
	}

	if _, err := ParseFormat("csv"); err == nil {
		t.Error("expected an error for csv")
	}
}

func TestReportFiles(t *testing.T) {
	t.Run("ReportFilename", func(t *testing.T) {
		got := ReportFilename(sampleSummary(), FormatYAML)
		if got != "report_20240501T100530_01J0TASK.yaml" {
			t.Errorf("unexpected filename %q", got)
		}
	})

	t.Run("WriteReport and ReadYAMLReport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "reports")
		summary := sampleSummary()

		path, err := WriteReport(summary, dir, FormatYAML)
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if filepath.Dir(path) != dir {
			t.Errorf("report written to %s, want under %s", path, dir)
		}

		got, err := ReadYAMLReport(path)
		if err != nil {
			t.Fatalf("ReadYAMLReport failed: %v", err)
		}
		if got.TaskID != summary.TaskID || got.Stage != models.StageFinished {
			t.Errorf("unexpected summary %+v", got)
		}
		if !got.CompletedAt.Equal(summary.CompletedAt) {
			t.Errorf("completed_at = %v, want %v", got.CompletedAt, summary.CompletedAt)
		}
		if got.Script == nil || got.Script.Duration != summary.Script.Duration {
			t.Errorf("script not preserved: %+v", got.Script)
		}
		if strings.Join(got.Exported, ",") != "a.jpg,scan.png,notes.txt" {
			t.Errorf("exported = %v", got.Exported)
		}
	})

	t.Run("WriteReport text", func(t *testing.T) {
		dir := t.TempDir()
		path, err := WriteReport(sampleSummary(), dir, FormatText)
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if !strings.HasSuffix(path, ".log") {
			t.Errorf("expected a .log file, got %s", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(data), "End of Report") {
			t.Error("report file is missing its footer")
		}
	})

	t.Run("WriteReport without directory", func(t *testing.T) {
		if _, err := WriteReport(sampleSummary(), "", FormatYAML); err == nil {
			t.Error("expected an error without a reports directory")
		}
	})

	t.Run("ReadYAMLReport malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("stage: [nope"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadYAMLReport(path); err == nil {
			t.Error("expected a parse error")
		}
	})
}
