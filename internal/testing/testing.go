// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/services"
	"github.com/desertthunder/photox/internal/shared"
)

// MockFolders is a test double for [services.Folders]
type MockFolders struct {
	Listing   map[string][]models.FolderInfo
	ImportDir string
	StageErr  error

	mu     sync.Mutex
	Staged []string
	Tasks  []string
}

func (m *MockFolders) List(dir string) ([]models.FolderInfo, error) {
	folders, ok := m.Listing[dir]
	if !ok {
		return nil, errors.New("no such folder: " + dir)
	}
	return append([]models.FolderInfo(nil), folders...), nil
}

func (m *MockFolders) Stage(ctx context.Context, taskID, src string, progress services.ProgressFunc) (string, error) {
	if m.StageErr != nil {
		return "", m.StageErr
	}
	m.mu.Lock()
	m.Staged = append(m.Staged, src)
	m.Tasks = append(m.Tasks, taskID)
	m.mu.Unlock()
	if progress != nil {
		progress(1, 1, src)
	}
	return m.ImportDir, nil
}

// MockScanner returns a fixed scan result for any root
type MockScanner struct {
	Result *models.ScanResult
	Err    error
}

func (m *MockScanner) Scan(ctx context.Context, root string) (*models.ScanResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	res := *m.Result
	res.Root = root
	return &res, nil
}

// MockProcessor records the plans it receives and reports every file as exported
type MockProcessor struct {
	Err error

	mu    sync.Mutex
	Plans []services.Plan
}

func (m *MockProcessor) Apply(ctx context.Context, plan services.Plan, progress services.ProgressFunc) (*models.Summary, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	m.Plans = append(m.Plans, plan)
	m.mu.Unlock()

	summary := &models.Summary{StartedAt: time.Now().UTC()}
	for i, f := range plan.Files {
		rel := filepath.Base(f.Path)
		switch f.Disposition.Type {
		case models.Deleted:
			summary.Deleted = append(summary.Deleted, rel)
			continue
		case models.Ignored:
			summary.Ignored = append(summary.Ignored, rel)
		case models.Assigned:
			summary.Edited = append(summary.Edited, rel+" ("+shared.FormatDate(f.Disposition.Date)+", "+string(f.Disposition.Source)+")")
		}
		summary.Exported = append(summary.Exported, rel)
		if progress != nil {
			progress(i+1, len(plan.Files), rel)
		}
	}
	summary.CompletedAt = time.Now().UTC()
	return summary, nil
}

// MockRunner is a test double for [services.Runner]
type MockRunner struct {
	Output []string
	Err    error

	mu   sync.Mutex
	Dirs []string
}

func (m *MockRunner) Run(ctx context.Context, dir string) (*models.Script, error) {
	m.mu.Lock()
	m.Dirs = append(m.Dirs, dir)
	m.mu.Unlock()

	res := &models.Script{Command: "mock " + dir, Output: m.Output}
	if m.Err != nil {
		res.ExitCode = 1
		return res, m.Err
	}
	return res, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MustWriteFile creates path and its parent folders, optionally setting its modification time
func MustWriteFile(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(filepath.Base(path)), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("Failed to set times on %s: %v", path, err)
		}
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
