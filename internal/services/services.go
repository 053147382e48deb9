package services

import (
	"context"

	"github.com/desertthunder/photox/internal/models"
)

// Folders lists source folders and stages one into the import folder.
type Folders interface {
	// List returns the immediate subfolders of dir.
	List(dir string) ([]models.FolderInfo, error)

	// Stage copies src into the task's own folder under the import folder and returns that root.
	// Staging again for the same task replaces its earlier copy; other tasks are untouched.
	Stage(ctx context.Context, taskID, src string, progress ProgressFunc) (string, error)
}

// Scanner walks an import root and classifies its files.
type Scanner interface {
	Scan(ctx context.Context, root string) (*models.ScanResult, error)
}

// Processor carries out resolved dispositions and exports the result.
type Processor interface {
	// Apply deletes, re-dates and exports the files of plan. Per-file failures are
	// recorded in the summary rather than returned.
	Apply(ctx context.Context, plan Plan, progress ProgressFunc) (*models.Summary, error)
}

// Runner runs the post-processing script.
type Runner interface {
	Run(ctx context.Context, dir string) (*models.Script, error)
}

// Plan is the resolved work for one task.
type Plan struct {
	// TaskID names the task's folder under the export folder.
	TaskID     string
	ImportRoot string
	Files      []models.FileEntry
	Skipped    []string

	// Cancelled is polled between files; processing stops early when it returns true.
	Cancelled func() bool
}

// ProgressFunc receives step counts and a display message. It may be nil.
type ProgressFunc func(step, total int, message string)

func (f ProgressFunc) report(step, total int, message string) {
	if f != nil {
		f(step, total, message)
	}
}
