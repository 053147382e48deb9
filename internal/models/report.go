package models

import (
	"fmt"
	"time"
)

// Summary is the outcome of processing or cancelling a task.
type Summary struct {
	TaskID       string    `json:"task_id" yaml:"task_id"`
	Stage        Stage     `json:"stage" yaml:"stage"`
	SourceFolder string    `json:"source_folder,omitempty" yaml:"source_folder,omitempty"`
	Edited       []string  `json:"edited" yaml:"edited"`
	Deleted      []string  `json:"deleted" yaml:"deleted"`
	Ignored      []string  `json:"ignored" yaml:"ignored"`
	Exported     []string  `json:"exported" yaml:"exported"`
	Errors       []string  `json:"errors" yaml:"errors"`
	Script       *Script   `json:"script,omitempty" yaml:"script,omitempty"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt  time.Time `json:"completed_at" yaml:"completed_at"`
}

// Script is the captured result of a post-processing command.
type Script struct {
	Command  string        `json:"command" yaml:"command"`
	Output   []string      `json:"output" yaml:"output"`
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// FolderInfo is one row of a folder listing.
type FolderInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Folders   int    `json:"folders"`
	Files     int    `json:"files"`
	Processed bool   `json:"processed"`
}

// PathFlag is the processed state recorded for one folder path.
type PathFlag struct {
	Path       string    `json:"path"`
	Processed  bool      `json:"processed"`
	RecordedAt time.Time `json:"recorded_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Report is a persisted [Summary]. It implements [Model] with the task id as its identifier.
type Report struct {
	taskID    string
	sequence  int
	summary   Summary
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewReport wraps summary for persistence.
func NewReport(summary Summary) *Report {
	now := time.Now()
	return &Report{
		taskID:    summary.TaskID,
		summary:   summary,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *Report) ID() string { return r.taskID }
func (r *Report) Sequence() int { return r.sequence }
func (r *Report) Summary() Summary { return r.summary }
func (r *Report) Stage() Stage { return r.summary.Stage }
func (r *Report) CreatedAt() time.Time { return r.createdAt }
func (r *Report) UpdatedAt() time.Time { return r.updatedAt }
func (r *Report) DeletedAt() *time.Time { return r.deletedAt }
func (r *Report) SetSequence(seq int) { r.sequence = seq }
func (r *Report) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *Report) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *Report) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *Report) SetSummary(summary Summary) { r.summary = summary; r.taskID = summary.TaskID }

// Validate checks the report refers to a terminal task.
func (r *Report) Validate() error {
	if r.taskID == "" {
		return fmt.Errorf("report task id is required")
	}
	if !r.summary.Stage.Terminal() {
		return fmt.Errorf("report stage must be terminal, got %s", r.summary.Stage)
	}
	return nil
}
