package pipeline

import (
	"errors"
	"sort"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/tasks"
)

// SelectRequest lists a folder. Action must be init.
type SelectRequest struct {
	Action      string `json:"action"`
	TaskID      string `json:"task_id"`
	CurrentPath string `json:"current_path"`
	FolderName  string `json:"folder_name"`
}

// SelectResult is a folder listing with the processed flag of every subfolder.
type SelectResult struct {
	TaskID  string              `json:"task_id"`
	Stage   models.Stage        `json:"stage"`
	Path    string              `json:"path"`
	Folders []models.FolderInfo `json:"folders"`
}

// ImportRequest stages (range) or analyzes (analyze) a source folder.
type ImportRequest struct {
	Action       string `json:"action"`
	TaskID       string `json:"task_id"`
	ImportFolder string `json:"import_folder"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`

	Progress chan<- tasks.ProgressUpdate `json:"-"`
}

// FixRequest reads the file list of a task and optionally applies one choice.
type FixRequest struct {
	Action string `json:"action"`
	TaskID string `json:"task_id"`
	FileID string `json:"file_id"`
	Kind   string `json:"kind"`
	Value  string `json:"value"`
}

// PostProcRequest runs the post-processing script.
type PostProcRequest struct {
	Action string `json:"action"`
	TaskID string `json:"task_id"`
}

// PostProcResult carries the script outcome.
type PostProcResult struct {
	TaskID string         `json:"task_id,omitempty"`
	Stage  models.Stage   `json:"stage"`
	Script *models.Script `json:"script"`
}

// FinishRequest processes (process) or reads back (results) a task.
type FinishRequest struct {
	Action      string            `json:"action"`
	TaskID      string            `json:"task_id"`
	RadioValues map[string]string `json:"radio_values"`

	Progress chan<- tasks.ProgressUpdate `json:"-"`
}

// CancelRequest cancels a task.
type CancelRequest struct {
	TaskID string `json:"task_id"`
}

// CancelResult is the stage the task ended in.
type CancelResult struct {
	TaskID string       `json:"task_id"`
	Stage  models.Stage `json:"stage"`
}

// ToggleRequest flips the processed flag of path. Flag is the caller's current value.
type ToggleRequest struct {
	Path string `json:"path"`
	Flag bool   `json:"flag"`
}

// ToggleResult is the stored flag after a toggle.
type ToggleResult struct {
	Path      string `json:"path"`
	Processed bool   `json:"processed"`
}

// ParseRadioValues converts radio_values into selections ordered by key.
// Every malformed entry is reported, joined.
func ParseRadioValues(values map[string]string) ([]tasks.Selection, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	selections := make([]tasks.Selection, 0, len(keys))
	var errs []error
	for _, k := range keys {
		sel, err := tasks.ParseRadioValue(k, values[k])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		selections = append(selections, sel)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return selections, nil
}
