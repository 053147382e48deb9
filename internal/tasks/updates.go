package tasks

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/photox/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or HTTP layer for display.
type ProgressUpdate struct {
	TaskID  string // Task the update belongs to
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Percent is the completion of the phase, 0 when the total is unknown.
func (u ProgressUpdate) Percent() int {
	if u.Total <= 0 {
		return 0
	}
	p := u.Step * 100 / u.Total
	return min(max(p, 0), 100)
}

func (u ProgressUpdate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TaskID  string `json:"task_id"`
		Phase   string `json:"phase"`
		Step    int    `json:"step"`
		Total   int    `json:"total"`
		Percent int    `json:"percent"`
		Message string `json:"message"`
	}{u.TaskID, u.Phase.String(), u.Step, u.Total, u.Percent(), u.Message})
}

// Operation phase enumeration
type Phase int

const (
	Idle Phase = iota
	StageFiles
	ScanFiles
	AnalyzeFiles
	ResolveFiles
	ProcessFiles
	ExportFiles
	PostProcess
	Done
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case StageFiles:
		return "stage_files"
	case ScanFiles:
		return "scan_files"
	case AnalyzeFiles:
		return "analyze_files"
	case ResolveFiles:
		return "resolve_files"
	case ProcessFiles:
		return "process_files"
	case ExportFiles:
		return "export_files"
	case PostProcess:
		return "post_process"
	case Done:
		return "done"
	default:
		return ""
	}
}

func analyzeStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AnalyzeFiles,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Analyzing %d files...", total),
	}
}

func analyzeFileUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AnalyzeFiles,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, filepath.Base(path)),
	}
}

func resolveUpdate(total, unresolved int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveFiles,
		Step:    total - unresolved,
		Total:   total,
		Message: fmt.Sprintf("%d of %d files resolved", total-unresolved, total),
	}
}

func doneUpdate(stage models.Stage) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Task %s", stage),
	}
}
