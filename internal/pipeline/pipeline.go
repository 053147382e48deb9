package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/photox/internal/formatter"
	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/services"
	"github.com/desertthunder/photox/internal/shared"
	"github.com/desertthunder/photox/internal/tasks"
)

// FlagStore persists the processed flag of listed folders.
type FlagStore interface {
	Record(paths ...string) error
	Get(path string) (*models.PathFlag, error)
	Toggle(path string, current bool) (bool, error)
}

// ReportStore persists finish summaries.
type ReportStore interface {
	Create(report *models.Report) error
	Get(id string) (*models.Report, error)
}

// Options wires a [Pipeline] to its collaborators. Reports is optional.
type Options struct {
	Registry  *tasks.Registry
	Folders   services.Folders
	Scanner   services.Scanner
	Processor services.Processor
	Runner    services.Runner
	Flags     FlagStore
	Reports   ReportStore
	Config    shared.FoldersConfig
	Logger    *log.Logger
}

// Pipeline is the boundary of the import workflow. Every operation validates its request
// before touching the registry, the flag store or the filesystem.
type Pipeline struct {
	registry  *tasks.Registry
	folders   services.Folders
	scanner   services.Scanner
	processor services.Processor
	runner    services.Runner
	flags     FlagStore
	reports   ReportStore
	cfg       shared.FoldersConfig
	logger    *log.Logger
}

// New creates a Pipeline.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Registry == nil:
		return nil, fmt.Errorf("%w: registry", shared.ErrMissingArgument)
	case opts.Folders == nil, opts.Scanner == nil, opts.Processor == nil:
		return nil, fmt.Errorf("%w: folder services", shared.ErrMissingArgument)
	case opts.Runner == nil:
		return nil, fmt.Errorf("%w: script runner", shared.ErrMissingArgument)
	case opts.Flags == nil:
		return nil, fmt.Errorf("%w: flag store", shared.ErrMissingArgument)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Pipeline{
		registry:  opts.Registry,
		folders:   opts.Folders,
		scanner:   opts.Scanner,
		processor: opts.Processor,
		runner:    opts.Runner,
		flags:     opts.Flags,
		reports:   opts.Reports,
		cfg:       opts.Config,
		logger:    logger,
	}, nil
}

// Registry exposes the task registry, e.g. to run its sweep loop.
func (p *Pipeline) Registry() *tasks.Registry { return p.registry }

func expectAction(raw string, allowed ...tasks.Action) (tasks.Action, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: action", shared.ErrMissingArgument)
	}
	a, err := tasks.ParseAction(raw)
	if err != nil {
		return "", err
	}
	for _, ok := range allowed {
		if a == ok {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: action %q not accepted here", shared.ErrInvalidInput, raw)
}

func requireTaskID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: task_id", shared.ErrMissingArgument)
	}
	return id, nil
}

// abandon releases h after a failed request, dropping the task when the request created it.
func abandon(h *tasks.Handle, created bool) {
	if created {
		h.Discard()
		return
	}
	h.Release()
}

func reporter(h *tasks.Handle, ch chan<- tasks.ProgressUpdate, phase tasks.Phase) services.ProgressFunc {
	return func(step, total int, message string) {
		h.Report(ch, tasks.ProgressUpdate{Phase: phase, Step: step, Total: total, Message: message})
	}
}

// Select lists the folders under current_path (or the originals folder), descending into
// folder_name when given, and records every listed path in the flag store.
func (p *Pipeline) Select(ctx context.Context, req SelectRequest) (*SelectResult, error) {
	if _, err := expectAction(req.Action, tasks.ActionInit); err != nil {
		return nil, err
	}

	dir := strings.TrimSpace(req.CurrentPath)
	if dir == "" {
		dir = p.cfg.Originals
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: current_path", shared.ErrMissingArgument)
	}
	if name := strings.TrimSpace(req.FolderName); name != "" {
		if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			return nil, fmt.Errorf("%w: folder_name %q", shared.ErrInvalidInput, req.FolderName)
		}
		dir = filepath.Join(dir, name)
	}

	folders, err := p.folders.List(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	id := strings.TrimSpace(req.TaskID)
	h, err := p.registry.Begin(tasks.ActionInit, id)
	if err != nil {
		return nil, err
	}
	created := id == ""

	paths := make([]string, len(folders))
	for i, f := range folders {
		paths[i] = f.Path
	}
	if err := p.flags.Record(paths...); err != nil {
		abandon(h, created)
		return nil, err
	}
	for i := range folders {
		flag, err := p.flags.Get(folders[i].Path)
		if err != nil {
			abandon(h, created)
			return nil, err
		}
		folders[i].Processed = flag.Processed
	}

	h.Advance()
	result := &SelectResult{TaskID: h.ID(), Stage: h.Stage(), Path: dir, Folders: folders}
	h.Release()
	return result, nil
}

// Import runs the range or analyze step.
//
// range stages import_folder into the configured import folder and records an optional
// date range. analyze requires both dates, scans the staged files and builds the file list.
func (p *Pipeline) Import(ctx context.Context, req ImportRequest) (*models.Task, error) {
	action, err := expectAction(req.Action, tasks.ActionRange, tasks.ActionAnalyze)
	if err != nil {
		return nil, err
	}
	if action == tasks.ActionRange {
		return p.stage(ctx, req)
	}
	return p.analyze(ctx, req)
}

func (p *Pipeline) stage(ctx context.Context, req ImportRequest) (*models.Task, error) {
	src := strings.TrimSpace(req.ImportFolder)
	if src == "" {
		return nil, fmt.Errorf("%w: import_folder", shared.ErrMissingArgument)
	}
	rng, err := tasks.ParseRange(req.StartDate, req.EndDate, false)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(req.TaskID)
	h, err := p.registry.Begin(tasks.ActionRange, id)
	if err != nil {
		return nil, err
	}
	created := id == ""
	logger := shared.WithLogger(p.logger, "task", h.ID())

	root, err := p.folders.Stage(ctx, h.ID(), src, reporter(h, req.Progress, tasks.StageFiles))
	if err != nil {
		logger.Error("staging failed", "source", src, "error", err)
		abandon(h, created)
		return nil, err
	}

	h.SetSourceFolder(src)
	h.SetImportFolder(root)
	h.SetRange(rng)
	h.Advance()

	task := h.Snapshot()
	h.Release()
	logger.Info("import staged", "source", src, "import", root)
	return &task, nil
}

func (p *Pipeline) analyze(ctx context.Context, req ImportRequest) (*models.Task, error) {
	rng, err := tasks.ParseRange(req.StartDate, req.EndDate, true)
	if err != nil {
		return nil, err
	}
	id, err := requireTaskID(req.TaskID)
	if err != nil {
		return nil, err
	}

	h, err := p.registry.Begin(tasks.ActionAnalyze, id)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	current := h.Snapshot()
	root := current.ImportFolder
	if root == "" {
		root = p.cfg.Import
	}
	if root == "" {
		return nil, fmt.Errorf("%w: folders.import", shared.ErrMissingConfig)
	}

	h.Report(req.Progress, tasks.ProgressUpdate{Phase: tasks.ScanFiles, Message: "Scanning " + root})
	scan, err := p.scanner.Scan(ctx, root)
	if err != nil {
		return nil, err
	}

	if src := strings.TrimSpace(req.ImportFolder); src != "" && current.SourceFolder == "" {
		h.SetSourceFolder(src)
	}
	if err := h.Analyze(ctx, scan, rng, req.Progress); err != nil {
		return nil, err
	}
	h.SetImportFolder(root)
	h.Advance()

	task := h.Snapshot()
	p.logger.Info("import analyzed", "task", id, "files", len(task.Files), "skipped", len(task.Skipped))
	return &task, nil
}

// FixFiles returns the task's file list, first applying a per-file choice when file_id is
// set or a bulk choice when only kind is set.
func (p *Pipeline) FixFiles(ctx context.Context, req FixRequest) (*models.Task, error) {
	if _, err := expectAction(req.Action, tasks.ActionFixFiles); err != nil {
		return nil, err
	}
	id, err := requireTaskID(req.TaskID)
	if err != nil {
		return nil, err
	}

	var kind models.SourceKind
	if raw := strings.TrimSpace(req.Kind); raw != "" {
		k, ok := models.ParseSourceKind(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidInput, raw)
		}
		if k == models.KindCustom {
			if _, err := shared.ParseDate(req.Value); err != nil {
				return nil, &tasks.InvalidDateError{FileID: req.FileID, Value: req.Value, Reason: "custom date must be a valid date"}
			}
		}
		kind = k
	} else if strings.TrimSpace(req.FileID) != "" {
		return nil, fmt.Errorf("%w: kind", shared.ErrMissingArgument)
	}

	h, err := p.registry.Begin(tasks.ActionFixFiles, id)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	switch {
	case kind == "":
	case strings.TrimSpace(req.FileID) != "":
		if _, err := h.ApplyPerFile(strings.TrimSpace(req.FileID), kind, req.Value); err != nil {
			return nil, err
		}
	default:
		if _, err := h.ApplyBulk(kind, req.Value); err != nil {
			return nil, err
		}
	}
	h.Advance()

	task := h.Snapshot()
	total, left := len(task.Files), h.Unresolved()
	h.Report(nil, tasks.ProgressUpdate{
		Phase:   tasks.ResolveFiles,
		Step:    total - left,
		Total:   total,
		Message: fmt.Sprintf("%d of %d files resolved", total-left, total),
	})
	return &task, nil
}

// PostProcess runs the post-processing script. With a task id it runs on the task's import
// folder and moves the task to POSTPROCESS; without one it runs on the export folder.
//
// A failing script returns its captured result along with the error.
func (p *Pipeline) PostProcess(ctx context.Context, req PostProcRequest) (*PostProcResult, error) {
	if _, err := expectAction(req.Action, tasks.ActionPostProc); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(req.TaskID)
	if id == "" {
		if p.cfg.Export == "" {
			return nil, fmt.Errorf("%w: folders.export", shared.ErrMissingConfig)
		}
		script, err := p.runner.Run(ctx, p.cfg.Export)
		return &PostProcResult{Script: script}, err
	}

	h, err := p.registry.Begin(tasks.ActionPostProc, id)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	dir := h.Snapshot().ImportFolder
	if dir == "" {
		dir = p.cfg.Import
	}

	h.Report(nil, tasks.ProgressUpdate{Phase: tasks.PostProcess, Total: 1, Message: "Running post-process script"})
	script, err := p.runner.Run(ctx, dir)
	result := &PostProcResult{TaskID: id, Stage: h.Stage(), Script: script}
	if err != nil {
		return result, err
	}

	h.SetScript(script)
	h.Advance()
	h.Report(nil, tasks.ProgressUpdate{Phase: tasks.PostProcess, Step: 1, Total: 1, Message: "Post-process complete"})
	result.Stage = h.Stage()
	return result, nil
}

// Finish processes a task or reads back its result.
//
// process requires every file resolved once radio_values are applied, carries out the
// dispositions and stores the summary. radio_values only stick when processing succeeds. results returns the summary of a finished task,
// falling back to the report store once the tombstone has been swept.
func (p *Pipeline) Finish(ctx context.Context, req FinishRequest) (*models.Summary, error) {
	action, err := expectAction(req.Action, tasks.ActionProcess, tasks.ActionResults)
	if err != nil {
		return nil, err
	}
	id, err := requireTaskID(req.TaskID)
	if err != nil {
		return nil, err
	}
	if action == tasks.ActionResults {
		return p.results(id)
	}

	selections, err := ParseRadioValues(req.RadioValues)
	if err != nil {
		return nil, err
	}

	h, err := p.registry.Begin(tasks.ActionProcess, id)
	if err != nil {
		return nil, err
	}
	logger := shared.WithLogger(p.logger, "task", id)

	files, err := h.Preview(selections)
	if err != nil {
		h.Release()
		return nil, err
	}

	task := h.Snapshot()
	plan := services.Plan{
		TaskID:     id,
		ImportRoot: task.ImportFolder,
		Files:      files,
		Skipped:    task.Skipped,
		Cancelled:  h.Cancelled,
	}
	summary, err := p.processor.Apply(ctx, plan, reporter(h, req.Progress, tasks.ProcessFiles))
	if err != nil {
		logger.Error("processing failed", "error", err)
		h.Release()
		return nil, err
	}
	if err := h.Commit(selections); err != nil {
		h.Release()
		return nil, err
	}

	h.Finish(*summary)
	h.Release()

	final, err := p.registry.Summary(id)
	if err != nil {
		return nil, err
	}
	p.persist(logger, final)
	return &final, nil
}

func (p *Pipeline) results(id string) (*models.Summary, error) {
	summary, err := p.registry.Summary(id)
	if err == nil {
		return &summary, nil
	}
	if !errors.Is(err, shared.ErrUnknownTask) || p.reports == nil {
		return nil, err
	}

	report, rerr := p.reports.Get(id)
	if rerr != nil {
		if errors.Is(rerr, shared.ErrReportNotFound) {
			return nil, err
		}
		return nil, rerr
	}
	s := report.Summary()
	return &s, nil
}

// persist stores a final summary. Failures are logged; the task has already finished.
func (p *Pipeline) persist(logger *log.Logger, summary models.Summary) {
	if p.reports != nil {
		if err := p.reports.Create(models.NewReport(summary)); err != nil {
			logger.Warn("failed to store report", "error", err)
		}
	}
	if p.cfg.Reports != "" {
		path, err := formatter.WriteReport(&summary, p.cfg.Reports, formatter.FormatYAML)
		if err != nil {
			logger.Warn("failed to write report file", "error", err)
			return
		}
		logger.Info("report written", "path", path)
	}
}

// Cancel cancels a task. It succeeds for unknown, finished and already cancelled tasks.
func (p *Pipeline) Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	id, err := requireTaskID(req.TaskID)
	if err != nil {
		return nil, err
	}
	stage := p.registry.Cancel(id)
	p.logger.Info("cancel requested", "task", id, "stage", stage)
	return &CancelResult{TaskID: id, Stage: stage}, nil
}

// ToggleProcessed flips the processed flag of a listed folder path.
//
// The caller's current flag is trusted; the stored value becomes its negation.
func (p *Pipeline) ToggleProcessed(ctx context.Context, req ToggleRequest) (*ToggleResult, error) {
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return nil, fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	flag, err := p.flags.Toggle(path, req.Flag)
	if err != nil {
		if errors.Is(err, shared.ErrUnknownPath) {
			return nil, &tasks.UnknownPathError{Path: path}
		}
		return nil, err
	}
	return &ToggleResult{Path: path, Processed: flag}, nil
}

// Progress returns the latest progress of a task.
func (p *Pipeline) Progress(ctx context.Context, taskID string) (tasks.ProgressUpdate, error) {
	id, err := requireTaskID(taskID)
	if err != nil {
		return tasks.ProgressUpdate{}, err
	}
	return p.registry.Progress(id)
}
