package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/photox/internal/formatter"
	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/pipeline"
	"github.com/desertthunder/photox/internal/shared"
	"github.com/desertthunder/photox/internal/tasks"
	"github.com/desertthunder/photox/internal/ui"
	"github.com/urfave/cli/v3"
)

// Run drives one folder through range, analyze, bulk resolution and finish.
//
// Preferred kinds are applied as bulk choices from last to first, so the earliest kind a
// file has a candidate for wins. The fallback is sent as the radio value of every file
// still unresolved. With --interactive the user picks the remaining dates per file
// before the fallback applies.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	folder := cmd.StringArg("folder")
	if folder == "" {
		return fmt.Errorf("%w: folder", shared.ErrMissingArgument)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.open(ctx, cmd); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	interactive := cmd.Bool("interactive")
	progress, wait := r.watch(format == formatter.FormatText && !interactive)
	defer wait()

	start, end := cmd.String("start"), cmd.String("end")
	task, err := r.pipeline.Import(ctx, pipeline.ImportRequest{
		Action:       string(tasks.ActionRange),
		ImportFolder: folder,
		StartDate:    start,
		EndDate:      end,
		Progress:     progress,
	})
	if err != nil {
		return err
	}
	id := task.ID
	logger := r.logger.With("task", id)

	abort := func(err error) error {
		res, cerr := r.pipeline.Cancel(context.Background(), pipeline.CancelRequest{TaskID: id})
		if cerr != nil {
			logger.Warn("failed to cancel task", "error", cerr)
		} else {
			logger.Info("task abandoned", "stage", res.Stage)
		}
		return err
	}

	task, err = r.pipeline.Import(ctx, pipeline.ImportRequest{
		Action:    string(tasks.ActionAnalyze),
		TaskID:    id,
		StartDate: start,
		EndDate:   end,
		Progress:  progress,
	})
	if err != nil {
		return abort(err)
	}

	prefer := cmd.StringSlice("prefer")
	for i := len(prefer) - 1; i >= 0; i-- {
		task, err = r.pipeline.FixFiles(ctx, pipeline.FixRequest{
			Action: string(tasks.ActionFixFiles),
			TaskID: id,
			Kind:   prefer[i],
		})
		if err != nil {
			return abort(err)
		}
	}

	if interactive {
		if task, err = r.interactive(ctx, task); err != nil {
			return abort(err)
		}
	}

	radio := fallbackChoices(task, cmd.String("fallback"))

	if cmd.Bool("dry-run") {
		wait()
		r.writePlain("%s", ui.FileTable(*task))
		if len(radio) > 0 {
			r.writePlain("%d files would use the fallback %q\n", len(radio), cmd.String("fallback"))
		}
		return abort(nil)
	}

	if cmd.Bool("post-process") {
		res, err := r.pipeline.PostProcess(ctx, pipeline.PostProcRequest{Action: string(tasks.ActionPostProc), TaskID: id})
		if err != nil {
			if res != nil && res.Script != nil {
				logger.Error("post-process script failed", "exit_code", res.Script.ExitCode, "output", res.Script.Output)
			}
			return abort(err)
		}
	}

	summary, err := r.pipeline.Finish(ctx, pipeline.FinishRequest{
		Action:      string(tasks.ActionProcess),
		TaskID:      id,
		RadioValues: radio,
		Progress:    progress,
	})
	wait()
	if err != nil {
		var incomplete *tasks.IncompleteResolutionError
		if errors.As(err, &incomplete) {
			r.writePlain("%s", ui.FileTable(*task))
			r.writePlain("%s\n", ui.Styles().Help("Pass --fallback ignore|delete|<date> to resolve the rest"))
		}
		return abort(err)
	}

	return r.writeSummary(summary, format)
}

// interactive runs the resolution TUI over task and returns the task as the user left it.
func (r *Runner) interactive(ctx context.Context, task *models.Task) (*models.Task, error) {
	model := ui.NewResolveModel(*task, r.fixFile(ctx, task.ID))
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(r.output))
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("resolution UI failed: %w", err)
	}
	if !model.Done() {
		return nil, fmt.Errorf("%w: resolution abandoned", context.Canceled)
	}

	resolved := model.Task()
	return &resolved, nil
}

// fixFile sends one per-file choice for taskID through the pipeline.
func (r *Runner) fixFile(ctx context.Context, taskID string) ui.Resolver {
	return func(fileID string, kind models.SourceKind, value string) (*models.Task, error) {
		return r.pipeline.FixFiles(ctx, pipeline.FixRequest{
			Action: string(tasks.ActionFixFiles),
			TaskID: taskID,
			FileID: fileID,
			Kind:   string(kind),
			Value:  value,
		})
	}
}

// fallbackChoices maps every unresolved file of task to choice.
func fallbackChoices(task *models.Task, choice string) map[string]string {
	if choice == "" || task == nil {
		return nil
	}
	radio := make(map[string]string)
	for _, f := range task.Files {
		if !f.Disposition.Resolved() {
			radio[tasks.RadioKeyPrefix+f.ID] = choice
		}
	}
	return radio
}

// watch prints progress updates while a command runs. The returned func stops the
// printer and may be called more than once.
func (r *Runner) watch(enabled bool) (chan tasks.ProgressUpdate, func()) {
	if !enabled {
		return nil, func() {}
	}

	ch := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range ch {
			r.writePlain("%s\n", ui.ProgressLine(u))
		}
	}()

	return ch, sync.OnceFunc(func() {
		close(ch)
		<-done
	})
}

func (r *Runner) writeSummary(summary *models.Summary, format formatter.Format) error {
	if format == formatter.FormatText {
		return r.writePlain("%s", ui.SummaryView(summary))
	}

	data, err := formatter.Export(summary, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
