package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/photox/internal/formatter"
	"github.com/desertthunder/photox/internal/pipeline"
	"github.com/desertthunder/photox/internal/shared"
	"github.com/desertthunder/photox/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ReportsList prints stored reports, newest first.
func (r *Runner) ReportsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx, cmd); err != nil {
		return err
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if stage := strings.TrimSpace(cmd.String("stage")); stage != "" {
		criteria["stage"] = strings.ToUpper(stage)
	}
	if source := cmd.String("source"); source != "" {
		criteria["source_folder"] = source
	}

	reports, err := r.reports.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		summaries := make([]any, len(reports))
		for i, rep := range reports {
			summaries[i] = rep.Summary()
		}
		return r.writeJSON(summaries, true)
	}

	if len(reports) == 0 {
		return r.writePlain("No reports stored.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Reports (%d)", len(reports)))
	for _, rep := range reports {
		s := rep.Summary()
		r.writePlain("%-36s  %-9s  %s  edited %d, deleted %d, exported %d  %s\n",
			rep.ID(), s.Stage, shared.FormatDate(s.CompletedAt),
			len(s.Edited), len(s.Deleted), len(s.Exported), s.SourceFolder)
	}
	return nil
}

// ReportsShow prints one report, or writes it under --output.
func (r *Runner) ReportsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("task_id")
	if id == "" {
		return fmt.Errorf("%w: task_id", shared.ErrMissingArgument)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.open(ctx, cmd); err != nil {
		return err
	}

	summary, err := r.pipeline.Finish(ctx, pipeline.FinishRequest{Action: string(tasks.ActionResults), TaskID: id})
	if err != nil {
		return err
	}

	if dir := cmd.String("output"); dir != "" {
		path, err := formatter.WriteReport(summary, dir, format)
		if err != nil {
			return err
		}
		r.logger.Info("report written", "path", path)
		return r.writePlain("✓ Report saved to %s\n", path)
	}

	data, err := formatter.Export(summary, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// ReportsDelete removes a stored report.
func (r *Runner) ReportsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("task_id")
	if id == "" {
		return fmt.Errorf("%w: task_id", shared.ErrMissingArgument)
	}
	if err := r.open(ctx, cmd); err != nil {
		return err
	}

	if err := r.reports.Delete(id); err != nil {
		return err
	}
	return r.writePlain("✓ Report %s deleted\n", id)
}

// PostProcess runs the post-process script on the export folder.
func (r *Runner) PostProcess(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx, cmd); err != nil {
		return err
	}

	res, err := r.pipeline.PostProcess(ctx, pipeline.PostProcRequest{Action: string(tasks.ActionPostProc)})
	if res != nil && res.Script != nil {
		if cmd.Bool("json") {
			if werr := r.writeJSON(res.Script, true); werr != nil {
				return werr
			}
		} else {
			r.writePlainHeader(fmt.Sprintf("%s (exit %d)", res.Script.Command, res.Script.ExitCode))
			for _, line := range res.Script.Output {
				r.writePlain("%s\n", line)
			}
		}
	}
	return err
}
