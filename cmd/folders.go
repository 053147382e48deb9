package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/photox/internal/pipeline"
	"github.com/desertthunder/photox/internal/shared"
	"github.com/desertthunder/photox/internal/tasks"
	"github.com/desertthunder/photox/internal/ui"
	"github.com/urfave/cli/v3"
)

// Folders lists the folders under path (default: the originals folder) and records them
// so their processed flags can be toggled.
func (r *Runner) Folders(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx, cmd); err != nil {
		return err
	}

	res, err := r.pipeline.Select(ctx, pipeline.SelectRequest{
		Action:      string(tasks.ActionInit),
		CurrentPath: cmd.StringArg("path"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}
	return r.writePlain("%s", ui.FolderList(res.Path, res.Folders))
}

// FlagsList prints every recorded path under the optional prefix.
func (r *Runner) FlagsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx, cmd); err != nil {
		return err
	}

	flags, err := r.flags.List(cmd.StringArg("prefix"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(flags, true)
	}

	if len(flags) == 0 {
		return r.writePlain("No recorded folders. Run 'photox folders' first.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Recorded folders (%d)", len(flags)))
	for _, f := range flags {
		mark := "[ ]"
		if f.Processed {
			mark = "[x]"
		}
		r.writePlain("%s %s\n", mark, f.Path)
	}
	return nil
}

// FlagsToggle flips the stored processed flag of a recorded path.
func (r *Runner) FlagsToggle(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if err := r.open(ctx, cmd); err != nil {
		return err
	}

	current, err := r.flags.Get(path)
	if err != nil {
		if errors.Is(err, shared.ErrUnknownPath) {
			return &tasks.UnknownPathError{Path: path}
		}
		return err
	}

	res, err := r.pipeline.ToggleProcessed(ctx, pipeline.ToggleRequest{Path: path, Flag: current.Processed})
	if err != nil {
		return err
	}

	state := "not processed"
	if res.Processed {
		state = "processed"
	}
	return r.writePlain("✓ %s marked %s\n", res.Path, state)
}
