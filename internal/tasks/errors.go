package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/photox/internal/shared"
)

// UnknownTaskError reports a task id that is not live.
type UnknownTaskError struct {
	TaskID string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("%v: %s", shared.ErrUnknownTask, e.TaskID)
}

func (e *UnknownTaskError) Is(target error) bool { return target == shared.ErrUnknownTask }

// InvalidRangeError reports a missing, malformed or inverted date range.
type InvalidRangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("%v: %s (start=%q end=%q)", shared.ErrInvalidRange, e.Reason, e.Start, e.End)
}

func (e *InvalidRangeError) Is(target error) bool { return target == shared.ErrInvalidRange }

// InvalidDateError reports a selection whose date cannot be used for a file.
type InvalidDateError struct {
	FileID string
	Value  string
	Reason string
}

func (e *InvalidDateError) Error() string {
	var b strings.Builder
	b.WriteString(shared.ErrInvalidDate.Error())
	if e.FileID != "" {
		fmt.Fprintf(&b, " for file %s", e.FileID)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, ": %q", e.Value)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, " (%s)", e.Reason)
	}
	return b.String()
}

func (e *InvalidDateError) Is(target error) bool { return target == shared.ErrInvalidDate }

// IncompleteResolutionError lists every file still lacking a disposition.
type IncompleteResolutionError struct {
	FileIDs []string
}

func (e *IncompleteResolutionError) Error() string {
	return fmt.Sprintf("%v: %d file(s): %s", shared.ErrIncompleteResolution, len(e.FileIDs), strings.Join(e.FileIDs, ", "))
}

func (e *IncompleteResolutionError) Is(target error) bool {
	return target == shared.ErrIncompleteResolution
}

// UnknownPathError reports a toggle on a path never seen in a folder listing.
type UnknownPathError struct {
	Path string
}

func (e *UnknownPathError) Error() string {
	return fmt.Sprintf("%v: %s", shared.ErrUnknownPath, e.Path)
}

func (e *UnknownPathError) Is(target error) bool { return target == shared.ErrUnknownPath }
