package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
	"github.com/desertthunder/photox/internal/tasks"
)

var indent = lipgloss.NewStyle().PaddingLeft(2)

// FolderList renders the folders under path, marking processed ones.
func FolderList(path string, folders []models.FolderInfo) string {
	var b strings.Builder
	b.WriteString(styles.Title(path))
	b.WriteString("\n")

	if len(folders) == 0 {
		b.WriteString(styles.Help("  (no folders)"))
		b.WriteString("\n")
		return b.String()
	}

	for _, f := range folders {
		mark := styles.Help("[ ]")
		if f.Processed {
			mark = styles.OK("[x]")
		}
		fmt.Fprintf(&b, "  %s %s %s\n", mark, f.Name, styles.Help(fmt.Sprintf("(%d folders, %d files)", f.Folders, f.Files)))
	}
	return b.String()
}

// ProgressLine renders one progress update.
func ProgressLine(u tasks.ProgressUpdate) string {
	phase := fmt.Sprintf("%-14s", u.Phase)
	if u.Total > 0 {
		return fmt.Sprintf("%s %3d%% %s", styles.Title(phase), u.Percent(), u.Message)
	}
	return fmt.Sprintf("%s      %s", styles.Title(phase), u.Message)
}

// FileTable renders the analyzed files of a task with their candidates and current choice.
func FileTable(task models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styles.Title(fmt.Sprintf("Task %s (%s)", task.ID, task.Stage)))
	if !task.Range.Start.IsZero() {
		fmt.Fprintf(&b, "Range: %s to %s\n", shared.FormatDate(task.Range.Start), shared.FormatDate(task.Range.End))
	}

	unresolved := 0
	for _, f := range task.Files {
		label := styles.OK(choice(f.Disposition))
		if !f.Disposition.Resolved() {
			unresolved++
			label = styles.Warn(choice(f.Disposition))
		}

		fmt.Fprintf(&b, "%s  %s  %s\n", styles.Help(f.ID), filepath.Base(f.Path), label)

		var kinds []string
		for _, k := range f.Kinds() {
			t, _ := f.Candidate(k)
			kinds = append(kinds, fmt.Sprintf("%s=%s", k, shared.FormatDate(t)))
		}
		if len(kinds) > 0 {
			b.WriteString(indent.Render(styles.Help(strings.Join(kinds, "  "))))
			b.WriteString("\n")
		}
	}

	if unresolved > 0 {
		b.WriteString(styles.Warn(fmt.Sprintf("%d of %d files unresolved", unresolved, len(task.Files))))
	} else {
		b.WriteString(styles.OK(fmt.Sprintf("All %d files resolved", len(task.Files))))
	}
	b.WriteString("\n")
	return b.String()
}

// choice describes a disposition in plain text.
func choice(d models.Disposition) string {
	if d.Type == models.Assigned {
		return fmt.Sprintf("%s (%s)", shared.FormatDate(d.Date), d.Source)
	}
	return d.Type.String()
}

// SummaryView renders the outcome of a task.
func SummaryView(s *models.Summary) string {
	if s == nil {
		return styles.Err("No result available") + "\n"
	}

	var title string
	switch s.Stage {
	case models.StageCancelled:
		title = styles.Warn(fmt.Sprintf("Task %s cancelled", s.TaskID))
	default:
		title = styles.OK(fmt.Sprintf("✓ Task %s finished", s.TaskID))
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	if s.SourceFolder != "" {
		fmt.Fprintf(&b, "Source: %s\n", s.SourceFolder)
	}
	if !s.CompletedAt.IsZero() && !s.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", s.CompletedAt.Sub(s.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(&b, "Edited: %d  Deleted: %d  Ignored: %d  Exported: %d\n",
		len(s.Edited), len(s.Deleted), len(s.Ignored), len(s.Exported))

	if len(s.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.Err(fmt.Sprintf("%d errors:", len(s.Errors))))
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "\n  • %s", e)
		}
		b.WriteString("\n")
	}

	if sc := s.Script; sc != nil {
		b.WriteString("\n")
		line := fmt.Sprintf("Post process: %s exited %d", sc.Command, sc.ExitCode)
		if sc.ExitCode == 0 {
			b.WriteString(styles.OK(line))
		} else {
			b.WriteString(styles.Err(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
