package services

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
)

var quiet = log.New(io.Discard)

func writeFile(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(filepath.Base(path)), 0644))
	if !mtime.IsZero() {
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
}

func newService(t *testing.T) (*FolderService, *shared.Config) {
	t.Helper()
	base := t.TempDir()

	cfg := shared.DefaultConfig()
	cfg.Folders.Originals = filepath.Join(base, "originals")
	cfg.Folders.Import = filepath.Join(base, "import")
	cfg.Folders.Export = filepath.Join(base, "export")
	cfg.Tasks.Workers = 2

	svc, err := NewFolderService(cfg, quiet)
	require.NoError(t, err)
	return svc, cfg
}

func TestNewFolderServiceRejectsBadGlob(t *testing.T) {
	cfg := shared.DefaultConfig()
	cfg.Media.Include = []string{"**/*.{jpg"}

	_, err := NewFolderService(cfg, quiet)
	assert.ErrorIs(t, err, shared.ErrInvalidConfig)
}

func TestList(t *testing.T) {
	svc, cfg := newService(t)
	root := cfg.Folders.Originals

	writeFile(t, filepath.Join(root, "2020 trip", "a.jpg"), time.Time{})
	writeFile(t, filepath.Join(root, "2020 trip", "day1", "b.jpg"), time.Time{})
	writeFile(t, filepath.Join(root, "birthday", "c.jpg"), time.Time{})
	writeFile(t, filepath.Join(root, ".cache", "x"), time.Time{})
	writeFile(t, filepath.Join(root, "loose.jpg"), time.Time{})

	folders, err := svc.List(root)
	require.NoError(t, err)
	require.Len(t, folders, 2)

	assert.Equal(t, "2020 trip", folders[0].Name)
	assert.Equal(t, 1, folders[0].Files)
	assert.Equal(t, 1, folders[0].Folders)
	assert.Equal(t, "birthday", folders[1].Name)

	_, err = svc.List(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestStageAndScan(t *testing.T) {
	svc, cfg := newService(t)
	src := filepath.Join(cfg.Folders.Originals, "trip")
	mtime := time.Date(2020, 3, 10, 9, 30, 0, 0, time.UTC)

	writeFile(t, filepath.Join(src, "b.jpg"), mtime)
	writeFile(t, filepath.Join(src, "a.JPG"), mtime)
	writeFile(t, filepath.Join(src, "2020", "07", "clip.mp4"), mtime)
	writeFile(t, filepath.Join(src, "notes.txt"), mtime)
	writeFile(t, filepath.Join(src, ".DS_Store"), mtime)

	writeFile(t, filepath.Join(cfg.Folders.Import, "task-1", "stale.jpg"), time.Time{})
	writeFile(t, filepath.Join(cfg.Folders.Import, "task-2", "other.jpg"), time.Time{})

	steps := 0
	root, err := svc.Stage(context.Background(), "task-1", src, func(step, total int, _ string) {
		steps++
		assert.Equal(t, 5, total)
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Folders.Import, "task-1"), root)
	assert.Equal(t, 5, steps)
	assert.NoFileExists(t, filepath.Join(root, "stale.jpg"))
	assert.FileExists(t, filepath.Join(cfg.Folders.Import, "task-2", "other.jpg"))

	info, err := os.Stat(filepath.Join(root, "b.jpg"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime), "modification time not preserved: %v", info.ModTime())

	scan, err := svc.Scan(context.Background(), root)
	require.NoError(t, err)

	var rels []string
	for _, f := range scan.Media {
		rels = append(rels, f.Rel)
		assert.True(t, f.ModTime.Equal(mtime))
	}
	assert.Equal(t, []string{"2020/07/clip.mp4", "a.JPG", "b.jpg"}, rels)
	assert.Equal(t, []string{filepath.Join(root, "notes.txt")}, scan.Skipped)
}

func TestStageRejectsBadInput(t *testing.T) {
	svc, cfg := newService(t)
	src := filepath.Join(cfg.Folders.Originals, "trip")
	writeFile(t, filepath.Join(src, "a.jpg"), time.Time{})

	tt := []struct {
		name   string
		taskID string
		src    string
		want   error
	}{
		{name: "missing source", taskID: "task-1", src: filepath.Join(cfg.Folders.Originals, "nope"), want: shared.ErrInvalidArgument},
		{name: "missing task id", taskID: " ", src: src, want: shared.ErrMissingArgument},
		{name: "task id with separator", taskID: "../escape", src: src, want: shared.ErrInvalidArgument},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Stage(context.Background(), tc.taskID, tc.src, nil)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.NoDirExists(t, filepath.Join(filepath.Dir(cfg.Folders.Import), "escape"))
}

func TestApply(t *testing.T) {
	svc, cfg := newService(t)
	root := filepath.Join(cfg.Folders.Import, "task-1")
	old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	fixed := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)

	paths := map[string]string{
		"keep":   filepath.Join(root, "album", "keep.jpg"),
		"ignore": filepath.Join(root, "ignore.jpg"),
		"delete": filepath.Join(root, "delete.jpg"),
		"skip":   filepath.Join(root, "notes.txt"),
	}
	for _, p := range paths {
		writeFile(t, p, old)
	}
	writeFile(t, filepath.Join(cfg.Folders.Export, "task-0", "previous.jpg"), time.Time{})

	plan := Plan{
		TaskID:     "task-1",
		ImportRoot: root,
		Files: []models.FileEntry{
			{ID: "1", Path: paths["keep"], Disposition: models.AssignDate(models.KindCustom, fixed)},
			{ID: "2", Path: paths["ignore"], Disposition: models.IgnoreFile()},
			{ID: "3", Path: paths["delete"], Disposition: models.DeleteFile()},
		},
		Skipped: []string{paths["skip"]},
	}

	summary, err := svc.Apply(context.Background(), plan, nil)
	require.NoError(t, err)

	assert.Len(t, summary.Edited, 1)
	assert.Equal(t, []string{"delete.jpg"}, summary.Deleted)
	assert.Equal(t, []string{"ignore.jpg"}, summary.Ignored)
	assert.ElementsMatch(t, []string{"album/keep.jpg", "ignore.jpg", "notes.txt"}, summary.Exported)
	assert.Empty(t, summary.Errors)

	exportRoot := filepath.Join(cfg.Folders.Export, "task-1")
	info, err := os.Stat(filepath.Join(exportRoot, "album", "keep.jpg"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(fixed))

	assert.FileExists(t, filepath.Join(cfg.Folders.Export, "task-0", "previous.jpg"))
	assert.NoFileExists(t, paths["delete"])
	assert.NoFileExists(t, filepath.Join(exportRoot, "delete.jpg"))
	assert.NoDirExists(t, root)
}

func TestApplyFailsBeforeTouchingFiles(t *testing.T) {
	svc, cfg := newService(t)
	root := filepath.Join(cfg.Folders.Import, "task-1")
	target := filepath.Join(root, "a.jpg")
	writeFile(t, target, time.Time{})

	plan := Plan{
		TaskID:     "task-1",
		ImportRoot: root,
		Files:      []models.FileEntry{{ID: "1", Path: target, Disposition: models.DeleteFile()}},
	}

	t.Run("export folder unset", func(t *testing.T) {
		noExport := *cfg
		noExport.Folders.Export = ""
		svc, err := NewFolderService(&noExport, quiet)
		require.NoError(t, err)

		_, err = svc.Apply(context.Background(), plan, nil)
		assert.ErrorIs(t, err, shared.ErrMissingConfig)
		assert.FileExists(t, target)
	})

	t.Run("missing task id", func(t *testing.T) {
		bad := plan
		bad.TaskID = ""
		_, err := svc.Apply(context.Background(), bad, nil)
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
		assert.FileExists(t, target)
	})
}

func TestApplyStopsWhenCancelled(t *testing.T) {
	svc, cfg := newService(t)
	root := cfg.Folders.Import
	writeFile(t, filepath.Join(root, "a.jpg"), time.Time{})
	writeFile(t, filepath.Join(root, "b.jpg"), time.Time{})

	calls := 0
	plan := Plan{
		TaskID:     "task-1",
		ImportRoot: root,
		Files: []models.FileEntry{
			{ID: "1", Path: filepath.Join(root, "a.jpg"), Disposition: models.DeleteFile()},
			{ID: "2", Path: filepath.Join(root, "b.jpg"), Disposition: models.DeleteFile()},
		},
		Cancelled: func() bool {
			calls++
			return calls > 1
		},
	}

	summary, err := svc.Apply(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, summary.Deleted)
	assert.FileExists(t, filepath.Join(root, "b.jpg"))
}

func TestScriptService(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	t.Run("captures output", func(t *testing.T) {
		svc := NewScriptService(shared.ScriptConfig{
			Command: "sh",
			Args:    []string{"-c", `echo "processing $0"; echo done 1>&2`},
		}, quiet)

		res, err := svc.Run(context.Background(), "/srv/import")
		require.NoError(t, err)
		assert.Equal(t, 0, res.ExitCode)
		assert.Contains(t, res.Output, "processing /srv/import")
		assert.Contains(t, res.Output, "done")
	})

	t.Run("non-zero exit", func(t *testing.T) {
		svc := NewScriptService(shared.ScriptConfig{Command: "sh", Args: []string{"-c", "exit 3"}}, quiet)

		res, err := svc.Run(context.Background(), "/srv/import")
		require.True(t, errors.Is(err, shared.ErrScriptFailed))
		require.NotNil(t, res)
		assert.Equal(t, 3, res.ExitCode)
	})

	t.Run("missing command", func(t *testing.T) {
		_, err := NewScriptService(shared.ScriptConfig{}, quiet).Run(context.Background(), "/srv/import")
		assert.ErrorIs(t, err, shared.ErrMissingConfig)
	})
}
