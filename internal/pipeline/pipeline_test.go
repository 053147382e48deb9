package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/photox/internal/formatter"
	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/repositories"
	"github.com/desertthunder/photox/internal/services"
	"github.com/desertthunder/photox/internal/shared"
	"github.com/desertthunder/photox/internal/tasks"
	th "github.com/desertthunder/photox/internal/testing"
)

type fixture struct {
	p         *Pipeline
	folders   *th.MockFolders
	processor *th.MockProcessor
	runner    *th.MockRunner
	reports   *repositories.ReportRepository
	cfg       shared.FoldersConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, shared.RunMigrations(db))
	t.Cleanup(func() { db.Close() })

	base := t.TempDir()
	cfg := shared.FoldersConfig{
		Originals: "/photos",
		Import:    filepath.Join(base, "import"),
		Export:    filepath.Join(base, "export"),
		Reports:   filepath.Join(base, "reports"),
	}

	f := &fixture{
		folders: &th.MockFolders{
			ImportDir: cfg.Import,
			Listing: map[string][]models.FolderInfo{
				"/photos": {
					{Name: "2020 trip", Path: "/photos/2020 trip", Files: 3},
					{Name: "birthday", Path: "/photos/birthday", Files: 1},
				},
				"/photos/2020 trip": {
					{Name: "day1", Path: "/photos/2020 trip/day1", Files: 2},
				},
			},
		},
		processor: &th.MockProcessor{},
		runner:    &th.MockRunner{Output: []string{"indexed 3 files"}},
		reports:   repositories.NewReportRepository(db),
		cfg:       cfg,
	}

	scanner := &th.MockScanner{Result: &models.ScanResult{
		Media: []models.ScannedFile{
			{Path: cfg.Import + "/a.jpg", Rel: "a.jpg", ModTime: time.Date(2020, 3, 10, 9, 30, 0, 0, time.UTC)},
			{Path: cfg.Import + "/IMG_20200704.jpg", Rel: "IMG_20200704.jpg", ModTime: time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC)},
			{Path: cfg.Import + "/c.jpg", Rel: "c.jpg", ModTime: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		Skipped: []string{cfg.Import + "/notes.txt"},
	}}

	quiet := log.New(io.Discard)
	f.p, err = New(Options{
		Registry:  tasks.NewRegistry(tasks.RegistryOpts{Logger: quiet}),
		Folders:   f.folders,
		Scanner:   scanner,
		Processor: f.processor,
		Runner:    f.runner,
		Flags:     repositories.NewPathFlagRepository(db),
		Reports:   f.reports,
		Config:    cfg,
		Logger:    quiet,
	})
	require.NoError(t, err)
	return f
}

// analyzed runs range and analyze over 2020 and returns the task.
func (f *fixture) analyzed(t *testing.T) *models.Task {
	t.Helper()
	ctx := context.Background()

	task, err := f.p.Import(ctx, ImportRequest{Action: "range", ImportFolder: "/photos/2020 trip"})
	require.NoError(t, err)

	task, err = f.p.Import(ctx, ImportRequest{
		Action:    "analyze",
		TaskID:    task.ID,
		StartDate: "2020-01-01",
		EndDate:   "2020-12-31",
	})
	require.NoError(t, err)
	return task
}

func TestNew(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, shared.ErrMissingArgument)
}

func TestSelect(t *testing.T) {
	ctx := context.Background()

	t.Run("lists folders and records their paths", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.p.Select(ctx, SelectRequest{Action: "init"})
		require.NoError(t, err)
		assert.Equal(t, models.StageSelect, res.Stage)
		assert.Equal(t, "/photos", res.Path)
		require.Len(t, res.Folders, 2)
		assert.False(t, res.Folders[0].Processed)

		toggled, err := f.p.ToggleProcessed(ctx, ToggleRequest{Path: "/photos/2020 trip", Flag: false})
		require.NoError(t, err)
		assert.True(t, toggled.Processed)

		again, err := f.p.Select(ctx, SelectRequest{Action: "init", TaskID: res.TaskID})
		require.NoError(t, err)
		assert.Equal(t, res.TaskID, again.TaskID)
		assert.True(t, again.Folders[0].Processed)
		assert.False(t, again.Folders[1].Processed)
	})

	t.Run("descends into folder_name", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.p.Select(ctx, SelectRequest{Action: "init", CurrentPath: "/photos", FolderName: "2020 trip"})
		require.NoError(t, err)
		assert.Equal(t, "/photos/2020 trip", res.Path)
		require.Len(t, res.Folders, 1)
		assert.Equal(t, "day1", res.Folders[0].Name)
	})

	t.Run("rejects bad input before creating a task", func(t *testing.T) {
		f := newFixture(t)

		tc := []struct {
			name string
			req  SelectRequest
			err  error
		}{
			{name: "missing action", req: SelectRequest{}, err: shared.ErrMissingArgument},
			{name: "wrong action", req: SelectRequest{Action: "analyze"}, err: shared.ErrInvalidInput},
			{name: "escaping folder name", req: SelectRequest{Action: "init", FolderName: ".."}, err: shared.ErrInvalidInput},
			{name: "nested folder name", req: SelectRequest{Action: "init", FolderName: "a/b"}, err: shared.ErrInvalidInput},
			{name: "unknown folder", req: SelectRequest{Action: "init", CurrentPath: "/elsewhere"}, err: shared.ErrInvalidArgument},
			{name: "unknown task", req: SelectRequest{Action: "init", TaskID: "nope"}, err: shared.ErrUnknownTask},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.p.Select(ctx, tt.req)
				assert.ErrorIs(t, err, tt.err)
			})
		}
		assert.Equal(t, 0, f.p.Registry().Live())
	})
}

func TestToggleProcessed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.p.ToggleProcessed(ctx, ToggleRequest{Path: "/photos/never-listed"})
	var unknown *tasks.UnknownPathError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "/photos/never-listed", unknown.Path)

	_, err = f.p.ToggleProcessed(ctx, ToggleRequest{})
	assert.ErrorIs(t, err, shared.ErrMissingArgument)

	_, err = f.p.Select(ctx, SelectRequest{Action: "init"})
	require.NoError(t, err)

	res, err := f.p.ToggleProcessed(ctx, ToggleRequest{Path: "/photos/birthday", Flag: true})
	require.NoError(t, err)
	assert.False(t, res.Processed, "stale caller flag is trusted")
}

func TestImport(t *testing.T) {
	ctx := context.Background()

	t.Run("range stages and creates a task", func(t *testing.T) {
		f := newFixture(t)

		task, err := f.p.Import(ctx, ImportRequest{
			Action:       "range",
			ImportFolder: "/photos/2020 trip",
			StartDate:    "2020-01-01",
		})
		require.NoError(t, err)
		assert.Equal(t, models.StageImport, task.Stage)
		assert.Equal(t, "/photos/2020 trip", task.SourceFolder)
		assert.Equal(t, f.cfg.Import, task.ImportFolder)
		assert.Equal(t, 2020, task.Range.Start.Year())
		assert.Equal(t, []string{"/photos/2020 trip"}, f.folders.Staged)
		assert.Equal(t, []string{task.ID}, f.folders.Tasks)
	})

	t.Run("range failures leave no task behind", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.p.Import(ctx, ImportRequest{Action: "range"})
		assert.ErrorIs(t, err, shared.ErrMissingArgument)

		_, err = f.p.Import(ctx, ImportRequest{Action: "range", ImportFolder: "/photos/x", StartDate: "2020-13-01"})
		assert.ErrorIs(t, err, shared.ErrInvalidRange)

		f.folders.StageErr = shared.ErrInvalidArgument
		_, err = f.p.Import(ctx, ImportRequest{Action: "range", ImportFolder: "/photos/x"})
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)

		assert.Equal(t, 0, f.p.Registry().Live())
	})

	t.Run("analyze requires a full range and leaves the stage alone", func(t *testing.T) {
		f := newFixture(t)
		task, err := f.p.Import(ctx, ImportRequest{Action: "range", ImportFolder: "/photos/2020 trip"})
		require.NoError(t, err)

		tc := []struct {
			name       string
			start, end string
		}{
			{name: "missing end", start: "2020-01-01"},
			{name: "unparseable", start: "yesterday", end: "2020-12-31"},
			{name: "inverted", start: "2021-01-01", end: "2020-12-31"},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.p.Import(ctx, ImportRequest{Action: "analyze", TaskID: task.ID, StartDate: tt.start, EndDate: tt.end})
				var invalid *tasks.InvalidRangeError
				assert.ErrorAs(t, err, &invalid)
			})
		}

		snap, err := f.p.Registry().Snapshot(task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageImport, snap.Stage)
		assert.Empty(t, snap.Files)
	})

	t.Run("analyze builds candidates", func(t *testing.T) {
		f := newFixture(t)
		task := f.analyzed(t)

		assert.Equal(t, models.StageAnalyze, task.Stage)
		require.Len(t, task.Files, 3)
		assert.Equal(t, []string{f.cfg.Import + "/notes.txt"}, task.Skipped)

		_, ok := task.Files[0].Candidate(models.KindFileDate)
		assert.True(t, ok)
		filename, ok := task.Files[1].Candidate(models.KindFilename)
		require.True(t, ok)
		assert.Equal(t, time.Date(2020, 7, 4, 0, 0, 0, 0, time.UTC), filename)
		_, ok = task.Files[2].Candidate(models.KindFileDate)
		assert.False(t, ok)
	})

	t.Run("analyze without a task id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.p.Import(ctx, ImportRequest{Action: "analyze", StartDate: "2020-01-01", EndDate: "2020-12-31"})
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})
}

func TestFixFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot, bulk and per-file", func(t *testing.T) {
		f := newFixture(t)
		task := f.analyzed(t)

		snap, err := f.p.FixFiles(ctx, FixRequest{Action: "fixfiles", TaskID: task.ID})
		require.NoError(t, err)
		assert.Equal(t, models.StageFix, snap.Stage)
		assert.Len(t, snap.Unresolved(), 3)

		snap, err = f.p.FixFiles(ctx, FixRequest{Action: "fixfiles", TaskID: task.ID, Kind: "file_date"})
		require.NoError(t, err)
		assert.Len(t, snap.Unresolved(), 1)

		snap, err = f.p.FixFiles(ctx, FixRequest{
			Action: "fixfiles",
			TaskID: task.ID,
			FileID: task.Files[2].ID,
			Kind:   "custom",
			Value:  "2020-05-05",
		})
		require.NoError(t, err)
		assert.Empty(t, snap.Unresolved())
		assert.Equal(t, models.KindCustom, snap.Files[2].Disposition.Source)

		progress, err := f.p.Progress(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, tasks.ResolveFiles, progress.Phase)
		assert.Equal(t, 100, progress.Percent())
	})

	t.Run("invalid input changes nothing", func(t *testing.T) {
		f := newFixture(t)
		task := f.analyzed(t)

		tc := []struct {
			name string
			req  FixRequest
			err  error
		}{
			{name: "bad custom date", req: FixRequest{Action: "fixfiles", TaskID: task.ID, Kind: "custom", Value: "2020-02-30"}, err: shared.ErrInvalidDate},
			{name: "unknown kind", req: FixRequest{Action: "fixfiles", TaskID: task.ID, Kind: "exif"}, err: shared.ErrInvalidInput},
			{name: "file without kind", req: FixRequest{Action: "fixfiles", TaskID: task.ID, FileID: task.Files[0].ID}, err: shared.ErrMissingArgument},
			{name: "unknown file", req: FixRequest{Action: "fixfiles", TaskID: task.ID, FileID: "nope", Kind: "ignore"}, err: shared.ErrUnknownFile},
			{name: "absent candidate", req: FixRequest{Action: "fixfiles", TaskID: task.ID, FileID: task.Files[2].ID, Kind: "file_date"}, err: shared.ErrInvalidDate},
			{name: "unknown task", req: FixRequest{Action: "fixfiles", TaskID: "nope"}, err: shared.ErrUnknownTask},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.p.FixFiles(ctx, tt.req)
				assert.ErrorIs(t, err, tt.err)
			})
		}

		snap, err := f.p.Registry().Snapshot(task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageAnalyze, snap.Stage)
		assert.Len(t, snap.Unresolved(), 3)
	})

	t.Run("going back is rejected", func(t *testing.T) {
		f := newFixture(t)
		task := f.analyzed(t)

		_, err := f.p.FixFiles(ctx, FixRequest{Action: "fixfiles", TaskID: task.ID})
		require.NoError(t, err)

		_, err = f.p.Import(ctx, ImportRequest{Action: "analyze", TaskID: task.ID, StartDate: "2020-01-01", EndDate: "2020-12-31"})
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})
}

func TestPostProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("with a task", func(t *testing.T) {
		f := newFixture(t)
		task := f.analyzed(t)

		res, err := f.p.PostProcess(ctx, PostProcRequest{Action: "postproc", TaskID: task.ID})
		require.NoError(t, err)
		assert.Equal(t, models.StagePostProcess, res.Stage)
		assert.Equal(t, []string{"indexed 3 files"}, res.Script.Output)
		assert.Equal(t, []string{f.cfg.Import}, f.runner.Dirs)
	})

	t.Run("without a task runs on the export folder", func(t *testing.T) {
		f := newFixture(t)

		res, err := f.p.PostProcess(ctx, PostProcRequest{Action: "postproc"})
		require.NoError(t, err)
		assert.Empty(t, res.TaskID)
		assert.Equal(t, []string{f.cfg.Export}, f.runner.Dirs)
	})

	t.Run("script failure keeps the stage", func(t *testing.T) {
		f := newFixture(t)
		task := f.analyzed(t)
		f.runner.Err = shared.ErrScriptFailed

		res, err := f.p.PostProcess(ctx, PostProcRequest{Action: "postproc", TaskID: task.ID})
		require.ErrorIs(t, err, shared.ErrScriptFailed)
		require.NotNil(t, res)
		assert.Equal(t, 1, res.Script.ExitCode)

		snap, _ := f.p.Registry().Snapshot(task.ID)
		assert.Equal(t, models.StageAnalyze, snap.Stage)
	})
}

func TestFinish(t *testing.T) {
	ctx := context.Background()

	t.Run("process requires every file resolved", func(t *testing.T) {
		f := newFixture(t)
		task := f.analyzed(t)

		_, err := f.p.FixFiles(ctx, FixRequest{Action: "fixfiles", TaskID: task.ID, Kind: "file_date"})
		require.NoError(t, err)

		_, err = f.p.Finish(ctx, FinishRequest{Action: "process", TaskID: task.ID})
		var incomplete *tasks.IncompleteResolutionError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, []string{task.Files[2].ID}, incomplete.FileIDs)
		assert.Empty(t, f.processor.Plans)

		snap, err := f.p.Registry().Snapshot(task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageFix, snap.Stage)
	})

	t.Run("process with radio values", func(t *testing.T) {
		f := newFixture(t)
		task := f.analyzed(t)

		summary, err := f.p.Finish(ctx, FinishRequest{
			Action: "process",
			TaskID: task.ID,
			RadioValues: map[string]string{
				tasks.RadioKeyPrefix + task.Files[0].ID: "file_date",
				tasks.RadioKeyPrefix + task.Files[1].ID: "filename",
				task.Files[2].ID:                        "delete",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, models.StageFinished, summary.Stage)
		assert.Equal(t, task.ID, summary.TaskID)
		assert.Equal(t, "/photos/2020 trip", summary.SourceFolder)
		assert.Len(t, summary.Edited, 2)
		assert.Equal(t, []string{"c.jpg"}, summary.Deleted)

		require.Len(t, f.processor.Plans, 1)
		plan := f.processor.Plans[0]
		assert.Equal(t, task.ID, plan.TaskID)
		assert.Equal(t, f.cfg.Import, plan.ImportRoot)
		assert.Equal(t, []string{f.cfg.Import + "/notes.txt"}, plan.Skipped)

		stored, err := f.reports.Get(task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StageFinished, stored.Stage())

		files, err := filepath.Glob(filepath.Join(f.cfg.Reports, "*.yaml"))
		require.NoError(t, err)
		require.Len(t, files, 1)
		fromFile, err := formatter.ReadYAMLReport(files[0])
		require.NoError(t, err)
		assert.Equal(t, summary.Deleted, fromFile.Deleted)

		_, err = f.p.FixFiles(ctx, FixRequest{Action: "fixfiles", TaskID: task.ID})
		assert.ErrorIs(t, err, shared.ErrUnknownTask)
	})

	t.Run("malformed radio values change nothing", func(t *testing.T) {
		f := newFixture(t)
		task := f.analyzed(t)

		_, err := f.p.Finish(ctx, FinishRequest{
			Action: "process",
			TaskID: task.ID,
			RadioValues: map[string]string{
				task.Files[0].ID: "ignore",
				task.Files[1].ID: "custom",
				task.Files[2].ID: "not-a-date",
			},
		})
		require.ErrorIs(t, err, shared.ErrInvalidDate)

		snap, _ := f.p.Registry().Snapshot(task.ID)
		assert.Len(t, snap.Unresolved(), 3)
		assert.Equal(t, models.StageAnalyze, snap.Stage)
	})

	t.Run("failed processing keeps radio values unapplied", func(t *testing.T) {
		f := newFixture(t)
		task := f.analyzed(t)
		radio := map[string]string{
			task.Files[0].ID: "file_date",
			task.Files[1].ID: "filename",
			task.Files[2].ID: "delete",
		}

		f.processor.Err = errors.New("export folder unavailable")
		_, err := f.p.Finish(ctx, FinishRequest{Action: "process", TaskID: task.ID, RadioValues: radio})
		require.Error(t, err)

		snap, err := f.p.Registry().Snapshot(task.ID)
		require.NoError(t, err)
		assert.Len(t, snap.Unresolved(), 3)
		assert.Equal(t, models.StageAnalyze, snap.Stage)

		f.processor.Err = nil
		summary, err := f.p.Finish(ctx, FinishRequest{Action: "process", TaskID: task.ID, RadioValues: radio})
		require.NoError(t, err)
		assert.Equal(t, []string{"c.jpg"}, summary.Deleted)
	})

	t.Run("results", func(t *testing.T) {
		f := newFixture(t)
		task := f.analyzed(t)

		_, err := f.p.Finish(ctx, FinishRequest{Action: "results", TaskID: task.ID})
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)

		_, err = f.p.FixFiles(ctx, FixRequest{Action: "fixfiles", TaskID: task.ID, Kind: "ignore"})
		require.NoError(t, err)
		processed, err := f.p.Finish(ctx, FinishRequest{Action: "process", TaskID: task.ID})
		require.NoError(t, err)

		res, err := f.p.Finish(ctx, FinishRequest{Action: "results", TaskID: task.ID})
		require.NoError(t, err)
		assert.Equal(t, processed.Ignored, res.Ignored)

		f.p.Registry().Sweep(time.Now().Add(2 * tasks.DefaultIdleTimeout))

		res, err = f.p.Finish(ctx, FinishRequest{Action: "results", TaskID: task.ID})
		require.NoError(t, err)
		assert.Equal(t, models.StageFinished, res.Stage)
		assert.Len(t, res.Ignored, 3)

		_, err = f.p.Finish(ctx, FinishRequest{Action: "results", TaskID: "nope"})
		assert.ErrorIs(t, err, shared.ErrUnknownTask)
	})
}

func TestConcurrentTasksOnDisk(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	quiet := log.New(io.Discard)

	cfg := shared.DefaultConfig()
	cfg.Folders = shared.FoldersConfig{
		Originals: filepath.Join(base, "originals"),
		Import:    filepath.Join(base, "import"),
		Export:    filepath.Join(base, "export"),
	}
	mtime := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	th.MustWriteFile(t, filepath.Join(cfg.Folders.Originals, "A", "a_2020-05-05.jpg"), mtime)
	th.MustWriteFile(t, filepath.Join(cfg.Folders.Originals, "B", "b_2020-06-06.jpg"), mtime)

	db, err := shared.NewDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, shared.RunMigrations(db))
	t.Cleanup(func() { db.Close() })

	svc, err := services.NewFolderService(cfg, quiet)
	require.NoError(t, err)
	p, err := New(Options{
		Registry:  tasks.NewRegistry(tasks.RegistryOpts{Logger: quiet}),
		Folders:   svc,
		Scanner:   svc,
		Processor: svc,
		Runner:    &th.MockRunner{},
		Flags:     repositories.NewPathFlagRepository(db),
		Config:    cfg.Folders,
		Logger:    quiet,
	})
	require.NoError(t, err)

	rangeOf := func(name string) *models.Task {
		task, err := p.Import(ctx, ImportRequest{Action: "range", ImportFolder: filepath.Join(cfg.Folders.Originals, name)})
		require.NoError(t, err)
		return task
	}
	analyze := func(id string) *models.Task {
		task, err := p.Import(ctx, ImportRequest{Action: "analyze", TaskID: id, StartDate: "2020-01-01", EndDate: "2020-12-31"})
		require.NoError(t, err)
		return task
	}

	a := rangeOf("A")
	b := rangeOf("B")
	assert.NotEqual(t, a.ImportFolder, b.ImportFolder)

	a = analyze(a.ID)
	b = analyze(b.ID)
	require.Len(t, a.Files, 1)
	require.Len(t, b.Files, 1)
	assert.Equal(t, "a_2020-05-05.jpg", filepath.Base(a.Files[0].Path))
	assert.Equal(t, "b_2020-06-06.jpg", filepath.Base(b.Files[0].Path))

	summary, err := p.Finish(ctx, FinishRequest{
		Action:      "process",
		TaskID:      a.ID,
		RadioValues: map[string]string{a.Files[0].ID: "filename"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_2020-05-05.jpg"}, summary.Exported)

	exported := filepath.Join(cfg.Folders.Export, a.ID, "a_2020-05-05.jpg")
	info, err := os.Stat(exported)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(time.Date(2020, 5, 5, 0, 0, 0, 0, time.UTC)))
	assert.NoDirExists(t, a.ImportFolder)
	assert.FileExists(t, b.Files[0].Path)

	_, err = p.Finish(ctx, FinishRequest{
		Action:      "process",
		TaskID:      b.ID,
		RadioValues: map[string]string{b.Files[0].ID: "filename"},
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Folders.Export, b.ID, "b_2020-06-06.jpg"))
	assert.FileExists(t, exported)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.analyzed(t)

	res, err := f.p.Cancel(ctx, CancelRequest{TaskID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StageCancelled, res.Stage)

	again, err := f.p.Cancel(ctx, CancelRequest{TaskID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StageCancelled, again.Stage)

	unknown, err := f.p.Cancel(ctx, CancelRequest{TaskID: "never-existed"})
	require.NoError(t, err)
	assert.Equal(t, models.StageCancelled, unknown.Stage)

	_, err = f.p.FixFiles(ctx, FixRequest{Action: "fixfiles", TaskID: task.ID})
	assert.ErrorIs(t, err, shared.ErrUnknownTask)

	progress, err := f.p.Progress(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, tasks.Done, progress.Phase)

	_, err = f.p.Cancel(ctx, CancelRequest{})
	assert.ErrorIs(t, err, shared.ErrMissingArgument)
}

func TestProgressChannel(t *testing.T) {
	f := newFixture(t)
	ch := make(chan tasks.ProgressUpdate, 16)

	task, err := f.p.Import(context.Background(), ImportRequest{Action: "range", ImportFolder: "/photos/2020 trip", Progress: ch})
	require.NoError(t, err)

	_, err = f.p.Import(context.Background(), ImportRequest{
		Action:    "analyze",
		TaskID:    task.ID,
		StartDate: "2020-01-01",
		EndDate:   "2020-12-31",
		Progress:  ch,
	})
	require.NoError(t, err)
	close(ch)

	var phases []tasks.Phase
	for u := range ch {
		assert.Equal(t, task.ID, u.TaskID)
		phases = append(phases, u.Phase)
	}
	assert.Contains(t, phases, tasks.StageFiles)
	assert.Contains(t, phases, tasks.ScanFiles)
	assert.Contains(t, phases, tasks.AnalyzeFiles)
}
