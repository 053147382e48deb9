package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
)

// FolderService implements [Folders], [Scanner] and [Processor] on the local filesystem.
type FolderService struct {
	folders shared.FoldersConfig
	include []string
	exclude []string
	workers int
	logger  *log.Logger
}

// NewFolderService creates a FolderService. Invalid glob patterns are rejected up front.
func NewFolderService(cfg *shared.Config, logger *log.Logger) (*FolderService, error) {
	for _, p := range append(append([]string{}, cfg.Media.Include...), cfg.Media.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: bad media glob %q", shared.ErrInvalidConfig, p)
		}
	}

	workers := cfg.Tasks.Workers
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = log.Default()
	}

	return &FolderService{
		folders: cfg.Folders,
		include: cfg.Media.Include,
		exclude: cfg.Media.Exclude,
		workers: workers,
		logger:  logger,
	}, nil
}

// List returns the visible subfolders of dir with their immediate file and folder counts, sorted by name.
func (s *FolderService) List(dir string) ([]models.FolderInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var out []models.FolderInfo
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		p := filepath.Join(dir, e.Name())
		info := models.FolderInfo{Name: e.Name(), Path: p}

		children, err := os.ReadDir(p)
		if err != nil {
			s.logger.Warn("unreadable folder", "path", p, "error", err)
			out = append(out, info)
			continue
		}
		for _, c := range children {
			if strings.HasPrefix(c.Name(), ".") {
				continue
			}
			if c.IsDir() {
				info.Folders++
			} else {
				info.Files++
			}
		}
		out = append(out, info)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Stage copies the tree under src into <import>/<taskID>, preserving modification times.
// The task folder is cleared first.
func (s *FolderService) Stage(ctx context.Context, taskID, src string, progress ProgressFunc) (string, error) {
	if s.folders.Import == "" {
		return "", fmt.Errorf("%w: folders.import", shared.ErrMissingConfig)
	}
	root, err := taskDir(s.folders.Import, taskID)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("%w: source folder %s: %v", shared.ErrInvalidArgument, src, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a folder", shared.ErrInvalidArgument, src)
	}

	if err := clearDir(root); err != nil {
		return "", err
	}

	var files []string
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(root, rel), 0755)
		}
		if d.Type().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk %s: %w", src, err)
	}

	total := len(files)
	done := make(chan string, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := copyFile(filepath.Join(src, rel), filepath.Join(root, rel)); err != nil {
				return err
			}
			done <- rel
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(done)
	}()

	step := 0
	for rel := range done {
		step++
		progress.report(step, total, rel)
	}

	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", src, err)
	}

	s.logger.Info("staged import", "task", taskID, "source", src, "files", total)
	return root, nil
}

// Scan walks root in lexical order. Files matching an exclude glob are dropped, files matching an
// include glob are media, and the rest are skipped. Media files are stat'ed concurrently.
func (s *FolderService) Scan(ctx context.Context, root string) (*models.ScanResult, error) {
	result := &models.ScanResult{Root: root}
	var media []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case matchAny(s.exclude, rel):
		case matchAny(s.include, rel):
			media = append(media, rel)
		default:
			result.Skipped = append(result.Skipped, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	result.Media = make([]models.ScannedFile, len(media))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, rel := range media {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := filepath.Join(root, filepath.FromSlash(rel))
			info, err := os.Stat(p)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", p, err)
			}
			result.Media[i] = models.ScannedFile{Path: p, Rel: rel, ModTime: info.ModTime(), Size: info.Size()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("scanned import", "root", root, "media", len(result.Media), "skipped", len(result.Skipped))
	return result, nil
}

// Apply runs dispositions in file order, then moves every surviving file to <export>/<taskID>,
// keeping paths relative to the import root. A staging folder left empty is removed.
//
// Errors are only returned before any file is touched.
func (s *FolderService) Apply(ctx context.Context, plan Plan, progress ProgressFunc) (*models.Summary, error) {
	if s.folders.Export == "" {
		return nil, fmt.Errorf("%w: folders.export", shared.ErrMissingConfig)
	}
	exportRoot, err := taskDir(s.folders.Export, plan.TaskID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(exportRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", exportRoot, err)
	}

	summary := &models.Summary{
		Edited:    []string{},
		Deleted:   []string{},
		Ignored:   []string{},
		Exported:  []string{},
		Errors:    []string{},
		StartedAt: time.Now().UTC(),
	}
	cancelled := func() bool {
		return ctx.Err() != nil || (plan.Cancelled != nil && plan.Cancelled())
	}

	total := 2*len(plan.Files) + len(plan.Skipped)
	step := 0
	survivors := make([]string, 0, total)

	for _, f := range plan.Files {
		if cancelled() {
			return s.stopped(summary), nil
		}
		rel := relTo(plan.ImportRoot, f.Path)

		switch d := f.Disposition; d.Type {
		case models.Ignored:
			summary.Ignored = append(summary.Ignored, rel)
			survivors = append(survivors, f.Path)
		case models.Deleted:
			if err := os.Remove(f.Path); err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("error deleting %s: %v", rel, err))
			} else {
				summary.Deleted = append(summary.Deleted, rel)
			}
		case models.Assigned:
			if err := os.Chtimes(f.Path, d.Date, d.Date); err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s had an error when processing with %s: %v", rel, shared.FormatDate(d.Date), err))
			} else {
				summary.Edited = append(summary.Edited, fmt.Sprintf("%s (%s, %s)", rel, shared.FormatDate(d.Date), d.Source))
			}
			survivors = append(survivors, f.Path)
		default:
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s was not processed", rel))
			survivors = append(survivors, f.Path)
		}

		step++
		progress.report(step, total, rel)
	}

	survivors = append(survivors, plan.Skipped...)
	total = step + len(survivors)
	for _, p := range survivors {
		if cancelled() {
			return s.stopped(summary), nil
		}
		rel := relTo(plan.ImportRoot, p)
		if err := moveFile(p, filepath.Join(exportRoot, filepath.FromSlash(rel))); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("error moving %s to export folder: %v", rel, err))
		} else {
			summary.Exported = append(summary.Exported, rel)
		}
		step++
		progress.report(step, total, rel)
	}

	if len(summary.Errors) == 0 && within(s.folders.Import, plan.ImportRoot) {
		if err := os.RemoveAll(plan.ImportRoot); err != nil {
			s.logger.Warn("failed to remove staging folder", "path", plan.ImportRoot, "error", err)
		}
	}

	summary.CompletedAt = time.Now().UTC()
	s.logger.Info("processed import",
		"task", plan.TaskID, "export", exportRoot,
		"edited", len(summary.Edited), "deleted", len(summary.Deleted),
		"ignored", len(summary.Ignored), "exported", len(summary.Exported), "errors", len(summary.Errors))
	return summary, nil
}

func (s *FolderService) stopped(summary *models.Summary) *models.Summary {
	summary.CompletedAt = time.Now().UTC()
	s.logger.Warn("processing stopped early", "edited", len(summary.Edited), "exported", len(summary.Exported))
	return summary
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func relTo(root, p string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Base(p))
}

// taskDir returns base/taskID, rejecting ids that are not a single path element.
func taskDir(base, taskID string) (string, error) {
	id := strings.TrimSpace(taskID)
	if id == "" {
		return "", fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: task id %q", shared.ErrInvalidArgument, taskID)
	}
	return filepath.Join(base, id), nil
}

// within reports whether p lies strictly below dir.
func within(dir, p string) bool {
	if dir == "" || p == "" {
		return false
	}
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// clearDir removes everything inside dir, creating dir when missing.
func clearDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to clear %s: %w", dir, err)
		}
	}
	return nil
}

// copyFile copies src to dst and carries over the permission bits and modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// moveFile renames src to dst, falling back to copy and remove across devices.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
