package tasks

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
)

// Scanner lists the files under an import root.
type Scanner interface {
	Scan(ctx context.Context, root string) (*models.ScanResult, error)
}

// ParseRange validates a start and end date pair.
//
// With requireBoth unset, either bound may be empty. An end date given without a time
// covers the whole of that day.
func ParseRange(start, end string, requireBoth bool) (models.DateRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	invalid := func(reason string) error {
		return &InvalidRangeError{Start: start, End: end, Reason: reason}
	}

	if requireBoth && (start == "" || end == "") {
		return models.DateRange{}, invalid("start_date and end_date are required")
	}

	var rng models.DateRange
	if start != "" {
		t, err := shared.ParseDate(start)
		if err != nil {
			return models.DateRange{}, invalid("start_date is not a valid date")
		}
		rng.Start = t
	}
	if end != "" {
		t, err := shared.ParseDate(end)
		if err != nil {
			return models.DateRange{}, invalid("end_date is not a valid date")
		}
		if !strings.Contains(end, ":") {
			t = t.Add(24*time.Hour - time.Second)
		}
		rng.End = t
	}

	if rng.Complete() && rng.Start.After(rng.End) {
		return models.DateRange{}, invalid("start_date is after end_date")
	}
	return rng, nil
}

// Analyze replaces the task's file list with entries built from scan.
//
// Every media file gets start_date and end_date candidates from rng, plus file_date,
// filename and pathname candidates when those fall inside rng. The cancel flag is
// checked between files; a cancelled analysis keeps the entries built so far. When ctx ends
// first the task is left as it was.
func (h *Handle) Analyze(ctx context.Context, scan *models.ScanResult, rng models.DateRange, progress chan<- ProgressUpdate) error {
	total := len(scan.Media)
	files := make([]models.FileEntry, 0, total)
	index := make(map[string]int, total)
	now := h.r.now()

	h.Report(progress, analyzeStartUpdate(total))
	for i, sf := range scan.Media {
		if h.Cancelled() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := models.FileEntry{
			ID:         h.r.newFileID(now),
			Path:       sf.Path,
			ModTime:    sf.ModTime.UTC(),
			Size:       sf.Size,
			Candidates: candidates(sf, rng),
		}
		index[entry.ID] = len(files)
		files = append(files, entry)

		h.Report(progress, analyzeFileUpdate(i+1, total, sf.Path))
	}

	h.e.task.Range = rng
	h.e.task.Skipped = append([]string(nil), scan.Skipped...)
	h.e.task.Files = files
	h.e.index = index
	return nil
}

func candidates(sf models.ScannedFile, rng models.DateRange) map[models.SourceKind]time.Time {
	c := make(map[models.SourceKind]time.Time, 5)
	if !rng.Start.IsZero() {
		c[models.KindStartDate] = rng.Start
	}
	if !rng.End.IsZero() {
		c[models.KindEndDate] = rng.End
	}

	inRange := func(t time.Time) bool { return shared.InRange(t, rng.Start, rng.End) }

	if mt := sf.ModTime.UTC(); !mt.IsZero() && inRange(mt) {
		c[models.KindFileDate] = mt
	}

	rel := sf.Rel
	if rel == "" {
		rel = path.Base(sf.Path)
	}
	if t, ok := shared.DateFromFilename(path.Base(rel)); ok && inRange(t) {
		c[models.KindFilename] = t
	}
	if dir := path.Dir(rel); dir != "." && dir != "/" {
		if t, ok := shared.DateFromPath(dir); ok && inRange(t) {
			c[models.KindPathname] = t
		}
	}
	return c
}
