package tasks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
)

// Selection is one per-file choice: a kind plus, for custom, a date value.
type Selection struct {
	FileID string
	Kind   models.SourceKind
	Value  string
}

// decide computes the disposition sel produces for f without mutating anything.
func decide(f *models.FileEntry, kind models.SourceKind, value string) (models.Disposition, error) {
	switch {
	case kind == models.KindIgnore:
		return models.IgnoreFile(), nil
	case kind == models.KindDelete:
		return models.DeleteFile(), nil
	case kind == models.KindCustom:
		t, err := shared.ParseDate(value)
		if err != nil {
			return models.Disposition{}, &InvalidDateError{FileID: f.ID, Value: value, Reason: "custom date must be a valid date"}
		}
		return models.AssignDate(models.KindCustom, t), nil
	case kind.IsCandidate():
		t, ok := f.Candidate(kind)
		if !ok {
			return models.Disposition{}, &InvalidDateError{FileID: f.ID, Reason: fmt.Sprintf("no %s date for this file", kind)}
		}
		return models.AssignDate(kind, t), nil
	default:
		return models.Disposition{}, fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidInput, kind)
	}
}

func (h *Handle) file(id string) (*models.FileEntry, error) {
	i, ok := h.e.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownFile, id)
	}
	return &h.e.task.Files[i], nil
}

// ApplyPerFile sets the disposition of one file.
func (h *Handle) ApplyPerFile(fileID string, kind models.SourceKind, value string) (models.FileEntry, error) {
	f, err := h.file(fileID)
	if err != nil {
		return models.FileEntry{}, err
	}

	d, err := decide(f, kind, value)
	if err != nil {
		return models.FileEntry{}, err
	}

	f.Disposition = d
	return f.Clone(), nil
}

// ApplyBulk applies kind to every file on which it is legal and returns the full file list.
//
// A custom value is validated once and applied to every file. Metadata kinds skip files
// lacking that candidate, which keep their current disposition.
func (h *Handle) ApplyBulk(kind models.SourceKind, value string) ([]models.FileEntry, error) {
	if _, ok := models.ParseSourceKind(string(kind)); !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidInput, kind)
	}

	var custom models.Disposition
	if kind == models.KindCustom {
		t, err := shared.ParseDate(value)
		if err != nil {
			return nil, &InvalidDateError{Value: value, Reason: "custom date must be a valid date"}
		}
		custom = models.AssignDate(models.KindCustom, t)
	}

	files := h.e.task.Files
	for i := range files {
		f := &files[i]
		switch {
		case kind == models.KindCustom:
			f.Disposition = custom
		case kind.IsCandidate():
			if t, ok := f.Candidate(kind); ok {
				f.Disposition = models.AssignDate(kind, t)
			}
		default:
			d, _ := decide(f, kind, value)
			f.Disposition = d
		}
	}

	return h.Snapshot().Files, nil
}

// ApplyBatch validates every selection and applies them only if all are valid.
// Every failure is reported, joined.
func (h *Handle) ApplyBatch(selections []Selection) error {
	targets, decided, err := h.prepare(selections)
	if err != nil {
		return err
	}
	for i, f := range targets {
		f.Disposition = decided[i]
	}
	return nil
}

// Preview returns a copy of the file list with selections applied, failing exactly when
// [Handle.Commit] would. The task itself is not changed.
func (h *Handle) Preview(selections []Selection) ([]models.FileEntry, error) {
	targets, decided, err := h.prepare(selections)
	if err != nil {
		return nil, err
	}

	files := h.Snapshot().Files
	for i, f := range targets {
		files[h.e.index[f.ID]].Disposition = decided[i]
	}

	var ids []string
	for _, f := range files {
		if !f.Disposition.Resolved() {
			ids = append(ids, f.ID)
		}
	}
	if len(ids) > 0 {
		return nil, &IncompleteResolutionError{FileIDs: ids}
	}
	return files, nil
}

// Commit applies selections only when, together with the dispositions already set,
// they resolve every file. Otherwise nothing changes and the error lists what is left.
func (h *Handle) Commit(selections []Selection) error {
	if _, err := h.Preview(selections); err != nil {
		return err
	}
	return h.ApplyBatch(selections)
}

func (h *Handle) prepare(selections []Selection) ([]*models.FileEntry, []models.Disposition, error) {
	decided := make([]models.Disposition, len(selections))
	targets := make([]*models.FileEntry, len(selections))
	var errs []error

	for i, sel := range selections {
		f, err := h.file(sel.FileID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d, err := decide(f, sel.Kind, sel.Value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		decided[i], targets[i] = d, f
	}

	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return targets, decided, nil
}

// CheckResolved returns an [IncompleteResolutionError] naming every unresolved file in discovery order.
func (h *Handle) CheckResolved() error {
	var ids []string
	for _, f := range h.e.task.Files {
		if !f.Disposition.Resolved() {
			ids = append(ids, f.ID)
		}
	}
	if len(ids) > 0 {
		return &IncompleteResolutionError{FileIDs: ids}
	}
	return nil
}

// Unresolved reports how many files still lack a disposition.
func (h *Handle) Unresolved() int {
	n := 0
	for _, f := range h.e.task.Files {
		if !f.Disposition.Resolved() {
			n++
		}
	}
	return n
}

// ApplyPerFile resolves one file of task id, moving the task to FIX.
func (r *Registry) ApplyPerFile(id, fileID string, kind models.SourceKind, value string) (models.FileEntry, error) {
	h, err := r.Begin(ActionFixFiles, id)
	if err != nil {
		return models.FileEntry{}, err
	}
	defer h.Release()

	entry, err := h.ApplyPerFile(fileID, kind, value)
	if err != nil {
		return models.FileEntry{}, err
	}
	h.Advance()
	h.Report(nil, resolveUpdate(len(h.e.task.Files), h.Unresolved()))
	return entry, nil
}

// ApplyBulk broadcasts kind across task id, moving the task to FIX.
func (r *Registry) ApplyBulk(id string, kind models.SourceKind, value string) ([]models.FileEntry, error) {
	h, err := r.Begin(ActionFixFiles, id)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	files, err := h.ApplyBulk(kind, value)
	if err != nil {
		return nil, err
	}
	h.Advance()
	h.Report(nil, resolveUpdate(len(files), h.Unresolved()))
	return files, nil
}

// ParseRadioValue converts one radio_values entry into a selection.
//
// Keys may carry the "choices_fileid_" prefix. Values are a kind name, "custom:<date>",
// or a bare date which is read as custom.
func ParseRadioValue(key, value string) (Selection, error) {
	id := strings.TrimPrefix(strings.TrimSpace(key), RadioKeyPrefix)
	if id == "" {
		return Selection{}, fmt.Errorf("%w: empty file id in radio_values", shared.ErrInvalidInput)
	}

	value = strings.TrimSpace(value)
	if k, ok := models.ParseSourceKind(value); ok {
		if k == models.KindCustom {
			return Selection{}, &InvalidDateError{FileID: id, Reason: "custom requires a date"}
		}
		return Selection{FileID: id, Kind: k}, nil
	}

	if kind, date, ok := strings.Cut(value, ":"); ok && strings.EqualFold(kind, string(models.KindCustom)) {
		return Selection{FileID: id, Kind: models.KindCustom, Value: date}, nil
	}

	if _, err := shared.ParseDate(value); err != nil {
		return Selection{}, &InvalidDateError{FileID: id, Value: value, Reason: "not a kind or a date"}
	}
	return Selection{FileID: id, Kind: models.KindCustom, Value: value}, nil
}

// RadioKeyPrefix is the optional prefix of radio_values keys.
const RadioKeyPrefix = "choices_fileid_"
