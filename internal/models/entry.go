package models

import (
	"encoding/json"
	"maps"
	"sort"
	"time"
)

const dateLayout = "2006-01-02 15:04:05"

// DispositionType tags the variant held by a [Disposition].
type DispositionType int

const (
	Unresolved DispositionType = iota
	Ignored
	Deleted
	Assigned
)

func (t DispositionType) String() string {
	switch t {
	case Ignored:
		return "ignore"
	case Deleted:
		return "delete"
	case Assigned:
		return "assign"
	default:
		return "unresolved"
	}
}

// Disposition is the chosen fate of one file. Source and Date are meaningful only when Type is Assigned.
type Disposition struct {
	Type   DispositionType
	Source SourceKind
	Date   time.Time
}

func IgnoreFile() Disposition { return Disposition{Type: Ignored} }
func DeleteFile() Disposition { return Disposition{Type: Deleted} }

// AssignDate picks date from source for a file.
func AssignDate(source SourceKind, date time.Time) Disposition {
	return Disposition{Type: Assigned, Source: source, Date: date.UTC()}
}

// Resolved reports whether a choice has been made.
func (d Disposition) Resolved() bool { return d.Type != Unresolved }

// Choice is the kind a client would send to produce d, empty while unresolved.
func (d Disposition) Choice() SourceKind {
	switch d.Type {
	case Ignored:
		return KindIgnore
	case Deleted:
		return KindDelete
	case Assigned:
		return d.Source
	default:
		return ""
	}
}

type dispositionJSON struct {
	Type   string     `json:"type"`
	Source SourceKind `json:"source,omitempty"`
	Date   string     `json:"date,omitempty"`
}

func (d Disposition) MarshalJSON() ([]byte, error) {
	out := dispositionJSON{Type: d.Type.String()}
	if d.Type == Assigned {
		out.Source = d.Source
		out.Date = d.Date.UTC().Format(dateLayout)
	}
	return json.Marshal(out)
}

// FileEntry is one file staged for import together with its date candidates.
//
// Candidates only ever contains kinds for which [SourceKind.IsCandidate] is true.
type FileEntry struct {
	ID          string
	Path        string
	ModTime     time.Time
	Size        int64
	Candidates  map[SourceKind]time.Time
	Disposition Disposition
}

// Candidate returns the date recorded for kind, if any.
func (f FileEntry) Candidate(kind SourceKind) (time.Time, bool) {
	t, ok := f.Candidates[kind]
	return t, ok
}

// Kinds returns the candidate kinds present on f in a stable order.
func (f FileEntry) Kinds() []SourceKind {
	kinds := make([]SourceKind, 0, len(f.Candidates))
	for _, k := range SourceKinds {
		if _, ok := f.Candidates[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Clone returns a deep copy so snapshots never alias registry state.
func (f FileEntry) Clone() FileEntry {
	c := f
	c.Candidates = maps.Clone(f.Candidates)
	return c
}

type fileEntryJSON struct {
	ID          string            `json:"file_id"`
	Path        string            `json:"path"`
	ModTime     string            `json:"modified"`
	Size        int64             `json:"size"`
	Candidates  map[string]string `json:"candidates"`
	Disposition Disposition       `json:"disposition"`
}

func (f FileEntry) MarshalJSON() ([]byte, error) {
	candidates := make(map[string]string, len(f.Candidates))
	for k, v := range f.Candidates {
		candidates[string(k)] = v.UTC().Format(dateLayout)
	}
	return json.Marshal(fileEntryJSON{
		ID:          f.ID,
		Path:        f.Path,
		ModTime:     f.ModTime.UTC().Format(dateLayout),
		Size:        f.Size,
		Candidates:  candidates,
		Disposition: f.Disposition,
	})
}

// DateRange bounds the dates considered plausible for an import. A zero bound is unset.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Complete reports whether both bounds are set.
func (r DateRange) Complete() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// Task is a point-in-time copy of one import job.
type Task struct {
	ID           string      `json:"task_id"`
	Stage        Stage       `json:"stage"`
	SourceFolder string      `json:"source_folder,omitempty"`
	ImportFolder string      `json:"import_folder,omitempty"`
	Range        DateRange   `json:"range"`
	Files        []FileEntry `json:"files"`
	Skipped      []string    `json:"skipped,omitempty"`
	Script       *Script     `json:"script,omitempty"`
	Cancelled    bool        `json:"cancelled"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Unresolved returns the ids of files with no disposition, sorted.
func (t Task) Unresolved() []string {
	var ids []string
	for _, f := range t.Files {
		if !f.Disposition.Resolved() {
			ids = append(ids, f.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// File looks up an entry by id.
func (t Task) File(id string) (FileEntry, bool) {
	for _, f := range t.Files {
		if f.ID == id {
			return f, true
		}
	}
	return FileEntry{}, false
}

// ScannedFile is one file found under an import root.
type ScannedFile struct {
	Path    string    // Absolute or root-joined path
	Rel     string    // Slash-separated path relative to the root
	ModTime time.Time // Modification time as reported by the filesystem
	Size    int64
}

// ScanResult lists the files under a root in discovery order.
type ScanResult struct {
	Root    string
	Media   []ScannedFile
	Skipped []string
}
