package tasks

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
)

// DefaultIdleTimeout applies when [RegistryOpts.IdleTimeout] is not positive.
const DefaultIdleTimeout = 30 * time.Minute

// RegistryOpts configures a [Registry].
type RegistryOpts struct {
	IdleTimeout time.Duration    // Live tasks and tombstones idle longer than this are evicted by Sweep
	Logger      *log.Logger      // Defaults to a stderr logger
	Clock       func() time.Time // Defaults to time.Now
}

// Registry owns every live task and the tombstones of terminal ones.
//
// The map is guarded by mu; each task is guarded by its own mutex so
// requests on different tasks never contend. Lock order is entry then registry.
type Registry struct {
	mu         sync.RWMutex
	live       map[string]*entry
	tombstones map[string]*tombstone

	idle   time.Duration
	now    func() time.Time
	logger *log.Logger

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

type entry struct {
	mu        sync.Mutex
	cancelled atomic.Bool
	touched   atomic.Int64
	progress  atomic.Pointer[ProgressUpdate]

	// guarded by mu
	retired bool
	task    models.Task
	index   map[string]int
	summary *models.Summary
}

func (e *entry) touch(t time.Time) { e.touched.Store(t.UnixNano()) }

type tombstone struct {
	stage   models.Stage
	summary models.Summary
	at      time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOpts) *Registry {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Registry{
		live:       make(map[string]*entry),
		tombstones: make(map[string]*tombstone),
		idle:       opts.IdleTimeout,
		now:        opts.Clock,
		logger:     opts.Logger,
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
}

// Begin grants exclusive access to the task a request addresses.
//
// An empty id starts a new task when the action allows it. A supplied id must name a live,
// non-cancelled task whose stage does not lie ahead of the action's target stage.
// The returned handle must be released.
func (r *Registry) Begin(action Action, id string) (*Handle, error) {
	if id == "" {
		if !action.Creates() {
			return nil, fmt.Errorf("%w: task_id", shared.ErrMissingArgument)
		}
		return r.create(action), nil
	}

	r.mu.RLock()
	e := r.live[id]
	r.mu.RUnlock()
	if e == nil {
		return nil, &UnknownTaskError{TaskID: id}
	}

	e.mu.Lock()
	if e.retired || e.cancelled.Load() {
		r.retireIfCancelled(e)
		e.mu.Unlock()
		return nil, &UnknownTaskError{TaskID: id}
	}

	if err := checkTransition(e.task.Stage, action.Target()); err != nil {
		e.mu.Unlock()
		return nil, err
	}

	e.touch(r.now())
	return &Handle{r: r, e: e, action: action}, nil
}

func (r *Registry) create(action Action) *Handle {
	now := r.now()
	e := &entry{
		task: models.Task{
			ID:        shared.GenerateID(),
			Stage:     action.Target(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		index: make(map[string]int),
	}
	e.touch(now)
	e.progress.Store(&ProgressUpdate{TaskID: e.task.ID, Phase: Idle})
	e.mu.Lock()

	r.mu.Lock()
	r.live[e.task.ID] = e
	r.mu.Unlock()

	r.logger.Debug("task created", "task", e.task.ID, "stage", e.task.Stage)
	return &Handle{r: r, e: e, action: action}
}

// Cancel marks a task cancelled without waiting for requests in flight.
//
// It always succeeds. The returned stage is CANCELLED, or the terminal stage an
// already retired task ended in.
func (r *Registry) Cancel(id string) models.Stage {
	r.mu.RLock()
	e := r.live[id]
	t := r.tombstones[id]
	r.mu.RUnlock()

	if e == nil {
		if t != nil {
			return t.stage
		}
		return models.StageCancelled
	}

	e.cancelled.Store(true)
	if e.mu.TryLock() {
		r.retireIfCancelled(e)
		stage := e.task.Stage
		e.mu.Unlock()
		return stage
	}

	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		r.retireIfCancelled(e)
	}()

	r.logger.Info("task cancelled while busy", "task", id)
	return models.StageCancelled
}

// retireIfCancelled must be called with e.mu held.
func (r *Registry) retireIfCancelled(e *entry) {
	if e.cancelled.Load() {
		r.retire(e, models.StageCancelled)
	}
}

// retire drops the file list of a terminal task and keeps a tombstone. e.mu must be held.
func (r *Registry) retire(e *entry, stage models.Stage) {
	if e.retired {
		return
	}
	now := r.now()
	e.retired = true

	summary := models.Summary{
		TaskID:       e.task.ID,
		SourceFolder: e.task.SourceFolder,
		StartedAt:    e.task.CreatedAt,
		CompletedAt:  now,
	}
	if e.summary != nil {
		summary = *e.summary
	}
	summary.Stage = stage

	e.task.Stage = stage
	e.task.UpdatedAt = now
	e.task.Files = nil
	e.index = nil
	e.summary = &summary

	done := doneUpdate(stage)
	done.TaskID = e.task.ID
	e.progress.Store(&done)

	r.mu.Lock()
	delete(r.live, e.task.ID)
	r.tombstones[e.task.ID] = &tombstone{stage: stage, summary: summary, at: now}
	r.mu.Unlock()

	r.logger.Info("task retired", "task", e.task.ID, "stage", stage)
}

// Summary returns the stored outcome of a finished or cancelled task.
func (r *Registry) Summary(id string) (models.Summary, error) {
	r.mu.RLock()
	t := r.tombstones[id]
	_, live := r.live[id]
	r.mu.RUnlock()

	switch {
	case t != nil:
		return t.summary, nil
	case live:
		return models.Summary{}, fmt.Errorf("%w: task %s has not finished", shared.ErrInvalidTransition, id)
	default:
		return models.Summary{}, &UnknownTaskError{TaskID: id}
	}
}

// Snapshot returns a deep copy of a task. Tombstoned tasks have no files.
func (r *Registry) Snapshot(id string) (models.Task, error) {
	r.mu.RLock()
	e := r.live[id]
	t := r.tombstones[id]
	r.mu.RUnlock()

	if e == nil {
		if t != nil {
			return models.Task{ID: id, Stage: t.stage, UpdatedAt: t.at, Cancelled: t.stage == models.StageCancelled}, nil
		}
		return models.Task{}, &UnknownTaskError{TaskID: id}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e), nil
}

// Progress returns the latest progress of a task without waiting on its lock.
func (r *Registry) Progress(id string) (ProgressUpdate, error) {
	r.mu.RLock()
	e := r.live[id]
	t := r.tombstones[id]
	r.mu.RUnlock()

	switch {
	case e != nil:
		return *e.progress.Load(), nil
	case t != nil:
		u := doneUpdate(t.stage)
		u.TaskID = id
		return u, nil
	default:
		return ProgressUpdate{}, &UnknownTaskError{TaskID: id}
	}
}

// Live returns the number of non-terminal tasks.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}

// Sweep evicts live tasks and tombstones idle longer than the idle timeout and returns how many were removed.
//
// Evicted live tasks are flagged cancelled so a request still running on one stops at its next check.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idle)
	evicted := 0

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.live {
		if time.Unix(0, e.touched.Load()).Before(cutoff) {
			e.cancelled.Store(true)
			delete(r.live, id)
			evicted++
		}
	}
	for id, t := range r.tombstones {
		if t.at.Before(cutoff) {
			delete(r.tombstones, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.logger.Info("swept idle tasks", "evicted", n, "live", r.Live())
			}
		}
	}
}

func (r *Registry) newFileID(t time.Time) string {
	r.idMu.Lock()
	defer r.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), r.entropy).String()
}

func snapshot(e *entry) models.Task {
	t := e.task
	t.Cancelled = e.cancelled.Load()
	t.Files = make([]models.FileEntry, len(e.task.Files))
	for i, f := range e.task.Files {
		t.Files[i] = f.Clone()
	}
	t.Skipped = append([]string(nil), e.task.Skipped...)
	if e.task.Script != nil {
		s := *e.task.Script
		s.Output = append([]string(nil), s.Output...)
		t.Script = &s
	}
	return t
}

// Handle is exclusive access to one task for the duration of a request.
type Handle struct {
	r        *Registry
	e        *entry
	action   Action
	released bool
}

// ID returns the task id.
func (h *Handle) ID() string { return h.e.task.ID }

// Stage returns the task's current stage.
func (h *Handle) Stage() models.Stage { return h.e.task.Stage }

// Action returns the action the handle was granted for.
func (h *Handle) Action() Action { return h.action }

// Cancelled reports whether the task has been cancelled, possibly while this request runs.
func (h *Handle) Cancelled() bool { return h.e.cancelled.Load() }

// Snapshot returns a deep copy of the task.
func (h *Handle) Snapshot() models.Task { return snapshot(h.e) }

// Range returns the task's import date range.
func (h *Handle) Range() models.DateRange { return h.e.task.Range }

// SetSourceFolder records the folder the task imports from.
func (h *Handle) SetSourceFolder(path string) { h.e.task.SourceFolder = path }

// SetImportFolder records where the source folder was staged.
func (h *Handle) SetImportFolder(path string) { h.e.task.ImportFolder = path }

// SetScript records the outcome of the post-processing script.
func (h *Handle) SetScript(s *models.Script) { h.e.task.Script = s }

// SetRange records the import date range.
func (h *Handle) SetRange(rng models.DateRange) { h.e.task.Range = rng }

// Advance moves the task to the action's target stage. A cancelled task stays cancelled.
func (h *Handle) Advance() {
	if h.Cancelled() {
		return
	}
	h.e.task.Stage = h.action.Target()
	h.e.task.UpdatedAt = h.r.now()
}

// Finish stores the processing summary and marks the task FINISHED. The task retires on release.
func (h *Handle) Finish(summary models.Summary) {
	summary.TaskID = h.e.task.ID
	if summary.SourceFolder == "" {
		summary.SourceFolder = h.e.task.SourceFolder
	}
	if summary.Script == nil {
		summary.Script = h.e.task.Script
	}
	summary.Stage = models.StageFinished
	if h.Cancelled() {
		summary.Stage = models.StageCancelled
	}
	h.e.summary = &summary
	if !h.Cancelled() {
		h.e.task.Stage = models.StageFinished
	}
}

// Report records u as the task's latest progress and forwards it without blocking.
// Reporting counts as activity for the idle sweep.
func (h *Handle) Report(ch chan<- ProgressUpdate, u ProgressUpdate) {
	u.TaskID = h.e.task.ID
	h.e.touch(h.r.now())
	h.e.progress.Store(&u)
	sendProgress(ch, u)
}

// Discard removes a task created by this request when the request fails.
func (h *Handle) Discard() {
	if h.released {
		return
	}
	h.released = true
	h.r.mu.Lock()
	delete(h.r.live, h.e.task.ID)
	h.r.mu.Unlock()
	h.e.retired = true
	h.e.mu.Unlock()
}

// Release gives up the task lock, retiring the task when it reached a terminal stage.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true

	e := h.e
	e.touch(h.r.now())
	switch {
	case e.cancelled.Load():
		h.r.retire(e, models.StageCancelled)
	case e.task.Stage == models.StageFinished:
		h.r.retire(e, models.StageFinished)
	}
	e.mu.Unlock()
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
