package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
)

// PathFlagRepository persists the processed flag of folder paths.
//
// Toggles on the same path are serialised by a per-path mutex and run inside a transaction,
// so concurrent callers never interleave a read and a write for one path.
type PathFlagRepository struct {
	db    *sql.DB
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPathFlagRepository creates a new PathFlagRepository with the given database connection
func NewPathFlagRepository(db *sql.DB) *PathFlagRepository {
	return &PathFlagRepository{db: db, locks: make(map[string]*sync.Mutex)}
}

func (r *PathFlagRepository) lock(path string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[path]
	if !ok {
		l = &sync.Mutex{}
		r.locks[path] = l
	}
	return l
}

// Record makes paths known to the store. Already recorded paths keep their flag.
func (r *PathFlagRepository) Record(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO path_flags (path, processed, recorded_at, updated_at) VALUES (?, NULL, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range paths {
		if _, err := stmt.Exec(p, now, now); err != nil {
			return fmt.Errorf("failed to record path %s: %w", p, err)
		}
	}

	return tx.Commit()
}

// Get returns the flag for path. A recorded path with no stored flag reads as false.
func (r *PathFlagRepository) Get(path string) (*models.PathFlag, error) {
	query := `SELECT path, processed, recorded_at, updated_at FROM path_flags WHERE path = ?`
	return scanFlag(r.db.QueryRow(query, path))
}

// Toggle stores the negation of current for path and returns it.
//
// current is the caller's view of the flag and is trusted over the stored value.
// Paths never passed to [PathFlagRepository.Record] fail with [shared.ErrUnknownPath].
func (r *PathFlagRepository) Toggle(path string, current bool) (bool, error) {
	l := r.lock(path)
	l.Lock()
	defer l.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return current, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM path_flags WHERE path = ?`, path).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return current, fmt.Errorf("%w: %s", shared.ErrUnknownPath, path)
	}
	if err != nil {
		return current, fmt.Errorf("failed to read flag: %w", err)
	}

	next := !current
	if _, err := tx.Exec(`UPDATE path_flags SET processed = ?, updated_at = ? WHERE path = ?`, next, time.Now(), path); err != nil {
		return current, fmt.Errorf("failed to update flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return current, fmt.Errorf("failed to commit flag: %w", err)
	}
	return next, nil
}

// List returns every recorded path under prefix, ordered by path. An empty prefix lists everything.
func (r *PathFlagRepository) List(prefix string) ([]*models.PathFlag, error) {
	query := `SELECT path, processed, recorded_at, updated_at FROM path_flags`
	args := []any{}

	if prefix != "" {
		query += ` WHERE path = ? OR path LIKE ? ESCAPE '\'`
		args = append(args, prefix, escapeLike(strings.TrimSuffix(prefix, "/"))+"/%")
	}
	query += " ORDER BY path ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flags: %w", err)
	}
	defer rows.Close()

	var flags []*models.PathFlag
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return flags, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlag(row scanner) (*models.PathFlag, error) {
	var (
		f         models.PathFlag
		processed sql.NullBool
	)

	err := row.Scan(&f.Path, &processed, &f.RecordedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrUnknownPath
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan flag: %w", err)
	}

	f.Processed = processed.Valid && processed.Bool
	return &f, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
