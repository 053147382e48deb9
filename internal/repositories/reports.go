package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/photox/internal/models"
	"github.com/desertthunder/photox/internal/shared"
)

// ReportRepository implements models.Repository[*models.Report] for finished task summaries.
//
// The full summary is stored as JSON next to denormalised counts used for listing.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new ReportRepository with the given database connection
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a report with the next sequence number
func (r *ReportRepository) Create(report *models.Report) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := json.Marshal(report.Summary())
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	sequence, err := NextSequence(r.db, "reports")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	report.SetSequence(sequence)

	s := report.Summary()
	query := `
		INSERT INTO reports (
			task_id, sequence, stage, source_folder, files_edited, files_deleted,
			files_ignored, files_exported, errors, summary, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		report.ID(),
		sequence,
		s.Stage.String(),
		s.SourceFolder,
		len(s.Edited),
		len(s.Deleted),
		len(s.Ignored),
		len(s.Exported),
		len(s.Errors),
		string(payload),
		report.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// Get retrieves a report by task id, excluding soft-deleted reports
func (r *ReportRepository) Get(id string) (*models.Report, error) {
	query := `
		SELECT task_id, sequence, summary, created_at, deleted_at
		FROM reports
		WHERE task_id = ? AND deleted_at IS NULL
	`

	return r.scan(r.db.QueryRow(query, id))
}

// Update replaces the stored summary of an existing report
func (r *ReportRepository) Update(report *models.Report) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := json.Marshal(report.Summary())
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	s := report.Summary()
	query := `
		UPDATE reports
		SET stage = ?, source_folder = ?, files_edited = ?, files_deleted = ?,
			files_ignored = ?, files_exported = ?, errors = ?, summary = ?
		WHERE task_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		s.Stage.String(),
		s.SourceFolder,
		len(s.Edited),
		len(s.Deleted),
		len(s.Ignored),
		len(s.Exported),
		len(s.Errors),
		string(payload),
		report.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	if err := expectRow(result, report.ID()); err != nil {
		return err
	}
	report.SetUpdatedAt(time.Now())
	return nil
}

// Delete soft-deletes a report by task id
func (r *ReportRepository) Delete(id string) error {
	query := `
		UPDATE reports
		SET deleted_at = ?
		WHERE task_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return expectRow(result, id)
}

// List retrieves reports newest first. Supported criteria: "stage" (string),
// "source_folder" (string), "limit" (int).
func (r *ReportRepository) List(criteria map[string]any) ([]*models.Report, error) {
	query := `
		SELECT task_id, sequence, summary, created_at, deleted_at
		FROM reports
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if stage, ok := criteria["stage"].(string); ok && stage != "" {
		query += " AND stage = ?"
		args = append(args, stage)
	}

	if folder, ok := criteria["source_folder"].(string); ok && folder != "" {
		query += " AND source_folder = ?"
		args = append(args, folder)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		report, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return reports, nil
}

func (r *ReportRepository) scan(row scanner) (*models.Report, error) {
	var (
		id        string
		sequence  int
		payload   string
		createdAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &payload, &createdAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	var summary models.Summary
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary for %s: %w", id, err)
	}

	report := models.NewReport(summary)
	report.SetSequence(sequence)
	report.SetCreatedAt(createdAt)
	report.SetUpdatedAt(createdAt)
	if deletedAt.Valid {
		report.SetDeletedAt(&deletedAt.Time)
	}
	return report, nil
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", shared.ErrReportNotFound, id)
	}
	return nil
}
