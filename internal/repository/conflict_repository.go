package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/meetgen-api/internal/models"
)

// ConflictRepository provides persistence for conflict records.
type ConflictRepository struct {
	db *sqlx.DB
}

// NewConflictRepository creates a new conflict repository.
func NewConflictRepository(db *sqlx.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

const conflictColumns = `id, type, severity, meeting_id, conflicting_meeting_id, impact_score, status, resolution_strategy, resolution_notes, resolved_by, resolved_at, requires_approval, auto_resolvable, details, created_at, updated_at`

// Create stores one conflict record.
func (r *ConflictRepository) Create(ctx context.Context, record *models.ConflictRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = models.ConflictDetected
	}

	const query = `INSERT INTO conflict_records (id, type, severity, meeting_id, conflicting_meeting_id, impact_score, status, resolution_strategy, resolution_notes, resolved_by, resolved_at, requires_approval, auto_resolvable, details, created_at, updated_at) VALUES (:id, :type, :severity, :meeting_id, :conflicting_meeting_id, :impact_score, :status, :resolution_strategy, :resolution_notes, :resolved_by, :resolved_at, :requires_approval, :auto_resolvable, :details, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create conflict record: %w", err)
	}
	return nil
}

// FindByID loads a conflict record by id.
func (r *ConflictRepository) FindByID(ctx context.Context, id string) (*models.ConflictRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM conflict_records WHERE id = $1`, conflictColumns)
	var record models.ConflictRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns conflict records matching the filter, ordered by impact score
// for triage, with pagination.
func (r *ConflictRepository) List(ctx context.Context, filter models.ConflictFilter) ([]models.ConflictRecord, int, error) {
	base := "FROM conflict_records WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.MeetingID != "" {
		conditions = append(conditions, fmt.Sprintf("meeting_id = $%d", len(args)+1))
		args = append(args, filter.MeetingID)
	}
	if filter.OfferingDetailID != "" {
		conditions = append(conditions, fmt.Sprintf("meeting_id IN (SELECT id FROM meeting_instances WHERE offering_detail_id = $%d)", len(args)+1))
		args = append(args, filter.OfferingDetailID)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Unresolved {
		conditions = append(conditions, fmt.Sprintf("status IN ($%d, $%d)", len(args)+1, len(args)+2))
		args = append(args, models.ConflictDetected, models.ConflictReviewing)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY impact_score DESC, created_at ASC LIMIT %d OFFSET %d", conflictColumns, base, size, offset)
	var records []models.ConflictRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list conflict records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count conflict records: %w", err)
	}

	return records, total, nil
}

// DeleteByMeeting clears prior findings for a meeting before a rescan so that
// re-scanning stays idempotent for callers needing exactly-once records.
func (r *ConflictRepository) DeleteByMeeting(ctx context.Context, meetingID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM conflict_records WHERE meeting_id = $1 AND status IN ($2, $3)`, meetingID, models.ConflictDetected, models.ConflictReviewing); err != nil {
		return fmt.Errorf("delete conflict records by meeting: %w", err)
	}
	return nil
}

// UpdateStatus transitions a record's triage status.
func (r *ConflictRepository) UpdateStatus(ctx context.Context, id string, status models.ConflictStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE conflict_records SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update conflict status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("conflict %s: no rows updated", id)
	}
	return nil
}

// Resolve stores the resolution fields and moves the record to resolved.
func (r *ConflictRepository) Resolve(ctx context.Context, record *models.ConflictRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE conflict_records SET status = :status, resolution_strategy = :resolution_strategy, resolution_notes = :resolution_notes, resolved_by = :resolved_by, resolved_at = :resolved_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("resolve conflict record: %w", err)
	}
	return nil
}

// CountUnresolvedByDetail aggregates open findings for an offering detail.
func (r *ConflictRepository) CountUnresolvedByDetail(ctx context.Context, detailID string) (int, float64, error) {
	const query = `SELECT COUNT(*), COALESCE(MAX(impact_score), 0) FROM conflict_records WHERE status IN ($1, $2) AND meeting_id IN (SELECT id FROM meeting_instances WHERE offering_detail_id = $3)`
	row := r.db.QueryRowxContext(ctx, query, models.ConflictDetected, models.ConflictReviewing, detailID)
	var count int
	var maxImpact float64
	if err := row.Scan(&count, &maxImpact); err != nil {
		return 0, 0, fmt.Errorf("count unresolved conflicts: %w", err)
	}
	return count, maxImpact, nil
}

// SummaryRow is one cell of the grouped open-conflict aggregation.
type SummaryRow struct {
	Type      models.ConflictType     `db:"type"`
	Severity  models.ConflictSeverity `db:"severity"`
	Status    models.ConflictStatus   `db:"status"`
	Count     int                     `db:"count"`
	MaxImpact float64                 `db:"max_impact"`
}

// Summary aggregates open findings grouped by type, severity and status.
// A non-empty detailID narrows the aggregation to one offering detail.
func (r *ConflictRepository) Summary(ctx context.Context, detailID string) ([]SummaryRow, error) {
	query := `SELECT type, severity, status, COUNT(*) AS count, COALESCE(MAX(impact_score), 0) AS max_impact FROM conflict_records WHERE status IN ($1, $2)`
	args := []interface{}{models.ConflictDetected, models.ConflictReviewing}
	if detailID != "" {
		query += ` AND meeting_id IN (SELECT id FROM meeting_instances WHERE offering_detail_id = $3)`
		args = append(args, detailID)
	}
	query += ` GROUP BY type, severity, status`

	var rows []SummaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("summarise conflicts: %w", err)
	}
	return rows, nil
}
