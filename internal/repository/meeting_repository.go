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

// MeetingRepository provides persistence for generated meeting instances.
type MeetingRepository struct {
	db *sqlx.DB
}

// NewMeetingRepository creates a new meeting repository.
func NewMeetingRepository(db *sqlx.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingColumns = `id, offering_detail_id, course_id, class_group_id, meeting_number, meeting_date, start_time, end_time, room_id, lecturer_id, session_kind, sessions_per_meeting, is_online, locked, status, rescheduled_from_id, created_at, updated_at`

// FindByID loads a meeting by id.
func (r *MeetingRepository) FindByID(ctx context.Context, id string) (*models.MeetingInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM meeting_instances WHERE id = $1`, meetingColumns)
	var meeting models.MeetingInstance
	if err := r.db.GetContext(ctx, &meeting, query, id); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// ListByDetail returns all meetings for an offering detail ordered by number.
func (r *MeetingRepository) ListByDetail(ctx context.Context, detailID string) ([]models.MeetingInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM meeting_instances WHERE offering_detail_id = $1 ORDER BY meeting_number ASC`, meetingColumns)
	var meetings []models.MeetingInstance
	if err := r.db.SelectContext(ctx, &meetings, query, detailID); err != nil {
		return nil, fmt.Errorf("list meetings by detail: %w", err)
	}
	return meetings, nil
}

// ListLockedByDetail returns the locked meetings for an offering detail.
// These survive regeneration; the lookup key downstream is
// (offering_detail_id, meeting_number).
func (r *MeetingRepository) ListLockedByDetail(ctx context.Context, detailID string) ([]models.MeetingInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM meeting_instances WHERE offering_detail_id = $1 AND locked = true ORDER BY meeting_number ASC`, meetingColumns)
	var meetings []models.MeetingInstance
	if err := r.db.SelectContext(ctx, &meetings, query, detailID); err != nil {
		return nil, fmt.Errorf("list locked meetings: %w", err)
	}
	return meetings, nil
}

// DeleteUnlockedByDetail removes every non-locked meeting of an offering
// detail inside the regeneration transaction.
func (r *MeetingRepository) DeleteUnlockedByDetail(ctx context.Context, exec sqlx.ExtContext, detailID string) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM meeting_instances WHERE offering_detail_id = $1 AND locked = false`, detailID); err != nil {
		return fmt.Errorf("delete unlocked meetings: %w", err)
	}
	return nil
}

// BulkCreateWithTx inserts meetings using an existing transaction.
func (r *MeetingRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, meetings []models.MeetingInstance) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	return r.bulkInsert(ctx, tx, meetings)
}

func (r *MeetingRepository) bulkInsert(ctx context.Context, exec sqlx.ExtContext, meetings []models.MeetingInstance) error {
	now := time.Now().UTC()
	for i := range meetings {
		payload := meetings[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO meeting_instances (id, offering_detail_id, course_id, class_group_id, meeting_number, meeting_date, start_time, end_time, room_id, lecturer_id, session_kind, sessions_per_meeting, is_online, locked, status, rescheduled_from_id, created_at, updated_at) VALUES (:id, :offering_detail_id, :course_id, :class_group_id, :meeting_number, :meeting_date, :start_time, :end_time, :room_id, :lecturer_id, :session_kind, :sessions_per_meeting, :is_online, :locked, :status, :rescheduled_from_id, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert meeting: %w", err)
		}
		meetings[i] = payload
	}
	return nil
}

// ListByDate returns non-cancelled meetings on the given calendar date,
// optionally narrowed by room or lecturer. This is the conflict scanner's
// working set.
func (r *MeetingRepository) ListByDate(ctx context.Context, filter models.MeetingFilter) ([]models.MeetingInstance, error) {
	base := fmt.Sprintf(`SELECT %s FROM meeting_instances WHERE status <> $1`, meetingColumns)
	args := []interface{}{models.MeetingCancelled}
	var conditions []string

	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("meeting_date = $%d", len(args)+1))
		args = append(args, *filter.Date)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.LecturerID != "" {
		conditions = append(conditions, fmt.Sprintf("lecturer_id = $%d", len(args)+1))
		args = append(args, filter.LecturerID)
	}
	if filter.OfferingDetailID != "" {
		conditions = append(conditions, fmt.Sprintf("offering_detail_id = $%d", len(args)+1))
		args = append(args, filter.OfferingDetailID)
	}

	query := base
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY meeting_date ASC, start_time ASC"

	var meetings []models.MeetingInstance
	if err := r.db.SelectContext(ctx, &meetings, query, args...); err != nil {
		return nil, fmt.Errorf("list meetings by date: %w", err)
	}
	return meetings, nil
}

// SetLocked toggles the locked flag on a meeting. The approval workflow uses
// this to shield finalized entries from regeneration.
func (r *MeetingRepository) SetLocked(ctx context.Context, id string, locked bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE meeting_instances SET locked = $1, updated_at = $2 WHERE id = $3`, locked, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set meeting locked: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("meeting %s: no rows updated", id)
	}
	return nil
}

// UpdateStatus moves a meeting through the downstream workflow states.
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id string, status models.MeetingStatus) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE meeting_instances SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update meeting status: %w", err)
	}
	return nil
}
