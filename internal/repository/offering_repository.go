package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/meetgen-api/internal/models"
)

// OfferingRepository provides read access to course offering details. The
// generation engine never mutates offerings; they belong to the planning
// workflow.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository creates a new offering repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

const offeringColumns = `id, course_id, class_group_id, weekday, start_date, end_date, start_time, end_time, total_meetings, online_percentage, created_at, updated_at`

// FindByID loads one offering detail with its ordered room and lecturer sets.
func (r *OfferingRepository) FindByID(ctx context.Context, id string) (*models.CourseOfferingDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_offering_details WHERE id = $1`, offeringColumns)
	var detail models.CourseOfferingDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}

	if err := r.loadCandidates(ctx, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByTerm returns the offering details belonging to a term plan, ordered
// for a deterministic batch-generation pass.
func (r *OfferingRepository) ListByTerm(ctx context.Context, termID string) ([]models.CourseOfferingDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM course_offering_details WHERE term_id = $1 ORDER BY course_id ASC, weekday ASC`, offeringColumns)
	var details []models.CourseOfferingDetail
	if err := r.db.SelectContext(ctx, &details, query, termID); err != nil {
		return nil, fmt.Errorf("list offering details by term: %w", err)
	}
	for i := range details {
		if err := r.loadCandidates(ctx, &details[i]); err != nil {
			return nil, err
		}
	}
	return details, nil
}

func (r *OfferingRepository) loadCandidates(ctx context.Context, detail *models.CourseOfferingDetail) error {
	const roomQuery = `SELECT room_id FROM offering_rooms WHERE offering_detail_id = $1 ORDER BY position ASC`
	if err := r.db.SelectContext(ctx, &detail.RoomIDs, roomQuery, detail.ID); err != nil {
		return fmt.Errorf("load offering rooms: %w", err)
	}

	const lecturerQuery = `SELECT lecturer_id FROM offering_lecturers WHERE offering_detail_id = $1 ORDER BY position ASC`
	if err := r.db.SelectContext(ctx, &detail.LecturerIDs, lecturerQuery, detail.ID); err != nil {
		return fmt.Errorf("load offering lecturers: %w", err)
	}
	return nil
}
