package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campusops/meetgen-api/internal/models"
)

// Read-only lookups the engine needs from the surrounding data layer:
// courses, rooms, lecturers and class groups.

// CourseRepository reads course catalog entries.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID loads a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, credits, level, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// RoomRepository reads room records.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, code, name, capacity, active, created_at, updated_at`

// ListByIDs loads rooms for the given ids preserving no particular order.
func (r *RoomRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Room, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE id = ANY($1)`, roomColumns)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list rooms by ids: %w", err)
	}
	return rooms, nil
}

// ListActiveWithCapacity returns active rooms seating at least minCapacity,
// ordered by code for a stable least-used scan.
func (r *RoomRepository) ListActiveWithCapacity(ctx context.Context, minCapacity int) ([]models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE active = true AND capacity >= $1 ORDER BY code ASC`, roomColumns)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, minCapacity); err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return rooms, nil
}

// LecturerRepository reads lecturer records.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository creates a new lecturer repository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

// ListByIDs loads lecturers for the given ids.
func (r *LecturerRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Lecturer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, nip, name, active, created_at, updated_at FROM lecturers WHERE id = ANY($1)`
	var lecturers []models.Lecturer
	if err := r.db.SelectContext(ctx, &lecturers, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list lecturers by ids: %w", err)
	}
	return lecturers, nil
}

// ClassGroupRepository reads class cohort records.
type ClassGroupRepository struct {
	db *sqlx.DB
}

// NewClassGroupRepository creates a new class group repository.
func NewClassGroupRepository(db *sqlx.DB) *ClassGroupRepository {
	return &ClassGroupRepository{db: db}
}

// FindByID loads a class group by id.
func (r *ClassGroupRepository) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	const query = `SELECT id, code, name, enrollment_size, created_at, updated_at FROM class_groups WHERE id = $1`
	var group models.ClassGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}
