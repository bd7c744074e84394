package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/meetgen-api/internal/models"
)

func conflictRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "type", "severity", "meeting_id", "conflicting_meeting_id", "impact_score",
		"status", "resolution_strategy", "resolution_notes", "resolved_by", "resolved_at",
		"requires_approval", "auto_resolvable", "details", "created_at", "updated_at",
	})
}

func TestConflictRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMeetingRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO conflict_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.ConflictRecord{
		Type:        models.ConflictRoom,
		Severity:    models.SeverityHigh,
		MeetingID:   "m-1",
		ImpactScore: 72.5,
		Status:      models.ConflictDetected,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictRepositoryListOrdersByImpact(t *testing.T) {
	db, mock, cleanup := newMeetingRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	now := time.Now().UTC()
	rows := conflictRows().
		AddRow("c-1", "room", "high", "m-1", "m-2", 85.0, "detected", nil, nil, nil, nil, true, false, []byte(`{}`), now, now).
		AddRow("c-2", "time_gap", "low", "m-3", nil, 12.0, "detected", nil, nil, nil, nil, false, true, []byte(`{}`), now, now)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY impact_score DESC, created_at ASC LIMIT 20 OFFSET 0")).
		WithArgs("room").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("room").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	records, total, err := repo.List(context.Background(), models.ConflictFilter{Type: models.ConflictRoom})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, records, 2)
	assert.Equal(t, "c-1", records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictRepositoryDeleteByMeetingKeepsTerminal(t *testing.T) {
	db, mock, cleanup := newMeetingRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM conflict_records WHERE meeting_id = $1 AND status IN ($2, $3)")).
		WithArgs("m-1", models.ConflictDetected, models.ConflictReviewing).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteByMeeting(context.Background(), "m-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictRepositoryResolve(t *testing.T) {
	db, mock, cleanup := newMeetingRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE conflict_records SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	strategy := models.ResolveChangeRoom
	notes := "moved to lab 2"
	resolvedBy := "admin-1"
	resolvedAt := time.Now().UTC()
	record := &models.ConflictRecord{
		ID:                 "c-1",
		Status:             models.ConflictResolved,
		ResolutionStrategy: &strategy,
		ResolutionNotes:    &notes,
		ResolvedBy:         &resolvedBy,
		ResolvedAt:         &resolvedAt,
	}
	require.NoError(t, repo.Resolve(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictRepositorySummaryScopedToDetail(t *testing.T) {
	db, mock, cleanup := newMeetingRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	rows := sqlmock.NewRows([]string{"type", "severity", "status", "count", "max_impact"}).
		AddRow("room", "high", "detected", 3, 85.0)

	mock.ExpectQuery(regexp.QuoteMeta("AND meeting_id IN (SELECT id FROM meeting_instances WHERE offering_detail_id = $3) GROUP BY type, severity, status")).
		WithArgs(models.ConflictDetected, models.ConflictReviewing, "detail-1").
		WillReturnRows(rows)

	summary, err := repo.Summary(context.Background(), "detail-1")
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, models.ConflictRoom, summary[0].Type)
	assert.Equal(t, 3, summary[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictRepositoryCountUnresolvedByDetail(t *testing.T) {
	db, mock, cleanup := newMeetingRepoMock(t)
	defer cleanup()
	repo := NewConflictRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*), COALESCE(MAX(impact_score), 0)")).
		WithArgs(models.ConflictDetected, models.ConflictReviewing, "detail-1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(4, 85.0))

	count, maxImpact, err := repo.CountUnresolvedByDetail(context.Background(), "detail-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 85.0, maxImpact)
	assert.NoError(t, mock.ExpectationsWereMet())
}
