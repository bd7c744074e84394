package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/meetgen-api/internal/dto"
	"github.com/campusops/meetgen-api/internal/models"
	appErrors "github.com/campusops/meetgen-api/pkg/errors"
)

type offeringReaderStub struct {
	details map[string]*models.CourseOfferingDetail
	byTerm  []models.CourseOfferingDetail
}

func (s offeringReaderStub) FindByID(ctx context.Context, id string) (*models.CourseOfferingDetail, error) {
	detail, ok := s.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return detail, nil
}

func (s offeringReaderStub) ListByTerm(ctx context.Context, termID string) ([]models.CourseOfferingDetail, error) {
	return s.byTerm, nil
}

type meetingStoreStub struct {
	locked   []models.MeetingInstance
	created  []models.MeetingInstance
	deleted  []string
	lockCall func(id string, locked bool) error
}

func (s *meetingStoreStub) ListByDetail(ctx context.Context, detailID string) ([]models.MeetingInstance, error) {
	return nil, nil
}

func (s *meetingStoreStub) ListLockedByDetail(ctx context.Context, detailID string) ([]models.MeetingInstance, error) {
	return s.locked, nil
}

func (s *meetingStoreStub) DeleteUnlockedByDetail(ctx context.Context, exec sqlx.ExtContext, detailID string) error {
	s.deleted = append(s.deleted, detailID)
	return nil
}

func (s *meetingStoreStub) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, meetings []models.MeetingInstance) error {
	s.created = append(s.created, meetings...)
	return nil
}

func (s *meetingStoreStub) ListByDate(ctx context.Context, filter models.MeetingFilter) ([]models.MeetingInstance, error) {
	return nil, nil
}

func (s *meetingStoreStub) SetLocked(ctx context.Context, id string, locked bool) error {
	if s.lockCall != nil {
		return s.lockCall(id, locked)
	}
	return nil
}

type roomReaderStub struct {
	rooms    []models.Room
	fallback []models.Room
}

func (s roomReaderStub) ListByIDs(ctx context.Context, ids []string) ([]models.Room, error) {
	return s.rooms, nil
}

func (s roomReaderStub) ListActiveWithCapacity(ctx context.Context, minCapacity int) ([]models.Room, error) {
	return s.fallback, nil
}

type lecturerReaderStub struct {
	lecturers []models.Lecturer
}

func (s lecturerReaderStub) ListByIDs(ctx context.Context, ids []string) ([]models.Lecturer, error) {
	return s.lecturers, nil
}

type classGroupReaderStub struct {
	group *models.ClassGroup
}

func (s classGroupReaderStub) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	if s.group == nil {
		return nil, sql.ErrNoRows
	}
	return s.group, nil
}

type scanRequesterStub struct {
	requested []string
}

func (s *scanRequesterStub) RequestScan(detailID string) {
	s.requested = append(s.requested, detailID)
}

type genTxProviderMock struct {
	db *sqlx.DB
}

func newGenTxProviderMock(t *testing.T) (*genTxProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &genTxProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (p *genTxProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

func weeklyDetail() *models.CourseOfferingDetail {
	classGroupID := "class-1"
	return &models.CourseOfferingDetail{
		ID:               "detail-1",
		CourseID:         "course-1",
		ClassGroupID:     &classGroupID,
		Weekday:          models.Monday,
		StartDate:        time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
		StartTime:        "09:00",
		EndTime:          "10:40",
		TotalMeetings:    16,
		OnlinePercentage: 25,
		RoomIDs:          []string{"room-a", "room-b"},
		LecturerIDs:      []string{"lect-a", "lect-b"},
	}
}

func newGenerationFixture(t *testing.T, detail *models.CourseOfferingDetail, store *meetingStoreStub) (*GenerationService, sqlmock.Sqlmock, *scanRequesterStub) {
	txProvider, mock := newGenTxProviderMock(t)
	scans := &scanRequesterStub{}
	svc := NewGenerationService(
		offeringReaderStub{
			details: map[string]*models.CourseOfferingDetail{detail.ID: detail},
			byTerm:  []models.CourseOfferingDetail{*detail},
		},
		store,
		roomReaderStub{rooms: []models.Room{
			{ID: "room-a", Capacity: 40, Active: true},
			{ID: "room-b", Capacity: 30, Active: true},
		}},
		lecturerReaderStub{lecturers: []models.Lecturer{
			{ID: "lect-a", Active: true},
			{ID: "lect-b", Active: true},
		}},
		classGroupReaderStub{group: &models.ClassGroup{ID: "class-1", EnrollmentSize: 35}},
		txProvider,
		nil,
		scans,
		nil,
		nil,
		nil,
		GenerationServiceConfig{BatchGeneration: true},
	)
	return svc, mock, scans
}

func expectPlanTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func TestGeneratePlanFullTerm(t *testing.T) {
	detail := weeklyDetail()
	store := &meetingStoreStub{}
	svc, mock, scans := newGenerationFixture(t, detail, store)
	expectPlanTx(mock)

	resp, err := svc.GeneratePlan(context.Background(), dto.GeneratePlanRequest{OfferingDetailID: "detail-1"})
	require.NoError(t, err)

	assert.Equal(t, 16, resp.TotalMeetings)
	assert.Equal(t, 16, resp.Generated)
	assert.Equal(t, 0, resp.LockedPreserved)
	assert.Equal(t, 12, resp.OfflineCount)
	assert.Equal(t, 4, resp.OnlineCount)
	require.Len(t, store.created, 16)

	first := store.created[0]
	assert.Equal(t, 1, first.MeetingNumber)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), first.MeetingDate)
	assert.Equal(t, models.MeetingApproved, first.Status, "fresh instances are approved")
	assert.False(t, first.Locked)
	assert.Equal(t, models.SessionRegular, first.SessionKind)
	assert.False(t, first.IsOnline)
	require.NotNil(t, first.RoomID)
	assert.Equal(t, "room-a", *first.RoomID)
	assert.Equal(t, "lect-a", first.LecturerID)

	midterm := store.created[7]
	assert.Equal(t, models.SessionMidterm, midterm.SessionKind)
	final := store.created[15]
	assert.Equal(t, models.SessionFinal, final.SessionKind)
	assert.True(t, final.IsOnline, "tail meetings are online")
	assert.Nil(t, final.RoomID, "online meetings carry no room")
	assert.Equal(t, "lect-b", final.LecturerID, "second block goes to the second lecturer")

	second := store.created[1]
	require.NotNil(t, second.RoomID)
	assert.Equal(t, "room-b", *second.RoomID, "rooms rotate round-robin")

	assert.Equal(t, []string{"detail-1"}, store.deleted)
	assert.Equal(t, []string{"detail-1"}, scans.requested)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGeneratePlanPreservesLockedMeetings(t *testing.T) {
	detail := weeklyDetail()
	lockedRoom := "room-x"
	store := &meetingStoreStub{locked: []models.MeetingInstance{{
		ID:               "m-locked",
		OfferingDetailID: "detail-1",
		MeetingNumber:    2,
		RoomID:           &lockedRoom,
		Locked:           true,
	}}}
	svc, mock, _ := newGenerationFixture(t, detail, store)
	expectPlanTx(mock)

	resp, err := svc.GeneratePlan(context.Background(), dto.GeneratePlanRequest{OfferingDetailID: "detail-1"})
	require.NoError(t, err)

	assert.Equal(t, 15, resp.Generated)
	assert.Equal(t, 1, resp.LockedPreserved)
	require.Len(t, store.created, 15)
	for _, m := range store.created {
		assert.NotEqual(t, 2, m.MeetingNumber, "locked slot must not be regenerated")
	}
}

func TestGeneratePlanInvalidRange(t *testing.T) {
	detail := weeklyDetail()
	detail.StartDate = time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	detail.EndDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	store := &meetingStoreStub{}
	svc, _, _ := newGenerationFixture(t, detail, store)

	_, err := svc.GeneratePlan(context.Background(), dto.GeneratePlanRequest{OfferingDetailID: "detail-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.created)
}

func TestGeneratePlanRejectsMissingDetail(t *testing.T) {
	store := &meetingStoreStub{}
	svc, _, _ := newGenerationFixture(t, weeklyDetail(), store)

	_, err := svc.GeneratePlan(context.Background(), dto.GeneratePlanRequest{OfferingDetailID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGeneratePlanNoActiveLecturerSoftConflicts(t *testing.T) {
	detail := weeklyDetail()
	store := &meetingStoreStub{}
	txProvider, mock := newGenTxProviderMock(t)
	svc := NewGenerationService(
		offeringReaderStub{details: map[string]*models.CourseOfferingDetail{"detail-1": detail}},
		store,
		roomReaderStub{},
		lecturerReaderStub{lecturers: []models.Lecturer{{ID: "lect-a", Active: false}, {ID: "lect-b", Active: false}}},
		classGroupReaderStub{},
		txProvider,
		nil, nil, nil, nil, nil,
		GenerationServiceConfig{},
	)
	expectPlanTx(mock)

	resp, err := svc.GeneratePlan(context.Background(), dto.GeneratePlanRequest{OfferingDetailID: "detail-1"})
	require.NoError(t, err, "unstaffable sessions are soft conflicts, not a failed plan")
	assert.Equal(t, 0, resp.Generated)
	require.Len(t, resp.SoftConflicts, 16)
	assert.Equal(t, string(models.ConflictInstructor), resp.SoftConflicts[0].Type)
	assert.Equal(t, 1, resp.SoftConflicts[0].MeetingNumber)
	assert.Empty(t, store.created)
	assert.Equal(t, []string{"detail-1"}, store.deleted, "stale unlocked meetings are still cleared")
}

func TestGeneratePlanNoRoomsYieldsPartialPlan(t *testing.T) {
	detail := weeklyDetail()
	detail.RoomIDs = nil
	store := &meetingStoreStub{}
	svc, mock, _ := newGenerationFixture(t, detail, store)
	expectPlanTx(mock)

	resp, err := svc.GeneratePlan(context.Background(), dto.GeneratePlanRequest{OfferingDetailID: "detail-1"})
	require.NoError(t, err, "a roomless offering still gets its plan persisted")
	assert.Equal(t, 16, resp.Generated)
	require.Len(t, store.created, 16)

	roomConflicts := 0
	for _, sc := range resp.SoftConflicts {
		if sc.Type == string(models.ConflictRoom) {
			roomConflicts++
		}
	}
	assert.Equal(t, 12, roomConflicts, "one per offline session")
	for _, m := range store.created {
		assert.Nil(t, m.RoomID)
	}
}

func TestGeneratePlanZeroMeetings(t *testing.T) {
	detail := weeklyDetail()
	detail.TotalMeetings = 0
	store := &meetingStoreStub{}
	svc, mock, _ := newGenerationFixture(t, detail, store)
	expectPlanTx(mock)

	resp, err := svc.GeneratePlan(context.Background(), dto.GeneratePlanRequest{OfferingDetailID: "detail-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalMeetings)
	assert.Equal(t, 0, resp.Generated)
	assert.Empty(t, store.created)
}

func TestGeneratePlanDeterministicAcrossRuns(t *testing.T) {
	detail := weeklyDetail()
	store := &meetingStoreStub{}
	svc, mock, _ := newGenerationFixture(t, detail, store)
	expectPlanTx(mock)
	expectPlanTx(mock)

	first, err := svc.GeneratePlan(context.Background(), dto.GeneratePlanRequest{OfferingDetailID: "detail-1"})
	require.NoError(t, err)
	second, err := svc.GeneratePlan(context.Background(), dto.GeneratePlanRequest{OfferingDetailID: "detail-1"})
	require.NoError(t, err)

	assert.Equal(t, first.Generated, second.Generated)
	require.Len(t, store.created, 32)
	assert.Equal(t, store.created[:16], store.created[16:], "re-running with identical inputs reproduces every field")
}

func TestGeneratePlanLockedSurvivesSecondPass(t *testing.T) {
	detail := weeklyDetail()
	lockedRoom := "room-x"
	lockedInstance := models.MeetingInstance{
		ID:               "m-locked",
		OfferingDetailID: "detail-1",
		MeetingNumber:    2,
		MeetingDate:      time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC),
		RoomID:           &lockedRoom,
		LecturerID:       "lect-z",
		Locked:           true,
		Status:           models.MeetingApproved,
	}
	store := &meetingStoreStub{locked: []models.MeetingInstance{lockedInstance}}
	svc, mock, _ := newGenerationFixture(t, detail, store)
	expectPlanTx(mock)
	expectPlanTx(mock)

	for run := 0; run < 2; run++ {
		resp, err := svc.GeneratePlan(context.Background(), dto.GeneratePlanRequest{OfferingDetailID: "detail-1"})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.LockedPreserved)
		assert.Equal(t, lockedInstance, resp.Meetings[0], "locked slot keeps every field, off-pattern date included")
	}
	for _, m := range store.created {
		assert.NotEqual(t, 2, m.MeetingNumber)
	}
}

func TestGeneratePlanCapacitySoftConflict(t *testing.T) {
	detail := weeklyDetail()
	detail.RoomIDs = []string{"room-b"}
	store := &meetingStoreStub{}
	svc, mock, _ := newGenerationFixture(t, detail, store)
	expectPlanTx(mock)

	resp, err := svc.GeneratePlan(context.Background(), dto.GeneratePlanRequest{OfferingDetailID: "detail-1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.SoftConflicts, "class of 35 in a 30-seat room is flagged")
	assert.Equal(t, string(models.ConflictCapacity), resp.SoftConflicts[0].Type)
}

func TestGenerateBatchAggregatesResults(t *testing.T) {
	detail := weeklyDetail()
	store := &meetingStoreStub{}
	svc, mock, _ := newGenerationFixture(t, detail, store)
	expectPlanTx(mock)

	resp, err := svc.GenerateBatch(context.Background(), dto.GenerateBatchRequest{TermID: "term-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 0, resp.Failed)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 16, resp.Items[0].Generated)
}

func TestGenerateBatchDisabledByConfig(t *testing.T) {
	detail := weeklyDetail()
	store := &meetingStoreStub{}
	txProvider, _ := newGenTxProviderMock(t)
	svc := NewGenerationService(
		offeringReaderStub{details: map[string]*models.CourseOfferingDetail{"detail-1": detail}},
		store,
		roomReaderStub{},
		lecturerReaderStub{},
		classGroupReaderStub{},
		txProvider,
		nil, nil, nil, nil, nil,
		GenerationServiceConfig{BatchGeneration: false},
	)

	_, err := svc.GenerateBatch(context.Background(), dto.GenerateBatchRequest{TermID: "term-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBatchDisabled.Code, appErrors.FromError(err).Code)
}

func TestSetMeetingLockedRequiresID(t *testing.T) {
	store := &meetingStoreStub{}
	svc, _, _ := newGenerationFixture(t, weeklyDetail(), store)

	err := svc.SetMeetingLocked(context.Background(), "", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
