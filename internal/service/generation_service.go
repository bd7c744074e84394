package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusops/meetgen-api/internal/dto"
	"github.com/campusops/meetgen-api/internal/engine"
	"github.com/campusops/meetgen-api/internal/models"
	appErrors "github.com/campusops/meetgen-api/pkg/errors"
)

type offeringReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseOfferingDetail, error)
	ListByTerm(ctx context.Context, termID string) ([]models.CourseOfferingDetail, error)
}

type meetingStore interface {
	ListByDetail(ctx context.Context, detailID string) ([]models.MeetingInstance, error)
	ListLockedByDetail(ctx context.Context, detailID string) ([]models.MeetingInstance, error)
	DeleteUnlockedByDetail(ctx context.Context, exec sqlx.ExtContext, detailID string) error
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, meetings []models.MeetingInstance) error
	ListByDate(ctx context.Context, filter models.MeetingFilter) ([]models.MeetingInstance, error)
	SetLocked(ctx context.Context, id string, locked bool) error
}

type roomReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Room, error)
	ListActiveWithCapacity(ctx context.Context, minCapacity int) ([]models.Room, error)
}

type lecturerReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Lecturer, error)
}

type classGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassGroup, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generationCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type scanRequester interface {
	RequestScan(detailID string)
}

type generationMetrics interface {
	ObservePlanGenerated(meetings int, duration time.Duration)
}

// GenerationService turns course offering details into concrete meeting
// instances. Regeneration is idempotent: locked meetings survive, everything
// else is rebuilt inside one transaction.
type GenerationService struct {
	offerings offeringReader
	meetings  meetingStore
	rooms     roomReader
	lecturers lecturerReader
	classes   classGroupReader
	tx        txProvider
	cache     generationCacheInvalidator
	scans     scanRequester
	metrics   generationMetrics
	validator *validator.Validate
	logger    *zap.Logger

	batchEnabled bool
}

// GenerationServiceConfig tunes generator behaviour.
type GenerationServiceConfig struct {
	BatchGeneration bool
}

// NewGenerationService wires generator dependencies. Cache, scans and metrics
// may be nil.
func NewGenerationService(
	offerings offeringReader,
	meetings meetingStore,
	rooms roomReader,
	lecturers lecturerReader,
	classes classGroupReader,
	tx txProvider,
	cache generationCacheInvalidator,
	scans scanRequester,
	metrics generationMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GenerationServiceConfig,
) *GenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		offerings:    offerings,
		meetings:     meetings,
		rooms:        rooms,
		lecturers:    lecturers,
		classes:      classes,
		tx:           tx,
		cache:        cache,
		scans:        scans,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		batchEnabled: cfg.BatchGeneration,
	}
}

// GeneratePlan builds the full meeting plan for one offering detail.
func (s *GenerationService) GeneratePlan(ctx context.Context, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	return s.generate(ctx, req.OfferingDetailID, nil)
}

// GenerateBatch regenerates every offering detail of a term. Room usage is
// shared across details so the least-used fallback balances rooms term-wide.
func (s *GenerationService) GenerateBatch(ctx context.Context, req dto.GenerateBatchRequest) (*dto.GenerateBatchResponse, error) {
	if !s.batchEnabled {
		return nil, appErrors.Clone(appErrors.ErrBatchDisabled, "batch generation is disabled by configuration")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	details, err := s.offerings.ListByTerm(ctx, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offering details")
	}

	usage := engine.NewRoomUsage()
	resp := &dto.GenerateBatchResponse{TermID: req.TermID}
	for _, detail := range details {
		item := dto.BatchItemResult{OfferingDetailID: detail.ID}
		result, genErr := s.generate(ctx, detail.ID, usage)
		if genErr != nil {
			item.Error = appErrors.FromError(genErr).Message
			resp.Failed++
		} else {
			item.Generated = result.Generated
			item.LockedPreserved = result.LockedPreserved
			resp.Succeeded++
		}
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

func (s *GenerationService) generate(ctx context.Context, detailID string, usage *engine.RoomUsage) (*dto.GeneratePlanResponse, error) {
	started := time.Now()

	detail, err := s.offerings.FindByID(ctx, detailID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "offering detail not found")
	}
	if field := detail.Validate(); field != "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidOfferingDetail, fmt.Sprintf("offering detail field %q is invalid", field))
	}
	if detail.StartDate.After(detail.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "offering start date is after end date")
	}

	// TotalMeetings caps the plan; zero means a zero-meeting plan, and a range
	// with fewer matching dates shortens it.
	dates := engine.EnumerateDates(detail.StartDate, detail.EndDate, detail.Weekday, detail.TotalMeetings)
	total := detail.TotalMeetings
	if total > len(dates) {
		total = len(dates)
	}

	locked, err := s.meetings.ListLockedByDetail(ctx, detailID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to load locked meetings")
	}
	lockedByNumber := make(map[int]models.MeetingInstance, len(locked))
	for _, m := range locked {
		lockedByNumber[m.MeetingNumber] = m
	}

	instructors, err := s.activeLecturers(ctx, detail.LecturerIDs)
	if err != nil {
		return nil, err
	}

	classSize := 0
	if detail.ClassGroupID != nil && s.classes != nil {
		if group, lookupErr := s.classes.FindByID(ctx, *detail.ClassGroupID); lookupErr == nil {
			classSize = group.EnrollmentSize
		}
	}

	roomCapacity, err := s.roomCapacities(ctx, detail.RoomIDs)
	if err != nil {
		return nil, err
	}

	offlineCount := total - int(float64(total)*float64(detail.OnlinePercentage)/100.0+0.5)

	resp := &dto.GeneratePlanResponse{
		OfferingDetailID: detailID,
		TotalMeetings:    total,
		OfflineCount:     offlineCount,
		OnlineCount:      total - offlineCount,
	}

	var generated []models.MeetingInstance
	for n := 1; n <= total; n++ {
		if preserved, ok := lockedByNumber[n]; ok {
			resp.LockedPreserved++
			resp.Meetings = append(resp.Meetings, preserved)
			continue
		}

		kind, spm := engine.Classify(n, total)
		isOnline := n > offlineCount

		meeting := models.MeetingInstance{
			OfferingDetailID:   detailID,
			CourseID:           detail.CourseID,
			ClassGroupID:       detail.ClassGroupID,
			MeetingNumber:      n,
			MeetingDate:        dates[n-1],
			StartTime:          detail.StartTime,
			EndTime:            detail.EndTime,
			SessionKind:        kind,
			SessionsPerMeeting: spm,
			IsOnline:           isOnline,
			Status:             models.MeetingApproved,
		}

		// A session that cannot be staffed or housed becomes a soft conflict,
		// not an abort. The partial plan still persists.
		instructor, instErr := engine.InstructorForSession(instructors, n-1, total)
		if instErr != nil {
			resp.SoftConflicts = append(resp.SoftConflicts, dto.SoftConflict{
				MeetingNumber: n,
				Type:          string(models.ConflictInstructor),
				Message:       "no active lecturer resolvable for this session",
			})
			continue
		}
		meeting.LecturerID = instructor

		if !isOnline {
			roomID, softConflicts, roomErr := s.assignRoom(ctx, detail, n, classSize, roomCapacity, usage)
			if roomErr != nil {
				resp.SoftConflicts = append(resp.SoftConflicts, dto.SoftConflict{
					MeetingNumber: n,
					Type:          string(models.ConflictRoom),
					Message:       appErrors.FromError(roomErr).Message,
				})
			} else {
				meeting.RoomID = &roomID
				resp.SoftConflicts = append(resp.SoftConflicts, softConflicts...)
			}
		}

		generated = append(generated, meeting)
	}

	if err := s.persist(ctx, detailID, generated); err != nil {
		return nil, err
	}

	resp.Generated = len(generated)
	resp.Meetings = append(resp.Meetings, generated...)

	if s.metrics != nil {
		s.metrics.ObservePlanGenerated(len(generated), time.Since(started))
	}
	if s.cache != nil {
		if cacheErr := s.cache.DeleteByPattern(ctx, "conflicts:summary:*"); cacheErr != nil {
			s.logger.Warn("failed to invalidate conflict summary cache", zap.Error(cacheErr))
		}
	}
	if s.scans != nil {
		s.scans.RequestScan(detailID)
	}

	s.logger.Info("meeting plan generated",
		zap.String("offeringDetailId", detailID),
		zap.Int("generated", resp.Generated),
		zap.Int("lockedPreserved", resp.LockedPreserved))

	return resp, nil
}

// assignRoom rotates through the offering's candidate rooms. In batch mode an
// offering without candidates falls back to the least-used active room that
// fits the class.
func (s *GenerationService) assignRoom(ctx context.Context, detail *models.CourseOfferingDetail, meetingNumber, classSize int, roomCapacity map[string]int, usage *engine.RoomUsage) (string, []dto.SoftConflict, error) {
	roomID, ok := engine.RoomForSession(detail.RoomIDs, meetingNumber-1)
	if !ok {
		if usage == nil || s.rooms == nil {
			return "", nil, appErrors.Clone(appErrors.ErrNoCandidateRoom, "offering has no candidate room for offline meetings")
		}
		fallback, err := s.rooms.ListActiveWithCapacity(ctx, classSize)
		if err != nil || len(fallback) == 0 {
			return "", nil, appErrors.Clone(appErrors.ErrNoCandidateRoom, "no active room fits the class")
		}
		ids := make([]string, len(fallback))
		for i, room := range fallback {
			ids[i] = room.ID
			roomCapacity[room.ID] = room.Capacity
		}
		roomID, _ = usage.LeastUsed(ids)
	}

	if usage != nil {
		usage.Record(roomID)
	}

	var soft []dto.SoftConflict
	if capacity, known := roomCapacity[roomID]; known && classSize > 0 && classSize > capacity {
		soft = append(soft, dto.SoftConflict{
			MeetingNumber: meetingNumber,
			Type:          string(models.ConflictCapacity),
			Message:       fmt.Sprintf("class size %d exceeds room capacity %d", classSize, capacity),
		})
	}
	return roomID, soft, nil
}

func (s *GenerationService) persist(ctx context.Context, detailID string, generated []models.MeetingInstance) error {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.meetings.DeleteUnlockedByDetail(ctx, tx, detailID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to clear previous plan")
		return err
	}
	if len(generated) > 0 {
		if err = s.meetings.BulkCreateWithTx(ctx, tx, generated); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to store meeting plan")
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to commit meeting plan")
		return err
	}
	return nil
}

func (s *GenerationService) activeLecturers(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	lecturers, err := s.lecturers.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturers")
	}
	active := make(map[string]bool, len(lecturers))
	for _, l := range lecturers {
		active[l.ID] = l.Active
	}
	// Preserve the offering's ordering; the first active entry is primary.
	var result []string
	for _, id := range ids {
		if active[id] {
			result = append(result, id)
		}
	}
	return result, nil
}

func (s *GenerationService) roomCapacities(ctx context.Context, ids []string) (map[string]int, error) {
	capacities := make(map[string]int)
	if len(ids) == 0 || s.rooms == nil {
		return capacities, nil
	}
	rooms, err := s.rooms.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	for _, room := range rooms {
		capacities[room.ID] = room.Capacity
	}
	return capacities, nil
}

// ListMeetings returns the stored plan for browsing.
func (s *GenerationService) ListMeetings(ctx context.Context, req dto.MeetingListRequest) ([]models.MeetingInstance, error) {
	if req.OfferingDetailID != "" && req.Date == nil && req.RoomID == "" && req.LecturerID == "" {
		meetings, err := s.meetings.ListByDetail(ctx, req.OfferingDetailID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
		}
		return meetings, nil
	}
	meetings, err := s.meetings.ListByDate(ctx, models.MeetingFilter{
		OfferingDetailID: req.OfferingDetailID,
		Date:             req.Date,
		RoomID:           req.RoomID,
		LecturerID:       req.LecturerID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}
	return meetings, nil
}

// SetMeetingLocked toggles regeneration protection for one meeting.
func (s *GenerationService) SetMeetingLocked(ctx context.Context, meetingID string, lockedWanted bool) error {
	if meetingID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "meeting id is required")
	}
	if err := s.meetings.SetLocked(ctx, meetingID, lockedWanted); err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "meeting not found")
	}
	return nil
}
