package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/campusops/meetgen-api/internal/dto"
	"github.com/campusops/meetgen-api/internal/engine"
	"github.com/campusops/meetgen-api/internal/models"
	"github.com/campusops/meetgen-api/internal/repository"
	appErrors "github.com/campusops/meetgen-api/pkg/errors"
)

type meetingReader interface {
	FindByID(ctx context.Context, id string) (*models.MeetingInstance, error)
	ListByDetail(ctx context.Context, detailID string) ([]models.MeetingInstance, error)
	ListByDate(ctx context.Context, filter models.MeetingFilter) ([]models.MeetingInstance, error)
}

type conflictStore interface {
	Create(ctx context.Context, record *models.ConflictRecord) error
	FindByID(ctx context.Context, id string) (*models.ConflictRecord, error)
	List(ctx context.Context, filter models.ConflictFilter) ([]models.ConflictRecord, int, error)
	DeleteByMeeting(ctx context.Context, meetingID string) error
	UpdateStatus(ctx context.Context, id string, status models.ConflictStatus) error
	Resolve(ctx context.Context, record *models.ConflictRecord) error
	Summary(ctx context.Context, detailID string) ([]repository.SummaryRow, error)
}

type ruleReader interface {
	ListActive(ctx context.Context) ([]models.ConflictRule, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type offeringLister interface {
	ListByTerm(ctx context.Context, termID string) ([]models.CourseOfferingDetail, error)
}

type conflictCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type scanEnqueuer interface {
	Enqueue(detailID string) error
}

type conflictMetrics interface {
	ObserveConflictDetected(conflictType string)
	ObserveScan(outcome string)
	ObserveCache(hit bool)
}

const conflictSummaryCacheKey = "conflicts:summary:global"

// ConflictService runs the scanner over persisted meeting instances and owns
// the lifecycle of conflict records.
type ConflictService struct {
	meetings  meetingReader
	conflicts conflictStore
	rules     ruleReader
	courses   courseReader
	offerings offeringLister
	rooms     roomReader
	classes   classGroupReader
	cache     conflictCache
	queue     scanEnqueuer
	metrics   conflictMetrics
	validator *validator.Validate
	logger    *zap.Logger

	minGapMinutes   int
	summaryCacheTTL time.Duration
}

// ConflictServiceConfig tunes scanner behaviour.
type ConflictServiceConfig struct {
	MinGapMinutes   int
	SummaryCacheTTL time.Duration
}

// NewConflictService wires scanner dependencies. Cache, queue and metrics may
// be nil.
func NewConflictService(
	meetings meetingReader,
	conflicts conflictStore,
	rules ruleReader,
	courses courseReader,
	offerings offeringLister,
	rooms roomReader,
	classes classGroupReader,
	cache conflictCache,
	metrics conflictMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ConflictServiceConfig,
) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinGapMinutes <= 0 {
		cfg.MinGapMinutes = 15
	}
	if cfg.SummaryCacheTTL <= 0 {
		cfg.SummaryCacheTTL = 5 * time.Minute
	}
	return &ConflictService{
		meetings:        meetings,
		conflicts:       conflicts,
		rules:           rules,
		courses:         courses,
		offerings:       offerings,
		rooms:           rooms,
		classes:         classes,
		cache:           cache,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		minGapMinutes:   cfg.MinGapMinutes,
		summaryCacheTTL: cfg.SummaryCacheTTL,
	}
}

// SetQueue attaches the async scan queue after construction. The queue
// handler calls back into this service, so wiring happens in two steps.
func (s *ConflictService) SetQueue(queue scanEnqueuer) {
	s.queue = queue
}

// RequestScan enqueues a background scan for an offering detail. Falls back
// to a no-op when no queue is attached.
func (s *ConflictService) RequestScan(detailID string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(detailID); err != nil {
		s.logger.Warn("failed to enqueue scan", zap.String("offeringDetailId", detailID), zap.Error(err))
	}
}

// ScanMeeting re-evaluates one meeting against every other non-cancelled
// meeting on the same date. Prior open findings for the meeting are replaced.
func (s *ConflictService) ScanMeeting(ctx context.Context, meetingID string) (*dto.ScanResponse, error) {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "meeting not found")
	}
	if meeting.Status == models.MeetingCancelled {
		return &dto.ScanResponse{MeetingsScanned: 0}, nil
	}

	records, err := s.scanOne(ctx, *meeting, nil)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveScan("error")
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveScan("ok")
	}
	s.invalidateSummary(ctx)

	return &dto.ScanResponse{MeetingsScanned: 1, ConflictsFound: len(records), Records: records}, nil
}

// ScanAll evaluates every meeting of an offering detail or a whole term, or
// the meetings matching a date/room/lecturer filter. With Async set, detail
// and term scopes hand the work to the background queue per detail.
func (s *ConflictService) ScanAll(ctx context.Context, req dto.ScanAllRequest) (*dto.ScanResponse, error) {
	if req.Date != nil || req.RoomID != "" || req.LecturerID != "" {
		return s.scanFiltered(ctx, req)
	}
	if req.OfferingDetailID == "" && req.TermID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offeringDetailId, termId, or a date/room/lecturer filter is required")
	}

	detailIDs, err := s.resolveDetailIDs(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Async && s.queue != nil {
		for _, id := range detailIDs {
			s.RequestScan(id)
		}
		return &dto.ScanResponse{Enqueued: true}, nil
	}

	resp := &dto.ScanResponse{}
	for _, detailID := range detailIDs {
		scanned, records, scanErr := s.ScanDetail(ctx, detailID)
		if scanErr != nil {
			return nil, scanErr
		}
		resp.MeetingsScanned += scanned
		resp.ConflictsFound += len(records)
		resp.Records = append(resp.Records, records...)
	}
	return resp, nil
}

// scanFiltered evaluates the meetings matching a date/room/lecturer filter.
// Filter scans are always synchronous since they have no detail boundary to
// enqueue by.
func (s *ConflictService) scanFiltered(ctx context.Context, req dto.ScanAllRequest) (*dto.ScanResponse, error) {
	meetings, err := s.meetings.ListByDate(ctx, models.MeetingFilter{
		OfferingDetailID: req.OfferingDetailID,
		Date:             req.Date,
		RoomID:           req.RoomID,
		LecturerID:       req.LecturerID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings for scan")
	}

	resp := &dto.ScanResponse{}
	for _, meeting := range meetings {
		if meeting.Status == models.MeetingCancelled {
			continue
		}
		records, scanErr := s.scanOne(ctx, meeting, nil)
		if scanErr != nil {
			if s.metrics != nil {
				s.metrics.ObserveScan("error")
			}
			return nil, scanErr
		}
		resp.MeetingsScanned++
		resp.ConflictsFound += len(records)
		resp.Records = append(resp.Records, records...)
	}
	if s.metrics != nil {
		s.metrics.ObserveScan("ok")
	}
	s.invalidateSummary(ctx)
	return resp, nil
}

// ScanDetail runs the scanner over every meeting of one offering detail. The
// queue worker and the synchronous path both land here.
func (s *ConflictService) ScanDetail(ctx context.Context, detailID string) (int, []models.ConflictRecord, error) {
	meetings, err := s.meetings.ListByDetail(ctx, detailID)
	if err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings for scan")
	}

	scanned := 0
	var all []models.ConflictRecord
	for _, meeting := range meetings {
		if meeting.Status == models.MeetingCancelled {
			continue
		}
		records, scanErr := s.scanOne(ctx, meeting, nil)
		if scanErr != nil {
			if s.metrics != nil {
				s.metrics.ObserveScan("error")
			}
			return scanned, all, scanErr
		}
		scanned++
		all = append(all, records...)
	}
	if s.metrics != nil {
		s.metrics.ObserveScan("ok")
	}
	s.invalidateSummary(ctx)
	return scanned, all, nil
}

func (s *ConflictService) scanOne(ctx context.Context, meeting models.MeetingInstance, rulesByType map[models.ConflictType]models.ConflictRule) ([]models.ConflictRecord, error) {
	date := meeting.MeetingDate
	sameDay, err := s.meetings.ListByDate(ctx, models.MeetingFilter{Date: &date})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load same-day meetings")
	}

	others := make([]models.MeetingInstance, 0, len(sameDay))
	for _, other := range sameDay {
		if other.ID != meeting.ID {
			others = append(others, other)
		}
	}

	dctx, err := s.detectorContext(ctx, meeting, others)
	if err != nil {
		return nil, err
	}
	findings := engine.Detect(meeting, others, dctx)

	if rulesByType == nil {
		rulesByType, err = s.activeRulesByType(ctx)
		if err != nil {
			return nil, err
		}
	}
	level := s.courseLevel(ctx, meeting.CourseID)

	if err := s.conflicts.DeleteByMeeting(ctx, meeting.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to clear prior findings")
	}

	var records []models.ConflictRecord
	for _, finding := range findings {
		record := s.recordFromFinding(finding, rulesByType, level)
		if err := s.conflicts.Create(ctx, &record); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to store conflict record")
		}
		if s.metrics != nil {
			s.metrics.ObserveConflictDetected(string(record.Type))
		}
		records = append(records, record)
	}
	return records, nil
}

// recordFromFinding applies the policy layer: an applicable rule overrides
// severity, drives scoring, and marks blocking findings as needing approval.
func (s *ConflictService) recordFromFinding(finding engine.Finding, rulesByType map[models.ConflictType]models.ConflictRule, level models.CourseLevel) models.ConflictRecord {
	record := models.ConflictRecord{
		Type:                 finding.Type,
		Severity:             finding.Severity,
		MeetingID:            finding.MeetingID,
		ConflictingMeetingID: finding.ConflictingMeetingID,
		Status:               models.ConflictDetected,
	}

	if rule, ok := rulesByType[finding.Type]; ok && rule.AppliesAt(time.Now()) {
		record.Severity = rule.Severity
		record.RequiresApproval = rule.Blocking
		record.AutoResolvable = rule.AutoResolvable
		record.ImpactScore = engine.ScoreWithRule(rule, finding, level)
	} else {
		record.ImpactScore = engine.Score(finding, level)
	}

	details := finding.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	details["message"] = finding.Message
	if payload, err := json.Marshal(details); err == nil {
		record.Details = types.JSONText(payload)
	}
	return record
}

func (s *ConflictService) detectorContext(ctx context.Context, meeting models.MeetingInstance, others []models.MeetingInstance) (engine.DetectorContext, error) {
	dctx := engine.DetectorContext{
		RoomCapacity:  map[string]int{},
		ClassSize:     map[string]int{},
		MinGapMinutes: s.minGapMinutes,
	}

	roomIDs := map[string]bool{}
	classIDs := map[string]bool{}
	collect := func(m models.MeetingInstance) {
		if m.RoomID != nil {
			roomIDs[*m.RoomID] = true
		}
		if m.ClassGroupID != nil {
			classIDs[*m.ClassGroupID] = true
		}
	}
	collect(meeting)
	for _, other := range others {
		collect(other)
	}

	if len(roomIDs) > 0 && s.rooms != nil {
		ids := make([]string, 0, len(roomIDs))
		for id := range roomIDs {
			ids = append(ids, id)
		}
		rooms, err := s.rooms.ListByIDs(ctx, ids)
		if err != nil {
			return dctx, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms for scan")
		}
		for _, room := range rooms {
			dctx.RoomCapacity[room.ID] = room.Capacity
		}
	}

	if s.classes != nil {
		for id := range classIDs {
			if group, err := s.classes.FindByID(ctx, id); err == nil {
				dctx.ClassSize[id] = group.EnrollmentSize
			}
		}
	}
	return dctx, nil
}

// activeRulesByType keeps the highest-priority rule per conflict type. The
// repository already orders by priority then version.
func (s *ConflictService) activeRulesByType(ctx context.Context) (map[models.ConflictType]models.ConflictRule, error) {
	if s.rules == nil {
		return map[models.ConflictType]models.ConflictRule{}, nil
	}
	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conflict rules")
	}
	byType := make(map[models.ConflictType]models.ConflictRule, len(rules))
	for _, rule := range rules {
		if _, exists := byType[rule.ConflictType]; !exists {
			byType[rule.ConflictType] = rule
		}
	}
	return byType, nil
}

func (s *ConflictService) courseLevel(ctx context.Context, courseID string) models.CourseLevel {
	if s.courses == nil {
		return models.LevelUndergraduate
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return models.LevelUndergraduate
	}
	return course.Level
}

func (s *ConflictService) resolveDetailIDs(ctx context.Context, req dto.ScanAllRequest) ([]string, error) {
	if req.OfferingDetailID != "" {
		return []string{req.OfferingDetailID}, nil
	}
	details, err := s.offerings.ListByTerm(ctx, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list term offerings")
	}
	ids := make([]string, len(details))
	for i, detail := range details {
		ids[i] = detail.ID
	}
	return ids, nil
}

// ListConflicts returns persisted findings for triage.
func (s *ConflictService) ListConflicts(ctx context.Context, req dto.ConflictListRequest) ([]models.ConflictRecord, *models.Pagination, error) {
	filter := models.ConflictFilter{
		MeetingID:        req.MeetingID,
		OfferingDetailID: req.OfferingDetailID,
		Type:             models.ConflictType(req.Type),
		Status:           models.ConflictStatus(req.Status),
		Unresolved:       req.Unresolved,
		Page:             req.Page,
		PageSize:         req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	records, total, err := s.conflicts.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conflicts")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return records, pagination, nil
}

// GetConflict loads one conflict record.
func (s *ConflictService) GetConflict(ctx context.Context, id string) (*models.ConflictRecord, error) {
	record, err := s.conflicts.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "conflict record not found")
	}
	return record, nil
}

// ResolveConflict closes a conflict with a chosen strategy. Terminal records
// reject further resolution.
func (s *ConflictService) ResolveConflict(ctx context.Context, id string, req dto.ResolveConflictRequest) (*models.ConflictRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}
	strategy := models.ResolutionStrategy(req.Strategy)
	if !strategy.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidStrategy, fmt.Sprintf("unknown resolution strategy %q", req.Strategy))
	}

	record, err := s.conflicts.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "conflict record not found")
	}
	if record.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatusTransition, fmt.Sprintf("conflict is already %s", record.Status))
	}

	now := time.Now().UTC()
	record.Status = models.ConflictResolved
	record.ResolutionStrategy = &strategy
	record.ResolvedAt = &now
	record.ResolvedBy = &req.ResolvedBy
	if req.Notes != "" {
		record.ResolutionNotes = &req.Notes
	}

	if err := s.conflicts.Resolve(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to resolve conflict")
	}
	s.invalidateSummary(ctx)

	s.logger.Info("conflict resolved",
		zap.String("conflictId", id),
		zap.String("strategy", string(strategy)),
		zap.String("resolvedBy", req.ResolvedBy))
	return record, nil
}

// UpdateConflictStatus moves a record through the review workflow. Resolution
// itself must go through ResolveConflict so a strategy is always captured.
func (s *ConflictService) UpdateConflictStatus(ctx context.Context, id string, req dto.UpdateConflictStatusRequest) (*models.ConflictRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	target := models.ConflictStatus(req.Status)

	record, err := s.conflicts.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "conflict record not found")
	}
	if !statusTransitionAllowed(record.Status, target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatusTransition, fmt.Sprintf("cannot move conflict from %s to %s", record.Status, target))
	}

	if err := s.conflicts.UpdateStatus(ctx, id, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to update conflict status")
	}
	record.Status = target
	s.invalidateSummary(ctx)
	return record, nil
}

// statusTransitionAllowed encodes the review workflow. Resolved is reachable
// only through ResolveConflict.
func statusTransitionAllowed(from, to models.ConflictStatus) bool {
	switch from {
	case models.ConflictDetected:
		return to == models.ConflictReviewing || to == models.ConflictIgnored
	case models.ConflictReviewing:
		return to == models.ConflictIgnored
	}
	return false
}

// ConflictSummary aggregates open conflicts for dashboards, either globally
// or for one offering detail. The result is cached briefly since every scan
// invalidates it anyway.
func (s *ConflictService) ConflictSummary(ctx context.Context, detailID string) (*dto.ConflictSummaryResponse, error) {
	cacheKey := conflictSummaryCacheKey
	if detailID != "" {
		cacheKey = "conflicts:summary:detail:" + detailID
	}
	if s.cache != nil {
		var cached dto.ConflictSummaryResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.ObserveCache(true)
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.ObserveCache(false)
		}
	}

	rows, err := s.conflicts.Summary(ctx, detailID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise conflicts")
	}

	summary := &dto.ConflictSummaryResponse{
		ByType:     map[string]int{},
		BySeverity: map[string]int{},
		ByStatus:   map[string]int{},
	}
	for _, row := range rows {
		summary.Total += row.Count
		summary.ByType[string(row.Type)] += row.Count
		summary.BySeverity[string(row.Severity)] += row.Count
		summary.ByStatus[string(row.Status)] += row.Count
		if row.MaxImpact > summary.MaxImpact {
			summary.MaxImpact = row.MaxImpact
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.summaryCacheTTL); err != nil {
			s.logger.Warn("failed to cache conflict summary", zap.Error(err))
		}
	}
	return summary, nil
}

func (s *ConflictService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "conflicts:summary:*"); err != nil {
		s.logger.Warn("failed to invalidate conflict summary cache", zap.Error(err))
	}
}
