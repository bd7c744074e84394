package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusops/meetgen-api/internal/dto"
	"github.com/campusops/meetgen-api/internal/models"
	appErrors "github.com/campusops/meetgen-api/pkg/errors"
	"github.com/campusops/meetgen-api/pkg/response"
)

type conflictScanner interface {
	ScanMeeting(ctx context.Context, meetingID string) (*dto.ScanResponse, error)
	ScanAll(ctx context.Context, req dto.ScanAllRequest) (*dto.ScanResponse, error)
	ListConflicts(ctx context.Context, req dto.ConflictListRequest) ([]models.ConflictRecord, *models.Pagination, error)
	GetConflict(ctx context.Context, id string) (*models.ConflictRecord, error)
	ResolveConflict(ctx context.Context, id string, req dto.ResolveConflictRequest) (*models.ConflictRecord, error)
	UpdateConflictStatus(ctx context.Context, id string, req dto.UpdateConflictStatusRequest) (*models.ConflictRecord, error)
	ConflictSummary(ctx context.Context, detailID string) (*dto.ConflictSummaryResponse, error)
}

// ConflictHandler exposes scanner and triage endpoints.
type ConflictHandler struct {
	service conflictScanner
}

// NewConflictHandler constructs the handler.
func NewConflictHandler(svc conflictScanner) *ConflictHandler {
	return &ConflictHandler{service: svc}
}

// ScanMeeting re-evaluates one meeting.
func (h *ConflictHandler) ScanMeeting(c *gin.Context) {
	result, err := h.service.ScanMeeting(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ScanAll evaluates an offering detail or a whole term, optionally async.
func (h *ConflictHandler) ScanAll(c *gin.Context) {
	var req dto.ScanAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scan payload"))
		return
	}
	result, err := h.service.ScanAll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Enqueued {
		response.JSON(c, http.StatusAccepted, result, nil)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List returns conflict records for triage.
func (h *ConflictHandler) List(c *gin.Context) {
	req := dto.ConflictListRequest{
		MeetingID:        c.Query("meetingId"),
		OfferingDetailID: c.Query("offeringDetailId"),
		Type:             c.Query("type"),
		Status:           c.Query("status"),
	}
	req.Unresolved = c.Query("unresolved") == "true"
	req.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	req.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	records, pagination, err := h.service.ListConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get loads one conflict record.
func (h *ConflictHandler) Get(c *gin.Context) {
	record, err := h.service.GetConflict(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Resolve closes a conflict with a chosen strategy.
func (h *ConflictHandler) Resolve(c *gin.Context) {
	var req dto.ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}
	record, err := h.service.ResolveConflict(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// UpdateStatus moves a conflict through the review workflow.
func (h *ConflictHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateConflictStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	record, err := h.service.UpdateConflictStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Summary aggregates open conflicts for dashboards. When mounted under an
// offering detail route the path id narrows the aggregation.
func (h *ConflictHandler) Summary(c *gin.Context) {
	detailID := c.Param("id")
	if detailID == "" {
		detailID = c.Query("offeringDetailId")
	}
	summary, err := h.service.ConflictSummary(c.Request.Context(), detailID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
