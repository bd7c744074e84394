package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusops/meetgen-api/internal/dto"
	"github.com/campusops/meetgen-api/internal/models"
	appErrors "github.com/campusops/meetgen-api/pkg/errors"
	"github.com/campusops/meetgen-api/pkg/export"
	"github.com/campusops/meetgen-api/pkg/response"
)

type planGenerator interface {
	GeneratePlan(ctx context.Context, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error)
	GenerateBatch(ctx context.Context, req dto.GenerateBatchRequest) (*dto.GenerateBatchResponse, error)
	ListMeetings(ctx context.Context, req dto.MeetingListRequest) ([]models.MeetingInstance, error)
	SetMeetingLocked(ctx context.Context, meetingID string, locked bool) error
}

// GenerationHandler exposes meeting plan endpoints.
type GenerationHandler struct {
	service  planGenerator
	exporter *export.CSVExporter
}

// NewGenerationHandler constructs the handler.
func NewGenerationHandler(svc planGenerator) *GenerationHandler {
	return &GenerationHandler{service: svc, exporter: export.NewCSVExporter()}
}

// GeneratePlan regenerates the meeting plan for one offering detail.
func (h *GenerationHandler) GeneratePlan(c *gin.Context) {
	var req dto.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.service.GeneratePlan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GeneratePlanForDetail regenerates the plan for the offering detail named in
// the path. The body is optional.
func (h *GenerationHandler) GeneratePlanForDetail(c *gin.Context) {
	req := dto.GeneratePlanRequest{OfferingDetailID: c.Param("id")}
	result, err := h.service.GeneratePlan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GenerateBatch regenerates every offering detail of a term.
func (h *GenerationHandler) GenerateBatch(c *gin.Context) {
	var req dto.GenerateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	result, err := h.service.GenerateBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListMeetings returns stored meeting instances filtered by query params.
func (h *GenerationHandler) ListMeetings(c *gin.Context) {
	req := dto.MeetingListRequest{
		OfferingDetailID: c.Query("offeringDetailId"),
		RoomID:           c.Query("roomId"),
		LecturerID:       c.Query("lecturerId"),
	}
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		req.Date = &parsed
	}
	result, err := h.service.ListMeetings(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListMeetingsForDetail returns the stored plan of the offering detail named
// in the path.
func (h *GenerationHandler) ListMeetingsForDetail(c *gin.Context) {
	result, err := h.service.ListMeetings(c.Request.Context(), dto.MeetingListRequest{OfferingDetailID: c.Param("id")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExportMeetings streams the stored plan of one offering detail as CSV.
func (h *GenerationHandler) ExportMeetings(c *gin.Context) {
	detailID := c.Query("offeringDetailId")
	if detailID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "offeringDetailId is required"))
		return
	}
	meetings, err := h.service.ListMeetings(c.Request.Context(), dto.MeetingListRequest{OfferingDetailID: detailID})
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.exporter.RenderMeetings(meetings)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="meeting-plan.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// SetLocked toggles regeneration protection on one meeting.
func (h *GenerationHandler) SetLocked(c *gin.Context) {
	var req dto.SetMeetingLockedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lock payload"))
		return
	}
	if err := h.service.SetMeetingLocked(c.Request.Context(), c.Param("id"), req.Locked); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": c.Param("id"), "locked": req.Locked}, nil)
}
