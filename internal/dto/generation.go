package dto

import (
	"time"

	"github.com/campusops/meetgen-api/internal/models"
)

// GeneratePlanRequest triggers meeting generation for one offering detail.
type GeneratePlanRequest struct {
	OfferingDetailID string `json:"offeringDetailId" validate:"required"`
}

// GenerateBatchRequest triggers generation for every offering detail of a term.
type GenerateBatchRequest struct {
	TermID string `json:"termId" validate:"required"`
}

// SoftConflict flags a suspect assignment produced during generation. It is
// advisory only; the scanner owns the persisted conflict records.
type SoftConflict struct {
	MeetingNumber int    `json:"meetingNumber"`
	Type          string `json:"type"`
	Message       string `json:"message"`
}

// GeneratePlanResponse summarizes a single-offering generation run.
type GeneratePlanResponse struct {
	OfferingDetailID string                   `json:"offeringDetailId"`
	TotalMeetings    int                      `json:"totalMeetings"`
	Generated        int                      `json:"generated"`
	LockedPreserved  int                      `json:"lockedPreserved"`
	OfflineCount     int                      `json:"offlineCount"`
	OnlineCount      int                      `json:"onlineCount"`
	Meetings         []models.MeetingInstance `json:"meetings"`
	SoftConflicts    []SoftConflict           `json:"softConflicts,omitempty"`
}

// BatchItemResult reports the outcome for one offering detail within a batch.
type BatchItemResult struct {
	OfferingDetailID string `json:"offeringDetailId"`
	Generated        int    `json:"generated"`
	LockedPreserved  int    `json:"lockedPreserved"`
	Error            string `json:"error,omitempty"`
}

// GenerateBatchResponse summarizes a term-wide generation run.
type GenerateBatchResponse struct {
	TermID    string            `json:"termId"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Items     []BatchItemResult `json:"items"`
}

// MeetingListRequest captures query params for listing meetings.
type MeetingListRequest struct {
	OfferingDetailID string     `json:"offeringDetailId"`
	RoomID           string     `json:"roomId"`
	LecturerID       string     `json:"lecturerId"`
	Date             *time.Time `json:"date"`
}

// SetMeetingLockedRequest toggles regeneration protection on a meeting.
type SetMeetingLockedRequest struct {
	Locked bool `json:"locked"`
}
