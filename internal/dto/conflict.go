package dto

import (
	"time"

	"github.com/campusops/meetgen-api/internal/models"
)

// ScanMeetingRequest asks the scanner to re-evaluate one meeting.
type ScanMeetingRequest struct {
	MeetingID string `json:"meetingId" validate:"required"`
}

// ScanAllRequest asks the scanner to evaluate a set of meetings: every
// meeting of an offering detail or term, or the meetings matching a
// date/room/lecturer filter. Async mode applies to detail and term scopes.
type ScanAllRequest struct {
	OfferingDetailID string     `json:"offeringDetailId"`
	TermID           string     `json:"termId"`
	Date             *time.Time `json:"date"`
	RoomID           string     `json:"roomId"`
	LecturerID       string     `json:"lecturerId"`
	Async            bool       `json:"async"`
}

// ScanResponse summarizes a scan run.
type ScanResponse struct {
	MeetingsScanned int                     `json:"meetingsScanned"`
	ConflictsFound  int                     `json:"conflictsFound"`
	Records         []models.ConflictRecord `json:"records,omitempty"`
	Enqueued        bool                    `json:"enqueued,omitempty"`
}

// ResolveConflictRequest closes a conflict with a chosen strategy.
type ResolveConflictRequest struct {
	Strategy   string `json:"strategy" validate:"required"`
	Notes      string `json:"notes"`
	ResolvedBy string `json:"resolvedBy" validate:"required"`
}

// UpdateConflictStatusRequest moves a conflict through its review workflow.
type UpdateConflictStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ConflictListRequest captures query params for listing conflict records.
type ConflictListRequest struct {
	MeetingID        string `json:"meetingId"`
	OfferingDetailID string `json:"offeringDetailId"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	Unresolved       bool   `json:"unresolved"`
	Page             int    `json:"page"`
	PageSize         int    `json:"pageSize"`
}

// ConflictSummaryResponse aggregates open conflicts for dashboards.
type ConflictSummaryResponse struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"byType"`
	BySeverity map[string]int `json:"bySeverity"`
	ByStatus   map[string]int `json:"byStatus"`
	MaxImpact  float64        `json:"maxImpact"`
}
