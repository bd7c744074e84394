package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ConflictType identifies the detector that produced a finding.
type ConflictType string

const (
	ConflictRoom       ConflictType = "room"
	ConflictInstructor ConflictType = "instructor"
	ConflictClass      ConflictType = "class"
	ConflictCapacity   ConflictType = "capacity"
	ConflictTimeGap    ConflictType = "time_gap"
	ConflictOther      ConflictType = "other"
)

// ConflictSeverity grades a finding for triage.
type ConflictSeverity string

const (
	SeverityLow      ConflictSeverity = "low"
	SeverityMedium   ConflictSeverity = "medium"
	SeverityHigh     ConflictSeverity = "high"
	SeverityCritical ConflictSeverity = "critical"
)

// ConflictStatus is the triage state of a persisted finding.
// detected -> reviewing -> resolved, or detected/reviewing -> ignored.
type ConflictStatus string

const (
	ConflictDetected  ConflictStatus = "detected"
	ConflictReviewing ConflictStatus = "reviewing"
	ConflictResolved  ConflictStatus = "resolved"
	ConflictIgnored   ConflictStatus = "ignored"
)

// Unresolved reports whether the status still counts toward triage load.
func (s ConflictStatus) Unresolved() bool {
	return s == ConflictDetected || s == ConflictReviewing
}

// Terminal reports whether the status admits no further mutation.
func (s ConflictStatus) Terminal() bool {
	return s == ConflictResolved || s == ConflictIgnored
}

// ResolutionStrategy is the fixed enum of ways a conflict may be resolved.
type ResolutionStrategy string

const (
	ResolveReschedulePrimary     ResolutionStrategy = "reschedule_primary"
	ResolveRescheduleConflicting ResolutionStrategy = "reschedule_conflicting"
	ResolveChangeRoom            ResolutionStrategy = "change_room"
	ResolveChangeLecturer        ResolutionStrategy = "change_lecturer"
	ResolveChangeClass           ResolutionStrategy = "change_class"
	ResolveAdjustTime            ResolutionStrategy = "adjust_time"
	ResolveOverride              ResolutionStrategy = "override"
	ResolveManual                ResolutionStrategy = "manual"
)

// Valid reports whether the strategy is one of the fixed enum values.
func (r ResolutionStrategy) Valid() bool {
	switch r {
	case ResolveReschedulePrimary, ResolveRescheduleConflicting, ResolveChangeRoom,
		ResolveChangeLecturer, ResolveChangeClass, ResolveAdjustTime,
		ResolveOverride, ResolveManual:
		return true
	}
	return false
}

// ConflictRecord is a persisted detector finding. The scanner creates it;
// a triage workflow moves it through statuses; the scanner never mutates it
// after creation except by superseding it in a fresh scan.
type ConflictRecord struct {
	ID                   string              `db:"id" json:"id"`
	Type                 ConflictType        `db:"type" json:"type"`
	Severity             ConflictSeverity    `db:"severity" json:"severity"`
	MeetingID            string              `db:"meeting_id" json:"meeting_id"`
	ConflictingMeetingID *string             `db:"conflicting_meeting_id" json:"conflicting_meeting_id,omitempty"`
	ImpactScore          float64             `db:"impact_score" json:"impact_score"`
	Status               ConflictStatus      `db:"status" json:"status"`
	ResolutionStrategy   *ResolutionStrategy `db:"resolution_strategy" json:"resolution_strategy,omitempty"`
	ResolutionNotes      *string             `db:"resolution_notes" json:"resolution_notes,omitempty"`
	ResolvedBy           *string             `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt           *time.Time          `db:"resolved_at" json:"resolved_at,omitempty"`
	RequiresApproval     bool                `db:"requires_approval" json:"requires_approval"`
	AutoResolvable       bool                `db:"auto_resolvable" json:"auto_resolvable"`
	Details              types.JSONText      `db:"details" json:"details,omitempty"`
	CreatedAt            time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time           `db:"updated_at" json:"updated_at"`
}

// ConflictFilter describes query params for listing conflict records.
type ConflictFilter struct {
	MeetingID        string
	OfferingDetailID string
	Type             ConflictType
	Status           ConflictStatus
	Unresolved       bool
	Page             int
	PageSize         int
}
