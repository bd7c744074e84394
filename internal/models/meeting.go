package models

import "time"

// SessionKind classifies a meeting within the term sequence.
type SessionKind string

const (
	SessionRegular SessionKind = "regular"
	SessionMidterm SessionKind = "midterm"
	SessionFinal   SessionKind = "final"
)

// MeetingStatus is the downstream workflow state of a meeting instance.
type MeetingStatus string

const (
	MeetingDraft     MeetingStatus = "draft"
	MeetingApproved  MeetingStatus = "approved"
	MeetingCancelled MeetingStatus = "cancelled"
)

// MeetingInstance is one concrete, dated class session generated from an
// offering detail. MeetingNumber is 1-based and unique within the detail.
// A locked instance survives regeneration unconditionally.
type MeetingInstance struct {
	ID                 string        `db:"id" json:"id"`
	OfferingDetailID   string        `db:"offering_detail_id" json:"offering_detail_id"`
	CourseID           string        `db:"course_id" json:"course_id"`
	ClassGroupID       *string       `db:"class_group_id" json:"class_group_id,omitempty"`
	MeetingNumber      int           `db:"meeting_number" json:"meeting_number"`
	MeetingDate        time.Time     `db:"meeting_date" json:"meeting_date"`
	StartTime          string        `db:"start_time" json:"start_time"`
	EndTime            string        `db:"end_time" json:"end_time"`
	RoomID             *string       `db:"room_id" json:"room_id,omitempty"`
	LecturerID         string        `db:"lecturer_id" json:"lecturer_id"`
	SessionKind        SessionKind   `db:"session_kind" json:"session_kind"`
	SessionsPerMeeting int           `db:"sessions_per_meeting" json:"sessions_per_meeting"`
	IsOnline           bool          `db:"is_online" json:"is_online"`
	Locked             bool          `db:"locked" json:"locked"`
	Status             MeetingStatus `db:"status" json:"status"`
	RescheduledFromID  *string       `db:"rescheduled_from_id" json:"rescheduled_from_id,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// MeetingFilter describes query params for listing meetings.
type MeetingFilter struct {
	OfferingDetailID string
	Date             *time.Time
	RoomID           string
	LecturerID       string
	ClassGroupID     string
	Status           MeetingStatus
}
