package models

import "time"

// CourseOfferingDetail is one (course, weekday-pattern) row within a term
// plan. The generation engine reads it; only the owning planning workflow
// mutates it. RoomIDs and LecturerIDs are ordered; the first lecturer is the
// primary by convention.
type CourseOfferingDetail struct {
	ID               string    `db:"id" json:"id"`
	CourseID         string    `db:"course_id" json:"course_id"`
	ClassGroupID     *string   `db:"class_group_id" json:"class_group_id,omitempty"`
	Weekday          Weekday   `db:"weekday" json:"weekday"`
	StartDate        time.Time `db:"start_date" json:"start_date"`
	EndDate          time.Time `db:"end_date" json:"end_date"`
	StartTime        string    `db:"start_time" json:"start_time"`
	EndTime          string    `db:"end_time" json:"end_time"`
	TotalMeetings    int       `db:"total_meetings" json:"total_meetings"`
	OnlinePercentage int       `db:"online_percentage" json:"online_percentage"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`

	// Loaded from ordered join tables, not columns.
	RoomIDs     []string `db:"-" json:"room_ids"`
	LecturerIDs []string `db:"-" json:"lecturer_ids"`
}

// Validate checks the invariants the engine depends on. It returns the first
// violated field name, or an empty string when the detail is usable.
func (d *CourseOfferingDetail) Validate() string {
	switch {
	case d.CourseID == "":
		return "course_id"
	case !d.Weekday.Valid():
		return "weekday"
	case d.StartDate.IsZero() || d.EndDate.IsZero():
		return "date_range"
	case d.TotalMeetings < 0:
		return "total_meetings"
	case d.OnlinePercentage < 0 || d.OnlinePercentage > 100:
		return "online_percentage"
	case d.StartTime == "" || d.EndTime == "":
		return "time_range"
	}
	return ""
}
