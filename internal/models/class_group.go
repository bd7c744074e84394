package models

import "time"

// ClassGroup is a student cohort attending the generated meetings.
// EnrollmentSize feeds the room-capacity detector.
type ClassGroup struct {
	ID             string    `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	EnrollmentSize int       `db:"enrollment_size" json:"enrollment_size"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
