package models

import "time"

// CourseLevel identifies the academic level of a course.
type CourseLevel string

const (
	LevelUndergraduate CourseLevel = "S1"
	LevelGraduate      CourseLevel = "S2"
	LevelDoctoral      CourseLevel = "S3"
)

// Course is a catalog entry referenced by offering details.
type Course struct {
	ID        string      `db:"id" json:"id"`
	Code      string      `db:"code" json:"code"`
	Name      string      `db:"name" json:"name"`
	Credits   int         `db:"credits" json:"credits"`
	Level     CourseLevel `db:"level" json:"level"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
