package engine

import (
	"math"

	"github.com/campusops/meetgen-api/internal/models"
)

// Two scoring entry points share the same shape: a base value plus bounded
// student and duration terms and a per-type weight, multiplied by the course
// level and clamped to [0, 100]. Score is the detectors' flat-base path;
// ScoreWithRule derives the base from a policy rule's severity.

const detectorBase = 50.0

// Score converts a detector finding into the 0-100 impact score.
func Score(f Finding, level models.CourseLevel) float64 {
	return finish(detectorBase, f, level)
}

// ScoreWithRule scores a finding using the severity base of a conflict rule.
func ScoreWithRule(rule models.ConflictRule, f Finding, level models.CourseLevel) float64 {
	return finish(severityBase(rule.Severity), f, level)
}

func finish(base float64, f Finding, level models.CourseLevel) float64 {
	score := base
	score += math.Min(float64(f.AffectedStudents)*0.5, 30)
	score += math.Min(float64(f.DurationMinutes)*0.1, 10)
	score += typeWeight(f.Type)
	score *= levelMultiplier(level)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return math.Round(score*100) / 100
}

func severityBase(s models.ConflictSeverity) float64 {
	switch s {
	case models.SeverityLow:
		return 10
	case models.SeverityMedium:
		return 25
	case models.SeverityHigh:
		return 50
	case models.SeverityCritical:
		return 100
	}
	return 10
}

func typeWeight(t models.ConflictType) float64 {
	switch t {
	case models.ConflictRoom:
		return 15
	case models.ConflictInstructor:
		return 20
	case models.ConflictClass:
		return 25
	case models.ConflictCapacity:
		return 10
	case models.ConflictTimeGap:
		return 5
	}
	return 0
}

func levelMultiplier(level models.CourseLevel) float64 {
	switch level {
	case models.LevelGraduate:
		return 1.5
	case models.LevelDoctoral:
		return 2.0
	}
	return 1.0
}
