package engine

import (
	"fmt"

	"github.com/campusops/meetgen-api/internal/models"
)

// Finding is a single detector hit for one meeting instance. Findings from
// different detectors are independent and never deduplicated.
type Finding struct {
	Type                 models.ConflictType
	Severity             models.ConflictSeverity
	MeetingID            string
	ConflictingMeetingID *string
	Message              string
	AffectedStudents     int
	DurationMinutes      int
	Details              map[string]interface{}
}

// DetectorContext carries the lookups the non-pairwise detectors need.
type DetectorContext struct {
	// RoomCapacity maps room id to seat count.
	RoomCapacity map[string]int
	// ClassSize maps class group id to current enrollment.
	ClassSize map[string]int
	// MinGapMinutes is the minimum turnaround between meetings in one room.
	MinGapMinutes int
}

// Detect runs every detector for the meeting against the other persisted
// instances on the same date. Callers pass non-cancelled instances only and
// must exclude the meeting itself. Each detector may emit its own finding for
// the same instance.
func Detect(m models.MeetingInstance, others []models.MeetingInstance, dctx DetectorContext) []Finding {
	var findings []Finding
	findings = append(findings, detectRoomOverlap(m, others, dctx)...)
	findings = append(findings, detectInstructorOverlap(m, others, dctx)...)
	findings = append(findings, detectClassOverlap(m, others, dctx)...)
	findings = append(findings, detectCapacity(m, dctx)...)
	findings = append(findings, detectMinGap(m, others, dctx)...)
	return findings
}

// overlapMinutes returns the shared minutes of two half-open intervals, or 0.
// Touching intervals do not overlap.
func overlapMinutes(m, other models.MeetingInstance) int {
	mStart, err := ParseClock(m.StartTime)
	if err != nil {
		return 0
	}
	mEnd, err := ParseClock(m.EndTime)
	if err != nil {
		return 0
	}
	oStart, err := ParseClock(other.StartTime)
	if err != nil {
		return 0
	}
	oEnd, err := ParseClock(other.EndTime)
	if err != nil {
		return 0
	}
	if mStart < oEnd && oStart < mEnd {
		return minInt(mEnd, oEnd) - maxInt(mStart, oStart)
	}
	return 0
}

func detectRoomOverlap(m models.MeetingInstance, others []models.MeetingInstance, dctx DetectorContext) []Finding {
	if m.RoomID == nil {
		return nil
	}
	var findings []Finding
	for i := range others {
		other := others[i]
		if other.RoomID == nil || *other.RoomID != *m.RoomID {
			continue
		}
		overlap := overlapMinutes(m, other)
		if overlap == 0 {
			continue
		}
		findings = append(findings, Finding{
			Type:                 models.ConflictRoom,
			Severity:             models.SeverityHigh,
			MeetingID:            m.ID,
			ConflictingMeetingID: &other.ID,
			Message:              fmt.Sprintf("room %s double-booked for %d minutes", *m.RoomID, overlap),
			AffectedStudents:     classSizeOf(m, dctx),
			DurationMinutes:      overlap,
			Details: map[string]interface{}{
				"room_id":         *m.RoomID,
				"overlap_minutes": overlap,
			},
		})
	}
	return findings
}

func detectInstructorOverlap(m models.MeetingInstance, others []models.MeetingInstance, dctx DetectorContext) []Finding {
	if m.LecturerID == "" {
		return nil
	}
	var findings []Finding
	for i := range others {
		other := others[i]
		if other.LecturerID != m.LecturerID {
			continue
		}
		overlap := overlapMinutes(m, other)
		if overlap == 0 {
			continue
		}
		findings = append(findings, Finding{
			Type:                 models.ConflictInstructor,
			Severity:             models.SeverityHigh,
			MeetingID:            m.ID,
			ConflictingMeetingID: &other.ID,
			Message:              fmt.Sprintf("lecturer %s booked twice for %d minutes", m.LecturerID, overlap),
			AffectedStudents:     classSizeOf(m, dctx),
			DurationMinutes:      overlap,
			Details: map[string]interface{}{
				"lecturer_id":     m.LecturerID,
				"overlap_minutes": overlap,
			},
		})
	}
	return findings
}

func detectClassOverlap(m models.MeetingInstance, others []models.MeetingInstance, dctx DetectorContext) []Finding {
	if m.ClassGroupID == nil {
		return nil
	}
	var findings []Finding
	for i := range others {
		other := others[i]
		if other.ClassGroupID == nil || *other.ClassGroupID != *m.ClassGroupID {
			continue
		}
		overlap := overlapMinutes(m, other)
		if overlap == 0 {
			continue
		}
		findings = append(findings, Finding{
			Type:                 models.ConflictClass,
			Severity:             models.SeverityHigh,
			MeetingID:            m.ID,
			ConflictingMeetingID: &other.ID,
			Message:              fmt.Sprintf("class %s scheduled twice for %d minutes", *m.ClassGroupID, overlap),
			AffectedStudents:     classSizeOf(m, dctx),
			DurationMinutes:      overlap,
			Details: map[string]interface{}{
				"class_group_id":  *m.ClassGroupID,
				"overlap_minutes": overlap,
			},
		})
	}
	return findings
}

func detectCapacity(m models.MeetingInstance, dctx DetectorContext) []Finding {
	if m.RoomID == nil || m.ClassGroupID == nil {
		return nil
	}
	capacity, ok := dctx.RoomCapacity[*m.RoomID]
	if !ok {
		return nil
	}
	size, ok := dctx.ClassSize[*m.ClassGroupID]
	if !ok || size <= capacity {
		return nil
	}

	overage := size - capacity
	severity := models.SeverityMedium
	if overage >= 20 {
		severity = models.SeverityHigh
	}
	duration := 0
	if start, err := ParseClock(m.StartTime); err == nil {
		if end, err := ParseClock(m.EndTime); err == nil && end > start {
			duration = end - start
		}
	}
	return []Finding{{
		Type:             models.ConflictCapacity,
		Severity:         severity,
		MeetingID:        m.ID,
		Message:          fmt.Sprintf("class of %d exceeds room capacity %d by %d", size, capacity, overage),
		AffectedStudents: overage,
		DurationMinutes:  duration,
		Details: map[string]interface{}{
			"room_id":    *m.RoomID,
			"capacity":   capacity,
			"class_size": size,
			"overage":    overage,
		},
	}}
}

// detectMinGap flags the nearest prior meeting in the same room whose end is
// at or before the meeting's start when the turnaround is under the minimum.
func detectMinGap(m models.MeetingInstance, others []models.MeetingInstance, dctx DetectorContext) []Finding {
	if m.RoomID == nil || dctx.MinGapMinutes <= 0 {
		return nil
	}
	mStart, err := ParseClock(m.StartTime)
	if err != nil {
		return nil
	}

	var nearest *models.MeetingInstance
	nearestEnd := -1
	for i := range others {
		other := others[i]
		if other.RoomID == nil || *other.RoomID != *m.RoomID {
			continue
		}
		end, err := ParseClock(other.EndTime)
		if err != nil || end > mStart {
			continue
		}
		if end > nearestEnd {
			nearestEnd = end
			nearest = &others[i]
		}
	}
	if nearest == nil {
		return nil
	}

	gap := mStart - nearestEnd
	if gap >= dctx.MinGapMinutes {
		return nil
	}
	return []Finding{{
		Type:                 models.ConflictTimeGap,
		Severity:             models.SeverityLow,
		MeetingID:            m.ID,
		ConflictingMeetingID: &nearest.ID,
		Message:              fmt.Sprintf("only %d minutes between meetings in room %s", gap, *m.RoomID),
		AffectedStudents:     classSizeOf(m, dctx),
		DurationMinutes:      gap,
		Details: map[string]interface{}{
			"room_id":     *m.RoomID,
			"gap_minutes": gap,
			"minimum":     dctx.MinGapMinutes,
		},
	}}
}

func classSizeOf(m models.MeetingInstance, dctx DetectorContext) int {
	if m.ClassGroupID == nil {
		return 0
	}
	return dctx.ClassSize[*m.ClassGroupID]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
