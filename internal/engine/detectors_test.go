package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/meetgen-api/internal/models"
)

func strPtr(s string) *string { return &s }

func meetingFixture(id, start, end string, room, class *string, lecturer string) models.MeetingInstance {
	return models.MeetingInstance{
		ID:           id,
		MeetingDate:  time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		StartTime:    start,
		EndTime:      end,
		RoomID:       room,
		ClassGroupID: class,
		LecturerID:   lecturer,
		Status:       models.MeetingApproved,
	}
}

func TestDetectRoomOverlap(t *testing.T) {
	room := strPtr("r1")
	m := meetingFixture("m1", "09:00", "10:30", room, nil, "l1")
	other := meetingFixture("m2", "10:00", "11:00", room, nil, "l2")

	findings := Detect(m, []models.MeetingInstance{other}, DetectorContext{})

	require.Len(t, findings, 1)
	assert.Equal(t, models.ConflictRoom, findings[0].Type)
	assert.Equal(t, models.SeverityHigh, findings[0].Severity)
	require.NotNil(t, findings[0].ConflictingMeetingID)
	assert.Equal(t, "m2", *findings[0].ConflictingMeetingID)
	assert.Equal(t, 30, findings[0].DurationMinutes)
}

func TestDetectTouchingIntervalsDoNotOverlap(t *testing.T) {
	room := strPtr("r1")
	m := meetingFixture("m1", "09:00", "10:00", room, nil, "l1")
	other := meetingFixture("m2", "10:00", "11:00", room, nil, "l2")

	findings := Detect(m, []models.MeetingInstance{other}, DetectorContext{})

	for _, f := range findings {
		assert.NotEqual(t, models.ConflictRoom, f.Type)
	}
}

func TestDetectInstructorOverlapAcrossRooms(t *testing.T) {
	m := meetingFixture("m1", "09:00", "11:00", strPtr("r1"), nil, "l1")
	other := meetingFixture("m2", "10:00", "12:00", strPtr("r2"), nil, "l1")

	findings := Detect(m, []models.MeetingInstance{other}, DetectorContext{})

	require.Len(t, findings, 1)
	assert.Equal(t, models.ConflictInstructor, findings[0].Type)
	assert.Equal(t, 60, findings[0].DurationMinutes)
}

func TestDetectClassOverlapSkippedWithoutClass(t *testing.T) {
	m := meetingFixture("m1", "09:00", "11:00", nil, nil, "l1")
	other := meetingFixture("m2", "09:00", "11:00", nil, strPtr("c1"), "l2")

	findings := Detect(m, []models.MeetingInstance{other}, DetectorContext{})
	assert.Empty(t, findings)
}

func TestDetectClassOverlap(t *testing.T) {
	class := strPtr("c1")
	m := meetingFixture("m1", "09:00", "11:00", nil, class, "l1")
	other := meetingFixture("m2", "10:30", "12:00", nil, class, "l2")

	findings := Detect(m, []models.MeetingInstance{other}, DetectorContext{
		ClassSize: map[string]int{"c1": 40},
	})

	require.Len(t, findings, 1)
	assert.Equal(t, models.ConflictClass, findings[0].Type)
	assert.Equal(t, 40, findings[0].AffectedStudents)
}

func TestDetectCapacityOverage(t *testing.T) {
	m := meetingFixture("m1", "09:00", "11:00", strPtr("r1"), strPtr("c1"), "l1")

	dctx := DetectorContext{
		RoomCapacity: map[string]int{"r1": 30},
		ClassSize:    map[string]int{"c1": 45},
	}
	findings := Detect(m, nil, dctx)

	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, models.ConflictCapacity, f.Type)
	assert.Equal(t, models.SeverityMedium, f.Severity)
	assert.Nil(t, f.ConflictingMeetingID)
	assert.Equal(t, 15, f.AffectedStudents)
}

func TestDetectCapacityLargeOverageIsHigh(t *testing.T) {
	m := meetingFixture("m1", "09:00", "11:00", strPtr("r1"), strPtr("c1"), "l1")

	dctx := DetectorContext{
		RoomCapacity: map[string]int{"r1": 30},
		ClassSize:    map[string]int{"c1": 55},
	}
	findings := Detect(m, nil, dctx)

	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityHigh, findings[0].Severity)
}

func TestDetectCapacityFitsNoFinding(t *testing.T) {
	m := meetingFixture("m1", "09:00", "11:00", strPtr("r1"), strPtr("c1"), "l1")

	dctx := DetectorContext{
		RoomCapacity: map[string]int{"r1": 60},
		ClassSize:    map[string]int{"c1": 45},
	}
	assert.Empty(t, Detect(m, nil, dctx))
}

func TestDetectMinGapBelowMinimum(t *testing.T) {
	room := strPtr("r1")
	m := meetingFixture("m1", "10:05", "11:00", room, nil, "l1")
	prior := meetingFixture("m0", "09:00", "10:00", room, nil, "l2")
	earlier := meetingFixture("m9", "07:00", "08:00", room, nil, "l3")

	findings := Detect(m, []models.MeetingInstance{earlier, prior}, DetectorContext{MinGapMinutes: 15})

	require.Len(t, findings, 1)
	f := findings[0]
	assert.Equal(t, models.ConflictTimeGap, f.Type)
	assert.Equal(t, models.SeverityLow, f.Severity)
	require.NotNil(t, f.ConflictingMeetingID)
	assert.Equal(t, "m0", *f.ConflictingMeetingID, "nearest prior meeting should be flagged")
	assert.Equal(t, 5, f.DurationMinutes)
}

func TestDetectMinGapSatisfied(t *testing.T) {
	room := strPtr("r1")
	m := meetingFixture("m1", "10:30", "11:30", room, nil, "l1")
	prior := meetingFixture("m0", "09:00", "10:00", room, nil, "l2")

	assert.Empty(t, Detect(m, []models.MeetingInstance{prior}, DetectorContext{MinGapMinutes: 15}))
}

func TestDetectIndependentDetectorsStack(t *testing.T) {
	room := strPtr("r1")
	class := strPtr("c1")
	m := meetingFixture("m1", "09:00", "10:30", room, class, "l1")
	other := meetingFixture("m2", "10:00", "11:00", room, class, "l1")

	dctx := DetectorContext{
		RoomCapacity: map[string]int{"r1": 20},
		ClassSize:    map[string]int{"c1": 35},
	}
	findings := Detect(m, []models.MeetingInstance{other}, dctx)

	types := map[models.ConflictType]int{}
	for _, f := range findings {
		types[f.Type]++
	}
	assert.Equal(t, 1, types[models.ConflictRoom])
	assert.Equal(t, 1, types[models.ConflictInstructor])
	assert.Equal(t, 1, types[models.ConflictClass])
	assert.Equal(t, 1, types[models.ConflictCapacity])
}
