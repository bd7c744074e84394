package engine

import (
	"github.com/campusops/meetgen-api/internal/models"
)

// Classify assigns the session kind for the 1-based meeting number n within a
// course offering of totalMeetings meetings, and the sessions-per-meeting
// multiplier. The fixed placements for 4- and 8-meeting terms and the
// two-sessions-per-meeting rule for short terms are an institutional
// convention and must not drift.
func Classify(n, totalMeetings int) (models.SessionKind, int) {
	kind := models.SessionRegular
	switch {
	case totalMeetings <= 1:
		// single-meeting offerings have no exams
	case totalMeetings == 4:
		if n == 4 {
			kind = models.SessionMidterm
		}
	case totalMeetings == 8:
		switch n {
		case 4:
			kind = models.SessionMidterm
		case 8:
			kind = models.SessionFinal
		}
	default:
		switch n {
		case (totalMeetings + 1) / 2:
			kind = models.SessionMidterm
		case totalMeetings:
			kind = models.SessionFinal
		}
	}

	sessionsPerMeeting := 1
	if totalMeetings <= 8 {
		sessionsPerMeeting = 2
	}
	return kind, sessionsPerMeeting
}
