package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/campusops/meetgen-api/internal/models"
)

// CSVExporter renders meeting plans into CSV bytes for download.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

var meetingHeaders = []string{
	"meeting_number", "date", "start_time", "end_time",
	"session_kind", "room_id", "lecturer_id", "online", "locked", "status",
}

// RenderMeetings produces a CSV document, one row per meeting instance.
func (e *CSVExporter) RenderMeetings(meetings []models.MeetingInstance) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(meetingHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, m := range meetings {
		room := ""
		if m.RoomID != nil {
			room = *m.RoomID
		}
		record := []string{
			strconv.Itoa(m.MeetingNumber),
			m.MeetingDate.Format("2006-01-02"),
			m.StartTime,
			m.EndTime,
			string(m.SessionKind),
			room,
			m.LecturerID,
			strconv.FormatBool(m.IsOnline),
			strconv.FormatBool(m.Locked),
			string(m.Status),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
