package timetable

import (
	"fmt"
	"strconv"
	"strings"
)

// Period is one scheduled class slot in a weekly timetable. Times are wall
// clock "HH:MM" strings; the store owns the records and this package only
// reads them.
type Period struct {
	Hour      int    `json:"hour"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Subject   string `json:"subject"`
	TeacherID string `json:"teacher_id"`
}

// StartMinutes returns the period start as minutes since midnight.
func (p Period) StartMinutes() (int, error) {
	return parseClock(p.Start)
}

// EndMinutes returns the period end as minutes since midnight.
func (p Period) EndMinutes() (int, error) {
	return parseClock(p.End)
}

// Classroom is the per-room configuration record controlling live capture.
type Classroom struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	LiveCapture   bool   `json:"live_capture"`
	CaptureSource string `json:"capture_source,omitempty"`
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", value, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", value, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock value %q out of range", value)
	}
	return hour*60 + minute, nil
}
