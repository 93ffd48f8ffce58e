package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Shift defines a work schedule window. Start and end times are
// clock times in "HH:MM" form; an overnight shift ends on the
// following day.
type Shift struct {
	ID                 uuid.UUID `json:"id"`
	TenantID           uuid.UUID `json:"tenant_id"`
	Name               string    `json:"name"`
	StartTime          string    `json:"start_time"`
	EndTime            string    `json:"end_time"`
	GracePeriodMinutes int       `json:"grace_period_minutes"`
	IsOvernight        bool      `json:"is_overnight"`
	IsActive           bool      `json:"is_active"`
	IsDeleted          bool      `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// StartMinutes returns the shift start as minutes since midnight.
func (s *Shift) StartMinutes() (int, error) {
	return ParseClockTime(s.StartTime)
}

// EndMinutes returns the shift end as minutes since midnight.
func (s *Shift) EndMinutes() (int, error) {
	return ParseClockTime(s.EndTime)
}

// ParseClockTime converts an "HH:MM" clock time to minutes since
// midnight.
func ParseClockTime(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MinuteOfDay returns the minutes since midnight for a timestamp.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FormatClockTime renders minutes since midnight as "HH:MM". Values
// outside a single day wrap around midnight.
func FormatClockTime(minutes int) string {
	minutes %= 24 * 60
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
