package attendance

import (
	"time"

	"github.com/inspire-hq/attendance/internal/domain"
)

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// ClockInStatus maps a clock-in time to PRESENT or LATE. A clock-in
// at or before shift start plus the grace period is on time; the
// comparison is second-resolution, so 09:15:30 against a grace ending
// 09:15:00 is already late.
func ClockInStatus(shift *domain.Shift, clockIn time.Time) domain.Status {
	startMin, err := shift.StartMinutes()
	if err != nil {
		return domain.StatusPresent
	}

	graceEndSec := (startMin + shift.GracePeriodMinutes) * 60
	if secondOfDay(clockIn) <= graceEndSec {
		return domain.StatusPresent
	}
	return domain.StatusLate
}

// FinalStatus combines clock-in lateness and clock-out earliness into
// the final record status. Early departure is never flagged for
// overnight shifts; lateness still is.
func FinalStatus(shift *domain.Shift, clockIn, clockOut time.Time) domain.Status {
	startMin, err := shift.StartMinutes()
	if err != nil {
		return domain.StatusPresent
	}
	endMin, err := shift.EndMinutes()
	if err != nil {
		return domain.StatusPresent
	}

	graceEndSec := (startMin + shift.GracePeriodMinutes) * 60
	isLate := secondOfDay(clockIn) > graceEndSec
	isEarly := secondOfDay(clockOut) < endMin*60 && !shift.IsOvernight

	switch {
	case isLate && isEarly:
		return domain.StatusHalfDay
	case isLate:
		return domain.StatusLate
	case isEarly:
		return domain.StatusEarlyDeparture
	default:
		return domain.StatusPresent
	}
}
