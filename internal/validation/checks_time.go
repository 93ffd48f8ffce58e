package validation

import (
	"context"
	"math"

	"github.com/inspire-hq/attendance/internal/domain"
)

// shiftWindowCheck verifies the server time falls inside the allowed
// clock-in window: shift start minus the early allowance through
// shift end plus the late allowance. Overnight shifts push the end
// one day forward and never fail the late side of the window.
type shiftWindowCheck struct{}

func (c *shiftWindowCheck) Name() string { return "shift_window" }

func (c *shiftWindowCheck) Applicable(_ *domain.Policy) bool { return true }

func (c *shiftWindowCheck) Run(_ context.Context, in *Context, policy *domain.Policy) Result {
	var res Result

	if in.Shift == nil {
		res.failf("Specified shift does not exist.")
		return res
	}

	startMin, err := in.Shift.StartMinutes()
	if err != nil {
		res.failf("Shift has an invalid start time.")
		return res
	}
	endMin, err := in.Shift.EndMinutes()
	if err != nil {
		res.failf("Shift has an invalid end time.")
		return res
	}

	early, late := policy.WindowMinutes()

	if in.Shift.IsOvernight && endMin <= startMin {
		endMin += 24 * 60
	}

	current := domain.MinuteOfDay(in.Now)
	// Past midnight on an overnight shift, the clock time belongs to
	// the shift's second day.
	if in.Shift.IsOvernight && current < startMin {
		current += 24 * 60
	}

	windowStart := startMin - early
	windowEnd := endMin + late

	if current < windowStart {
		res.failf("Clock-in is too early. The shift '%s' allows clock-in from %s. Please wait %d minutes.",
			in.Shift.Name, domain.FormatClockTime(windowStart), windowStart-current)
		return res
	}

	if !in.Shift.IsOvernight && current > windowEnd {
		res.failf("Clock-in window for shift '%s' has closed. The latest allowed time was %s.",
			in.Shift.Name, domain.FormatClockTime(windowEnd))
	}

	return res
}

// clockSkewCheck compares the client-reported timestamp against the
// server clock. The skew flag is derived regardless of pass or fail.
type clockSkewCheck struct {
	toleranceSeconds int
}

func (c *clockSkewCheck) Name() string { return "clock_skew" }

func (c *clockSkewCheck) Applicable(_ *domain.Policy) bool { return true }

func (c *clockSkewCheck) Run(_ context.Context, in *Context, _ *domain.Policy) Result {
	var res Result

	if in.ClientTimestamp == nil {
		return res
	}

	skew := math.Abs(in.Now.Sub(*in.ClientTimestamp).Seconds())
	if skew > float64(c.toleranceSeconds) {
		res.Flags.ClockSkewDetected = true
		res.failf("Device clock skew detected (%.0fs). Maximum allowed difference is %ds. Please synchronise your device clock.",
			skew, c.toleranceSeconds)
	}

	return res
}
