package validation

import (
	"context"

	"github.com/inspire-hq/attendance/internal/domain"
)

// deviceCheck verifies the reporting device is registered for the
// employee in the device registry.
type deviceCheck struct {
	devices DeviceLookup
}

func (c *deviceCheck) Name() string { return "device" }

func (c *deviceCheck) Applicable(policy *domain.Policy) bool {
	return policy == nil || policy.RequireDeviceRegistered
}

func (c *deviceCheck) Run(ctx context.Context, in *Context, _ *domain.Policy) Result {
	var res Result

	if in.DeviceID == "" {
		res.failf("Device information is required.")
		return res
	}

	exists, err := c.devices.Exists(ctx, in.TenantID, in.EmployeeID, in.DeviceID)
	if err != nil {
		res.failf("Unable to verify device registration.")
		return res
	}

	if !exists {
		res.failf("This device is not registered for your account. Please register your device first.")
		return res
	}

	res.Flags.DeviceValid = true
	return res
}

// duplicateCheck is an advisory read-then-decide pre-filter. Final
// correctness rests on the record store's unique index; a conflict at
// insert time surfaces as the same duplicate error.
type duplicateCheck struct {
	records RecordLookup
}

func (c *duplicateCheck) Name() string { return "duplicate" }

func (c *duplicateCheck) Applicable(_ *domain.Policy) bool { return true }

func (c *duplicateCheck) Run(ctx context.Context, in *Context, _ *domain.Policy) Result {
	var res Result

	if in.Shift == nil {
		return res
	}

	exists, err := c.records.Exists(ctx, in.TenantID, in.EmployeeID, in.Date, in.Shift.ID)
	if err != nil {
		res.failf("Unable to verify existing attendance records.")
		return res
	}

	if exists {
		res.failf("An attendance record already exists for this employee, date, and shift.")
	}

	return res
}
