package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing API key",
		StatusCode: 401,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Access denied",
		StatusCode: 403,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrTenantNotFound = &AppError{
		Code:       "TENANT_NOT_FOUND",
		Message:    "Tenant not found",
		StatusCode: 404,
	}

	ErrTenantInactive = &AppError{
		Code:       "TENANT_INACTIVE",
		Message:    "Tenant account is inactive",
		StatusCode: 403,
	}

	// Aggregated check failures; the error list rides along in the
	// response body, individual check errors are never raised alone.
	ErrValidationFailed = &AppError{
		Code:       "ATTENDANCE_VALIDATION_FAILED",
		Message:    "Attendance validation failed",
		StatusCode: 422,
	}

	ErrOfflineQuotaExceeded = &AppError{
		Code:       "OFFLINE_QUOTA_EXCEEDED",
		Message:    "Offline attendance limit exceeded for this shift",
		StatusCode: 429,
	}

	ErrRecordNotFound = &AppError{
		Code:       "RECORD_NOT_FOUND",
		Message:    "No open attendance record found for clock-out",
		StatusCode: 404,
	}

	ErrShiftNotFound = &AppError{
		Code:       "SHIFT_NOT_FOUND",
		Message:    "Specified shift does not exist",
		StatusCode: 404,
	}

	ErrGeofenceNotFound = &AppError{
		Code:       "GEOFENCE_NOT_FOUND",
		Message:    "Assigned geofence not found or inactive",
		StatusCode: 404,
	}

	// Store-level uniqueness conflict, mapped to the same message
	// family as the advisory duplicate check so clients see one error
	// regardless of which side caught the race.
	ErrDuplicateRecord = &AppError{
		Code:       "DUPLICATE_ATTENDANCE_RECORD",
		Message:    "An attendance record already exists for this employee, date, and shift",
		StatusCode: 409,
	}

	// More than one open record means the store invariant was broken
	// elsewhere; fail loudly instead of picking one arbitrarily.
	ErrMultipleOpenRecords = &AppError{
		Code:       "MULTIPLE_OPEN_RECORDS",
		Message:    "Multiple open attendance records found for employee",
		StatusCode: 500,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}
)
