package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the derived attendance status. Only the first four values
// are ever set by the clock-event engine; ABSENT and ON_LEAVE belong
// to administrative flows.
type Status string

const (
	StatusPresent        Status = "PRESENT"
	StatusLate           Status = "LATE"
	StatusEarlyDeparture Status = "EARLY_DEPARTURE"
	StatusHalfDay        Status = "HALF_DAY"
	StatusAbsent         Status = "ABSENT"
	StatusOnLeave        Status = "ON_LEAVE"
)

// AttendanceRecord is the persisted outcome of a clock event. At most
// one record exists per (tenant, employee, date, shift); the record
// store enforces this with a unique index, the validator's duplicate
// check is advisory only. A record with a nil ClockOutTime is open.
type AttendanceRecord struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	ShiftID    uuid.UUID `json:"shift_id"`
	Date       time.Time `json:"date"`

	ClockInTime  *time.Time `json:"clock_in_time"`
	ClockOutTime *time.Time `json:"clock_out_time"`

	Status Status `json:"status"`

	ClockInLatitude   *float64 `json:"clock_in_latitude"`
	ClockInLongitude  *float64 `json:"clock_in_longitude"`
	ClockOutLatitude  *float64 `json:"clock_out_latitude"`
	ClockOutLongitude *float64 `json:"clock_out_longitude"`

	ClockInSelfie  string `json:"clock_in_selfie,omitempty"`
	ClockOutSelfie string `json:"clock_out_selfie,omitempty"`

	DeviceID  string `json:"device_id,omitempty"`
	WifiSSID  string `json:"wifi_ssid,omitempty"`
	WifiBSSID string `json:"wifi_bssid,omitempty"`

	IsOffline            bool   `json:"is_offline"`
	OfflineIntegrityHash string `json:"offline_integrity_hash,omitempty"`

	IsValidated      bool     `json:"is_validated"`
	ValidationErrors []string `json:"validation_errors"`

	LivenessPassed    bool       `json:"liveness_passed"`
	FaceMatchScore    *float64   `json:"face_match_score"`
	GPSAccuracy       *float64   `json:"gps_accuracy"`
	GeofenceID        *uuid.UUID `json:"geofence_id"`
	GeofenceValid     bool       `json:"geofence_valid"`
	WifiValid         bool       `json:"wifi_valid"`
	DeviceValid       bool       `json:"device_valid"`
	ClockSkewDetected bool       `json:"clock_skew_detected"`

	ClientTimestamp *time.Time `json:"client_timestamp"`
	Notes           string     `json:"notes,omitempty"`

	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpen reports whether the record is awaiting a clock-out.
func (r *AttendanceRecord) IsOpen() bool {
	return r.ClockOutTime == nil
}

// DurationHours returns the worked hours between clock-in and
// clock-out, or zero while the record is still open.
func (r *AttendanceRecord) DurationHours() float64 {
	if r.ClockInTime == nil || r.ClockOutTime == nil {
		return 0
	}
	return r.ClockOutTime.Sub(*r.ClockInTime).Hours()
}
