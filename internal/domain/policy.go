package domain

import (
	"time"

	"github.com/google/uuid"
)

// Default thresholds applied when no policy is configured for a
// tenant. A nil *Policy means every check is enforced with these
// values.
const (
	DefaultFaceMatchThreshold   = 0.6
	DefaultGPSAccuracyMeters    = 50.0
	DefaultClockSkewSeconds     = 300
	DefaultMaxOfflinePerShift   = 1
	DefaultEarlyClockInMinutes  = 30
	DefaultLateClockOutMinutes  = 30
	DefaultGracePeriodMinutes   = 15
	MinRealisticAltitudeMeters  = -500.0
	MaxRealisticAltitudeMeters  = 20000.0
)

// Policy holds per-tenant validation switches and thresholds,
// externally managed and consumed read-only during validation.
type Policy struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`

	RequireSelfie           bool `json:"require_selfie"`
	RequireLiveness         bool `json:"require_liveness"`
	RequireGPS              bool `json:"require_gps"`
	RequireGeofence         bool `json:"require_geofence"`
	RequireWifi             bool `json:"require_wifi"`
	RequireDeviceRegistered bool `json:"require_device_registered"`

	MaxOfflinePerShift       int `json:"max_offline_per_shift"`
	AllowEarlyClockInMinutes int `json:"allow_early_clockin_minutes"`
	AllowLateClockOutMinutes int `json:"allow_late_clockout_minutes"`

	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OfflineLimit returns the offline-per-shift quota, falling back to
// the default when the policy is nil or unset.
func (p *Policy) OfflineLimit() int {
	if p == nil || p.MaxOfflinePerShift <= 0 {
		return DefaultMaxOfflinePerShift
	}
	return p.MaxOfflinePerShift
}

// WindowMinutes returns the early clock-in and late clock-out
// allowances for the shift window check.
func (p *Policy) WindowMinutes() (early, late int) {
	if p == nil {
		return DefaultEarlyClockInMinutes, DefaultLateClockOutMinutes
	}
	return p.AllowEarlyClockInMinutes, p.AllowLateClockOutMinutes
}
