package validation

import (
	"time"

	"github.com/google/uuid"

	"github.com/inspire-hq/attendance/internal/domain"
)

// Context carries everything a single validation pass needs. It is
// built per request, owned by one invocation, and never persisted.
type Context struct {
	TenantID   uuid.UUID
	EmployeeID uuid.UUID
	Shift      *domain.Shift
	Date       time.Time

	HasSelfie  bool
	SelfieEXIF map[string]string

	Latitude    *float64
	Longitude   *float64
	GPSAccuracy *float64
	Altitude    *float64

	DeviceID  string
	WifiSSID  string
	WifiBSSID string

	// Raw client strings are kept alongside parsed values because the
	// offline integrity digest hashes the bytes the client submitted,
	// not our re-rendering of them.
	ClientTimestamp    *time.Time
	ClientTimestampRaw string
	LatitudeRaw        string
	LongitudeRaw       string

	LivenessPassed   bool
	FaceMatchScore   *float64
	IsMockLocation   bool
	LocationProvider string

	GeofenceID *uuid.UUID

	IsOffline     bool
	IntegrityHash string

	// Now is the server clock at the start of the invocation, injected
	// so checks stay deterministic under test.
	Now time.Time
}

// Flags are booleans derived by individual checks and persisted on
// the attendance record. Each flag is owned by exactly one check.
type Flags struct {
	GeofenceValid     bool
	WifiValid         bool
	DeviceValid       bool
	ClockSkewDetected bool
}

func (f *Flags) merge(o Flags) {
	f.GeofenceValid = f.GeofenceValid || o.GeofenceValid
	f.WifiValid = f.WifiValid || o.WifiValid
	f.DeviceValid = f.DeviceValid || o.DeviceValid
	f.ClockSkewDetected = f.ClockSkewDetected || o.ClockSkewDetected
}
