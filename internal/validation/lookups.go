package validation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/inspire-hq/attendance/internal/domain"
)

// GeofenceLookup resolves an active, non-deleted geofence by id.
type GeofenceLookup interface {
	GetActive(ctx context.Context, tenantID, id uuid.UUID) (*domain.Geofence, error)
}

// WifiPolicyLookup lists a tenant's active WiFi policies.
type WifiPolicyLookup interface {
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]domain.WifiPolicy, error)
}

// DeviceLookup answers whether a device is registered for an employee.
type DeviceLookup interface {
	Exists(ctx context.Context, tenantID, employeeID uuid.UUID, deviceID string) (bool, error)
}

// RecordLookup provides the read-only record-store queries used by
// the duplicate and offline-quota checks.
type RecordLookup interface {
	Exists(ctx context.Context, tenantID, employeeID uuid.UUID, date time.Time, shiftID uuid.UUID) (bool, error)
	CountOffline(ctx context.Context, tenantID, employeeID uuid.UUID, shiftID uuid.UUID, date time.Time) (int, error)
}
