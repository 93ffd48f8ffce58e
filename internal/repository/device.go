package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type DeviceRepository struct {
	pool PgxPool
}

func NewDeviceRepository(pool PgxPool) *DeviceRepository {
	return &DeviceRepository{pool: pool}
}

// Exists reports whether an active, non-deleted registry entry binds
// the device to the employee within the tenant.
func (r *DeviceRepository) Exists(ctx context.Context, tenantID, employeeID uuid.UUID, deviceID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM devices
			WHERE tenant_id = $1 AND employee_id = $2 AND device_id = $3
				AND is_active = true AND is_deleted = false
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, tenantID, employeeID, deviceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check device registration: %w", err)
	}
	return exists, nil
}
