package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inspire-hq/attendance/internal/domain"
)

type PolicyRepository struct {
	pool PgxPool
}

func NewPolicyRepository(pool PgxPool) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

// GetActive returns the tenant's attendance policy, or nil when none
// is configured. A nil policy makes the validator enforce every check
// with its default thresholds.
func (r *PolicyRepository) GetActive(ctx context.Context, tenantID uuid.UUID) (*domain.Policy, error) {
	query := `
		SELECT id, tenant_id, name,
			require_selfie, require_liveness, require_gps, require_geofence,
			require_wifi, require_device_registered,
			max_offline_per_shift, allow_early_clockin_minutes, allow_late_clockout_minutes,
			created_at, updated_at
		FROM attendance_policies
		WHERE tenant_id = $1 AND is_deleted = false
		ORDER BY created_at
		LIMIT 1
	`

	var p domain.Policy
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(
		&p.ID,
		&p.TenantID,
		&p.Name,
		&p.RequireSelfie,
		&p.RequireLiveness,
		&p.RequireGPS,
		&p.RequireGeofence,
		&p.RequireWifi,
		&p.RequireDeviceRegistered,
		&p.MaxOfflinePerShift,
		&p.AllowEarlyClockInMinutes,
		&p.AllowLateClockOutMinutes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance policy: %w", err)
	}

	return &p, nil
}
