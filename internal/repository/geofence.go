package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inspire-hq/attendance/internal/domain"
)

type GeofenceRepository struct {
	pool PgxPool
}

func NewGeofenceRepository(pool PgxPool) *GeofenceRepository {
	return &GeofenceRepository{pool: pool}
}

// GetActive resolves an active, non-deleted geofence scoped by tenant.
func (r *GeofenceRepository) GetActive(ctx context.Context, tenantID, id uuid.UUID) (*domain.Geofence, error) {
	query := `
		SELECT id, tenant_id, name, latitude, longitude, radius_meters,
			is_active, created_at, updated_at
		FROM geofences
		WHERE id = $1 AND tenant_id = $2 AND is_active = true AND is_deleted = false
	`

	var fence domain.Geofence
	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&fence.ID,
		&fence.TenantID,
		&fence.Name,
		&fence.Latitude,
		&fence.Longitude,
		&fence.RadiusMeters,
		&fence.IsActive,
		&fence.CreatedAt,
		&fence.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGeofenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get geofence: %w", err)
	}

	return &fence, nil
}
