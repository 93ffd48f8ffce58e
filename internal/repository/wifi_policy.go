package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/inspire-hq/attendance/internal/domain"
)

type WifiPolicyRepository struct {
	pool PgxPool
}

func NewWifiPolicyRepository(pool PgxPool) *WifiPolicyRepository {
	return &WifiPolicyRepository{pool: pool}
}

// ListActive returns every active, non-deleted WiFi policy for a
// tenant. An empty slice means WiFi validation has nothing to enforce.
func (r *WifiPolicyRepository) ListActive(ctx context.Context, tenantID uuid.UUID) ([]domain.WifiPolicy, error) {
	query := `
		SELECT id, tenant_id, name, ssid, bssid, is_active, created_at, updated_at
		FROM wifi_policies
		WHERE tenant_id = $1 AND is_active = true AND is_deleted = false
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list wifi policies: %w", err)
	}
	defer rows.Close()

	var policies []domain.WifiPolicy
	for rows.Next() {
		var wp domain.WifiPolicy
		if err := rows.Scan(
			&wp.ID,
			&wp.TenantID,
			&wp.Name,
			&wp.SSID,
			&wp.BSSID,
			&wp.IsActive,
			&wp.CreatedAt,
			&wp.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wifi policy: %w", err)
		}
		policies = append(policies, wp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wifi policies: %w", err)
	}

	return policies, nil
}
