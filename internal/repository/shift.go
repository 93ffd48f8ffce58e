package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inspire-hq/attendance/internal/domain"
)

type ShiftRepository struct {
	pool PgxPool
}

func NewShiftRepository(pool PgxPool) *ShiftRepository {
	return &ShiftRepository{pool: pool}
}

// GetActive resolves an active, non-deleted shift scoped by tenant.
func (r *ShiftRepository) GetActive(ctx context.Context, tenantID, id uuid.UUID) (*domain.Shift, error) {
	query := `
		SELECT id, tenant_id, name, start_time, end_time, grace_period_minutes,
			is_overnight, is_active, created_at, updated_at
		FROM shifts
		WHERE id = $1 AND tenant_id = $2 AND is_active = true AND is_deleted = false
	`

	var shift domain.Shift
	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&shift.ID,
		&shift.TenantID,
		&shift.Name,
		&shift.StartTime,
		&shift.EndTime,
		&shift.GracePeriodMinutes,
		&shift.IsOvernight,
		&shift.IsActive,
		&shift.CreatedAt,
		&shift.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrShiftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shift: %w", err)
	}

	return &shift, nil
}
