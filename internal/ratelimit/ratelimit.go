package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inspire-hq/attendance/internal/domain"
)

// DB interface for database operations
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Limiter provides PostgreSQL-based rate limiting with a sliding
// window. It throttles offline-sync submissions per employee, in
// front of the per-shift quota the validation pipeline enforces.
type Limiter struct {
	db     DB
	window time.Duration
}

func NewLimiter(db *pgxpool.Pool, window time.Duration) *Limiter {
	return &Limiter{
		db:     db,
		window: window,
	}
}

// NewLimiterWithDB creates a limiter with a custom DB interface
func NewLimiterWithDB(db DB, window time.Duration) *Limiter {
	return &Limiter{
		db:     db,
		window: window,
	}
}

func syncKey(tenantID, employeeID uuid.UUID) string {
	return fmt.Sprintf("offline_sync:%s:%s", tenantID, employeeID)
}

// CheckSyncLimit checks whether the employee has exceeded the
// offline-sync submission limit. Returns domain.ErrRateLimitExceeded
// when the window is exhausted, nil otherwise.
func (l *Limiter) CheckSyncLimit(ctx context.Context, tenantID, employeeID uuid.UUID, limit int) error {
	if limit <= 0 {
		return nil // No limit configured
	}

	now := time.Now()
	windowStart := now.Add(-l.window)
	key := syncKey(tenantID, employeeID)

	// Use ON CONFLICT to atomically increment or insert counter
	query := `
		WITH current_count AS (
			INSERT INTO rate_limit_counters (key, count, window_start, window_end, tenant_id)
			VALUES ($1, 1, $2, $3, $4)
			ON CONFLICT (key)
			DO UPDATE SET
				count = CASE
					WHEN rate_limit_counters.window_end < $2 THEN 1
					ELSE rate_limit_counters.count + 1
				END,
				window_start = CASE
					WHEN rate_limit_counters.window_end < $2 THEN $2
					ELSE rate_limit_counters.window_start
				END,
				window_end = $3
			RETURNING count, window_start
		)
		SELECT count FROM current_count
	`

	var count int
	err := l.db.QueryRow(ctx, query, key, windowStart, now, tenantID).Scan(&count)
	if err != nil {
		return fmt.Errorf("check sync rate limit: %w", err)
	}

	if count > limit {
		return domain.ErrRateLimitExceeded.WithError(
			fmt.Errorf("offline sync limit: %d/%d submissions in window", count, limit))
	}

	return nil
}

// CleanupExpired removes expired rate limit counters (run via cron)
func (l *Limiter) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM rate_limit_counters WHERE window_end < NOW() - INTERVAL '1 hour'`
	result, err := l.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// CurrentCount returns the live counter for an employee (monitoring)
func (l *Limiter) CurrentCount(ctx context.Context, tenantID, employeeID uuid.UUID) (int, error) {
	key := syncKey(tenantID, employeeID)
	windowStart := time.Now().Add(-l.window)

	query := `
		SELECT count
		FROM rate_limit_counters
		WHERE key = $1 AND window_end > $2
	`

	var count int
	err := l.db.QueryRow(ctx, query, key, windowStart).Scan(&count)
	if err != nil {
		return 0, nil // No records = 0 count
	}

	return count, nil
}

// Reset clears the counter for an employee (admin operation)
func (l *Limiter) Reset(ctx context.Context, tenantID, employeeID uuid.UUID) error {
	key := syncKey(tenantID, employeeID)
	query := `DELETE FROM rate_limit_counters WHERE key = $1`
	_, err := l.db.Exec(ctx, query, key)
	return err
}
