package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inspire-hq/attendance/internal/domain"
)

const attendanceColumns = `id, tenant_id, employee_id, shift_id, date,
		clock_in_time, clock_out_time, status,
		clock_in_latitude, clock_in_longitude, clock_out_latitude, clock_out_longitude,
		clock_in_selfie, clock_out_selfie, device_id, wifi_ssid, wifi_bssid,
		is_offline, offline_integrity_hash, is_validated, validation_errors,
		liveness_passed, face_match_score, gps_accuracy, geofence_id,
		geofence_valid, wifi_valid, device_valid, clock_skew_detected,
		client_timestamp, notes, created_at, updated_at`

// AttendanceRepository persists attendance records. The unique index
// on (tenant_id, employee_id, date, shift_id) is the authoritative
// duplicate guard; Create translates a conflict into
// domain.ErrDuplicateRecord so racing clock-ins surface the same
// error the advisory check would have produced.
type AttendanceRepository struct {
	pool PgxPool
}

func NewAttendanceRepository(pool PgxPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

func (r *AttendanceRepository) Create(ctx context.Context, rec *domain.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (
			id, tenant_id, employee_id, shift_id, date,
			clock_in_time, status,
			clock_in_latitude, clock_in_longitude,
			clock_in_selfie, device_id, wifi_ssid, wifi_bssid,
			is_offline, offline_integrity_hash, is_validated, validation_errors,
			liveness_passed, face_match_score, gps_accuracy, geofence_id,
			geofence_valid, wifi_valid, device_valid, clock_skew_detected,
			client_timestamp, notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.TenantID,
		rec.EmployeeID,
		rec.ShiftID,
		rec.Date,
		rec.ClockInTime,
		rec.Status,
		rec.ClockInLatitude,
		rec.ClockInLongitude,
		rec.ClockInSelfie,
		rec.DeviceID,
		rec.WifiSSID,
		rec.WifiBSSID,
		rec.IsOffline,
		rec.OfflineIntegrityHash,
		rec.IsValidated,
		rec.ValidationErrors,
		rec.LivenessPassed,
		rec.FaceMatchScore,
		rec.GPSAccuracy,
		rec.GeofenceID,
		rec.GeofenceValid,
		rec.WifiValid,
		rec.DeviceValid,
		rec.ClockSkewDetected,
		rec.ClientTimestamp,
		rec.Notes,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRecord
		}
		return fmt.Errorf("create attendance record: %w", err)
	}

	return nil
}

// Update persists the clock-out mutation of an existing record.
func (r *AttendanceRepository) Update(ctx context.Context, rec *domain.AttendanceRecord) error {
	query := `
		UPDATE attendance_records
		SET clock_out_time = $1,
			clock_out_latitude = $2,
			clock_out_longitude = $3,
			clock_out_selfie = $4,
			status = $5,
			client_timestamp = $6,
			notes = $7,
			updated_at = NOW()
		WHERE id = $8 AND tenant_id = $9 AND is_deleted = false
	`

	result, err := r.pool.Exec(ctx, query,
		rec.ClockOutTime,
		rec.ClockOutLatitude,
		rec.ClockOutLongitude,
		rec.ClockOutSelfie,
		rec.Status,
		rec.ClientTimestamp,
		rec.Notes,
		rec.ID,
		rec.TenantID,
	)
	if err != nil {
		return fmt.Errorf("update attendance record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

// FindOpen returns the single open record (clock_out_time IS NULL)
// for an employee. Zero rows map to ErrRecordNotFound; more than one
// row means the uniqueness invariant was broken upstream and the
// lookup fails loudly rather than picking a row.
func (r *AttendanceRepository) FindOpen(ctx context.Context, tenantID, employeeID uuid.UUID) (*domain.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE tenant_id = $1 AND employee_id = $2
			AND clock_out_time IS NULL AND is_deleted = false
	`

	rows, err := r.pool.Query(ctx, query, tenantID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("find open attendance record: %w", err)
	}
	defer rows.Close()

	var records []*domain.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendanceRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan open attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find open attendance record: %w", err)
	}

	switch len(records) {
	case 0:
		return nil, domain.ErrRecordNotFound
	case 1:
		return records[0], nil
	default:
		return nil, domain.ErrMultipleOpenRecords
	}
}

// GetByID fetches one record scoped by tenant.
func (r *AttendanceRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.AttendanceRecord, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE id = $1 AND tenant_id = $2 AND is_deleted = false
	`

	row := r.pool.QueryRow(ctx, query, id, tenantID)
	rec, err := scanAttendanceRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance record: %w", err)
	}
	return rec, nil
}

// Exists implements the advisory duplicate lookup for the validator.
func (r *AttendanceRepository) Exists(ctx context.Context, tenantID, employeeID uuid.UUID, date time.Time, shiftID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records
			WHERE tenant_id = $1 AND employee_id = $2 AND date = $3 AND shift_id = $4
				AND is_deleted = false
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, tenantID, employeeID, date, shiftID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check attendance record exists: %w", err)
	}
	return exists, nil
}

// CountOffline counts synced offline records for the quota checks.
func (r *AttendanceRepository) CountOffline(ctx context.Context, tenantID, employeeID uuid.UUID, shiftID uuid.UUID, date time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM attendance_records
		WHERE tenant_id = $1 AND employee_id = $2 AND shift_id = $3 AND date = $4
			AND is_offline = true AND is_deleted = false
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, tenantID, employeeID, shiftID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("count offline attendance records: %w", err)
	}
	return count, nil
}

func scanAttendanceRecord(row pgx.Row) (*domain.AttendanceRecord, error) {
	var rec domain.AttendanceRecord
	err := row.Scan(
		&rec.ID,
		&rec.TenantID,
		&rec.EmployeeID,
		&rec.ShiftID,
		&rec.Date,
		&rec.ClockInTime,
		&rec.ClockOutTime,
		&rec.Status,
		&rec.ClockInLatitude,
		&rec.ClockInLongitude,
		&rec.ClockOutLatitude,
		&rec.ClockOutLongitude,
		&rec.ClockInSelfie,
		&rec.ClockOutSelfie,
		&rec.DeviceID,
		&rec.WifiSSID,
		&rec.WifiBSSID,
		&rec.IsOffline,
		&rec.OfflineIntegrityHash,
		&rec.IsValidated,
		&rec.ValidationErrors,
		&rec.LivenessPassed,
		&rec.FaceMatchScore,
		&rec.GPSAccuracy,
		&rec.GeofenceID,
		&rec.GeofenceValid,
		&rec.WifiValid,
		&rec.DeviceValid,
		&rec.ClockSkewDetected,
		&rec.ClientTimestamp,
		&rec.Notes,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
