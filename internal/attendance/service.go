package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inspire-hq/attendance/internal/audit"
	"github.com/inspire-hq/attendance/internal/domain"
	"github.com/inspire-hq/attendance/internal/validation"
)

// Event topics broadcast after a successful mutation.
const (
	TopicClockIn       = "attendance.clock_in"
	TopicClockOut      = "attendance.clock_out"
	TopicOfflineSynced = "attendance.offline_synced"
)

type RecordStore interface {
	Create(ctx context.Context, rec *domain.AttendanceRecord) error
	Update(ctx context.Context, rec *domain.AttendanceRecord) error
	FindOpen(ctx context.Context, tenantID, employeeID uuid.UUID) (*domain.AttendanceRecord, error)
	CountOffline(ctx context.Context, tenantID, employeeID, shiftID uuid.UUID, date time.Time) (int, error)
}

type ShiftLookup interface {
	GetActive(ctx context.Context, tenantID, id uuid.UUID) (*domain.Shift, error)
}

type PolicyLookup interface {
	GetActive(ctx context.Context, tenantID uuid.UUID) (*domain.Policy, error)
}

type Validator interface {
	RunAll(ctx context.Context, in *validation.Context, policy *domain.Policy) (bool, []string, validation.Flags)
}

// EventPublisher delivers lifecycle events to connected dashboards.
// Delivery is best effort; a failed publish never fails the request.
type EventPublisher interface {
	Publish(tenantID uuid.UUID, topic string, payload any) error
}

// RecordEvent is the payload broadcast on every lifecycle topic.
type RecordEvent struct {
	RecordID   uuid.UUID     `json:"record_id"`
	EmployeeID uuid.UUID     `json:"employee_id"`
	ShiftID    uuid.UUID     `json:"shift_id"`
	Status     domain.Status `json:"status"`
	IsOffline  bool          `json:"is_offline"`
	Timestamp  time.Time     `json:"timestamp"`
}

// ClockInRequest carries everything the client submits at clock-in.
type ClockInRequest struct {
	ShiftID uuid.UUID
	Date    time.Time

	HasSelfie  bool
	SelfiePath string
	SelfieEXIF map[string]string

	Latitude    *float64
	Longitude   *float64
	GPSAccuracy *float64
	Altitude    *float64

	DeviceID  string
	WifiSSID  string
	WifiBSSID string

	LivenessPassed   bool
	FaceMatchScore   *float64
	IsMockLocation   bool
	LocationProvider string

	GeofenceID      *uuid.UUID
	ClientTimestamp *time.Time
	Notes           string

	IPAddress string
	UserAgent string
}

type ClockOutRequest struct {
	HasSelfie  bool
	SelfiePath string
	Latitude   *float64
	Longitude  *float64

	ClientTimestamp *time.Time
	Notes           string

	IPAddress string
	UserAgent string
}

// OfflineSyncRequest is a clock-in captured without connectivity and
// submitted later. The raw strings are the exact bytes the client
// hashed into IntegrityHash; they must not be re-rendered server side.
type OfflineSyncRequest struct {
	ClockInRequest

	ClockInTime        time.Time
	ClientTimestampRaw string
	LatitudeRaw        string
	LongitudeRaw       string
	IntegrityHash      string
}

// Result is the outcome of a clock event. IsValid false means the
// record was persisted with its validation errors and the client
// should be told the submission was rejected.
type Result struct {
	IsValid bool
	Errors  []string
	Record  *domain.AttendanceRecord
}

type Service struct {
	records   RecordStore
	shifts    ShiftLookup
	policies  PolicyLookup
	validator Validator
	publisher EventPublisher
	audit     audit.Logger
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	records RecordStore,
	shifts ShiftLookup,
	policies PolicyLookup,
	validator Validator,
	publisher EventPublisher,
	auditLogger audit.Logger,
	logger *slog.Logger,
) *Service {
	return &Service{
		records:   records,
		shifts:    shifts,
		policies:  policies,
		validator: validator,
		publisher: publisher,
		audit:     auditLogger,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the server clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ClockIn validates and records the start of a shift. Invalid
// submissions are still persisted, flagged with their errors, so a
// rejected attempt leaves an auditable trail.
func (s *Service) ClockIn(ctx context.Context, tenantID, employeeID uuid.UUID, req *ClockInRequest) (*Result, error) {
	shift, err := s.shifts.GetActive(ctx, tenantID, req.ShiftID)
	if err != nil {
		return nil, err
	}

	policy, err := s.policies.GetActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: load policy: %w", tenantID, err)
	}

	now := s.now().UTC()
	vctx := s.buildContext(tenantID, employeeID, shift, req, now)

	isValid, errs, flags := s.validator.RunAll(ctx, vctx, policy)

	rec := s.buildRecord(tenantID, employeeID, shift, req, now, isValid, errs, flags)
	rec.ClockInTime = &now
	rec.Status = ClockInStatus(shift, now)

	if err := s.records.Create(ctx, rec); err != nil {
		s.auditEvent(ctx, tenantID, audit.ActionClockIn, "", employeeID, false, map[string]string{
			"error": err.Error(),
		}, req.IPAddress, req.UserAgent)
		return nil, err
	}

	s.auditEvent(ctx, tenantID, audit.ActionClockIn, rec.ID.String(), employeeID, isValid, map[string]string{
		"status":   string(rec.Status),
		"shift_id": shift.ID.String(),
		"errors":   strings.Join(errs, "; "),
	}, req.IPAddress, req.UserAgent)

	if isValid {
		s.publish(tenantID, TopicClockIn, rec)
	}

	return &Result{IsValid: isValid, Errors: errs, Record: rec}, nil
}

// ClockOut closes the employee's single open record for the day and
// computes the final status from the pairing of clock-in and clock-out
// against the shift window.
func (s *Service) ClockOut(ctx context.Context, tenantID, employeeID uuid.UUID, req *ClockOutRequest) (*Result, error) {
	rec, err := s.records.FindOpen(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}

	shift, err := s.shifts.GetActive(ctx, tenantID, rec.ShiftID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec.ClockOutTime = &now
	rec.ClockOutLatitude = req.Latitude
	rec.ClockOutLongitude = req.Longitude
	rec.ClockOutSelfie = req.SelfiePath
	if req.ClientTimestamp != nil {
		rec.ClientTimestamp = req.ClientTimestamp
	}
	if req.Notes != "" {
		rec.Notes = req.Notes
	}
	if rec.ClockInTime != nil {
		rec.Status = FinalStatus(shift, *rec.ClockInTime, now)
	}

	if err := s.records.Update(ctx, rec); err != nil {
		s.auditEvent(ctx, tenantID, audit.ActionClockOut, rec.ID.String(), employeeID, false, map[string]string{
			"error": err.Error(),
		}, req.IPAddress, req.UserAgent)
		return nil, err
	}

	s.auditEvent(ctx, tenantID, audit.ActionClockOut, rec.ID.String(), employeeID, true, map[string]string{
		"status":      string(rec.Status),
		"total_hours": strconv.FormatFloat(rec.DurationHours(), 'f', 2, 64),
	}, req.IPAddress, req.UserAgent)

	s.publish(tenantID, TopicClockOut, rec)

	return &Result{IsValid: true, Record: rec}, nil
}

// SyncOffline replays a clock-in captured without connectivity. The
// quota is checked before validation runs so an exhausted employee is
// rejected cheaply; the in-pipeline re-check still guards the race
// between two concurrent syncs.
func (s *Service) SyncOffline(ctx context.Context, tenantID, employeeID uuid.UUID, req *OfflineSyncRequest) (*Result, error) {
	shift, err := s.shifts.GetActive(ctx, tenantID, req.ShiftID)
	if err != nil {
		return nil, err
	}

	policy, err := s.policies.GetActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: load policy: %w", tenantID, err)
	}

	count, err := s.records.CountOffline(ctx, tenantID, employeeID, shift.ID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: count offline records: %w", tenantID, err)
	}
	if count >= policy.OfflineLimit() {
		s.auditEvent(ctx, tenantID, audit.ActionOfflineSync, "", employeeID, false, map[string]string{
			"error":         "offline quota exceeded",
			"offline_count": strconv.Itoa(count),
			"offline_limit": strconv.Itoa(policy.OfflineLimit()),
		}, req.IPAddress, req.UserAgent)
		return nil, domain.ErrOfflineQuotaExceeded
	}

	clockIn := req.ClockInTime.UTC()
	vctx := s.buildContext(tenantID, employeeID, shift, &req.ClockInRequest, s.now().UTC())
	vctx.IsOffline = true
	vctx.IntegrityHash = req.IntegrityHash
	vctx.ClientTimestampRaw = req.ClientTimestampRaw
	vctx.LatitudeRaw = req.LatitudeRaw
	vctx.LongitudeRaw = req.LongitudeRaw

	isValid, errs, flags := s.validator.RunAll(ctx, vctx, policy)

	rec := s.buildRecord(tenantID, employeeID, shift, &req.ClockInRequest, clockIn, isValid, errs, flags)
	rec.ClockInTime = &clockIn
	rec.Status = ClockInStatus(shift, clockIn)
	rec.IsOffline = true
	rec.OfflineIntegrityHash = req.IntegrityHash

	if err := s.records.Create(ctx, rec); err != nil {
		s.auditEvent(ctx, tenantID, audit.ActionOfflineSync, "", employeeID, false, map[string]string{
			"error": err.Error(),
		}, req.IPAddress, req.UserAgent)
		return nil, err
	}

	s.auditEvent(ctx, tenantID, audit.ActionOfflineSync, rec.ID.String(), employeeID, isValid, map[string]string{
		"status":   string(rec.Status),
		"shift_id": shift.ID.String(),
		"errors":   strings.Join(errs, "; "),
	}, req.IPAddress, req.UserAgent)

	if isValid {
		s.publish(tenantID, TopicOfflineSynced, rec)
	}

	return &Result{IsValid: isValid, Errors: errs, Record: rec}, nil
}

func (s *Service) buildContext(tenantID, employeeID uuid.UUID, shift *domain.Shift, req *ClockInRequest, now time.Time) *validation.Context {
	return &validation.Context{
		TenantID:         tenantID,
		EmployeeID:       employeeID,
		Shift:            shift,
		Date:             req.Date,
		HasSelfie:        req.HasSelfie,
		SelfieEXIF:       req.SelfieEXIF,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		GPSAccuracy:      req.GPSAccuracy,
		Altitude:         req.Altitude,
		DeviceID:         req.DeviceID,
		WifiSSID:         req.WifiSSID,
		WifiBSSID:        req.WifiBSSID,
		ClientTimestamp:  req.ClientTimestamp,
		LivenessPassed:   req.LivenessPassed,
		FaceMatchScore:   req.FaceMatchScore,
		IsMockLocation:   req.IsMockLocation,
		LocationProvider: req.LocationProvider,
		GeofenceID:       req.GeofenceID,
		Now:              now,
	}
}

func (s *Service) buildRecord(tenantID, employeeID uuid.UUID, shift *domain.Shift, req *ClockInRequest, clockIn time.Time, isValid bool, errs []string, flags validation.Flags) *domain.AttendanceRecord {
	if errs == nil {
		errs = []string{}
	}
	return &domain.AttendanceRecord{
		ID:                uuid.New(),
		TenantID:          tenantID,
		EmployeeID:        employeeID,
		ShiftID:           shift.ID,
		Date:              req.Date,
		ClockInLatitude:   req.Latitude,
		ClockInLongitude:  req.Longitude,
		ClockInSelfie:     req.SelfiePath,
		DeviceID:          req.DeviceID,
		WifiSSID:          req.WifiSSID,
		WifiBSSID:         req.WifiBSSID,
		IsValidated:       isValid,
		ValidationErrors:  errs,
		LivenessPassed:    req.LivenessPassed,
		FaceMatchScore:    req.FaceMatchScore,
		GPSAccuracy:       req.GPSAccuracy,
		GeofenceID:        req.GeofenceID,
		GeofenceValid:     flags.GeofenceValid,
		WifiValid:         flags.WifiValid,
		DeviceValid:       flags.DeviceValid,
		ClockSkewDetected: flags.ClockSkewDetected,
		ClientTimestamp:   req.ClientTimestamp,
		Notes:             req.Notes,
	}
}

func (s *Service) auditEvent(ctx context.Context, tenantID uuid.UUID, action audit.Action, recordID string, employeeID uuid.UUID, success bool, details map[string]string, ip, ua string) {
	entry := audit.Entry{
		TenantID:     tenantID,
		Action:       action,
		ResourceType: "attendance_record",
		ResourceID:   recordID,
		ActorID:      employeeID.String(),
		Success:      success,
		Details:      details,
		IPAddress:    ip,
		UserAgent:    ua,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "audit log failed",
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) publish(tenantID uuid.UUID, topic string, rec *domain.AttendanceRecord) {
	event := RecordEvent{
		RecordID:   rec.ID,
		EmployeeID: rec.EmployeeID,
		ShiftID:    rec.ShiftID,
		Status:     rec.Status,
		IsOffline:  rec.IsOffline,
		Timestamp:  s.now().UTC(),
	}
	if err := s.publisher.Publish(tenantID, topic, event); err != nil {
		s.logger.Warn("event publish failed",
			slog.String("topic", topic),
			slog.String("tenant_id", tenantID.String()),
			slog.String("error", err.Error()),
		)
	}
}
