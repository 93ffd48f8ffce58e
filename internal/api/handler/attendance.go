package handler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/inspire-hq/attendance/internal/api/middleware"
	"github.com/inspire-hq/attendance/internal/attendance"
	"github.com/inspire-hq/attendance/internal/domain"
)

const (
	maxSelfieSize = 10 * 1024 * 1024 // 10MB
	dateLayout    = "2006-01-02"
)

var validSelfieTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ClockEventService interface for the attendance service
type ClockEventService interface {
	ClockIn(ctx context.Context, tenantID, employeeID uuid.UUID, req *attendance.ClockInRequest) (*attendance.Result, error)
	ClockOut(ctx context.Context, tenantID, employeeID uuid.UUID, req *attendance.ClockOutRequest) (*attendance.Result, error)
	SyncOffline(ctx context.Context, tenantID, employeeID uuid.UUID, req *attendance.OfflineSyncRequest) (*attendance.Result, error)
}

// RecordFinder interface for record lookup
type RecordFinder interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.AttendanceRecord, error)
}

// SyncLimiter throttles offline-sync submissions per employee
type SyncLimiter interface {
	CheckSyncLimit(ctx context.Context, tenantID, employeeID uuid.UUID, limit int) error
}

// AttendanceHandler handles clock event requests
type AttendanceHandler struct {
	service     ClockEventService
	records     RecordFinder
	syncLimiter SyncLimiter
	syncLimit   int
	logger      *slog.Logger
}

func NewAttendanceHandler(service ClockEventService, records RecordFinder, syncLimiter SyncLimiter, syncLimit int, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service:     service,
		records:     records,
		syncLimiter: syncLimiter,
		syncLimit:   syncLimit,
		logger:      logger,
	}
}

// RecordResponse is the wire representation of an attendance record
type RecordResponse struct {
	RecordID         string   `json:"record_id"`
	EmployeeID       string   `json:"employee_id"`
	ShiftID          string   `json:"shift_id"`
	Date             string   `json:"date"`
	Status           string   `json:"status"`
	ClockInTime      string   `json:"clock_in_time,omitempty"`
	ClockOutTime     string   `json:"clock_out_time,omitempty"`
	TotalHours       float64  `json:"total_hours,omitempty"`
	IsOffline        bool     `json:"is_offline"`
	IsValidated      bool     `json:"is_validated"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
}

// ValidationFailedResponse is returned when the pipeline rejects a
// submission. The record is persisted with its errors regardless.
type ValidationFailedResponse struct {
	Error    string   `json:"error"`
	RecordID string   `json:"record_id"`
	Errors   []string `json:"errors"`
}

func newRecordResponse(rec *domain.AttendanceRecord) RecordResponse {
	resp := RecordResponse{
		RecordID:         rec.ID.String(),
		EmployeeID:       rec.EmployeeID.String(),
		ShiftID:          rec.ShiftID.String(),
		Date:             rec.Date.Format(dateLayout),
		Status:           string(rec.Status),
		IsOffline:        rec.IsOffline,
		IsValidated:      rec.IsValidated,
		ValidationErrors: rec.ValidationErrors,
	}
	if rec.ClockInTime != nil {
		resp.ClockInTime = rec.ClockInTime.Format(time.RFC3339)
	}
	if rec.ClockOutTime != nil {
		resp.ClockOutTime = rec.ClockOutTime.Format(time.RFC3339)
		resp.TotalHours = rec.DurationHours()
	}
	return resp
}

// ClockIn POST /v1/attendance/clock-in - open an attendance record
func (h *AttendanceHandler) ClockIn(c *fiber.Ctx) error {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		return err
	}

	employeeID, err := parseUUIDField(c, "employee_id", true)
	if err != nil {
		return err
	}

	req, err := parseClockInForm(c)
	if err != nil {
		return err
	}

	result, err := h.service.ClockIn(c.Context(), tenantID, *employeeID, req)
	if err != nil {
		return err
	}

	if !result.IsValid {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationFailedResponse{
			Error:    domain.ErrValidationFailed.Message,
			RecordID: result.Record.ID.String(),
			Errors:   result.Errors,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(newRecordResponse(result.Record))
}

// ClockOut POST /v1/attendance/clock-out - close the open record
func (h *AttendanceHandler) ClockOut(c *fiber.Ctx) error {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		return err
	}

	employeeID, err := parseUUIDField(c, "employee_id", true)
	if err != nil {
		return err
	}

	req := &attendance.ClockOutRequest{
		Latitude:  parseFloatField(c, "latitude"),
		Longitude: parseFloatField(c, "longitude"),
		Notes:     strings.TrimSpace(c.FormValue("notes")),
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}

	if raw := c.FormValue("client_timestamp"); raw != "" {
		ts, tsErr := time.Parse(time.RFC3339, raw)
		if tsErr != nil {
			return domain.ErrValidationFailed.WithError(errors.New("client_timestamp must be RFC3339"))
		}
		req.ClientTimestamp = &ts
	}

	if selfie, selfieErr := extractSelfie(c); selfieErr != nil {
		return selfieErr
	} else if selfie != "" {
		req.HasSelfie = true
		req.SelfiePath = selfie
	}

	result, err := h.service.ClockOut(c.Context(), tenantID, *employeeID, req)
	if err != nil {
		return err
	}

	return c.JSON(newRecordResponse(result.Record))
}

// offlineSyncBody is the JSON payload for an offline sync. Timestamp
// and coordinates arrive as strings: the integrity digest covers the
// exact bytes the client captured, so they are never re-rendered.
type offlineSyncBody struct {
	EmployeeID       string   `json:"employee_id"`
	ShiftID          string   `json:"shift_id"`
	Date             string   `json:"date"`
	ClockInTime      string   `json:"clock_in_time"`
	ClientTimestamp  string   `json:"client_timestamp"`
	Latitude         string   `json:"latitude"`
	Longitude        string   `json:"longitude"`
	GPSAccuracy      *float64 `json:"gps_accuracy"`
	Altitude         *float64 `json:"altitude"`
	DeviceID         string   `json:"device_id"`
	WifiSSID         string   `json:"wifi_ssid"`
	WifiBSSID        string   `json:"wifi_bssid"`
	HasSelfie        bool     `json:"has_selfie"`
	SelfiePath       string   `json:"selfie_path"`
	LivenessPassed   bool     `json:"liveness_passed"`
	FaceMatchScore   *float64 `json:"face_match_score"`
	IsMockLocation   bool     `json:"is_mock_location"`
	LocationProvider string   `json:"location_provider"`
	GeofenceID       string   `json:"geofence_id"`
	IntegrityHash    string   `json:"integrity_hash"`
	Notes            string   `json:"notes"`
}

// SyncOffline POST /v1/attendance/sync-offline - replay an offline clock-in
func (h *AttendanceHandler) SyncOffline(c *fiber.Ctx) error {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		return err
	}

	var body offlineSyncBody
	if err := c.BodyParser(&body); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	employeeID, err := uuid.Parse(body.EmployeeID)
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("employee_id must be a valid UUID"))
	}
	shiftID, err := uuid.Parse(body.ShiftID)
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("shift_id must be a valid UUID"))
	}

	if err := h.syncLimiter.CheckSyncLimit(c.Context(), tenantID, employeeID, h.syncLimit); err != nil {
		return err
	}

	date, err := time.Parse(dateLayout, body.Date)
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("date must be formatted as YYYY-MM-DD"))
	}
	clockIn, err := time.Parse(time.RFC3339, body.ClockInTime)
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("clock_in_time must be RFC3339"))
	}

	req := &attendance.OfflineSyncRequest{
		ClockInRequest: attendance.ClockInRequest{
			ShiftID:          shiftID,
			Date:             date,
			HasSelfie:        body.HasSelfie,
			SelfiePath:       body.SelfiePath,
			GPSAccuracy:      body.GPSAccuracy,
			Altitude:         body.Altitude,
			DeviceID:         body.DeviceID,
			WifiSSID:         body.WifiSSID,
			WifiBSSID:        body.WifiBSSID,
			LivenessPassed:   body.LivenessPassed,
			FaceMatchScore:   body.FaceMatchScore,
			IsMockLocation:   body.IsMockLocation,
			LocationProvider: body.LocationProvider,
			Notes:            body.Notes,
			IPAddress:        c.IP(),
			UserAgent:        c.Get("User-Agent"),
		},
		ClockInTime:        clockIn,
		ClientTimestampRaw: body.ClientTimestamp,
		LatitudeRaw:        body.Latitude,
		LongitudeRaw:       body.Longitude,
		IntegrityHash:      body.IntegrityHash,
	}

	if ts, tsErr := time.Parse(time.RFC3339, body.ClientTimestamp); tsErr == nil {
		req.ClientTimestamp = &ts
	}
	if lat, latErr := strconv.ParseFloat(body.Latitude, 64); latErr == nil {
		req.Latitude = &lat
	}
	if lon, lonErr := strconv.ParseFloat(body.Longitude, 64); lonErr == nil {
		req.Longitude = &lon
	}
	if body.GeofenceID != "" {
		if gid, gidErr := uuid.Parse(body.GeofenceID); gidErr == nil {
			req.GeofenceID = &gid
		}
	}

	result, err := h.service.SyncOffline(c.Context(), tenantID, employeeID, req)
	if err != nil {
		return err
	}

	if !result.IsValid {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationFailedResponse{
			Error:    domain.ErrValidationFailed.Message,
			RecordID: result.Record.ID.String(),
			Errors:   result.Errors,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(newRecordResponse(result.Record))
}

// GetRecord GET /v1/attendance/:id - fetch a single record
func (h *AttendanceHandler) GetRecord(c *fiber.Ctx) error {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("id must be a valid UUID"))
	}

	rec, err := h.records.GetByID(c.Context(), tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(newRecordResponse(rec))
}

// parseClockInForm reads the multipart clock-in submission.
func parseClockInForm(c *fiber.Ctx) (*attendance.ClockInRequest, error) {
	shiftID, err := parseUUIDField(c, "shift_id", true)
	if err != nil {
		return nil, err
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.FormValue("date"); raw != "" {
		parsed, dateErr := time.Parse(dateLayout, raw)
		if dateErr != nil {
			return nil, domain.ErrValidationFailed.WithError(errors.New("date must be formatted as YYYY-MM-DD"))
		}
		date = parsed
	}

	req := &attendance.ClockInRequest{
		ShiftID:          *shiftID,
		Date:             date,
		Latitude:         parseFloatField(c, "latitude"),
		Longitude:        parseFloatField(c, "longitude"),
		GPSAccuracy:      parseFloatField(c, "gps_accuracy"),
		Altitude:         parseFloatField(c, "altitude"),
		DeviceID:         strings.TrimSpace(c.FormValue("device_id")),
		WifiSSID:         c.FormValue("wifi_ssid"),
		WifiBSSID:        c.FormValue("wifi_bssid"),
		LivenessPassed:   c.FormValue("liveness_passed") == "true",
		FaceMatchScore:   parseFloatField(c, "face_match_score"),
		IsMockLocation:   c.FormValue("is_mock_location") == "true",
		LocationProvider: c.FormValue("location_provider"),
		Notes:            strings.TrimSpace(c.FormValue("notes")),
		IPAddress:        c.IP(),
		UserAgent:        c.Get("User-Agent"),
	}

	if gid, gidErr := parseUUIDField(c, "geofence_id", false); gidErr == nil && gid != nil {
		req.GeofenceID = gid
	}

	if raw := c.FormValue("client_timestamp"); raw != "" {
		ts, tsErr := time.Parse(time.RFC3339, raw)
		if tsErr != nil {
			return nil, domain.ErrValidationFailed.WithError(errors.New("client_timestamp must be RFC3339"))
		}
		req.ClientTimestamp = &ts
	}

	selfie, err := extractSelfie(c)
	if err != nil {
		return nil, err
	}
	if selfie != "" {
		req.HasSelfie = true
		req.SelfiePath = selfie
		req.SelfieEXIF = extractSelfieEXIF(c)
	}

	return req, nil
}

// extractSelfie validates the selfie upload and returns its stored
// reference, or "" when no selfie was attached.
func extractSelfie(c *fiber.Ctx) (string, error) {
	file, err := c.FormFile("selfie")
	if err != nil {
		return "", nil
	}

	if file.Size > maxSelfieSize {
		return "", domain.ErrValidationFailed.WithError(errors.New("selfie exceeds maximum size"))
	}

	contentType := file.Header.Get("Content-Type")
	if !validSelfieTypes[contentType] {
		return "", domain.ErrValidationFailed.WithError(errors.New("selfie must be JPEG, PNG or WebP"))
	}

	return file.Filename, nil
}

// extractSelfieEXIF collects the client-reported EXIF fields used by
// the gallery-upload heuristic.
func extractSelfieEXIF(c *fiber.Ctx) map[string]string {
	exif := make(map[string]string)
	for _, key := range []string{"Make", "Model", "Software", "DateTime"} {
		if v := c.FormValue("exif_" + strings.ToLower(key)); v != "" {
			exif[key] = v
		}
	}
	if len(exif) == 0 {
		return nil
	}
	return exif
}

func parseUUIDField(c *fiber.Ctx, field string, required bool) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.FormValue(field))
	if raw == "" {
		if required {
			return nil, domain.ErrValidationFailed.WithError(errors.New(field + " is required"))
		}
		return nil, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(errors.New(field + " must be a valid UUID"))
	}
	return &id, nil
}

func parseFloatField(c *fiber.Ctx, field string) *float64 {
	raw := strings.TrimSpace(c.FormValue(field))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
