package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inspire-hq/attendance/internal/api/middleware"
	"github.com/inspire-hq/attendance/internal/attendance"
	"github.com/inspire-hq/attendance/internal/domain"
)

// MockClockEventService is a mock implementation of ClockEventService
type MockClockEventService struct {
	mock.Mock
}

func (m *MockClockEventService) ClockIn(ctx context.Context, tenantID, employeeID uuid.UUID, req *attendance.ClockInRequest) (*attendance.Result, error) {
	args := m.Called(ctx, tenantID, employeeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attendance.Result), args.Error(1)
}

func (m *MockClockEventService) ClockOut(ctx context.Context, tenantID, employeeID uuid.UUID, req *attendance.ClockOutRequest) (*attendance.Result, error) {
	args := m.Called(ctx, tenantID, employeeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attendance.Result), args.Error(1)
}

func (m *MockClockEventService) SyncOffline(ctx context.Context, tenantID, employeeID uuid.UUID, req *attendance.OfflineSyncRequest) (*attendance.Result, error) {
	args := m.Called(ctx, tenantID, employeeID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attendance.Result), args.Error(1)
}

// MockRecordFinder is a mock implementation of RecordFinder
type MockRecordFinder struct {
	mock.Mock
}

func (m *MockRecordFinder) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceRecord), args.Error(1)
}

// MockSyncLimiter is a mock implementation of SyncLimiter
type MockSyncLimiter struct {
	mock.Mock
}

func (m *MockSyncLimiter) CheckSyncLimit(ctx context.Context, tenantID, employeeID uuid.UUID, limit int) error {
	args := m.Called(ctx, tenantID, employeeID, limit)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestApp wires the handler behind a fake authenticated tenant.
func newTestApp(h *AttendanceHandler, tenantID uuid.UUID) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(testLogger()),
	})

	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalTenantID, tenantID)
		return c.Next()
	})

	app.Post("/v1/attendance/clock-in", h.ClockIn)
	app.Post("/v1/attendance/clock-out", h.ClockOut)
	app.Post("/v1/attendance/sync-offline", h.SyncOffline)
	app.Get("/v1/attendance/:id", h.GetRecord)

	return app
}

func clockInForm(fields map[string]string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	_ = writer.Close()
	return body, writer.FormDataContentType()
}

func sampleRecord(tenantID, employeeID uuid.UUID, valid bool) *domain.AttendanceRecord {
	clockIn := time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC)
	rec := &domain.AttendanceRecord{
		ID:               uuid.New(),
		TenantID:         tenantID,
		EmployeeID:       employeeID,
		ShiftID:          uuid.New(),
		Date:             time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		ClockInTime:      &clockIn,
		Status:           domain.StatusPresent,
		IsValidated:      valid,
		ValidationErrors: []string{},
	}
	if !valid {
		rec.ValidationErrors = []string{"Selfie is required for clock-in."}
	}
	return rec
}

func TestAttendanceHandler_ClockIn_Success(t *testing.T) {
	tenantID := uuid.New()
	employeeID := uuid.New()
	shiftID := uuid.New()

	service := new(MockClockEventService)
	rec := sampleRecord(tenantID, employeeID, true)
	service.On("ClockIn", mock.Anything, tenantID, employeeID, mock.MatchedBy(func(req *attendance.ClockInRequest) bool {
		return req.ShiftID == shiftID && req.DeviceID == "device-1"
	})).Return(&attendance.Result{IsValid: true, Record: rec}, nil)

	h := NewAttendanceHandler(service, new(MockRecordFinder), new(MockSyncLimiter), 30, testLogger())
	app := newTestApp(h, tenantID)

	body, contentType := clockInForm(map[string]string{
		"employee_id": employeeID.String(),
		"shift_id":    shiftID.String(),
		"date":        "2025-03-10",
		"device_id":   "device-1",
		"latitude":    "24.7136",
		"longitude":   "46.6753",
	})

	req := httptest.NewRequest("POST", "/v1/attendance/clock-in", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var got RecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, rec.ID.String(), got.RecordID)
	assert.Equal(t, "PRESENT", got.Status)
	assert.True(t, got.IsValidated)

	service.AssertExpectations(t)
}

func TestAttendanceHandler_ClockIn_ValidationFailure(t *testing.T) {
	tenantID := uuid.New()
	employeeID := uuid.New()

	service := new(MockClockEventService)
	rec := sampleRecord(tenantID, employeeID, false)
	service.On("ClockIn", mock.Anything, tenantID, employeeID, mock.Anything).
		Return(&attendance.Result{
			IsValid: false,
			Errors:  []string{"Selfie is required for clock-in."},
			Record:  rec,
		}, nil)

	h := NewAttendanceHandler(service, new(MockRecordFinder), new(MockSyncLimiter), 30, testLogger())
	app := newTestApp(h, tenantID)

	body, contentType := clockInForm(map[string]string{
		"employee_id": employeeID.String(),
		"shift_id":    uuid.NewString(),
	})

	req := httptest.NewRequest("POST", "/v1/attendance/clock-in", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var got ValidationFailedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, rec.ID.String(), got.RecordID)
	assert.Contains(t, got.Errors, "Selfie is required for clock-in.")
}

func TestAttendanceHandler_ClockIn_MissingEmployeeID(t *testing.T) {
	tenantID := uuid.New()

	h := NewAttendanceHandler(new(MockClockEventService), new(MockRecordFinder), new(MockSyncLimiter), 30, testLogger())
	app := newTestApp(h, tenantID)

	body, contentType := clockInForm(map[string]string{
		"shift_id": uuid.NewString(),
	})

	req := httptest.NewRequest("POST", "/v1/attendance/clock-in", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAttendanceHandler_ClockIn_DuplicateRecord(t *testing.T) {
	tenantID := uuid.New()
	employeeID := uuid.New()

	service := new(MockClockEventService)
	service.On("ClockIn", mock.Anything, tenantID, employeeID, mock.Anything).
		Return(nil, domain.ErrDuplicateRecord)

	h := NewAttendanceHandler(service, new(MockRecordFinder), new(MockSyncLimiter), 30, testLogger())
	app := newTestApp(h, tenantID)

	body, contentType := clockInForm(map[string]string{
		"employee_id": employeeID.String(),
		"shift_id":    uuid.NewString(),
	})

	req := httptest.NewRequest("POST", "/v1/attendance/clock-in", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestAttendanceHandler_ClockOut_Success(t *testing.T) {
	tenantID := uuid.New()
	employeeID := uuid.New()

	rec := sampleRecord(tenantID, employeeID, true)
	clockOut := time.Date(2025, 3, 10, 17, 5, 0, 0, time.UTC)
	rec.ClockOutTime = &clockOut

	service := new(MockClockEventService)
	service.On("ClockOut", mock.Anything, tenantID, employeeID, mock.Anything).
		Return(&attendance.Result{IsValid: true, Record: rec}, nil)

	h := NewAttendanceHandler(service, new(MockRecordFinder), new(MockSyncLimiter), 30, testLogger())
	app := newTestApp(h, tenantID)

	body, contentType := clockInForm(map[string]string{
		"employee_id": employeeID.String(),
	})

	req := httptest.NewRequest("POST", "/v1/attendance/clock-out", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got RecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 8.0, got.TotalHours)
	assert.NotEmpty(t, got.ClockOutTime)
}

func TestAttendanceHandler_ClockOut_ParsesClientTimestamp(t *testing.T) {
	tenantID := uuid.New()
	employeeID := uuid.New()

	rec := sampleRecord(tenantID, employeeID, true)
	clientTS := time.Date(2025, 3, 10, 17, 4, 57, 0, time.UTC)

	service := new(MockClockEventService)
	service.On("ClockOut", mock.Anything, tenantID, employeeID, mock.MatchedBy(func(req *attendance.ClockOutRequest) bool {
		return req.ClientTimestamp != nil && req.ClientTimestamp.Equal(clientTS)
	})).Return(&attendance.Result{IsValid: true, Record: rec}, nil)

	h := NewAttendanceHandler(service, new(MockRecordFinder), new(MockSyncLimiter), 30, testLogger())
	app := newTestApp(h, tenantID)

	body, contentType := clockInForm(map[string]string{
		"employee_id":      employeeID.String(),
		"client_timestamp": clientTS.Format(time.RFC3339),
	})

	req := httptest.NewRequest("POST", "/v1/attendance/clock-out", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	service.AssertExpectations(t)
}

func TestAttendanceHandler_ClockOut_RejectsBadClientTimestamp(t *testing.T) {
	tenantID := uuid.New()
	employeeID := uuid.New()

	service := new(MockClockEventService)

	h := NewAttendanceHandler(service, new(MockRecordFinder), new(MockSyncLimiter), 30, testLogger())
	app := newTestApp(h, tenantID)

	body, contentType := clockInForm(map[string]string{
		"employee_id":      employeeID.String(),
		"client_timestamp": "yesterday evening",
	})

	req := httptest.NewRequest("POST", "/v1/attendance/clock-out", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	service.AssertNotCalled(t, "ClockOut")
}

func TestAttendanceHandler_ClockOut_NoOpenRecord(t *testing.T) {
	tenantID := uuid.New()
	employeeID := uuid.New()

	service := new(MockClockEventService)
	service.On("ClockOut", mock.Anything, tenantID, employeeID, mock.Anything).
		Return(nil, domain.ErrRecordNotFound)

	h := NewAttendanceHandler(service, new(MockRecordFinder), new(MockSyncLimiter), 30, testLogger())
	app := newTestApp(h, tenantID)

	body, contentType := clockInForm(map[string]string{
		"employee_id": employeeID.String(),
	})

	req := httptest.NewRequest("POST", "/v1/attendance/clock-out", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAttendanceHandler_SyncOffline_Success(t *testing.T) {
	tenantID := uuid.New()
	employeeID := uuid.New()
	shiftID := uuid.New()

	rec := sampleRecord(tenantID, employeeID, true)
	rec.IsOffline = true

	service := new(MockClockEventService)
	service.On("SyncOffline", mock.Anything, tenantID, employeeID, mock.MatchedBy(func(req *attendance.OfflineSyncRequest) bool {
		return req.IntegrityHash == "abc123" &&
			req.LatitudeRaw == "24.7136" &&
			req.ClientTimestampRaw == "2025-03-10T09:00:00Z"
	})).Return(&attendance.Result{IsValid: true, Record: rec}, nil)

	limiter := new(MockSyncLimiter)
	limiter.On("CheckSyncLimit", mock.Anything, tenantID, employeeID, 30).Return(nil)

	h := NewAttendanceHandler(service, new(MockRecordFinder), limiter, 30, testLogger())
	app := newTestApp(h, tenantID)

	payload := map[string]any{
		"employee_id":      employeeID.String(),
		"shift_id":         shiftID.String(),
		"date":             "2025-03-10",
		"clock_in_time":    "2025-03-10T09:00:00Z",
		"client_timestamp": "2025-03-10T09:00:00Z",
		"latitude":         "24.7136",
		"longitude":        "46.6753",
		"integrity_hash":   "abc123",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest("POST", "/v1/attendance/sync-offline", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var got RecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.IsOffline)
	service.AssertExpectations(t)
	limiter.AssertExpectations(t)
}

func TestAttendanceHandler_SyncOffline_RateLimited(t *testing.T) {
	tenantID := uuid.New()
	employeeID := uuid.New()

	limiter := new(MockSyncLimiter)
	limiter.On("CheckSyncLimit", mock.Anything, tenantID, employeeID, 30).
		Return(domain.ErrRateLimitExceeded)

	service := new(MockClockEventService)
	h := NewAttendanceHandler(service, new(MockRecordFinder), limiter, 30, testLogger())
	app := newTestApp(h, tenantID)

	payload := map[string]any{
		"employee_id":   employeeID.String(),
		"shift_id":      uuid.NewString(),
		"date":          "2025-03-10",
		"clock_in_time": "2025-03-10T09:00:00Z",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest("POST", "/v1/attendance/sync-offline", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	service.AssertNotCalled(t, "SyncOffline", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAttendanceHandler_SyncOffline_QuotaExceeded(t *testing.T) {
	tenantID := uuid.New()
	employeeID := uuid.New()

	limiter := new(MockSyncLimiter)
	limiter.On("CheckSyncLimit", mock.Anything, tenantID, employeeID, 30).Return(nil)

	service := new(MockClockEventService)
	service.On("SyncOffline", mock.Anything, tenantID, employeeID, mock.Anything).
		Return(nil, domain.ErrOfflineQuotaExceeded)

	h := NewAttendanceHandler(service, new(MockRecordFinder), limiter, 30, testLogger())
	app := newTestApp(h, tenantID)

	payload := map[string]any{
		"employee_id":   employeeID.String(),
		"shift_id":      uuid.NewString(),
		"date":          "2025-03-10",
		"clock_in_time": "2025-03-10T09:00:00Z",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest("POST", "/v1/attendance/sync-offline", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestAttendanceHandler_GetRecord(t *testing.T) {
	tenantID := uuid.New()
	employeeID := uuid.New()
	rec := sampleRecord(tenantID, employeeID, true)

	records := new(MockRecordFinder)
	records.On("GetByID", mock.Anything, tenantID, rec.ID).Return(rec, nil)

	h := NewAttendanceHandler(new(MockClockEventService), records, new(MockSyncLimiter), 30, testLogger())
	app := newTestApp(h, tenantID)

	req := httptest.NewRequest("GET", "/v1/attendance/"+rec.ID.String(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got RecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, rec.ID.String(), got.RecordID)
}

func TestAttendanceHandler_GetRecord_InvalidID(t *testing.T) {
	tenantID := uuid.New()

	h := NewAttendanceHandler(new(MockClockEventService), new(MockRecordFinder), new(MockSyncLimiter), 30, testLogger())
	app := newTestApp(h, tenantID)

	req := httptest.NewRequest("GET", "/v1/attendance/"+strings.Repeat("x", 10), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
