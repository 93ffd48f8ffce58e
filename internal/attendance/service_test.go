package attendance

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inspire-hq/attendance/internal/audit"
	"github.com/inspire-hq/attendance/internal/domain"
	"github.com/inspire-hq/attendance/internal/validation"
)

type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) Create(ctx context.Context, rec *domain.AttendanceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecordStore) Update(ctx context.Context, rec *domain.AttendanceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecordStore) FindOpen(ctx context.Context, tenantID, employeeID uuid.UUID) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, tenantID, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceRecord), args.Error(1)
}

func (m *MockRecordStore) CountOffline(ctx context.Context, tenantID, employeeID, shiftID uuid.UUID, date time.Time) (int, error) {
	args := m.Called(ctx, tenantID, employeeID, shiftID, date)
	return args.Int(0), args.Error(1)
}

type MockShiftLookup struct {
	mock.Mock
}

func (m *MockShiftLookup) GetActive(ctx context.Context, tenantID, id uuid.UUID) (*domain.Shift, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shift), args.Error(1)
}

type MockPolicyLookup struct {
	mock.Mock
}

func (m *MockPolicyLookup) GetActive(ctx context.Context, tenantID uuid.UUID) (*domain.Policy, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Policy), args.Error(1)
}

type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) RunAll(ctx context.Context, in *validation.Context, policy *domain.Policy) (bool, []string, validation.Flags) {
	args := m.Called(ctx, in, policy)
	return args.Bool(0), args.Get(1).([]string), args.Get(2).(validation.Flags)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(tenantID uuid.UUID, topic string, payload any) error {
	args := m.Called(tenantID, topic, payload)
	return args.Error(0)
}

type serviceFixture struct {
	records   *MockRecordStore
	shifts    *MockShiftLookup
	policies  *MockPolicyLookup
	validator *MockValidator
	publisher *MockPublisher
	service   *Service

	tenantID   uuid.UUID
	employeeID uuid.UUID
	shift      *domain.Shift
	policy     *domain.Policy
	now        time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		records:   new(MockRecordStore),
		shifts:    new(MockShiftLookup),
		policies:  new(MockPolicyLookup),
		validator: new(MockValidator),
		publisher: new(MockPublisher),

		tenantID:   uuid.New(),
		employeeID: uuid.New(),
		now:        time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC),
	}
	f.shift = &domain.Shift{
		ID:                 uuid.New(),
		TenantID:           f.tenantID,
		Name:               "Morning",
		StartTime:          "09:00",
		EndTime:            "17:00",
		GracePeriodMinutes: 15,
		IsActive:           true,
	}
	f.policy = &domain.Policy{
		ID:                 uuid.New(),
		TenantID:           f.tenantID,
		RequireSelfie:      true,
		MaxOfflinePerShift: 1,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = NewService(f.records, f.shifts, f.policies, f.validator, f.publisher, &audit.NoOpLogger{}, logger).
		WithClock(func() time.Time { return f.now })

	return f
}

func (f *serviceFixture) clockInRequest() *ClockInRequest {
	lat, lon := 24.7136, 46.6753
	return &ClockInRequest{
		ShiftID:    f.shift.ID,
		Date:       time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		HasSelfie:  true,
		SelfiePath: "selfies/abc.jpg",
		DeviceID:   "device-1",
		Latitude:   &lat,
		Longitude:  &lon,
	}
}

func TestService_ClockIn_Valid(t *testing.T) {
	f := newServiceFixture(t)
	req := f.clockInRequest()

	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.policies.On("GetActive", mock.Anything, f.tenantID).Return(f.policy, nil)
	f.validator.On("RunAll", mock.Anything, mock.Anything, f.policy).
		Return(true, []string{}, validation.Flags{GeofenceValid: true, DeviceValid: true})
	f.records.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", f.tenantID, TopicClockIn, mock.Anything).Return(nil)

	result, err := f.service.ClockIn(context.Background(), f.tenantID, f.employeeID, req)

	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)

	rec := result.Record
	require.NotNil(t, rec)
	// 09:05 is inside the 15 minute grace window
	assert.Equal(t, domain.StatusPresent, rec.Status)
	require.NotNil(t, rec.ClockInTime)
	assert.Equal(t, f.now, *rec.ClockInTime)
	assert.True(t, rec.IsValidated)
	assert.True(t, rec.GeofenceValid)
	assert.True(t, rec.DeviceValid)
	assert.False(t, rec.IsOffline)

	f.records.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestService_ClockIn_LateStatus(t *testing.T) {
	f := newServiceFixture(t)
	f.now = time.Date(2025, 3, 10, 9, 16, 0, 0, time.UTC)
	req := f.clockInRequest()

	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.policies.On("GetActive", mock.Anything, f.tenantID).Return(f.policy, nil)
	f.validator.On("RunAll", mock.Anything, mock.Anything, f.policy).
		Return(true, []string{}, validation.Flags{})
	f.records.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", f.tenantID, TopicClockIn, mock.Anything).Return(nil)

	result, err := f.service.ClockIn(context.Background(), f.tenantID, f.employeeID, req)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusLate, result.Record.Status)
}

func TestService_ClockIn_InvalidPersistedAndNotPublished(t *testing.T) {
	f := newServiceFixture(t)
	req := f.clockInRequest()
	req.HasSelfie = false

	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.policies.On("GetActive", mock.Anything, f.tenantID).Return(f.policy, nil)
	f.validator.On("RunAll", mock.Anything, mock.Anything, f.policy).
		Return(false, []string{"Selfie is required for clock-in."}, validation.Flags{})
	f.records.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.ClockIn(context.Background(), f.tenantID, f.employeeID, req)

	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"Selfie is required for clock-in."}, result.Errors)
	assert.False(t, result.Record.IsValidated)
	assert.Equal(t, []string{"Selfie is required for clock-in."}, result.Record.ValidationErrors)

	// the rejected attempt is still written, but never broadcast
	f.records.AssertExpectations(t)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ClockIn_DuplicateRecord(t *testing.T) {
	f := newServiceFixture(t)
	req := f.clockInRequest()

	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.policies.On("GetActive", mock.Anything, f.tenantID).Return(f.policy, nil)
	f.validator.On("RunAll", mock.Anything, mock.Anything, f.policy).
		Return(true, []string{}, validation.Flags{})
	f.records.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateRecord)

	result, err := f.service.ClockIn(context.Background(), f.tenantID, f.employeeID, req)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrDuplicateRecord)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ClockIn_ShiftNotFound(t *testing.T) {
	f := newServiceFixture(t)
	req := f.clockInRequest()

	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(nil, domain.ErrShiftNotFound)

	result, err := f.service.ClockIn(context.Background(), f.tenantID, f.employeeID, req)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrShiftNotFound)
	f.validator.AssertNotCalled(t, "RunAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ClockOut_ComputesFinalStatus(t *testing.T) {
	f := newServiceFixture(t)
	f.now = time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC)

	clockIn := time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC)
	open := &domain.AttendanceRecord{
		ID:          uuid.New(),
		TenantID:    f.tenantID,
		EmployeeID:  f.employeeID,
		ShiftID:     f.shift.ID,
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		ClockInTime: &clockIn,
		Status:      domain.StatusPresent,
	}

	f.records.On("FindOpen", mock.Anything, f.tenantID, f.employeeID).Return(open, nil)
	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.records.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", f.tenantID, TopicClockOut, mock.Anything).Return(nil)

	result, err := f.service.ClockOut(context.Background(), f.tenantID, f.employeeID, &ClockOutRequest{})

	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, domain.StatusPresent, result.Record.Status)
	require.NotNil(t, result.Record.ClockOutTime)
	assert.Equal(t, f.now, *result.Record.ClockOutTime)
	f.publisher.AssertExpectations(t)
}

func TestService_ClockOut_PersistsClientTimestamp(t *testing.T) {
	f := newServiceFixture(t)
	f.now = time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC)

	clockIn := time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC)
	clockInClientTS := time.Date(2025, 3, 10, 9, 4, 58, 0, time.UTC)
	open := &domain.AttendanceRecord{
		ID:              uuid.New(),
		TenantID:        f.tenantID,
		EmployeeID:      f.employeeID,
		ShiftID:         f.shift.ID,
		ClockInTime:     &clockIn,
		ClientTimestamp: &clockInClientTS,
	}

	clockOutClientTS := time.Date(2025, 3, 10, 17, 29, 57, 0, time.UTC)

	f.records.On("FindOpen", mock.Anything, f.tenantID, f.employeeID).Return(open, nil)
	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.records.On("Update", mock.Anything, mock.MatchedBy(func(rec *domain.AttendanceRecord) bool {
		return rec.ClientTimestamp != nil && rec.ClientTimestamp.Equal(clockOutClientTS)
	})).Return(nil)
	f.publisher.On("Publish", f.tenantID, TopicClockOut, mock.Anything).Return(nil)

	result, err := f.service.ClockOut(context.Background(), f.tenantID, f.employeeID, &ClockOutRequest{
		ClientTimestamp: &clockOutClientTS,
	})

	require.NoError(t, err)
	require.NotNil(t, result.Record.ClientTimestamp)
	assert.Equal(t, clockOutClientTS, *result.Record.ClientTimestamp)
	f.records.AssertExpectations(t)
}

func TestService_ClockOut_KeepsClientTimestampWhenAbsent(t *testing.T) {
	f := newServiceFixture(t)
	f.now = time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC)

	clockIn := time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC)
	clockInClientTS := time.Date(2025, 3, 10, 9, 4, 58, 0, time.UTC)
	open := &domain.AttendanceRecord{
		ID:              uuid.New(),
		TenantID:        f.tenantID,
		EmployeeID:      f.employeeID,
		ShiftID:         f.shift.ID,
		ClockInTime:     &clockIn,
		ClientTimestamp: &clockInClientTS,
	}

	f.records.On("FindOpen", mock.Anything, f.tenantID, f.employeeID).Return(open, nil)
	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.records.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", f.tenantID, TopicClockOut, mock.Anything).Return(nil)

	result, err := f.service.ClockOut(context.Background(), f.tenantID, f.employeeID, &ClockOutRequest{})

	require.NoError(t, err)
	require.NotNil(t, result.Record.ClientTimestamp)
	assert.Equal(t, clockInClientTS, *result.Record.ClientTimestamp)
}

func TestService_ClockOut_EarlyDeparture(t *testing.T) {
	f := newServiceFixture(t)
	f.now = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	clockIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	open := &domain.AttendanceRecord{
		ID:          uuid.New(),
		TenantID:    f.tenantID,
		EmployeeID:  f.employeeID,
		ShiftID:     f.shift.ID,
		ClockInTime: &clockIn,
	}

	f.records.On("FindOpen", mock.Anything, f.tenantID, f.employeeID).Return(open, nil)
	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.records.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", f.tenantID, TopicClockOut, mock.Anything).Return(nil)

	result, err := f.service.ClockOut(context.Background(), f.tenantID, f.employeeID, &ClockOutRequest{})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusEarlyDeparture, result.Record.Status)
}

func TestService_ClockOut_NoOpenRecord(t *testing.T) {
	f := newServiceFixture(t)

	f.records.On("FindOpen", mock.Anything, f.tenantID, f.employeeID).Return(nil, domain.ErrRecordNotFound)

	result, err := f.service.ClockOut(context.Background(), f.tenantID, f.employeeID, &ClockOutRequest{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestService_ClockOut_MultipleOpenRecords(t *testing.T) {
	f := newServiceFixture(t)

	f.records.On("FindOpen", mock.Anything, f.tenantID, f.employeeID).Return(nil, domain.ErrMultipleOpenRecords)

	result, err := f.service.ClockOut(context.Background(), f.tenantID, f.employeeID, &ClockOutRequest{})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrMultipleOpenRecords)
}

func TestService_SyncOffline_QuotaExceededBeforeValidation(t *testing.T) {
	f := newServiceFixture(t)
	req := &OfflineSyncRequest{
		ClockInRequest: *f.clockInRequest(),
		ClockInTime:    time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.policies.On("GetActive", mock.Anything, f.tenantID).Return(f.policy, nil)
	f.records.On("CountOffline", mock.Anything, f.tenantID, f.employeeID, f.shift.ID, req.Date).Return(1, nil)

	result, err := f.service.SyncOffline(context.Background(), f.tenantID, f.employeeID, req)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrOfflineQuotaExceeded)
	f.validator.AssertNotCalled(t, "RunAll", mock.Anything, mock.Anything, mock.Anything)
	f.records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_SyncOffline_Valid(t *testing.T) {
	f := newServiceFixture(t)
	req := &OfflineSyncRequest{
		ClockInRequest:     *f.clockInRequest(),
		ClockInTime:        time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		ClientTimestampRaw: "2025-03-10T09:00:00Z",
		LatitudeRaw:        "24.7136",
		LongitudeRaw:       "46.6753",
		IntegrityHash:      "deadbeef",
	}

	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.policies.On("GetActive", mock.Anything, f.tenantID).Return(f.policy, nil)
	f.records.On("CountOffline", mock.Anything, f.tenantID, f.employeeID, f.shift.ID, req.Date).Return(0, nil)
	f.validator.On("RunAll", mock.Anything, mock.MatchedBy(func(in *validation.Context) bool {
		return in.IsOffline && in.IntegrityHash == "deadbeef" && in.LatitudeRaw == "24.7136"
	}), f.policy).Return(true, []string{}, validation.Flags{})
	f.records.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", f.tenantID, TopicOfflineSynced, mock.Anything).Return(nil)

	result, err := f.service.SyncOffline(context.Background(), f.tenantID, f.employeeID, req)

	require.NoError(t, err)
	assert.True(t, result.IsValid)

	rec := result.Record
	assert.True(t, rec.IsOffline)
	assert.Equal(t, "deadbeef", rec.OfflineIntegrityHash)
	// status derives from the client-captured clock-in, not the sync time
	assert.Equal(t, domain.StatusPresent, rec.Status)
	require.NotNil(t, rec.ClockInTime)
	assert.Equal(t, req.ClockInTime, *rec.ClockInTime)

	f.publisher.AssertExpectations(t)
}

func TestService_SyncOffline_ConcurrentConflict(t *testing.T) {
	f := newServiceFixture(t)
	req := &OfflineSyncRequest{
		ClockInRequest: *f.clockInRequest(),
		ClockInTime:    time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.policies.On("GetActive", mock.Anything, f.tenantID).Return(f.policy, nil)
	f.records.On("CountOffline", mock.Anything, f.tenantID, f.employeeID, f.shift.ID, req.Date).Return(0, nil)
	f.validator.On("RunAll", mock.Anything, mock.Anything, f.policy).
		Return(true, []string{}, validation.Flags{})
	f.records.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateRecord)

	result, err := f.service.SyncOffline(context.Background(), f.tenantID, f.employeeID, req)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrDuplicateRecord)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SyncOffline_NilPolicyUsesDefaultQuota(t *testing.T) {
	f := newServiceFixture(t)
	req := &OfflineSyncRequest{
		ClockInRequest: *f.clockInRequest(),
		ClockInTime:    time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	f.shifts.On("GetActive", mock.Anything, f.tenantID, f.shift.ID).Return(f.shift, nil)
	f.policies.On("GetActive", mock.Anything, f.tenantID).Return(nil, nil)
	f.records.On("CountOffline", mock.Anything, f.tenantID, f.employeeID, f.shift.ID, req.Date).
		Return(domain.DefaultMaxOfflinePerShift, nil)

	result, err := f.service.SyncOffline(context.Background(), f.tenantID, f.employeeID, req)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrOfflineQuotaExceeded)
}
