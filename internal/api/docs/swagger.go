package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// AttendanceRecordResponse represents a persisted attendance record
type AttendanceRecordResponse struct {
	RecordID         string   `json:"record_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EmployeeID       string   `json:"employee_id" example:"8f14e45f-ceea-467f-a871-97d5b1b2c401"`
	ShiftID          string   `json:"shift_id" example:"b1c9a9e2-4f7d-4a6a-9d0e-2b5f1a7c8d90"`
	Date             string   `json:"date" example:"2025-03-10"`
	Status           string   `json:"status" example:"PRESENT"`
	ClockInTime      string   `json:"clock_in_time,omitempty" example:"2025-03-10T09:05:00Z"`
	ClockOutTime     string   `json:"clock_out_time,omitempty" example:"2025-03-10T17:05:00Z"`
	TotalHours       float64  `json:"total_hours,omitempty" example:"8.0"`
	IsOffline        bool     `json:"is_offline" example:"false"`
	IsValidated      bool     `json:"is_validated" example:"true"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
}

// ValidationFailedBody is returned when the validation pipeline
// rejects a submission
type ValidationFailedBody struct {
	Error    string   `json:"error" example:"Attendance validation failed"`
	RecordID string   `json:"record_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Errors   []string `json:"errors" example:"Selfie is required for clock-in."`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"ATTENDANCE_VALIDATION_FAILED"`
	Message string `json:"message" example:"Attendance validation failed"`
}

// HealthBody represents the health check response
type HealthBody struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Attendance Validation API",
		Version:     "v1.0.0",
		Description: "Multi-tenant attendance clock-event API with anti-fraud validation, geofencing and offline sync support",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/attendance/clock-in - Clock in
		endpoint.New(
			endpoint.POST,
			"/attendance/clock-in",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Clock in for a shift"),
			endpoint.WithDescription("Opens an attendance record after running the full validation pipeline (selfie, liveness, face match, GPS, geofence, WiFi, device, duplicate, shift window, clock skew). Rejected submissions are persisted with their errors and returned as 422."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceRecordResponse{}, "201", "Clock-in recorded"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "SHIFT_NOT_FOUND", Message: "Shift not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "DUPLICATE_ATTENDANCE_RECORD", Message: "Record already exists for this shift and date"}, "409", "Conflict"),
				response.New(ValidationFailedBody{}, "422", "Validation failed"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/attendance/clock-out - Clock out
		endpoint.New(
			endpoint.POST,
			"/attendance/clock-out",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Clock out of the open shift"),
			endpoint.WithDescription("Closes the employee's single open attendance record and computes the final status (PRESENT, LATE, EARLY_DEPARTURE or HALF_DAY) from the clock-in/clock-out pairing against the shift window."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceRecordResponse{}, "200", "Clock-out recorded"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "RECORD_NOT_FOUND", Message: "No open record found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "MULTIPLE_OPEN_RECORDS", Message: "Multiple open attendance records found"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// POST /v1/attendance/sync-offline - Sync offline clock-in
		endpoint.New(
			endpoint.POST,
			"/attendance/sync-offline",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Sync an offline clock-in"),
			endpoint.WithDescription("Replays a clock-in captured without connectivity. The payload carries the client's integrity hash over the exact captured field bytes; the server verifies the digest and enforces the per-shift offline quota before persisting."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceRecordResponse{}, "201", "Offline record synced"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "SHIFT_NOT_FOUND", Message: "Shift not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "DUPLICATE_ATTENDANCE_RECORD", Message: "Record already exists for this shift and date"}, "409", "Conflict"),
				response.New(ValidationFailedBody{}, "422", "Validation failed"),
				response.New(ErrorResponse{Code: "OFFLINE_QUOTA_EXCEEDED", Message: "Offline sync quota exceeded for this shift"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Too many sync submissions"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /v1/attendance/{id} - Fetch a record
		endpoint.New(
			endpoint.GET,
			"/attendance/{id}",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Fetch an attendance record"),
			endpoint.WithDescription("Returns a single attendance record by ID, scoped to the authenticated tenant."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Attendance record ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceRecordResponse{}, "200", "Record found"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized"),
				response.New(ErrorResponse{Code: "RECORD_NOT_FOUND", Message: "Record not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
			endpoint.WithSecurity([]map[string][]string{{"ApiKeyAuth": {}}}),
		),

		// GET /health - Health check
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Health check"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthBody{}, "200", "Service is healthy"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
