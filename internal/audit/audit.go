package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Action defines the type of auditable attendance mutation
type Action string

const (
	ActionClockIn     Action = "CLOCK_IN"
	ActionClockOut    Action = "CLOCK_OUT"
	ActionOfflineSync Action = "OFFLINE_SYNC"
)

// Entry represents one audit record. Every mutation of an attendance
// record produces exactly one entry.
type Entry struct {
	ID           uuid.UUID         `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	TenantID     uuid.UUID         `json:"tenant_id"`
	Action       Action            `json:"action"`
	ResourceType string            `json:"resource_type"`
	ResourceID   string            `json:"resource_id,omitempty"`
	ActorID      string            `json:"actor_id,omitempty"`
	Success      bool              `json:"success"`
	Details      map[string]string `json:"details,omitempty"`
	IPAddress    string            `json:"ip_address,omitempty"`
	UserAgent    string            `json:"user_agent,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit entry
func (l *SlogLogger) Log(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	entryJSON, err := json.Marshal(entry)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit entry",
			slog.String("error", err.Error()),
			slog.String("action", string(entry.Action)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_entry",
		slog.String("entry_id", entry.ID.String()),
		slog.String("action", string(entry.Action)),
		slog.String("tenant_id", entry.TenantID.String()),
		slog.String("resource_type", entry.ResourceType),
		slog.Bool("success", entry.Success),
		slog.String("entry_data", string(entryJSON)),
	)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Entry) error {
	return nil
}
