package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated organizational unit. Attendance data, shifts,
// geofences, and policies are never shared across tenants.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
