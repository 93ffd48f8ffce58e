package domain

import (
	"time"

	"github.com/google/uuid"
)

// Geofence is a circular zone used to validate an employee's physical
// presence at clock-in time.
type Geofence struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Name         string    `json:"name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	RadiusMeters int       `json:"radius_meters"`
	IsActive     bool      `json:"is_active"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WifiPolicy is a registered office network. A policy with no BSSID
// matches on SSID alone; a configured BSSID must also match
// case-insensitively when the client reports one.
type WifiPolicy struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	SSID      string    `json:"ssid"`
	BSSID     string    `json:"bssid"`
	IsActive  bool      `json:"is_active"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Device is a registry entry binding a device identifier to an
// employee within a tenant.
type Device struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	DeviceID   string    `json:"device_id"`
	IsActive   bool      `json:"is_active"`
	IsDeleted  bool      `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
