package validation

import (
	"context"
	"strings"

	"github.com/inspire-hq/attendance/internal/domain"
	"github.com/inspire-hq/attendance/internal/geo"
)

// gpsCheck verifies coordinates are present, in range, and that the
// reported accuracy is usable.
type gpsCheck struct {
	accuracyThreshold float64
}

func (c *gpsCheck) Name() string { return "gps" }

func (c *gpsCheck) Applicable(policy *domain.Policy) bool {
	return policy == nil || policy.RequireGPS
}

func (c *gpsCheck) Run(_ context.Context, in *Context, _ *domain.Policy) Result {
	var res Result

	if in.Latitude == nil || in.Longitude == nil {
		res.failf("GPS coordinates are required.")
		return res
	}

	lat, lon := *in.Latitude, *in.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		res.failf("GPS coordinates are out of valid range.")
		return res
	}

	if in.GPSAccuracy != nil && *in.GPSAccuracy > c.accuracyThreshold {
		res.failf("GPS accuracy (%.1fm) exceeds the maximum threshold (%.0fm). Move to an area with better GPS signal.",
			*in.GPSAccuracy, c.accuracyThreshold)
	}

	return res
}

// fakeGPSCheck applies mock-location heuristics: the client's mock
// flag, unrealistic altitude, and provider names containing "mock".
type fakeGPSCheck struct{}

func (c *fakeGPSCheck) Name() string { return "fake_gps" }

func (c *fakeGPSCheck) Applicable(policy *domain.Policy) bool {
	return policy == nil || policy.RequireGPS
}

func (c *fakeGPSCheck) Run(_ context.Context, in *Context, _ *domain.Policy) Result {
	var res Result

	if in.IsMockLocation {
		res.failf("Mock location detected. Disable mock location providers and try again.")
		return res
	}

	if in.Altitude != nil {
		alt := *in.Altitude
		if alt < domain.MinRealisticAltitudeMeters || alt > domain.MaxRealisticAltitudeMeters {
			res.failf("GPS altitude value is outside realistic range, possible mock location.")
		}
	}

	if in.LocationProvider != "" && strings.Contains(strings.ToLower(in.LocationProvider), "mock") {
		res.failf("Location appears to originate from a mock provider.")
	}

	return res
}

// geofenceCheck resolves the assigned geofence and verifies the
// reported point falls within its radius, boundary inclusive.
type geofenceCheck struct {
	geofences GeofenceLookup
}

func (c *geofenceCheck) Name() string { return "geofence" }

func (c *geofenceCheck) Applicable(policy *domain.Policy) bool {
	return policy == nil || policy.RequireGeofence
}

func (c *geofenceCheck) Run(ctx context.Context, in *Context, _ *domain.Policy) Result {
	var res Result

	if in.GeofenceID == nil {
		res.failf("No geofence assigned for validation.")
		return res
	}

	fence, err := c.geofences.GetActive(ctx, in.TenantID, *in.GeofenceID)
	if err != nil {
		res.failf("Assigned geofence not found or inactive.")
		return res
	}

	if in.Latitude == nil || in.Longitude == nil {
		res.failf("GPS coordinates are required for geofence validation.")
		return res
	}

	lat, lon := *in.Latitude, *in.Longitude
	if geo.WithinRadius(lat, lon, fence.Latitude, fence.Longitude, float64(fence.RadiusMeters)) {
		res.Flags.GeofenceValid = true
		return res
	}

	distance := geo.Distance(lat, lon, fence.Latitude, fence.Longitude)
	res.failf("You are %.0fm away from the geofence '%s' (allowed radius: %dm).",
		distance, fence.Name, fence.RadiusMeters)
	return res
}

// wifiCheck matches the reported network against the tenant's
// registered WiFi policies. With zero active policies the check is
// skipped since there is nothing to enforce against.
type wifiCheck struct {
	policies WifiPolicyLookup
}

func (c *wifiCheck) Name() string { return "wifi" }

func (c *wifiCheck) Applicable(policy *domain.Policy) bool {
	return policy == nil || policy.RequireWifi
}

func (c *wifiCheck) Run(ctx context.Context, in *Context, _ *domain.Policy) Result {
	var res Result

	if in.WifiSSID == "" {
		res.failf("WiFi SSID is required. Connect to the office WiFi network.")
		return res
	}

	policies, err := c.policies.ListActive(ctx, in.TenantID)
	if err != nil {
		res.failf("Unable to verify the WiFi network.")
		return res
	}

	if len(policies) == 0 {
		return res
	}

	for _, wp := range policies {
		if wp.SSID != in.WifiSSID {
			continue
		}
		if wp.BSSID != "" && in.WifiBSSID != "" {
			if strings.EqualFold(wp.BSSID, in.WifiBSSID) {
				res.Flags.WifiValid = true
				return res
			}
			continue
		}
		res.Flags.WifiValid = true
		return res
	}

	res.failf("WiFi network '%s' is not registered. Connect to an approved office network.", in.WifiSSID)
	return res
}
