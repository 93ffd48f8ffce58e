// Package validation implements the multi-factor anti-fraud pipeline
// that decides whether a clock event is trustworthy. Twelve
// independent checks run without short-circuiting so callers receive
// a complete diagnostic in one pass.
package validation

import (
	"context"
	"fmt"
	"sync"

	"github.com/inspire-hq/attendance/internal/domain"
)

// Thresholds are the hard-coded fallbacks used when no tenant policy
// overrides them.
type Thresholds struct {
	FaceMatchThreshold float64
	GPSAccuracyMeters  float64
	ClockSkewSeconds   int
	MaxOfflinePerShift int
}

// DefaultThresholds returns the engine defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FaceMatchThreshold: domain.DefaultFaceMatchThreshold,
		GPSAccuracyMeters:  domain.DefaultGPSAccuracyMeters,
		ClockSkewSeconds:   domain.DefaultClockSkewSeconds,
		MaxOfflinePerShift: domain.DefaultMaxOfflinePerShift,
	}
}

// Result is the outcome of a single check: zero or more error
// strings plus any derived flags the check owns.
type Result struct {
	Errors []string
	Flags  Flags
}

func (r *Result) failf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Check is one named validation rule. Applicable decides whether the
// check runs under the given policy; a nil policy enforces
// everything. Run must not mutate shared state.
type Check interface {
	Name() string
	Applicable(policy *domain.Policy) bool
	Run(ctx context.Context, in *Context, policy *domain.Policy) Result
}

// Registry holds the ordered list of checks. Checks fan out
// concurrently, but the aggregated error list always follows registry
// order so diagnostics are deterministic.
type Registry struct {
	checks []Check
}

// NewRegistry wires the twelve checks in their canonical order.
func NewRegistry(geofences GeofenceLookup, wifi WifiPolicyLookup, devices DeviceLookup, records RecordLookup, th Thresholds) *Registry {
	return &Registry{
		checks: []Check{
			&selfieCheck{},
			&livenessCheck{},
			&faceMatchCheck{threshold: th.FaceMatchThreshold},
			&gpsCheck{accuracyThreshold: th.GPSAccuracyMeters},
			&fakeGPSCheck{},
			&geofenceCheck{geofences: geofences},
			&wifiCheck{policies: wifi},
			&deviceCheck{devices: devices},
			&duplicateCheck{records: records},
			&shiftWindowCheck{},
			&clockSkewCheck{toleranceSeconds: th.ClockSkewSeconds},
			&offlineCheck{records: records, maxPerShift: th.MaxOfflinePerShift},
		},
	}
}

// Checks exposes the registry contents for diagnostics and tests.
func (r *Registry) Checks() []Check {
	return r.checks
}

// RunAll executes every applicable check and aggregates the outcome.
// isValid is true iff the error list is empty.
func (r *Registry) RunAll(ctx context.Context, in *Context, policy *domain.Policy) (bool, []string, Flags) {
	results := make([]Result, len(r.checks))

	var wg sync.WaitGroup
	for i, c := range r.checks {
		if !c.Applicable(policy) {
			continue
		}
		wg.Add(1)
		go func(slot int, check Check) {
			defer wg.Done()
			results[slot] = check.Run(ctx, in, policy)
		}(i, c)
	}
	wg.Wait()

	errs := make([]string, 0)
	var flags Flags
	for _, res := range results {
		errs = append(errs, res.Errors...)
		flags.merge(res.Flags)
	}

	return len(errs) == 0, errs, flags
}
