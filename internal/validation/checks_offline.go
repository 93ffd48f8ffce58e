package validation

import (
	"context"

	"github.com/inspire-hq/attendance/internal/domain"
	"github.com/inspire-hq/attendance/internal/integrity"
)

// offlineCheck recomputes the canonical integrity digest for
// offline-captured records and re-verifies the offline-per-shift
// quota. The quota is also pre-checked by the service before
// validation starts; this in-registry pass is what lands in the
// persisted error list.
type offlineCheck struct {
	records     RecordLookup
	maxPerShift int
}

func (c *offlineCheck) Name() string { return "offline" }

func (c *offlineCheck) Applicable(_ *domain.Policy) bool { return true }

func (c *offlineCheck) Run(ctx context.Context, in *Context, policy *domain.Policy) Result {
	var res Result

	if !in.IsOffline {
		return res
	}

	if in.IntegrityHash == "" {
		res.failf("Offline record is missing an integrity hash.")
		return res
	}

	fields := integrity.OfflineDigestFields(
		in.EmployeeID.String(),
		in.Date.Format("2006-01-02"),
		c.shiftID(in),
		in.ClientTimestampRaw,
		in.LatitudeRaw,
		in.LongitudeRaw,
	)

	if !integrity.VerifyDigest(fields, in.IntegrityHash) {
		res.failf("Offline record integrity check failed. The data may have been tampered with.")
	}

	// Quota re-check runs independently of the digest outcome.
	if in.Shift != nil {
		limit := c.maxPerShift
		if policy != nil {
			limit = policy.OfflineLimit()
		}

		count, err := c.records.CountOffline(ctx, in.TenantID, in.EmployeeID, in.Shift.ID, in.Date)
		if err != nil {
			res.failf("Unable to verify the offline attendance quota.")
			return res
		}

		if count >= limit {
			res.failf("Offline attendance limit (%d) reached for this shift. No more offline records are allowed.", limit)
		}
	}

	return res
}

func (c *offlineCheck) shiftID(in *Context) string {
	if in.Shift == nil {
		return ""
	}
	return in.Shift.ID.String()
}
