package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inspire-hq/attendance/internal/domain"
)

// PolicySource is the uncached policy lookup, satisfied by
// repository.PolicyRepository.
type PolicySource interface {
	GetActive(ctx context.Context, tenantID uuid.UUID) (*domain.Policy, error)
}

// PolicyCache is a read-through cache in front of the policy
// repository. Policies change rarely but are loaded on every clock
// event, so a short TTL takes the lookup off the hot path. Cache
// failures degrade to the underlying repository.
type PolicyCache struct {
	source PolicySource
	store  *PGCache
	ttl    time.Duration
	logger *slog.Logger
}

func NewPolicyCache(source PolicySource, store *PGCache, ttl time.Duration, logger *slog.Logger) *PolicyCache {
	return &PolicyCache{
		source: source,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func policyKey(tenantID uuid.UUID) string {
	return "policy:active:" + tenantID.String()
}

// GetActive returns the tenant's active policy, from cache when fresh.
func (p *PolicyCache) GetActive(ctx context.Context, tenantID uuid.UUID) (*domain.Policy, error) {
	key := policyKey(tenantID)

	raw, err := p.store.Get(ctx, key)
	if err == nil {
		var policy domain.Policy
		if jsonErr := json.Unmarshal(raw, &policy); jsonErr == nil {
			return &policy, nil
		}
		// Corrupt entry, drop it and fall through to the source.
		_ = p.store.Delete(ctx, key)
	} else if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheExpired) {
		p.logger.Debug("policy cache read failed",
			slog.String("tenant_id", tenantID.String()),
			slog.Any("error", err),
		)
	}

	policy, err := p.source.GetActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// A tenant without a configured policy is a valid state; only
	// concrete policies are cached.
	if policy != nil {
		if encoded, jsonErr := json.Marshal(policy); jsonErr == nil {
			if setErr := p.store.Set(ctx, key, encoded, p.ttl); setErr != nil {
				p.logger.Debug("policy cache write failed",
					slog.String("tenant_id", tenantID.String()),
					slog.Any("error", setErr),
				)
			}
		}
	}

	return policy, nil
}

// Invalidate drops the cached policy for a tenant, to be called after
// policy updates.
func (p *PolicyCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	return p.store.Delete(ctx, policyKey(tenantID))
}
