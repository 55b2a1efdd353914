package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coursepath/planner/internal/domain/plan"
)

// PlanCache is a read-through cache in front of a plan.Repository.
// Writes go to the repository first and then drop the cached entry.
// Cache failures are logged and never fail the call.
type PlanCache struct {
	next   plan.Repository
	cache  *Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewPlanCache wraps next. A zero ttl uses TTLPlan.
func NewPlanCache(next plan.Repository, cache *Cache, ttl time.Duration, logger *slog.Logger) *PlanCache {
	if ttl <= 0 {
		ttl = TTLPlan
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanCache{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "plan_cache"),
	}
}

// Save implements plan.Repository.
func (p *PlanCache) Save(ctx context.Context, username string, kind plan.RecordKind, records []plan.Record) error {
	if err := p.next.Save(ctx, username, kind, records); err != nil {
		return err
	}
	if err := p.cache.Delete(ctx, PlanKey(username, string(kind))); err != nil {
		p.logger.Warn("failed to invalidate cached plan", "username", username, "error", err)
	}
	return nil
}

// Load implements plan.Repository.
func (p *PlanCache) Load(ctx context.Context, username string, kind plan.RecordKind) ([]plan.Record, error) {
	key := PlanKey(username, string(kind))

	var records []plan.Record
	err := p.cache.Get(ctx, key, &records)
	if err == nil {
		return records, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		p.logger.Debug("plan cache unavailable", "error", err)
	}

	records, err = p.next.Load(ctx, username, kind)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, records, p.ttl); err != nil {
		p.logger.Debug("plan cache write skipped", "error", err)
	}
	return records, nil
}
