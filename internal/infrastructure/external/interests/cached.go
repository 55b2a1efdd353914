package interests

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/coursepath/planner/internal/infrastructure/metrics"
	"github.com/coursepath/planner/internal/infrastructure/persistence/redis"
	"github.com/coursepath/planner/pkg/circuitbreaker"
)

// Fetcher is anything that resolves interests to course codes.
type Fetcher interface {
	Fetch(ctx context.Context, interests string) ([]string, error)
}

// Store is the cache backend used by CachedFetcher. *redis.Cache satisfies it.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedFetcher serves repeated interest lookups from a cache. Cache errors
// never fail a lookup: after repeated failures the breaker opens and the
// cache is bypassed until it recovers.
type CachedFetcher struct {
	next    Fetcher
	store   Store
	ttl     time.Duration
	breaker *circuitbreaker.Breaker
	logger  *slog.Logger
}

// NewCachedFetcher wraps next with store. A zero ttl uses redis.TTLInterests.
func NewCachedFetcher(next Fetcher, store Store, ttl time.Duration, logger *slog.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = redis.TTLInterests
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "interest_cache")

	return &CachedFetcher{
		next:  next,
		store: store,
		ttl:   ttl,
		breaker: circuitbreaker.New(circuitbreaker.InterestCache.OnChange(func(name string, from, to circuitbreaker.State) {
			metrics.SetBreakerState(name, int(to))
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		})),
		logger: logger,
	}
}

// CacheKey returns the cache key for interests: a BLAKE2b-256 digest of the
// lower-cased, whitespace-collapsed text.
func CacheKey(interests string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(interests)), " ")
	sum := blake2b.Sum256([]byte(normalized))
	return redis.InterestsKey(hex.EncodeToString(sum[:]))
}

// Fetch implements Fetcher.
func (f *CachedFetcher) Fetch(ctx context.Context, interests string) ([]string, error) {
	key := CacheKey(interests)

	var cached []string
	err := f.breaker.Execute(ctx, func(ctx context.Context) error {
		err := f.store.Get(ctx, key, &cached)
		if errors.Is(err, redis.ErrCacheMiss) {
			return nil
		}
		return err
	})
	switch {
	case err == nil && cached != nil:
		metrics.RecordCacheLookup(true)
		return cached, nil
	case err != nil:
		f.logger.Debug("interest cache unavailable", "error", err)
	}
	metrics.RecordCacheLookup(false)

	codes, err := f.next.Fetch(ctx, interests)
	if err != nil {
		return nil, err
	}

	// empty results are not cached so a later lookup can try again
	if len(codes) > 0 {
		setErr := f.breaker.Execute(ctx, func(ctx context.Context) error {
			return f.store.Set(ctx, key, codes, f.ttl)
		})
		if setErr != nil {
			f.logger.Debug("interest cache write skipped", "error", setErr)
		}
	}
	return codes, nil
}
