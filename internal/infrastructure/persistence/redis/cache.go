// Package redis caches interest lookups and stored plans. Values are JSON,
// every key lives under the "planner:" namespace and every entry expires.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const namespace = "planner:"

// Key prefixes.
const (
	PrefixInterests = namespace + "interests:"
	PrefixPlan      = namespace + "plan:"
)

// Default lifetimes.
const (
	TTLInterests = 24 * time.Hour
	TTLPlan      = 10 * time.Minute
)

var (
	// ErrCacheMiss means the key is absent or expired.
	ErrCacheMiss = errors.New("cache: key not found")
	// ErrInvalidEntry rejects an empty key, a nil value or a TTL that is not positive.
	ErrInvalidEntry = errors.New("cache: invalid entry")
	// ErrUnavailable means Redis did not answer the connect ping.
	ErrUnavailable = errors.New("cache: redis unavailable")
)

// InterestsKey builds the key for an interest digest.
func InterestsKey(digest string) string {
	return PrefixInterests + digest
}

// PlanKey builds the key for one kind of a student's stored records.
func PlanKey(username, kind string) string {
	return PrefixPlan + kind + ":" + username
}

// Config holds connection settings. Zero values fall back to go-redis defaults,
// except Host and Port which default to localhost:6379.
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns host:port.
func (c Config) Addr() string {
	host, port := c.Host, c.Port
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr(),
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}

// Cache stores JSON values with expiry.
type Cache struct {
	client redis.UniversalClient
}

// NewCache connects and pings Redis. The ping is bounded by DialTimeout,
// or five seconds when unset.
func NewCache(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(cfg.options())

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, cfg.Addr(), err)
	}
	return &Cache{client: client}, nil
}

// NewCacheFromClient wraps client without pinging it.
func NewCacheFromClient(client redis.UniversalClient) *Cache {
	return &Cache{client: client}
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping implements the health check probe.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set stores value as JSON under key for ttl.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidEntry)
	case value == nil:
		return fmt.Errorf("%w: nil value for %s", ErrInvalidEntry, key)
	case ttl <= 0:
		return fmt.Errorf("%w: ttl %s for %s", ErrInvalidEntry, ttl, key)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrInvalidEntry, key, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Get decodes the value under key into dest. A missing key is ErrCacheMiss;
// an entry that no longer decodes is deleted and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidEntry)
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return ErrCacheMiss
	}
	return nil
}

// Delete removes keys. No keys is a no-op.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
