package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coursepath/planner/config"
	"github.com/coursepath/planner/internal/application/command"
	"github.com/coursepath/planner/internal/application/query"
	"github.com/coursepath/planner/internal/domain/counselor"
	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/plan"
	catalogsrc "github.com/coursepath/planner/internal/infrastructure/catalog"
	"github.com/coursepath/planner/internal/infrastructure/external/interests"
	"github.com/coursepath/planner/internal/infrastructure/persistence/filestore"
	"github.com/coursepath/planner/internal/infrastructure/persistence/memory"
	"github.com/coursepath/planner/internal/infrastructure/persistence/postgres"
	"github.com/coursepath/planner/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION WIRING
// ══════════════════════════════════════════════════════════════════════════════

// app holds the wired components shared by every command.
type app struct {
	cfg *config.Config
	log *slog.Logger

	catalog *course.Catalog
	repo    plan.Repository
	fetcher plan.InterestFetcher

	conn   *postgres.Connection
	cache  *redis.Cache
	client *interests.Client
}

// newApp connects the configured backends and loads the catalog.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	// ─────────────────────────────────────────────────────────────────────────
	// 1. DATABASE (only when something reads from it)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Storage.Backend == config.StoragePostgres || cfg.Catalog.Source == "postgres" {
		conn, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		a.conn = conn
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. REDIS (optional; the planner works without it)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Enabled {
		rc := redisConfig(cfg.Redis)
		cache, err := redis.NewCache(ctx, rc)
		if err != nil {
			log.Warn("redis unavailable, continuing without cache", "error", err)
		} else {
			a.cache = cache
			log.Info("redis connected", "addr", rc.Addr())
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. CATALOG
	// ─────────────────────────────────────────────────────────────────────────
	var src course.Source = catalogsrc.NewSource(cfg.Catalog.Path)
	if cfg.Catalog.Source == "postgres" {
		src = postgres.NewCatalogRepository(a.conn)
	}
	cat, err := course.Load(ctx, src)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	a.catalog = cat
	log.Debug("catalog loaded", "source", cfg.Catalog.Source, "courses", cat.Len())

	// ─────────────────────────────────────────────────────────────────────────
	// 4. PLAN STORE
	// ─────────────────────────────────────────────────────────────────────────
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		a.repo = postgres.NewPlanRepository(a.conn)
	case config.StorageMemory:
		a.repo = memory.NewPlanStore()
	default:
		store, err := filestore.NewPlanStore(cfg.Storage.Dir)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open plan store: %w", err)
		}
		a.repo = store
	}
	if a.cache != nil && cfg.Redis.PlanTTL > 0 {
		a.repo = redis.NewPlanCache(a.repo, a.cache, cfg.Redis.PlanTTL, log)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. INTEREST SERVICE
	// ─────────────────────────────────────────────────────────────────────────
	a.client = interests.NewClient(interests.ClientConfig{
		PrimaryURL:     cfg.Interests.PrimaryURL,
		SecondaryURL:   cfg.Interests.SecondaryURL,
		ConnectTimeout: cfg.Interests.ConnectTimeout,
		ReadTimeout:    cfg.Interests.ReadTimeout,
		RaceTimeout:    cfg.Interests.RaceTimeout,
		Logger:         log,
	})
	var fetcher interests.Fetcher = a.client
	if a.cache != nil {
		fetcher = interests.NewCachedFetcher(fetcher, a.cache, cfg.Interests.CacheTTL, log)
	}
	a.fetcher = boundedFetcher{next: fetcher, timeout: cfg.Interests.FetchTimeout}

	return a, nil
}

// database opens the PostgreSQL pool once.
func (a *app) database(ctx context.Context) (*postgres.Connection, error) {
	if a.conn != nil {
		return a.conn, nil
	}
	conn, err := postgres.NewConnection(ctx, postgresConfig(a.cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.conn = conn
	a.log.Info("database connected")
	return conn, nil
}

// Close releases every backend connection.
func (a *app) Close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("failed to close redis", "error", err)
		}
	}
	if a.conn != nil {
		a.conn.Close()
	}
}

func (a *app) assembleHandler() *command.AssemblePlanHandler {
	return command.NewAssemblePlanHandler(a.catalog, a.fetcher, a.repo, command.AssemblePlanHandlerConfig{
		Quotas:       a.cfg.Quotas(),
		MaxReprompts: a.cfg.App.MaxReprompts,
		Logger:       a.log,
	})
}

func (a *app) replaceHandler() *command.ReplaceCourseHandler {
	return command.NewReplaceCourseHandler(a.catalog, a.repo, a.log)
}

func (a *app) planHandler() *query.GetPlanHandler {
	return query.NewGetPlanHandler(a.catalog, a.repo)
}

func (a *app) tableHandler() *query.GetPlanTableHandler {
	return query.NewGetPlanTableHandler(a.catalog, a.repo)
}

func directory(cfg *config.Config) (*counselor.Directory, error) {
	if len(cfg.Counselors) == 0 {
		return counselor.DefaultDirectory(), nil
	}
	return counselor.NewDirectory(cfg.Counselors)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTERS
// ══════════════════════════════════════════════════════════════════════════════

// boundedFetcher caps one interest lookup, retries included.
type boundedFetcher struct {
	next    interests.Fetcher
	timeout time.Duration
}

func (f boundedFetcher) Fetch(ctx context.Context, text string) ([]string, error) {
	if f.timeout <= 0 {
		return f.next.Fetch(ctx, text)
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	codes, err := f.next.Fetch(ctx, text)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("interest lookup gave up after %s: %w", f.timeout, err)
	}
	return codes, err
}

func postgresConfig(c config.DatabaseConfig) postgres.Config {
	pc := postgres.DefaultConfig()
	pc.URL = c.URL
	pc.Host = c.Host
	pc.Port = c.Port
	pc.Database = c.Name
	pc.User = c.User
	pc.Password = c.Password
	pc.SSLMode = c.SSLMode
	pc.MaxConns = c.MaxConns
	pc.MinConns = c.MinConns
	pc.MaxConnLifetime = c.ConnMaxLifetime
	pc.MaxConnIdleTime = c.ConnMaxIdleTime
	pc.ConnectTimeout = c.ConnectTimeout
	return pc
}

func redisConfig(c config.RedisConfig) redis.Config {
	return redis.Config{
		Host:         c.Host,
		Port:         c.Port,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}
