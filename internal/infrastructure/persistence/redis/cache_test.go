package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepath/planner/internal/domain/plan"
	"github.com/coursepath/planner/internal/domain/shared"
)

// unreachable returns a cache whose server refuses every connection.
func unreachable(t *testing.T) *Cache {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheFromClient(client)
}

func TestCache_ArgumentValidation(t *testing.T) {
	c := unreachable(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Set(ctx, "", "v", time.Minute), ErrInvalidEntry)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, time.Minute), ErrInvalidEntry)
	assert.ErrorIs(t, c.Set(ctx, "k", "v", 0), ErrInvalidEntry, "entries always expire")

	var dest string
	assert.ErrorIs(t, c.Get(ctx, "", &dest), ErrInvalidEntry)
	assert.NoError(t, c.Delete(ctx))
}

func TestNewCache_Unreachable(t *testing.T) {
	_, err := NewCache(context.Background(), Config{Host: "127.0.0.1", Port: 1, DialTimeout: 100 * time.Millisecond})
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "planner:interests:abc", InterestsKey("abc"))
	assert.Equal(t, "planner:plan:code:jdoe", PlanKey("jdoe", "code"))
	assert.Equal(t, "localhost:6379", Config{}.Addr())
	assert.Equal(t, "cache:6380", Config{Host: "cache", Port: 6380}.Addr())
}

type memoryRepo struct {
	records map[string][]plan.Record
	loads   int
}

func (m *memoryRepo) Save(_ context.Context, username string, kind plan.RecordKind, records []plan.Record) error {
	if m.records == nil {
		m.records = make(map[string][]plan.Record)
	}
	m.records[username+"/"+string(kind)] = records
	return nil
}

func (m *memoryRepo) Load(_ context.Context, username string, kind plan.RecordKind) ([]plan.Record, error) {
	m.loads++
	r, ok := m.records[username+"/"+string(kind)]
	if !ok {
		return nil, shared.ErrPlanNotFound
	}
	return r, nil
}

func TestPlanCache_FallsThroughWhenRedisIsDown(t *testing.T) {
	repo := &memoryRepo{}
	pc := NewPlanCache(repo, unreachable(t), 0, nil)
	ctx := context.Background()

	records := []plan.Record{{Grade: 9, Courses: "ENL1W"}}
	require.NoError(t, pc.Save(ctx, "jdoe", plan.KindCodes, records))

	got, err := pc.Load(ctx, "jdoe", plan.KindCodes)
	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.Equal(t, 1, repo.loads)

	_, err = pc.Load(ctx, "nobody", plan.KindCodes)
	assert.ErrorIs(t, err, shared.ErrPlanNotFound)
}
