package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepath/planner/internal/domain/plan"
	"github.com/coursepath/planner/internal/domain/shared"
)

func TestPlanStore_SaveLoad(t *testing.T) {
	store, err := NewPlanStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	records := []plan.Record{
		{Grade: 10, Courses: "ENG2D, MPM2D"},
		{Grade: 9, Courses: "ENL1W, MTH1W"},
	}
	require.NoError(t, store.Save(ctx, "jdoe", plan.KindCodes, records))

	got, err := store.Load(ctx, "jdoe", plan.KindCodes)
	require.NoError(t, err)
	assert.Equal(t, []plan.Record{
		{Grade: 9, Courses: "ENL1W, MTH1W"},
		{Grade: 10, Courses: "ENG2D, MPM2D"},
	}, got)

	_, err = store.Load(ctx, "jdoe", plan.KindNames)
	assert.ErrorIs(t, err, shared.ErrPlanNotFound)
}

func TestPlanStore_FileLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPlanStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "jdoe", plan.KindNames, []plan.Record{{Grade: 9, Courses: "English"}}))

	data, err := os.ReadFile(filepath.Join(dir, "recommended_course_name_jdoe.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"grade":9,"courses":"English"}]`, string(data))

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestPlanStore_ConcurrentSavesSameUser(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPlanStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Save(ctx, "jdoe", plan.KindCodes, []plan.Record{
				{Grade: 9, Courses: fmt.Sprintf("C%02d", i)},
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := store.Load(ctx, "jdoe", plan.KindCodes)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Regexp(t, `^C\d{2}$`, got[0].Courses)

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestPlanStore_Rejects(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPlanStore(dir)
	require.NoError(t, err)

	err = store.Save(context.Background(), "jdoe", plan.RecordKind("xlsx"), nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	require.NoError(t, os.WriteFile(store.Path("broken", plan.KindCodes), []byte("{"), 0o600))
	_, err = store.Load(context.Background(), "broken", plan.KindCodes)
	assert.ErrorIs(t, err, shared.ErrInvalidRecord)

	assert.Equal(t, dir, filepath.Dir(store.Path("../../etc/passwd", plan.KindCodes)))
}
