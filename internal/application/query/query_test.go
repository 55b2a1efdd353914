package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/plan"
	"github.com/coursepath/planner/internal/domain/shared"
	catalogsrc "github.com/coursepath/planner/internal/infrastructure/catalog"
	"github.com/coursepath/planner/internal/infrastructure/persistence/memory"
)

func builtinCatalog(t *testing.T) *course.Catalog {
	t.Helper()
	cat, err := course.Load(context.Background(), catalogsrc.NewSource(""))
	require.NoError(t, err)
	return cat
}

func TestGetPlan(t *testing.T) {
	repo := memory.NewPlanStore()
	require.NoError(t, repo.Save(context.Background(), "jdoe", plan.KindCodes, []plan.Record{
		{Grade: 9, Courses: "ENL1W, E404"},
		{Grade: 11, Courses: "NBE3U"},
	}))

	view, err := NewGetPlanHandler(builtinCatalog(t), repo).Handle(context.Background(), GetPlanQuery{Username: " jdoe "})
	require.NoError(t, err)

	assert.Equal(t, "jdoe", view.Username)
	assert.Equal(t, []PlannedCourse{
		{Code: "ENL1W", Name: "English", Area: "English"},
		{Code: "E404", Name: "E404", Unfillable: true},
	}, view.Grades[9])
	assert.Empty(t, view.Grades[10])
	assert.Equal(t, "English", view.Grades[11][0].Area)

	_, err = NewGetPlanHandler(builtinCatalog(t), repo).Handle(context.Background(), GetPlanQuery{Username: "ghost"})
	assert.ErrorIs(t, err, shared.ErrPlanNotFound)
}

func TestGetPlanTable_KeepsCommaNames(t *testing.T) {
	cat := builtinCatalog(t)
	nbe, ok := cat.Get("NBE3U")
	require.True(t, ok)

	repo := memory.NewPlanStore()
	require.NoError(t, repo.Save(context.Background(), "jdoe", plan.KindNames, []plan.Record{
		{Grade: 11, Courses: nbe.Name + ", Functions"},
		{Grade: 9, Courses: "English, Mathematics"},
	}))

	table, err := NewGetPlanTableHandler(cat, repo).Handle(context.Background(), GetPlanTableQuery{Username: "jdoe"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Grade 9", "English", "Mathematics"},
		{"Grade 11", nbe.Name, "Functions"},
	}, table)
}

func TestGetPlanTable_NotFound(t *testing.T) {
	_, err := NewGetPlanTableHandler(builtinCatalog(t), memory.NewPlanStore()).Handle(context.Background(), GetPlanTableQuery{Username: "ghost"})
	assert.ErrorIs(t, err, shared.ErrPlanNotFound)
}
