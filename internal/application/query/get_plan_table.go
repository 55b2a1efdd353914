package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/plan"
)

// GetPlanTableQuery names the student whose plan to tabulate.
type GetPlanTableQuery struct {
	Username string
}

// GetPlanTableHandler renders the stored name records as table rows.
type GetPlanTableHandler struct {
	repo  plan.Repository
	known map[string]bool
}

// NewGetPlanTableHandler creates a new GetPlanTableHandler. Catalog names are
// used to keep names containing the record separator in one cell.
func NewGetPlanTableHandler(catalog *course.Catalog, repo plan.Repository) *GetPlanTableHandler {
	known := make(map[string]bool, catalog.Len())
	for _, c := range catalog.Courses() {
		known[c.Name] = true
	}
	return &GetPlanTableHandler{repo: repo, known: known}
}

// Handle returns one row per stored grade: "Grade N" followed by at most
// plan.SlotsPerGrade course names.
func (h *GetPlanTableHandler) Handle(ctx context.Context, q GetPlanTableQuery) ([][]string, error) {
	records, err := h.repo.Load(ctx, strings.TrimSpace(q.Username), plan.KindNames)
	if err != nil {
		return nil, fmt.Errorf("get_plan_table: %w", err)
	}
	plan.SortRecords(records)

	table := make([][]string, 0, len(records))
	for _, rec := range records {
		names := plan.SplitNames(rec.Courses, func(name string) bool { return h.known[name] })
		if len(names) > plan.SlotsPerGrade {
			names = names[:plan.SlotsPerGrade]
		}
		row := append([]string{fmt.Sprintf("Grade %d", rec.Grade)}, names...)
		table = append(table, row)
	}
	return table, nil
}
