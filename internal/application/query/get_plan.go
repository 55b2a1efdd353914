// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/plan"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PLAN QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetPlanQuery names the student whose stored plan to read.
type GetPlanQuery struct {
	Username string
}

// PlannedCourse is one slot of a stored plan.
type PlannedCourse struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Area string `json:"area,omitempty"`

	// Unfillable marks a slot no course could be found for.
	Unfillable bool `json:"unfillable,omitempty"`
}

// PlanView is a stored plan resolved against the catalog.
type PlanView struct {
	Username string                  `json:"username"`
	Grades   map[int][]PlannedCourse `json:"grades"`
}

// GetPlanHandler handles GetPlanQuery.
type GetPlanHandler struct {
	catalog *course.Catalog
	repo    plan.Repository
}

// NewGetPlanHandler creates a new GetPlanHandler.
func NewGetPlanHandler(catalog *course.Catalog, repo plan.Repository) *GetPlanHandler {
	return &GetPlanHandler{catalog: catalog, repo: repo}
}

// Handle reads the code records of a plan.
func (h *GetPlanHandler) Handle(ctx context.Context, q GetPlanQuery) (*PlanView, error) {
	username := strings.TrimSpace(q.Username)
	records, err := h.repo.Load(ctx, username, plan.KindCodes)
	if err != nil {
		return nil, fmt.Errorf("get_plan: %w", err)
	}
	grid, err := plan.DecodeCodes(records)
	if err != nil {
		return nil, fmt.Errorf("get_plan: %w", err)
	}

	view := &PlanView{
		Username: username,
		Grades:   make(map[int][]PlannedCourse, len(course.Grades)),
	}
	for _, grade := range course.Grades {
		codes := grid.Codes(grade)
		row := make([]PlannedCourse, 0, len(codes))
		for _, code := range codes {
			pc := PlannedCourse{Code: code, Name: code}
			if c, ok := h.catalog.Get(code); ok {
				pc.Name = c.Name
				pc.Area = c.Area
			}
			pc.Unfillable = code == plan.Unfillable
			row = append(row, pc)
		}
		view.Grades[grade] = row
	}
	return view, nil
}
