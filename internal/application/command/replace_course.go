package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/plan"
	"github.com/coursepath/planner/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPLACE COURSE COMMAND
// Swaps one course of a stored plan for another course of the same grade.
// ══════════════════════════════════════════════════════════════════════════════

// ReplaceCourseCommand names the swap to make.
type ReplaceCourseCommand struct {
	Username    string `json:"username" validate:"required,max=100"`
	Current     string `json:"current" validate:"required,max=16"`
	Replacement string `json:"replacement" validate:"required,max=16"`
}

// ReplaceCourseResult is the updated plan.
type ReplaceCourseResult struct {
	Username string           `json:"username"`
	Grade    int              `json:"grade"`
	Grid     map[int][]string `json:"grid"`
}

// ReplaceCourseHandler handles the ReplaceCourseCommand.
type ReplaceCourseHandler struct {
	catalog *course.Catalog
	repo    plan.Repository
	logger  *slog.Logger
}

// NewReplaceCourseHandler creates a new ReplaceCourseHandler.
func NewReplaceCourseHandler(catalog *course.Catalog, repo plan.Repository, logger *slog.Logger) *ReplaceCourseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplaceCourseHandler{
		catalog: catalog,
		repo:    repo,
		logger:  logger.With("component", "replace_course"),
	}
}

// Handle executes the replace course command. The stored plan is only
// rewritten when every check passes.
func (h *ReplaceCourseHandler) Handle(ctx context.Context, cmd ReplaceCourseCommand) (*ReplaceCourseResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("replace_course: %w: %v", shared.ErrValidation, err)
	}

	currentCode := strings.ToUpper(strings.TrimSpace(cmd.Current))
	replacementCode := strings.ToUpper(strings.TrimSpace(cmd.Replacement))

	current, ok := h.catalog.Get(currentCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in the catalog", shared.ErrInvalidReplacement, currentCode)
	}
	replacement, ok := h.catalog.Get(replacementCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in the catalog", shared.ErrInvalidReplacement, replacementCode)
	}
	if replacement.Grade != current.Grade {
		return nil, fmt.Errorf("%w: %s is grade %d, %s is grade %d",
			shared.ErrInvalidReplacement, current.Code, current.Grade, replacement.Code, replacement.Grade)
	}

	records, err := h.repo.Load(ctx, cmd.Username, plan.KindCodes)
	if err != nil {
		return nil, fmt.Errorf("replace_course: %w", err)
	}
	stored, err := plan.DecodeCodes(records)
	if err != nil {
		return nil, fmt.Errorf("replace_course: %w", err)
	}

	grid := stored.Clone()
	if !grid.Contains(current.Grade, current.Code) {
		return nil, fmt.Errorf("%w: %s is not in grade %d of the plan", shared.ErrInvalidReplacement, current.Code, current.Grade)
	}
	if !grid.Replace(current.Grade, current.Code, replacement.Code) {
		return nil, fmt.Errorf("%w: %s is already in grade %d", shared.ErrInvalidReplacement, replacement.Code, current.Grade)
	}

	if err := persist(ctx, h.repo, cmd.Username, grid, h.catalog); err != nil {
		return nil, fmt.Errorf("replace_course: %w", err)
	}

	h.logger.Info("course replaced",
		"username", cmd.Username,
		"grade", current.Grade,
		"current", current.Code,
		"replacement", replacement.Code,
	)

	return &ReplaceCourseResult{
		Username: cmd.Username,
		Grade:    current.Grade,
		Grid:     grid.Map(),
	}, nil
}
