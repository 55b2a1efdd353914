// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/plan"
	"github.com/coursepath/planner/internal/domain/shared"
	"github.com/coursepath/planner/internal/infrastructure/metrics"
)

var validate = validator.New()

// ══════════════════════════════════════════════════════════════════════════════
// ASSEMBLE PLAN COMMAND
// Builds a four-year recommendation for one student: template and previous
// courses first, then interest candidates with their prerequisite chains,
// then graduation requirements, then interest or random gap filling.
// ══════════════════════════════════════════════════════════════════════════════

// AssemblePlanCommand contains the student profile to plan for.
type AssemblePlanCommand struct {
	Username string `json:"username" validate:"required,max=100"`
	Grade    int    `json:"grade" validate:"min=9,max=12"`
	Track    string `json:"track" validate:"required"`

	// PreviousCourses is a comma separated list of "CODE - Name" entries.
	PreviousCourses string `json:"previous_courses"`

	// Interests is free text sent to the interest service before any
	// placement pass. Blank skips the lookup.
	Interests string `json:"interests" validate:"max=500"`

	// Prompter answers the gap filler's interest prompts. Nil takes the
	// random default for every open slot.
	Prompter plan.Prompter `json:"-"`
}

// Validate validates the command.
func (c AssemblePlanCommand) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidProfile, err)
	}
	return nil
}

// AssemblePlanResult is the outcome of one assembly.
type AssemblePlanResult struct {
	SessionID string           `json:"session_id"`
	Username  string           `json:"username"`
	Track     string           `json:"track"`
	Grid      map[int][]string `json:"grid"`
	Names     []plan.Record    `json:"names"`
	Report    plan.Report      `json:"report"`

	// PersistError is set when the plan was assembled but could not be
	// stored. The grid is still valid.
	PersistError error         `json:"-"`
	Duration     time.Duration `json:"duration"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AssemblePlanHandlerConfig contains configuration for the handler.
type AssemblePlanHandlerConfig struct {
	// Quotas is the starting credit ledger; nil uses plan.DefaultQuotas.
	Quotas map[string]int

	// MaxReprompts bounds how often the gap filler asks again after an
	// interest lookup matched nothing.
	MaxReprompts int

	// NewRand supplies the random source for each session. Nil seeds from
	// the runtime.
	NewRand func() *rand.Rand

	Logger *slog.Logger
}

// AssemblePlanHandler handles the AssemblePlanCommand.
type AssemblePlanHandler struct {
	catalog *course.Catalog
	fetcher plan.InterestFetcher
	repo    plan.Repository
	config  AssemblePlanHandlerConfig
	logger  *slog.Logger
}

// NewAssemblePlanHandler creates a new AssemblePlanHandler. repo may be nil,
// in which case plans are not persisted.
func NewAssemblePlanHandler(
	catalog *course.Catalog,
	fetcher plan.InterestFetcher,
	repo plan.Repository,
	config AssemblePlanHandlerConfig,
) *AssemblePlanHandler {
	if config.Quotas == nil {
		config.Quotas = plan.DefaultQuotas()
	}
	if config.MaxReprompts <= 0 {
		config.MaxReprompts = plan.DefaultMaxReprompts
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &AssemblePlanHandler{
		catalog: catalog,
		fetcher: fetcher,
		repo:    repo,
		config:  config,
		logger:  config.Logger.With("component", "assemble_plan"),
	}
}

// Handle executes the assemble plan command.
func (h *AssemblePlanHandler) Handle(ctx context.Context, cmd AssemblePlanCommand) (res *AssemblePlanResult, err error) {
	start := time.Now()

	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("assemble_plan: validation failed: %w", err)
	}
	profile, err := plan.NewProfile(plan.ProfileParams{
		Username:        cmd.Username,
		Grade:           cmd.Grade,
		Track:           cmd.Track,
		PreviousCourses: cmd.PreviousCourses,
		Interests:       cmd.Interests,
	})
	if err != nil {
		return nil, fmt.Errorf("assemble_plan: %w", err)
	}

	session := plan.NewSession(uuid.NewString(), profile, h.catalog, h.config.Quotas)
	log := h.logger.With("session_id", session.ID, "username", profile.Username)

	defer func() {
		r := session.Report
		metrics.RecordAssembly(profile.Track.String(), time.Since(start), err,
			r.InterestMatches, r.RandomPicks, r.Unfillable, r.UnmetCategories)
	}()

	if err := h.resolveInterests(ctx, session); err != nil {
		return nil, err
	}

	if unmet := session.Fulfill(); len(unmet) > 0 {
		log.Info("graduation requirements left unmet", "categories", unmet)
	}

	if err := h.gapFiller(cmd.Prompter).Fill(ctx, session); err != nil {
		return nil, fmt.Errorf("assemble_plan: gap fill: %w", err)
	}

	report := session.Finish()
	res = &AssemblePlanResult{
		SessionID: session.ID,
		Username:  profile.Username,
		Track:     profile.Track.String(),
		Grid:      session.Grid.Map(),
		Names:     plan.EncodeNames(session.Grid, h.catalog),
		Report:    report,
	}

	if h.repo != nil {
		if perr := persist(ctx, h.repo, profile.Username, session.Grid, h.catalog); perr != nil {
			log.Error("failed to persist plan", "error", perr)
			res.PersistError = perr
		}
	}

	res.Duration = time.Since(start)
	log.Info("plan assembled",
		"interest_matches", report.InterestMatches,
		"random_picks", report.RandomPicks,
		"unfillable", report.Unfillable,
		"dropped", len(report.Dropped),
		"duration", res.Duration,
	)
	return res, nil
}

// resolveInterests looks up the profile's interests once and places every
// candidate with its prerequisite chain.
func (h *AssemblePlanHandler) resolveInterests(ctx context.Context, s *plan.Session) error {
	text := strings.TrimSpace(s.Profile.Interests)
	if text == "" || h.fetcher == nil {
		return nil
	}

	codes, err := h.fetcher.Fetch(ctx, text)
	if err != nil {
		return fmt.Errorf("assemble_plan: fetch interests: %w", err)
	}
	s.CacheInterests(text, codes)

	if err := s.ResolveAll(codes); err != nil {
		if errors.Is(err, shared.ErrPrerequisiteCycle) {
			h.logger.Error("catalog has a prerequisite cycle", "error", err)
		}
		return fmt.Errorf("assemble_plan: %w", err)
	}
	return nil
}

func (h *AssemblePlanHandler) gapFiller(prompter plan.Prompter) *plan.GapFiller {
	opts := []plan.GapFillerOption{plan.WithMaxReprompts(h.config.MaxReprompts)}
	if h.config.NewRand != nil {
		opts = append(opts, plan.WithRand(h.config.NewRand()))
	}
	return plan.NewGapFiller(h.fetcher, prompter, opts...)
}

// persist stores both record kinds of g. Both writes are attempted.
func persist(ctx context.Context, repo plan.Repository, username string, g *plan.Grid, catalog *course.Catalog) error {
	codesErr := repo.Save(ctx, username, plan.KindCodes, plan.EncodeCodes(g))
	namesErr := repo.Save(ctx, username, plan.KindNames, plan.EncodeNames(g, catalog))
	return errors.Join(codesErr, namesErr)
}
