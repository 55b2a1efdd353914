package plan

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/coursepath/planner/internal/domain/course"
)

// Messages shown to the student by a Prompter.
const (
	PromptMessage   = "Some course slots are still empty. Enter more interests, or type 'pick' and we will choose for you:"
	RepromptMessage = "Could not find any courses for those interests. Enter other interests (or 'pick'):"
)

// DefaultMaxReprompts bounds how often an empty interest lookup asks again.
const DefaultMaxReprompts = 3

var takeDefault = []string{"pick", "yes", "y"}

// IsTakeDefault reports whether a prompt response asks the planner to choose.
func IsTakeDefault(response string) bool {
	response = strings.TrimSpace(response)
	for _, s := range takeDefault {
		if strings.EqualFold(response, s) {
			return true
		}
	}
	return false
}

// Prompter asks the student a question and returns the answer.
type Prompter interface {
	Prompt(ctx context.Context, message string) (string, error)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(ctx context.Context, message string) (string, error)

// Prompt implements Prompter.
func (f PromptFunc) Prompt(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

// StaticAnswer is a Prompter that always answers with itself.
type StaticAnswer string

// Prompt implements Prompter.
func (a StaticAnswer) Prompt(context.Context, string) (string, error) {
	return string(a), nil
}

// InterestFetcher turns free-text interests into candidate course codes.
type InterestFetcher interface {
	Fetch(ctx context.Context, interests string) ([]string, error)
}

// GapFiller fills every remaining empty slot, from interests when the
// student supplies them and by random selection otherwise.
type GapFiller struct {
	fetcher      InterestFetcher
	prompter     Prompter
	rng          *rand.Rand
	maxReprompts int
}

// GapFillerOption configures a GapFiller.
type GapFillerOption func(*GapFiller)

// WithRand injects the random source used for default picks.
func WithRand(r *rand.Rand) GapFillerOption {
	return func(g *GapFiller) {
		if r != nil {
			g.rng = r
		}
	}
}

// WithMaxReprompts sets how many times an empty interest lookup re-prompts.
func WithMaxReprompts(n int) GapFillerOption {
	return func(g *GapFiller) {
		if n >= 0 {
			g.maxReprompts = n
		}
	}
}

// NewGapFiller creates a GapFiller. A nil prompter always takes the default.
func NewGapFiller(fetcher InterestFetcher, prompter Prompter, opts ...GapFillerOption) *GapFiller {
	g := &GapFiller{
		fetcher:      fetcher,
		prompter:     prompter,
		maxReprompts: DefaultMaxReprompts,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.prompter == nil {
		g.prompter = StaticAnswer(takeDefault[0])
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// Fill prompts once (plus bounded re-prompts) and then fills rows 9 to 12,
// slots in index order. It does nothing when the grid is already full.
func (g *GapFiller) Fill(ctx context.Context, s *Session) error {
	if !s.Grid.HasOpenSlot() {
		return nil
	}

	candidates, err := g.interestCandidates(ctx, s)
	if err != nil {
		return err
	}

	for _, grade := range course.Grades {
		row, _ := s.Grid.Row(grade)
		chosen := make(map[string]bool)
		areas := make(map[string]bool)
		for _, code := range row {
			if c, ok := s.Catalog.Get(code); ok {
				areas[strings.ToLower(c.Area)] = true
			}
		}

		for idx := range row {
			if row[idx] != "" {
				continue
			}

			code := g.pickInterest(s, grade, candidates, chosen)
			if code != "" {
				s.Report.InterestMatches++
			} else if code = g.pickRandom(s, grade, chosen, areas); code != "" {
				s.Report.RandomPicks++
			} else {
				code = Unfillable
				s.Report.Unfillable++
			}

			if code != Unfillable {
				chosen[code] = true
			}
			s.Grid.fill(grade, idx, code)
			row[idx] = code
		}
	}
	return nil
}

// interestCandidates runs the prompt loop. It returns nil when the student
// takes the default or every lookup came back empty.
func (g *GapFiller) interestCandidates(ctx context.Context, s *Session) ([]string, error) {
	message := PromptMessage
	for attempt := 0; attempt <= g.maxReprompts; attempt++ {
		response, err := g.prompter.Prompt(ctx, message)
		if err != nil {
			return nil, fmt.Errorf("prompt: %w", err)
		}
		response = strings.TrimSpace(response)
		if IsTakeDefault(response) || response == "" || g.fetcher == nil {
			return nil, nil
		}

		codes, ok := s.CachedInterests(response)
		if !ok {
			codes, err = g.fetcher.Fetch(ctx, response)
			if err != nil {
				return nil, fmt.Errorf("fetch interests: %w", err)
			}
			s.CacheInterests(response, codes)
		}
		if len(codes) > 0 {
			return codes, nil
		}
		message = RepromptMessage
	}
	return nil, nil
}

func (g *GapFiller) pickInterest(s *Session, grade int, candidates []string, chosen map[string]bool) string {
	for _, code := range candidates {
		c, ok := s.Catalog.Get(code)
		if !ok || c.Grade != grade || !c.AvailableTo(s.Profile.Track) {
			continue
		}
		if chosen[c.Code] || s.Grid.Contains(grade, c.Code) || s.Profile.HasTaken(c.Code) {
			continue
		}
		return c.Code
	}
	return ""
}

func (g *GapFiller) pickRandom(s *Session, grade int, chosen, areas map[string]bool) string {
	pool := s.Catalog.Filter(func(c course.Course) bool {
		return c.Grade == grade &&
			c.AvailableTo(s.Profile.Track) &&
			!chosen[c.Code] &&
			!areas[strings.ToLower(c.Area)] &&
			!s.Grid.Contains(grade, c.Code) &&
			!s.Profile.HasTaken(c.Code)
	})
	if len(pool) == 0 {
		return ""
	}
	c := pool[g.rng.IntN(len(pool))]
	areas[strings.ToLower(c.Area)] = true
	return c.Code
}
