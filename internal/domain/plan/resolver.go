package plan

import (
	"fmt"
	"strings"

	"github.com/coursepath/planner/internal/domain/shared"
)

// Resolve places code and walks its prerequisite chain downward.
//
// Each link is gated on grade and track eligibility and on not having been
// taken already. An eligible course is written to the first empty slot of
// its grade row and charged one credit. A full row drops the course but
// still charges it; a course already in the row is not charged again. The
// walk continues to the prerequisite whether or not placement happened. A catalog miss or the "none" sentinel ends the walk.
// Revisiting a code means the catalog is cyclic: ErrPrerequisiteCycle.
func (s *Session) Resolve(code string) error {
	var chain []string
	visited := make(map[string]bool)
	return s.resolve(code, visited, chain)
}

// ResolveAll resolves each code in order and stops at the first error.
func (s *Session) ResolveAll(codes []string) error {
	for _, code := range codes {
		if err := s.Resolve(code); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) resolve(code string, visited map[string]bool, chain []string) error {
	c, ok := s.Catalog.Get(code)
	if !ok {
		return nil
	}

	chain = append(chain, c.Code)
	if visited[c.Code] {
		return fmt.Errorf("%w: %s", shared.ErrPrerequisiteCycle, strings.Join(chain, " -> "))
	}
	visited[c.Code] = true

	if !s.Profile.Eligible(c) || s.Profile.HasTaken(c.Code) {
		return nil
	}

	if s.place(c) == RowFull {
		s.Ledger.Consume(c)
	}

	if !c.HasPrerequisite() {
		return nil
	}
	return s.resolve(c.Prerequisite, visited, chain)
}
