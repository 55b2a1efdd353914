package plan

import (
	"strings"

	"github.com/coursepath/planner/internal/domain/course"
)

// Fulfill greedily closes outstanding graduation credits.
//
// Categories are processed in lexicographic order. For each one the search
// starts at the lowest grade with an open slot and walks upward, taking the
// first catalog course (by code) that matches the category and is a valid
// stand-alone choice for the student at that grade. Categories no grade can
// satisfy are returned and recorded in the session report.
func (s *Session) Fulfill() []string {
	recommended := make(map[string]bool)
	fulfilled := make(map[string]bool) // lower-cased categories closed in this pass
	unmet := []string{}

	for _, category := range s.Ledger.Outstanding() {
		if s.Ledger.Remaining(category) == 0 {
			continue
		}

		start, ok := s.Grid.LowestOpenGrade()
		placed := false
		for grade := start; ok && grade <= course.MaxGrade && !placed; grade++ {
			if s.Grid.OpenSlots(grade) == 0 {
				continue
			}
			c, found := s.requirementCourse(category, grade, recommended, fulfilled)
			if !found {
				continue
			}
			if s.place(c) != Placed {
				continue
			}
			recommended[c.Code] = true
			fulfilled[strings.ToLower(category)] = true
			placed = true
		}

		if !placed {
			unmet = append(unmet, category)
		}
	}

	s.Report.UnmetCategories = unmet
	return unmet
}

func (s *Session) requirementCourse(category string, grade int, recommended, fulfilled map[string]bool) (course.Course, bool) {
	matches := s.Catalog.Filter(func(c course.Course) bool {
		return c.Grade == grade &&
			c.MatchesCategory(category) &&
			!c.HasPrerequisite() &&
			c.AvailableTo(s.Profile.Track) &&
			!recommended[c.Code] &&
			!fulfilled[strings.ToLower(c.Area)] &&
			!s.Profile.HasTaken(c.Code) &&
			!s.Grid.Contains(grade, c.Code)
	})
	if len(matches) == 0 {
		return course.Course{}, false
	}
	return matches[0], true
}
