package plan

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coursepath/planner/internal/domain/course"
)

func testCatalog(t *testing.T) *course.Catalog {
	t.Helper()
	cat, err := course.NewCatalog([]course.Course{
		// grade 9
		{Code: "ENL1W", Name: "English", Area: "English", Grade: 9, Track: "Open", Requirement: "1.0"},
		{Code: "MTH1W", Name: "Mathematics", Area: "Mathematics", Grade: 9, Track: "Open", Requirement: "1.0"},
		{Code: "SNC1W", Name: "Science", Area: "Science", Grade: 9, Track: "Open", Requirement: "3.0"},
		{Code: "CGC1W", Name: "Exploring Canadian Geography", Area: "Canadian and World Studies", Grade: 9, Track: "Open", Requirement: "1.0"},
		{Code: "AVI1O", Name: "Visual Arts", Area: "Arts", Grade: 9, Track: "Open", Requirement: "2.0"},
		{Code: "PPL1O", Name: "Healthy Active Living Education", Area: "Health & Physical Education", Grade: 9, Track: "Open", Requirement: "2.0"},
		{Code: "FSF1D", Name: "Core French", Area: "French", Grade: 9, Track: "University", Requirement: "2.0"},
		{Code: "BTT1O", Name: "Information and Communication Technology", Area: "Business Studies", Grade: 9, Track: "Open", Requirement: "3.0"},
		// grade 10
		{Code: "ENG2D", Name: "English", Area: "English", Prerequisite: "ENL1W", Grade: 10, Track: "University", Requirement: "1.0"},
		{Code: "MPM2D", Name: "Principles of Mathematics", Area: "Mathematics", Prerequisite: "MTH1W", Grade: 10, Track: "University", Requirement: "1.0"},
		{Code: "SNC2D", Name: "Science", Area: "Science", Prerequisite: "SNC1W", Grade: 10, Track: "University", Requirement: "3.0"},
		{Code: "CHC2D", Name: "Canadian History since World War I", Area: "Canadian and World Studies", Grade: 10, Track: "University", Requirement: "1.0"},
		{Code: "CHV2O", Name: "Civics and Citizenship", Area: "Canadian and World Studies", Grade: 10, Track: "Open", Requirement: "1.0"},
		{Code: "AMU2O", Name: "Music", Area: "Arts", Grade: 10, Track: "Open", Requirement: "2.0"},
		{Code: "ICS2O", Name: "Introduction to Computer Studies", Area: "Computer Studies", Grade: 10, Track: "Open", Requirement: "3.0"},
		// grade 11
		{Code: "NBE3U", Name: "English: Understanding Contemporary First Nations, Métis, and Inuit Voices", Area: "English", Prerequisite: "ENG2D", Grade: 11, Track: "University", Requirement: "1.0"},
		{Code: "NBE3C", Name: "English: Contemporary First Nations, Métis, and Inuit Voices", Area: "English", Grade: 11, Track: "College", Requirement: "1.0"},
		{Code: "MCR3U", Name: "Functions", Area: "Mathematics", Prerequisite: "MPM2D", Grade: 11, Track: "University", Requirement: "1.0"},
		{Code: "MBF3C", Name: "Foundations for College Mathematics", Area: "Mathematics", Grade: 11, Track: "College", Requirement: "1.0"},
		{Code: "ICS3U", Name: "Introduction to Computer Science", Area: "Computer Studies", Prerequisite: "ICS2O", Grade: 11, Track: "University", Requirement: "3.0"},
		{Code: "AMU3M", Name: "Music", Area: "Arts", Prerequisite: "AMU2O", Grade: 11, Track: "University", Requirement: "2.0"},
		// grade 12
		{Code: "ENG4U", Name: "English", Area: "English", Prerequisite: "NBE3U", Grade: 12, Track: "University", Requirement: "1.0"},
		{Code: "ENG4C", Name: "English", Area: "English", Prerequisite: "NBE3C", Grade: 12, Track: "College", Requirement: "1.0"},
		{Code: "MHF4U", Name: "Advanced Functions", Area: "Mathematics", Prerequisite: "MCR3U", Grade: 12, Track: "University", Requirement: "1.0"},
		{Code: "MCV4U", Name: "Calculus and Vectors", Area: "Mathematics", Prerequisite: "MHF4U", Grade: 12, Track: "University", Requirement: "1.0"},
		{Code: "ICS4U", Name: "Computer Science", Area: "Computer Studies", Prerequisite: "ICS3U", Grade: 12, Track: "University", Requirement: "3.0"},
		{Code: "AMU4M", Name: "Music", Area: "Arts", Prerequisite: "AMU3M", Grade: 12, Track: "University", Requirement: "2.0"},
	})
	require.NoError(t, err)
	require.NoError(t, cat.Validate())
	return cat
}

func testProfile(t *testing.T, grade int, track, previous string) Profile {
	t.Helper()
	p, err := NewProfile(ProfileParams{
		Username:        "student1",
		Grade:           grade,
		Track:           track,
		PreviousCourses: previous,
	})
	require.NoError(t, err)
	return p
}

func seededRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// fakeFetcher records calls and serves canned results per interest text.
type fakeFetcher struct {
	results map[string][]string
	calls   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, interests string) ([]string, error) {
	f.calls = append(f.calls, interests)
	return f.results[strings.ToLower(interests)], nil
}

// scriptedPrompter answers with successive responses, repeating the last.
type scriptedPrompter struct {
	answers  []string
	messages []string
}

func (p *scriptedPrompter) Prompt(_ context.Context, message string) (string, error) {
	p.messages = append(p.messages, message)
	if len(p.answers) == 0 {
		return "pick", nil
	}
	a := p.answers[0]
	if len(p.answers) > 1 {
		p.answers = p.answers[1:]
	}
	return a, nil
}

// assertGridInvariants checks that every catalogued code is unique in its
// row, native to that grade and open to the student's track. Template seeds
// are exempt from the track check: the College template carries grade 10
// University courses.
func assertGridInvariants(t *testing.T, s *Session) {
	t.Helper()
	templates := Templates(s.Profile.Track)
	for _, grade := range course.Grades {
		seeded := make(map[string]bool)
		for _, code := range templates[grade] {
			seeded[code] = true
		}
		seen := make(map[string]bool)
		for _, code := range s.Grid.Codes(grade) {
			if code == Unfillable {
				continue
			}
			require.Falsef(t, seen[code], "grade %d row holds %s twice", grade, code)
			seen[code] = true

			c, ok := s.Catalog.Get(code)
			if !ok {
				continue
			}
			require.Equalf(t, grade, c.Grade, "%s placed in grade %d", code, grade)
			if seeded[code] {
				continue
			}
			require.Truef(t, c.AvailableTo(s.Profile.Track), "%s not open to %s", code, s.Profile.Track)
		}
	}
}

func countCode(s *Session, code string) int {
	n := 0
	for _, grade := range course.Grades {
		for _, c := range s.Grid.Codes(grade) {
			if c == code {
				n++
			}
		}
	}
	return n
}
