package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/shared"
)

func TestLedger_ConsumePrefersArea(t *testing.T) {
	l := NewLedger(DefaultQuotas())

	cat, ok := l.Consume(course.Course{Area: "Arts", Requirement: "2.0"})
	require.True(t, ok)
	assert.Equal(t, "Arts", cat)
	assert.Equal(t, 0, l.Remaining("arts"))
	assert.Equal(t, 1, l.Remaining("2.0"))

	cat, ok = l.Consume(course.Course{Area: "Arts", Requirement: "2.0"})
	require.True(t, ok)
	assert.Equal(t, "2.0", cat)

	_, ok = l.Consume(course.Course{Area: "Arts", Requirement: "2.0"})
	assert.False(t, ok)
	assert.Equal(t, 0, l.Remaining("Arts"))
	assert.Equal(t, 0, l.Remaining("2.0"))
}

func TestLedger_NeverNegative(t *testing.T) {
	l := NewLedger(map[string]int{"French": 1, "Broken": -3})
	for i := 0; i < 5; i++ {
		l.Consume(course.Course{Area: "French", Requirement: "Broken"})
	}
	for name, n := range l.Snapshot() {
		assert.GreaterOrEqualf(t, n, 0, "%s went negative", name)
	}
}

func TestLedger_Outstanding(t *testing.T) {
	l := NewLedger(DefaultQuotas())
	assert.Equal(t, []string{"1.0", "2.0", "3.0", "Arts", "French", "Health & Physical Education"}, l.Outstanding())

	l.Consume(course.Course{Area: "French"})
	assert.NotContains(t, l.Outstanding(), "French")
	assert.True(t, l.Has("french"))
	assert.False(t, l.Has("Science"))
}

func TestGrid_Place(t *testing.T) {
	g := NewGrid()

	assert.Equal(t, Placed, g.Place(9, "AVI1O"))
	assert.Equal(t, AlreadyPresent, g.Place(9, "avi1o"))
	assert.Equal(t, UnknownGrade, g.Place(13, "AVI1O"))
	assert.Equal(t, 7, g.OpenSlots(9))

	for i := 0; i < 7; i++ {
		require.Equal(t, Placed, g.Place(9, string(rune('A'+i))))
	}
	assert.Equal(t, RowFull, g.Place(9, "PPL1O"))
	assert.False(t, g.Contains(9, "PPL1O"))

	grade, ok := g.LowestOpenGrade()
	require.True(t, ok)
	assert.Equal(t, 10, grade)

	row, _ := g.Row(9)
	assert.Equal(t, "AVI1O", row[0])
	assert.Equal(t, "G", row[7])
}

func TestGrid_ReplaceAndClone(t *testing.T) {
	g := NewGrid()
	g.Place(10, "AMU2O")
	g.Place(10, "ICS2O")

	clone := g.Clone()

	assert.False(t, g.Replace(10, "AMU2O", "ICS2O"), "replacement already in row")
	assert.False(t, g.Replace(10, "MISSING", "AVI1O"))
	assert.True(t, g.Replace(10, "amu2o", "CHV2O"))
	assert.Equal(t, []string{"CHV2O", "ICS2O"}, g.Codes(10))

	assert.Equal(t, []string{"AMU2O", "ICS2O"}, clone.Codes(10))
}

func TestParsePreviousCourses(t *testing.T) {
	got := ParsePreviousCourses("ENL1W - English, mth1w - Mathematics,  , ENL1W - English, AVI1O")
	assert.Equal(t, []string{"ENL1W", "MTH1W", "AVI1O"}, got)
	assert.Empty(t, ParsePreviousCourses(""))
}

func TestNewProfile(t *testing.T) {
	p, err := NewProfile(ProfileParams{Username: " jdoe ", Grade: 10, Track: "college", PreviousCourses: "AVI1O - Visual Arts"})
	require.NoError(t, err)
	assert.Equal(t, "jdoe", p.Username)
	assert.Equal(t, course.TrackCollege, p.Track)
	assert.True(t, p.HasTaken("avi1o"))

	cases := []ProfileParams{
		{Username: "", Grade: 9, Track: "University"},
		{Username: "a", Grade: 8, Track: "University"},
		{Username: "a", Grade: 9, Track: "Open"},
		{Username: "a", Grade: 9, Track: "Workplace"},
	}
	for _, tc := range cases {
		_, err := NewProfile(tc)
		assert.ErrorIs(t, err, shared.ErrInvalidProfile)
		assert.True(t, shared.IsValidation(err))
	}
}

func TestProfile_Eligible(t *testing.T) {
	p := Profile{Grade: 11, Track: course.TrackCollege}

	assert.True(t, p.Eligible(course.Course{Grade: 12, Track: course.TrackOpen}))
	assert.True(t, p.Eligible(course.Course{Grade: 11, Track: course.TrackCollege}))
	assert.False(t, p.Eligible(course.Course{Grade: 10, Track: course.TrackOpen}), "below student grade")
	assert.False(t, p.Eligible(course.Course{Grade: 12, Track: course.TrackUniversity}), "other track")
}
