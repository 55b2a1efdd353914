package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/shared"
)

func TestNewSession_UniversityGrade9Template(t *testing.T) {
	cat := testCatalog(t)
	s := NewSession("s1", testProfile(t, 9, "University", ""), cat, DefaultQuotas())

	assert.Equal(t, []string{"ENL1W", "MTH1W", "SNC1W", "CGC1W"}, s.Grid.Codes(9))
	assert.Equal(t, []string{"ENG2D", "MPM2D", "SNC2D", "CHC2D", "CHV2O"}, s.Grid.Codes(10))
	assert.Equal(t, []string{"NBE3U", "MCR3U"}, s.Grid.Codes(11))
	assert.Equal(t, []string{"ENG4U", "MHF4U", "MCV4U"}, s.Grid.Codes(12))
	assert.Equal(t, DefaultQuotas(), s.Ledger.Snapshot(), "template courses are not charged")
}

func TestNewSession_CollegeTemplate(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "College", ""), testCatalog(t), DefaultQuotas())

	assert.Equal(t, []string{"NBE3C", "MBF3C"}, s.Grid.Codes(11))
	assert.Equal(t, []string{"ENG4C"}, s.Grid.Codes(12))
}

func TestNewSession_BackfillsPreviousCourses(t *testing.T) {
	s := NewSession("s1",
		testProfile(t, 11, "University", "AVI1O - Visual Arts, ICS2O - Introduction to Computer Studies, ENL1W - English, XYZ9Z - Unknown"),
		testCatalog(t), DefaultQuotas())

	assert.True(t, s.Grid.Contains(9, "AVI1O"))
	assert.True(t, s.Grid.Contains(10, "ICS2O"))
	assert.Equal(t, 1, countCode(s, "ENL1W"))

	assert.Equal(t, 0, s.Ledger.Remaining("Arts"))
	assert.Equal(t, 0, s.Ledger.Remaining("3.0"))
	assert.Equal(t, 1, s.Ledger.Remaining("1.0"), "ENL1W was already seeded")
}

func TestResolve_WalksPrerequisiteChain(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())

	require.NoError(t, s.Resolve("ics4u"))

	assert.True(t, s.Grid.Contains(12, "ICS4U"))
	assert.True(t, s.Grid.Contains(11, "ICS3U"))
	assert.True(t, s.Grid.Contains(10, "ICS2O"))
	assert.Equal(t, 0, s.Ledger.Remaining("3.0"), "charged once for the chain")
	assertGridInvariants(t, s)
}

func TestResolve_StopsAtTakenCourse(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", "ICS2O - Introduction to Computer Studies"), testCatalog(t), DefaultQuotas())
	before := s.Ledger.Snapshot()

	require.NoError(t, s.Resolve("ICS4U"))
	require.NoError(t, s.Resolve("ICS4U"))

	assert.Equal(t, 1, countCode(s, "ICS2O"))
	assert.Equal(t, 1, countCode(s, "ICS4U"))
	assert.Equal(t, before, s.Ledger.Snapshot(), "3.0 was consumed by the backfill")
}

func TestResolve_Eligibility(t *testing.T) {
	cat := testCatalog(t)

	college := NewSession("s1", testProfile(t, 9, "College", ""), cat, DefaultQuotas())
	require.NoError(t, college.Resolve("ICS4U"))
	assert.False(t, college.Grid.Contains(12, "ICS4U"))

	senior := NewSession("s2", testProfile(t, 11, "University", ""), cat, DefaultQuotas())
	require.NoError(t, senior.Resolve("AMU4M"))
	assert.True(t, senior.Grid.Contains(12, "AMU4M"))
	assert.True(t, senior.Grid.Contains(11, "AMU3M"))
	assert.False(t, senior.Grid.Contains(10, "AMU2O"), "grade 10 is behind the student")
	assertGridInvariants(t, senior)
}

func TestResolve_FullRowDrops(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())
	for _, filler := range []string{"X1", "X2", "X3", "X4", "X5"} {
		require.Equal(t, Placed, s.Grid.Place(12, filler))
	}

	require.NoError(t, s.Resolve("AMU4M"))

	assert.False(t, s.Grid.Contains(12, "AMU4M"))
	assert.Equal(t, []string{"AMU4M"}, s.Report.Dropped)
	assert.True(t, s.Grid.Contains(11, "AMU3M"), "walk continues past a dropped course")
	assert.Equal(t, 0, s.Ledger.Remaining("Arts"), "dropped AMU4M still takes the Arts credit")
	assert.Equal(t, 0, s.Ledger.Remaining("2.0"), "AMU3M falls back to its requirement")
}

func TestResolve_DroppedChainStillCharges(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())
	for _, filler := range []string{"X1", "X2", "X3"} {
		require.Equal(t, Placed, s.Grid.Place(10, filler))
	}
	for _, filler := range []string{"Y1", "Y2", "Y3", "Y4", "Y5", "Y6"} {
		require.Equal(t, Placed, s.Grid.Place(11, filler))
	}

	require.NoError(t, s.Resolve("AMU3M"))

	assert.False(t, s.Grid.Contains(11, "AMU3M"))
	assert.False(t, s.Grid.Contains(10, "AMU2O"))
	assert.Equal(t, []string{"AMU3M", "AMU2O"}, s.Report.Dropped)
	assert.Equal(t, 0, s.Ledger.Remaining("Arts"))
	assert.Equal(t, 0, s.Ledger.Remaining("2.0"))
}

func TestResolve_PresentCourseNotChargedAgain(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())

	require.NoError(t, s.Resolve("AMU2O"))
	assert.Equal(t, 0, s.Ledger.Remaining("Arts"))
	assert.Equal(t, 1, s.Ledger.Remaining("2.0"))

	require.NoError(t, s.Resolve("AMU2O"))
	assert.Equal(t, 1, countCode(s, "AMU2O"))
	assert.Equal(t, 1, s.Ledger.Remaining("2.0"), "second visit finds AMU2O in the row")
}

func TestResolve_UnknownCode(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())
	before := s.Grid.Map()

	require.NoError(t, s.Resolve("NOPE1"))
	assert.Equal(t, before, s.Grid.Map())
}

func TestResolve_CycleGuard(t *testing.T) {
	cat, err := course.NewCatalog([]course.Course{
		{Code: "A12", Area: "Arts", Prerequisite: "B11", Grade: 12, Track: "Open"},
		{Code: "B11", Area: "Arts", Prerequisite: "A12", Grade: 11, Track: "Open"},
	})
	require.NoError(t, err)

	s := NewSession("s1", testProfile(t, 9, "University", ""), cat, DefaultQuotas())
	err = s.Resolve("A12")

	require.ErrorIs(t, err, shared.ErrPrerequisiteCycle)
	assert.True(t, shared.IsConfiguration(err))
	assert.Contains(t, err.Error(), "A12 -> B11 -> A12")
}

func TestFulfill_University(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())

	unmet := s.Fulfill()

	assert.Equal(t, []string{"1.0"}, unmet)
	assert.Equal(t, unmet, s.Report.UnmetCategories)
	assert.Equal(t, []string{"ENL1W", "MTH1W", "SNC1W", "CGC1W", "AVI1O", "BTT1O", "FSF1D", "PPL1O"}, s.Grid.Codes(9))
	assert.Equal(t, 0, s.Ledger.Remaining("Arts"))
	assert.Equal(t, 0, s.Ledger.Remaining("French"))
	assert.Equal(t, 0, s.Ledger.Remaining("3.0"))
	assertGridInvariants(t, s)
}

func TestFulfill_CollegeCannotTakeUniversityFrench(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "College", ""), testCatalog(t), DefaultQuotas())

	unmet := s.Fulfill()

	assert.Equal(t, []string{"1.0", "French"}, unmet)
	assert.False(t, s.Grid.Contains(9, "FSF1D"))
	assertGridInvariants(t, s)
}

func TestFulfill_NeverBelowZero(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", "AVI1O - Visual Arts, PPL1O - Healthy Active Living"), testCatalog(t), DefaultQuotas())

	s.Fulfill()
	s.Fulfill()

	for name, n := range s.Ledger.Snapshot() {
		assert.GreaterOrEqualf(t, n, 0, "%s went negative", name)
	}
	assertGridInvariants(t, s)
}
