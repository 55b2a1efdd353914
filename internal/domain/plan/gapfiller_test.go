package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepath/planner/internal/domain/course"
)

func TestIsTakeDefault(t *testing.T) {
	for _, s := range []string{"pick", "PICK", " yes ", "Y"} {
		assert.Truef(t, IsTakeDefault(s), "%q", s)
	}
	for _, s := range []string{"music", "", "no", "picking"} {
		assert.Falsef(t, IsTakeDefault(s), "%q", s)
	}
}

func TestGapFiller_PickNeverFetches(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())
	fetcher := &fakeFetcher{}

	err := NewGapFiller(fetcher, StaticAnswer("pick"), WithRand(seededRand())).Fill(context.Background(), s)
	require.NoError(t, err)

	assert.Empty(t, fetcher.calls)
	assert.False(t, s.Grid.HasOpenSlot())
	assert.Equal(t, 0, s.Report.InterestMatches)
	assert.Equal(t, 10, s.Report.RandomPicks)
	assert.Equal(t, 8, s.Report.Unfillable)
	assert.ElementsMatch(t, []string{"ENL1W", "MTH1W", "SNC1W", "CGC1W", "AVI1O", "PPL1O", "FSF1D", "BTT1O"}, s.Grid.Codes(9))
	assertGridInvariants(t, s)
}

func TestGapFiller_RandomSkipsTakenAndRowAreas(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", "AMU2O - Music"), testCatalog(t), DefaultQuotas())

	require.NoError(t, NewGapFiller(nil, nil, WithRand(seededRand())).Fill(context.Background(), s))

	assert.Equal(t, 1, countCode(s, "AMU2O"))
	assertGridInvariants(t, s)

	// grade 10 already holds Arts through the backfill, so only ICS2O can be
	// drawn and the last slot stays unfillable
	row, _ := s.Grid.Row(10)
	assert.Equal(t, "ICS2O", row[6])
	assert.Equal(t, Unfillable, row[7])
}

func TestGapFiller_InterestsFirst(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())
	fetcher := &fakeFetcher{results: map[string][]string{
		"music": {"AMU4M", "ZZZ9Z", "AMU2O", "AMU3M"},
	}}

	err := NewGapFiller(fetcher, StaticAnswer("music"), WithRand(seededRand())).Fill(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, []string{"music"}, fetcher.calls)
	assert.Equal(t, 3, s.Report.InterestMatches)

	row10, _ := s.Grid.Row(10)
	assert.Equal(t, "AMU2O", row10[5], "first open slot takes the interest match")
	row11, _ := s.Grid.Row(11)
	assert.Equal(t, "AMU3M", row11[2])
	row12, _ := s.Grid.Row(12)
	assert.Equal(t, "AMU4M", row12[3])
	assertGridInvariants(t, s)
}

func TestGapFiller_RepromptsOnEmptyResult(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())
	fetcher := &fakeFetcher{results: map[string][]string{"music": {"AMU2O"}}}
	prompter := &scriptedPrompter{answers: []string{"cooking", "music"}}

	require.NoError(t, NewGapFiller(fetcher, prompter, WithRand(seededRand())).Fill(context.Background(), s))

	assert.Equal(t, []string{"cooking", "music"}, fetcher.calls)
	assert.Equal(t, []string{PromptMessage, RepromptMessage}, prompter.messages)
	assert.True(t, s.Grid.Contains(10, "AMU2O"))
	assert.Equal(t, 1, s.Report.InterestMatches)
}

func TestGapFiller_RepromptBoundAndCache(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())
	fetcher := &fakeFetcher{}
	prompter := &scriptedPrompter{answers: []string{"cooking"}}

	gf := NewGapFiller(fetcher, prompter, WithRand(seededRand()), WithMaxReprompts(2))
	require.NoError(t, gf.Fill(context.Background(), s))

	assert.Len(t, prompter.messages, 3)
	assert.Equal(t, []string{"cooking"}, fetcher.calls, "same interests are fetched once per session")
	assert.False(t, s.Grid.HasOpenSlot())
	assert.Equal(t, 0, s.Report.InterestMatches)
}

func TestGapFiller_FullGridSkipsPrompt(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())
	require.NoError(t, NewGapFiller(nil, nil, WithRand(seededRand())).Fill(context.Background(), s))

	prompter := &scriptedPrompter{}
	require.NoError(t, NewGapFiller(nil, prompter).Fill(context.Background(), s))
	assert.Empty(t, prompter.messages)
}

func TestGapFiller_PromptError(t *testing.T) {
	s := NewSession("s1", testProfile(t, 9, "University", ""), testCatalog(t), DefaultQuotas())
	boom := errors.New("stdin closed")

	err := NewGapFiller(nil, PromptFunc(func(context.Context, string) (string, error) {
		return "", boom
	})).Fill(context.Background(), s)

	assert.ErrorIs(t, err, boom)
}

func TestGapFiller_SeededRandIsReproducible(t *testing.T) {
	cat := testCatalog(t)
	run := func() map[int][]string {
		s := NewSession("s", testProfile(t, 9, "College", ""), cat, DefaultQuotas())
		require.NoError(t, NewGapFiller(nil, nil, WithRand(seededRand())).Fill(context.Background(), s))
		return s.Grid.Map()
	}
	assert.Equal(t, run(), run())
}

func TestAssemblyPipeline(t *testing.T) {
	cat := testCatalog(t)
	s := NewSession("s1", testProfile(t, 10, "University", "AVI1O - Visual Arts"), cat, DefaultQuotas())

	require.NoError(t, s.ResolveAll([]string{"ICS4U", "AMU4M", "NOPE"}))
	s.Fulfill()
	require.NoError(t, NewGapFiller(nil, nil, WithRand(seededRand())).Fill(context.Background(), s))
	report := s.Finish()

	assertGridInvariants(t, s)
	assert.False(t, s.Grid.HasOpenSlot())
	assert.NotNil(t, report.UnmetCategories)
	for _, grade := range course.Grades {
		row, _ := s.Grid.Row(grade)
		assert.Len(t, row, SlotsPerGrade)
	}
}
