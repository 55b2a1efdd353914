package plan

import (
	"github.com/coursepath/planner/internal/domain/course"
)

// Templates returns the mandatory courses seeded into a fresh grid for track.
// Any track other than University receives the College template.
func Templates(track course.Track) map[int][]string {
	t := map[int][]string{
		9:  {"ENL1W", "MTH1W", "SNC1W", "CGC1W"},
		10: {"ENG2D", "MPM2D", "SNC2D", "CHC2D", "CHV2O"},
	}
	if track.Equal(course.TrackUniversity) {
		t[11] = []string{"NBE3U", "MCR3U"}
		t[12] = []string{"ENG4U", "MHF4U", "MCV4U"}
	} else {
		t[11] = []string{"NBE3C", "MBF3C"}
		t[12] = []string{"ENG4C"}
	}
	return t
}

// Report collects the non-fatal outcomes of an assembly.
type Report struct {
	// UnmetCategories lists categories the fulfiller could not satisfy.
	UnmetCategories []string `json:"unmet_categories"`
	// Dropped lists codes rejected because their grade row was full.
	Dropped []string `json:"dropped,omitempty"`
	// Unfillable counts slots that received the Unfillable marker.
	Unfillable int `json:"unfillable"`
	// InterestMatches counts slots filled from interest candidates.
	InterestMatches int `json:"interest_matches"`
	// RandomPicks counts slots filled by random selection.
	RandomPicks int `json:"random_picks"`
	// RemainingCredits is the ledger state once every pass has run.
	RemainingCredits map[string]int `json:"remaining_credits"`
}

// Session is the mutable state of one assembly: one student, one ledger,
// one grid. It is never shared between students and is not safe for
// concurrent use.
type Session struct {
	ID      string
	Profile Profile
	Catalog *course.Catalog
	Ledger  *Ledger
	Grid    *Grid
	Report  Report

	// interest text → fetched candidate codes
	interests map[string][]string
}

// NewSession seeds a grid with the track template, then backfills every
// known previous course into its native grade row. Each newly placed
// previous course consumes one credit.
func NewSession(id string, profile Profile, catalog *course.Catalog, quotas map[string]int) *Session {
	s := &Session{
		ID:        id,
		Profile:   profile,
		Catalog:   catalog,
		Ledger:    NewLedger(quotas),
		Grid:      NewGrid(),
		interests: make(map[string][]string),
	}

	for grade, codes := range Templates(profile.Track) {
		for _, code := range codes {
			s.Grid.Place(grade, code)
		}
	}

	for _, code := range profile.PreviousCodes {
		c, ok := catalog.Get(code)
		if !ok {
			continue
		}
		s.place(c)
	}

	return s
}

// place inserts c into its grade row and charges the ledger only when the
// course was newly written.
func (s *Session) place(c course.Course) PlaceResult {
	res := s.Grid.Place(c.Grade, c.Code)
	switch res {
	case Placed:
		s.Ledger.Consume(c)
	case RowFull:
		s.Report.Dropped = append(s.Report.Dropped, c.Code)
	}
	return res
}

// CacheInterests records fetched candidates for interest text.
func (s *Session) CacheInterests(text string, codes []string) {
	s.interests[text] = codes
}

// CachedInterests returns previously fetched candidates for text.
func (s *Session) CachedInterests(text string) ([]string, bool) {
	codes, ok := s.interests[text]
	return codes, ok
}

// Finish snapshots the ledger into the report and returns it.
func (s *Session) Finish() Report {
	s.Report.RemainingCredits = s.Ledger.Snapshot()
	if s.Report.UnmetCategories == nil {
		s.Report.UnmetCategories = []string{}
	}
	return s.Report
}
