// Package course contains the course catalog domain model.
// This is the read-only half of the planner core - no external dependencies here.
package course

import (
	"fmt"
	"strings"

	"github.com/coursepath/planner/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// NoPrerequisite is the sentinel stored in Course.Prerequisite when a course
// has no direct prerequisite.
const NoPrerequisite = "none"

// Grade levels covered by a plan.
const (
	MinGrade = 9
	MaxGrade = 12
)

// Grades lists every plannable grade in ascending order.
var Grades = []int{9, 10, 11, 12}

// ValidGrade reports whether g is a plannable grade level.
func ValidGrade(g int) bool {
	return g >= MinGrade && g <= MaxGrade
}

// Track is an enrollment pathway.
type Track string

const (
	// TrackOpen courses are available to every student.
	TrackOpen Track = "Open"
	// TrackUniversity is the university-bound pathway.
	TrackUniversity Track = "University"
	// TrackCollege is the college-bound pathway.
	TrackCollege Track = "College"
)

// ParseTrack normalizes a track name case-insensitively.
func ParseTrack(s string) (Track, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return TrackOpen, nil
	case "university":
		return TrackUniversity, nil
	case "college":
		return TrackCollege, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidTrack, s)
	}
}

// Equal compares two tracks case-insensitively.
func (t Track) Equal(other Track) bool {
	return strings.EqualFold(string(t), string(other))
}

// IsOpen reports whether the track is the Open pathway.
func (t Track) IsOpen() bool {
	return t.Equal(TrackOpen)
}

// String returns the track name.
func (t Track) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: COURSE
// ══════════════════════════════════════════════════════════════════════════════

// Course is one catalog row. Values are never modified after the catalog is built.
type Course struct {
	Code         string `json:"code" yaml:"code"`
	Name         string `json:"name" yaml:"name"`
	Area         string `json:"area" yaml:"area"`
	Prerequisite string `json:"prerequisite" yaml:"prerequisite"`
	Grade        int    `json:"grade" yaml:"grade"`
	Track        Track  `json:"track" yaml:"track"`
	Requirement  string `json:"requirement" yaml:"requirement"`
}

// HasPrerequisite reports whether the course points at a prerequisite code.
func (c Course) HasPrerequisite() bool {
	p := strings.TrimSpace(c.Prerequisite)
	return p != "" && !strings.EqualFold(p, NoPrerequisite)
}

// MatchesCategory reports whether the course's area or requirement equals
// the category, ignoring case.
func (c Course) MatchesCategory(category string) bool {
	return strings.EqualFold(c.Area, category) || strings.EqualFold(c.Requirement, category)
}

// AvailableTo reports whether a student on the given track may take the course.
func (c Course) AvailableTo(track Track) bool {
	return c.Track.IsOpen() || c.Track.Equal(track)
}

// Validate checks field-level invariants of a single course.
func (c Course) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: empty code", shared.ErrInvalidCourse)
	}
	if !ValidGrade(c.Grade) {
		return fmt.Errorf("%w: %s has grade %d", shared.ErrGradeOutOfRange, c.Code, c.Grade)
	}
	if _, err := ParseTrack(string(c.Track)); err != nil {
		return fmt.Errorf("%s: %w", c.Code, err)
	}
	return nil
}

// normalize trims whitespace and canonicalizes the track and prerequisite sentinel.
func (c Course) normalize() Course {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	c.Name = strings.TrimSpace(c.Name)
	c.Area = strings.TrimSpace(c.Area)
	c.Requirement = strings.TrimSpace(c.Requirement)
	c.Prerequisite = strings.TrimSpace(c.Prerequisite)
	if c.Prerequisite == "" || strings.EqualFold(c.Prerequisite, NoPrerequisite) {
		c.Prerequisite = NoPrerequisite
	} else {
		c.Prerequisite = strings.ToUpper(c.Prerequisite)
	}
	if t, err := ParseTrack(string(c.Track)); err == nil {
		c.Track = t
	}
	return c
}
