// Package plan is the recommendation engine: it owns the per-student session
// (credit ledger and recommendation grid) and the placement passes that fill it.
// Like the course package, it depends only on the standard library and other
// domain packages.
package plan

import (
	"fmt"
	"strings"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/shared"
)

// Profile is the immutable input of one assembly run.
type Profile struct {
	Username string
	Grade    int
	Track    course.Track

	// PreviousCodes are the course codes the student has already completed,
	// upper-cased and in input order.
	PreviousCodes []string

	// Interests is free text forwarded to the interest service.
	Interests string
}

// ProfileParams is the raw form of a profile as entered by the student.
type ProfileParams struct {
	Username string
	Grade    int
	Track    string

	// PreviousCourses is a comma separated list of "CODE - Name" entries.
	PreviousCourses string

	Interests string
}

// NewProfile validates params and builds a Profile.
func NewProfile(p ProfileParams) (Profile, error) {
	username := strings.TrimSpace(p.Username)
	if username == "" {
		return Profile{}, fmt.Errorf("%w: username is required", shared.ErrInvalidProfile)
	}
	if !course.ValidGrade(p.Grade) {
		return Profile{}, fmt.Errorf("%w: grade %d", shared.ErrInvalidProfile, p.Grade)
	}
	track, err := course.ParseTrack(p.Track)
	if err != nil || track.IsOpen() {
		return Profile{}, fmt.Errorf("%w: track %q", shared.ErrInvalidProfile, p.Track)
	}

	return Profile{
		Username:      username,
		Grade:         p.Grade,
		Track:         track,
		PreviousCodes: ParsePreviousCourses(p.PreviousCourses),
		Interests:     strings.TrimSpace(p.Interests),
	}, nil
}

// ParsePreviousCourses extracts course codes from "CODE - Name, CODE - Name".
// The code is the text before " - "; blanks are skipped and duplicates collapsed.
func ParsePreviousCourses(raw string) []string {
	var codes []string
	seen := make(map[string]bool)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		code, _, _ := strings.Cut(entry, " - ")
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

// HasTaken reports whether code is among the previously completed courses.
func (p Profile) HasTaken(code string) bool {
	for _, c := range p.PreviousCodes {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// Eligible applies the grade and track gate used by the prerequisite resolver.
// Open courses only require that the student has not passed their grade;
// track-specific courses additionally require a matching track.
func (p Profile) Eligible(c course.Course) bool {
	if p.Grade > c.Grade {
		return false
	}
	if c.Track.IsOpen() {
		return true
	}
	return c.Track.Equal(p.Track)
}
