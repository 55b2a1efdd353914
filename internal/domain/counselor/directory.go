// Package counselor maps a student's last name to their guidance counselor.
package counselor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coursepath/planner/internal/domain/shared"
)

// Counselor is a guidance counselor contact.
type Counselor struct {
	Name  string `json:"name" koanf:"name"`
	Email string `json:"email" koanf:"email"`
}

// Range assigns last names from From through To (inclusive, case-insensitive)
// to one counselor. To matches on prefix, so "Elgo" covers "Elgort".
// A name falls in the range with the greatest From not after it.
type Range struct {
	From      string    `json:"from" koanf:"from"`
	To        string    `json:"to" koanf:"to"`
	Counselor Counselor `json:"counselor" koanf:"counselor"`
}

// Label returns the range as "From-To".
func (r Range) Label() string {
	return r.From + "-" + r.To
}

func (r Range) startsBefore(name string) bool {
	return strings.ToLower(r.From) <= name
}

func (r Range) coversPrefix(name string) bool {
	to := strings.ToLower(r.To)
	if len(name) > len(to) {
		name = name[:len(to)]
	}
	return name <= to
}

// DefaultRanges returns the school's alphabetical split.
func DefaultRanges() []Range {
	return []Range{
		{From: "A", To: "Elgo", Counselor: Counselor{Name: "Mr. Bobby Howe", Email: "guidance.a-elgo@school.example"}},
		{From: "Elha", To: "Lin", Counselor: Counselor{Name: "Mr. Scheepers", Email: "guidance.elha-lin@school.example"}},
		{From: "Ling", To: "Shar", Counselor: Counselor{Name: "Ms. Walter", Email: "guidance.ling-shar@school.example"}},
		{From: "Shaw", To: "Z", Counselor: Counselor{Name: "Ms. Lisak", Email: "guidance.shaw-z@school.example"}},
	}
}

// Directory looks counselors up by last name.
type Directory struct {
	ranges []Range
}

// NewDirectory validates ranges and builds a Directory.
func NewDirectory(ranges []Range) (*Directory, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: no counselor ranges", shared.ErrConfiguration)
	}
	for _, r := range ranges {
		if strings.TrimSpace(r.From) == "" || strings.TrimSpace(r.To) == "" {
			return nil, fmt.Errorf("%w: empty bound in range %q", shared.ErrConfiguration, r.Label())
		}
		if strings.ToLower(r.From) > strings.ToLower(r.To) {
			return nil, fmt.Errorf("%w: range %q is reversed", shared.ErrConfiguration, r.Label())
		}
	}
	sorted := append([]Range(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].From) < strings.ToLower(sorted[j].From)
	})
	return &Directory{ranges: sorted}, nil
}

// DefaultDirectory returns a Directory over DefaultRanges.
func DefaultDirectory() *Directory {
	return &Directory{ranges: DefaultRanges()}
}

// Find returns the counselor responsible for lastName.
func (d *Directory) Find(lastName string) (Counselor, error) {
	lastName = strings.TrimSpace(lastName)
	if lastName == "" {
		return Counselor{}, fmt.Errorf("%w: last name is required", shared.ErrEmptyValue)
	}
	name := strings.ToLower(lastName)
	idx := -1
	for i, r := range d.ranges {
		if r.startsBefore(name) {
			idx = i
		}
	}
	if idx >= 0 && d.ranges[idx].coversPrefix(name) {
		return d.ranges[idx].Counselor, nil
	}
	return Counselor{}, fmt.Errorf("%w: %q", shared.ErrCounselorNotFound, lastName)
}
