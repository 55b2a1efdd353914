package course

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coursepath/planner/internal/domain/shared"
)

// Catalog is an immutable code → Course lookup. It is built once and then
// shared read-only between any number of concurrent plan sessions.
type Catalog struct {
	byCode map[string]Course
	codes  []string // sorted, for deterministic scans
}

// NewCatalog validates the rows and builds a catalog.
// Codes are upper-cased; duplicate codes, out-of-range grades and unknown
// tracks are rejected. Prerequisite cycles are checked separately by Validate.
func NewCatalog(rows []Course) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, shared.ErrEmptyCatalog
	}

	cat := &Catalog{
		byCode: make(map[string]Course, len(rows)),
		codes:  make([]string, 0, len(rows)),
	}

	var errs []error
	for _, r := range rows {
		c := r.normalize()
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := cat.byCode[c.Code]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", shared.ErrDuplicateCourse, c.Code))
			continue
		}
		cat.byCode[c.Code] = c
		cat.codes = append(cat.codes, c.Code)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Strings(cat.codes)
	return cat, nil
}

// Validate checks catalog-wide invariants. A prerequisite cycle is a
// configuration error and is reported with every cycle spelled out.
func (c *Catalog) Validate() error {
	if cycles := c.FindCycles(); len(cycles) > 0 {
		return fmt.Errorf("%w: %s", shared.ErrPrerequisiteCycle, formatCycles(cycles))
	}
	return nil
}

// Get returns the course for code. Lookup is case-insensitive.
func (c *Catalog) Get(code string) (Course, bool) {
	course, ok := c.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return course, ok
}

// Len returns the number of courses.
func (c *Catalog) Len() int {
	return len(c.codes)
}

// Courses returns every course ordered by code.
func (c *Catalog) Courses() []Course {
	out := make([]Course, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, c.byCode[code])
	}
	return out
}

// Filter returns courses ordered by code for which keep returns true.
func (c *Catalog) Filter(keep func(Course) bool) []Course {
	var out []Course
	for _, code := range c.codes {
		if course := c.byCode[code]; keep(course) {
			out = append(out, course)
		}
	}
	return out
}

// Name returns the display name for code, or "" when unknown.
func (c *Catalog) Name(code string) string {
	if course, ok := c.Get(code); ok {
		return course.Name
	}
	return ""
}

// FindCycles walks every prerequisite chain and returns each cycle found,
// as the ordered codes that form it. A well-formed catalog returns nil.
func (c *Catalog) FindCycles() [][]string {
	const (
		unvisited = iota
		inProgress
		done
	)

	state := make(map[string]int, len(c.codes))
	seen := make(map[string]bool)
	var cycles [][]string

	for _, start := range c.codes {
		if state[start] != unvisited {
			continue
		}

		var path []string
		code := start
		for {
			course, ok := c.byCode[code]
			if !ok || state[code] == done {
				break
			}
			if state[code] == inProgress {
				idx := indexOf(path, code)
				cycle := append([]string(nil), path[idx:]...)
				key := canonicalCycleKey(cycle)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
				break
			}
			state[code] = inProgress
			path = append(path, code)
			if !course.HasPrerequisite() {
				break
			}
			code = course.Prerequisite
		}

		for _, p := range path {
			state[p] = done
		}
	}

	return cycles
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

func canonicalCycleKey(cycle []string) string {
	sorted := append([]string(nil), cycle...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func formatCycles(cycles [][]string) string {
	parts := make([]string, 0, len(cycles))
	for _, cyc := range cycles {
		loop := append(append([]string(nil), cyc...), cyc[0])
		parts = append(parts, strings.Join(loop, " -> "))
	}
	return strings.Join(parts, "; ")
}
