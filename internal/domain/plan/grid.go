package plan

import (
	"strings"

	"github.com/coursepath/planner/internal/domain/course"
)

// SlotsPerGrade is the fixed capacity of one grade row.
const SlotsPerGrade = 8

// Unfillable is written into a slot the gap filler could not fill.
const Unfillable = "E404"

// Row is one grade's ordered slots; "" marks an empty slot.
type Row [SlotsPerGrade]string

// PlaceResult describes the outcome of Grid.Place.
type PlaceResult int

const (
	// Placed means the code was written to the first empty slot.
	Placed PlaceResult = iota
	// AlreadyPresent means the row already held the code; nothing changed.
	AlreadyPresent
	// RowFull means the row had no empty slot; the code was dropped.
	RowFull
	// UnknownGrade means the grade is outside 9-12.
	UnknownGrade
)

// String returns the string representation of the result.
func (r PlaceResult) String() string {
	switch r {
	case Placed:
		return "placed"
	case AlreadyPresent:
		return "already_present"
	case RowFull:
		return "row_full"
	case UnknownGrade:
		return "unknown_grade"
	default:
		return "unknown"
	}
}

// Grid maps grade 9-12 to a fixed-capacity row of course codes.
// A course code appears at most once per row; the Unfillable marker is exempt.
type Grid struct {
	rows map[int]*Row
}

// NewGrid returns an empty grid with one row per grade.
func NewGrid() *Grid {
	g := &Grid{rows: make(map[int]*Row, len(course.Grades))}
	for _, grade := range course.Grades {
		g.rows[grade] = &Row{}
	}
	return g
}

// Row returns a copy of the row for grade.
func (g *Grid) Row(grade int) (Row, bool) {
	r, ok := g.rows[grade]
	if !ok {
		return Row{}, false
	}
	return *r, true
}

// Contains reports whether code already occupies a slot in grade's row.
func (g *Grid) Contains(grade int, code string) bool {
	r, ok := g.rows[grade]
	if !ok {
		return false
	}
	for _, c := range r {
		if c != "" && strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// Place writes code into the first empty slot of grade's row.
// Duplicates are ignored and a full row silently drops the code.
func (g *Grid) Place(grade int, code string) PlaceResult {
	r, ok := g.rows[grade]
	if !ok {
		return UnknownGrade
	}
	if g.Contains(grade, code) {
		return AlreadyPresent
	}
	for i := range r {
		if r[i] == "" {
			r[i] = code
			return Placed
		}
	}
	return RowFull
}

// fill writes code into slot idx regardless of duplicates; used for the
// Unfillable marker and slot-by-slot gap filling.
func (g *Grid) fill(grade, idx int, code string) {
	if r, ok := g.rows[grade]; ok && idx >= 0 && idx < SlotsPerGrade {
		r[idx] = code
	}
}

// OpenSlots returns the number of empty slots in grade's row.
func (g *Grid) OpenSlots(grade int) int {
	r, ok := g.rows[grade]
	if !ok {
		return 0
	}
	n := 0
	for _, c := range r {
		if c == "" {
			n++
		}
	}
	return n
}

// HasOpenSlot reports whether any row still has an empty slot.
func (g *Grid) HasOpenSlot() bool {
	_, ok := g.LowestOpenGrade()
	return ok
}

// LowestOpenGrade returns the lowest grade whose row has an empty slot.
func (g *Grid) LowestOpenGrade() (int, bool) {
	for _, grade := range course.Grades {
		if g.OpenSlots(grade) > 0 {
			return grade, true
		}
	}
	return 0, false
}

// Codes returns the non-empty slots of grade's row in slot order.
func (g *Grid) Codes(grade int) []string {
	r, ok := g.rows[grade]
	if !ok {
		return nil
	}
	var out []string
	for _, c := range r {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Replace swaps old for replacement in grade's row. It returns false when old
// is not in the row or replacement already is.
func (g *Grid) Replace(grade int, old, replacement string) bool {
	r, ok := g.rows[grade]
	if !ok || g.Contains(grade, replacement) {
		return false
	}
	for i, c := range r {
		if strings.EqualFold(c, old) {
			r[i] = replacement
			return true
		}
	}
	return false
}

// Map returns grade → non-empty codes, for display and comparisons.
func (g *Grid) Map() map[int][]string {
	out := make(map[int][]string, len(g.rows))
	for _, grade := range course.Grades {
		out[grade] = g.Codes(grade)
	}
	return out
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{rows: make(map[int]*Row, len(g.rows))}
	for grade, r := range g.rows {
		cp := *r
		c.rows[grade] = &cp
	}
	return c
}
