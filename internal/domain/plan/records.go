package plan

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/shared"
)

// RecordKind selects which rendering of a plan is stored.
type RecordKind string

const (
	// KindCodes stores course codes; this is the form plans are resumed from.
	KindCodes RecordKind = "code"
	// KindNames stores display names.
	KindNames RecordKind = "name"
)

// Valid reports whether k is a known kind.
func (k RecordKind) Valid() bool {
	return k == KindCodes || k == KindNames
}

// Separator joins the entries of one record.
const Separator = ", "

// Record is one grade of a persisted plan.
type Record struct {
	Grade   int    `json:"grade" db:"grade"`
	Courses string `json:"courses" db:"courses"`
}

// EncodeCodes renders the grid as one code record per grade, ascending.
// Empty slots are omitted.
func EncodeCodes(g *Grid) []Record {
	out := make([]Record, 0, len(course.Grades))
	for _, grade := range course.Grades {
		out = append(out, Record{Grade: grade, Courses: strings.Join(g.Codes(grade), Separator)})
	}
	return out
}

// EncodeNames renders the grid with catalog display names. Codes the
// catalog does not know (including the Unfillable marker) are kept as is.
func EncodeNames(g *Grid, catalog *course.Catalog) []Record {
	out := make([]Record, 0, len(course.Grades))
	for _, grade := range course.Grades {
		codes := g.Codes(grade)
		names := make([]string, 0, len(codes))
		for _, code := range codes {
			if name := catalog.Name(code); name != "" {
				names = append(names, name)
			} else {
				names = append(names, code)
			}
		}
		out = append(out, Record{Grade: grade, Courses: strings.Join(names, Separator)})
	}
	return out
}

// DecodeCodes rebuilds a grid from code records, filling slots left to right.
// Entries past the row capacity are ignored.
func DecodeCodes(records []Record) (*Grid, error) {
	g := NewGrid()
	for _, r := range records {
		if !course.ValidGrade(r.Grade) {
			return nil, fmt.Errorf("%w: grade %d", shared.ErrInvalidRecord, r.Grade)
		}
		idx := 0
		for _, code := range strings.Split(r.Courses, ",") {
			code = strings.TrimSpace(code)
			if code == "" || strings.EqualFold(code, "null") {
				continue
			}
			if idx >= SlotsPerGrade {
				break
			}
			g.fill(r.Grade, idx, code)
			idx++
		}
	}
	return g, nil
}

// SplitNames splits a name record. Catalog names may themselves contain
// the separator, so pieces are re-joined whenever the combination is a known
// course name.
func SplitNames(courses string, known func(name string) bool) []string {
	if strings.TrimSpace(courses) == "" {
		return nil
	}
	parts := strings.Split(courses, Separator)
	var out []string
	for i := 0; i < len(parts); i++ {
		name := parts[i]
		// greedily extend while a longer join is still a known name
		for j := len(parts) - 1; j > i; j-- {
			joined := strings.Join(parts[i:j+1], Separator)
			if known != nil && known(joined) {
				name = joined
				i = j
				break
			}
		}
		out = append(out, strings.TrimSpace(name))
	}
	return out
}

// SortRecords orders records by ascending grade in place.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].Grade < records[j].Grade })
}

// Repository persists plan records.
type Repository interface {
	// Save replaces the stored records of kind for username.
	Save(ctx context.Context, username string, kind RecordKind, records []Record) error
	// Load returns the stored records ordered by grade, or ErrPlanNotFound.
	Load(ctx context.Context, username string, kind RecordKind) ([]Record, error)
}
