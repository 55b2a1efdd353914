package plan

import (
	"sort"
	"strings"

	"github.com/coursepath/planner/internal/domain/course"
)

// DefaultQuotas returns the graduation-credit quotas the planner enforces
// out of the box. "1.0", "2.0" and "3.0" are the compulsory credit groups.
func DefaultQuotas() map[string]int {
	return map[string]int{
		"Arts":                        1,
		"Health & Physical Education": 1,
		"French":                      1,
		"1.0":                         1,
		"2.0":                         1,
		"3.0":                         1,
	}
}

// Ledger tracks remaining graduation credits per category.
// Remaining counts never go below zero. Category lookup ignores case.
type Ledger struct {
	remaining map[string]int
	names     map[string]string // lower-case key → display name
}

// NewLedger builds a ledger from quotas. Negative quotas are clamped to zero.
func NewLedger(quotas map[string]int) *Ledger {
	l := &Ledger{
		remaining: make(map[string]int, len(quotas)),
		names:     make(map[string]string, len(quotas)),
	}
	for name, n := range quotas {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if n < 0 {
			n = 0
		}
		l.remaining[key] = n
		l.names[key] = strings.TrimSpace(name)
	}
	return l
}

// Remaining returns the credits still owed for category (0 for unknown categories).
func (l *Ledger) Remaining(category string) int {
	return l.remaining[strings.ToLower(strings.TrimSpace(category))]
}

// Has reports whether category is tracked.
func (l *Ledger) Has(category string) bool {
	_, ok := l.remaining[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

// Consume takes one credit for c: from its area when that category still
// has credit, otherwise from its requirement category. It returns the
// category charged, or false when neither had credit left.
func (l *Ledger) Consume(c course.Course) (string, bool) {
	for _, category := range []string{c.Area, c.Requirement} {
		key := strings.ToLower(strings.TrimSpace(category))
		if l.remaining[key] > 0 {
			l.remaining[key]--
			return l.names[key], true
		}
	}
	return "", false
}

// Outstanding returns categories with credit still owed, sorted by name.
func (l *Ledger) Outstanding() []string {
	var out []string
	for key, n := range l.remaining {
		if n > 0 {
			out = append(out, l.names[key])
		}
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of the ledger keyed by display name.
func (l *Ledger) Snapshot() map[string]int {
	out := make(map[string]int, len(l.remaining))
	for key, n := range l.remaining {
		out[l.names[key]] = n
	}
	return out
}
