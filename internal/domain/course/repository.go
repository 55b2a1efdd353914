package course

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// SOURCE INTERFACES
// Implementations live in infrastructure (files, postgres).
// ══════════════════════════════════════════════════════════════════════════════

// Source loads raw catalog rows.
type Source interface {
	// LoadCourses returns every catalog row. Rows are validated by NewCatalog.
	LoadCourses(ctx context.Context) ([]Course, error)
}

// Load reads rows from src and builds a validated Catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	rows, err := src.LoadCourses(ctx)
	if err != nil {
		return nil, err
	}
	cat, err := NewCatalog(rows)
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// StaticSource serves an in-memory slice; handy for tests and embedded catalogs.
type StaticSource []Course

// LoadCourses implements Source.
func (s StaticSource) LoadCourses(context.Context) ([]Course, error) {
	out := make([]Course, len(s))
	copy(out, s)
	return out, nil
}
