package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coursepath/planner/internal/domain/course"
)

// CatalogRepository stores the course catalog. It implements course.Source.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// LoadCourses implements course.Source.
func (r *CatalogRepository) LoadCourses(ctx context.Context) ([]course.Course, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT code, name, area, prerequisite, grade, track, requirement
		FROM courses
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}

	courses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (course.Course, error) {
		var c course.Course
		var track string
		err := row.Scan(&c.Code, &c.Name, &c.Area, &c.Prerequisite, &c.Grade, &track, &c.Requirement)
		c.Track = course.Track(track)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan courses: %w", err)
	}
	return courses, nil
}

// Import upserts every course of cat. Rows not in cat are left alone.
func (r *CatalogRepository) Import(ctx context.Context, cat *course.Catalog) (int, error) {
	courses := cat.Courses()
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range courses {
			batch.Queue(`
				INSERT INTO courses (code, name, area, prerequisite, grade, track, requirement, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
				ON CONFLICT (code) DO UPDATE SET
					name = EXCLUDED.name,
					area = EXCLUDED.area,
					prerequisite = EXCLUDED.prerequisite,
					grade = EXCLUDED.grade,
					track = EXCLUDED.track,
					requirement = EXCLUDED.requirement,
					updated_at = NOW()
			`, c.Code, c.Name, c.Area, c.Prerequisite, c.Grade, c.Track.String(), c.Requirement)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import catalog: %w", err)
	}
	return len(courses), nil
}
