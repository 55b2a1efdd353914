package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coursepath/planner/internal/domain/plan"
	"github.com/coursepath/planner/internal/domain/shared"
	"github.com/coursepath/planner/internal/infrastructure/metrics"
	"github.com/coursepath/planner/pkg/circuitbreaker"
	"github.com/coursepath/planner/pkg/retry"
)

const backend = "postgres"

// PlanRepository implements plan.Repository for PostgreSQL. Calls fail fast
// with circuitbreaker.ErrCircuitOpen while the database keeps failing.
type PlanRepository struct {
	conn    *Connection
	retrier *retry.Retrier
	breaker *circuitbreaker.Breaker
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(conn *Connection) *PlanRepository {
	return &PlanRepository{
		conn:    conn,
		retrier: retry.StoreRetrier(),
		breaker: circuitbreaker.New(circuitbreaker.PlanStore.OnChange(func(name string, _, to circuitbreaker.State) {
			metrics.SetBreakerState(name, int(to))
		})),
	}
}

// Save replaces every stored row of kind for username in one transaction.
func (r *PlanRepository) Save(ctx context.Context, username string, kind plan.RecordKind, records []plan.Record) error {
	err := r.retrier.Do(ctx, func(ctx context.Context) error {
		err := r.breaker.Execute(ctx, func(ctx context.Context) error {
			return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
				if _, err := tx.Exec(ctx,
					`DELETE FROM plans WHERE username = $1 AND kind = $2`,
					username, string(kind),
				); err != nil {
					return fmt.Errorf("failed to clear plan: %w", err)
				}

				batch := &pgx.Batch{}
				for _, rec := range records {
					batch.Queue(`
						INSERT INTO plans (username, kind, grade, courses, updated_at)
						VALUES ($1, $2, $3, $4, NOW())
						ON CONFLICT (username, kind, grade)
						DO UPDATE SET courses = EXCLUDED.courses, updated_at = NOW()
					`, username, string(kind), rec.Grade, rec.Courses)
				}
				return tx.SendBatch(ctx, batch).Close()
			})
		})
		if err != nil && IsTransient(err) {
			return retry.Retryable(err)
		}
		return err
	})
	metrics.RecordStoreOperation(backend, "save", err)
	if err != nil {
		return fmt.Errorf("failed to save plan for %s: %w", username, err)
	}
	return nil
}

// Load returns the stored rows ordered by grade.
func (r *PlanRepository) Load(ctx context.Context, username string, kind plan.RecordKind) ([]plan.Record, error) {
	var records []plan.Record
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		rows, err := r.conn.Query(ctx, `
			SELECT grade, courses
			FROM plans
			WHERE username = $1 AND kind = $2
			ORDER BY grade
		`, username, string(kind))
		if err != nil {
			return fmt.Errorf("failed to query plan: %w", err)
		}
		records, err = pgx.CollectRows(rows, pgx.RowToStructByName[plan.Record])
		if err != nil {
			return fmt.Errorf("failed to scan plan: %w", err)
		}
		return nil
	})
	metrics.RecordStoreOperation(backend, "load", err)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlanNotFound, username)
	}
	return records, nil
}

// Usernames lists every student with a stored plan of kind.
func (r *PlanRepository) Usernames(ctx context.Context, kind plan.RecordKind) ([]string, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT DISTINCT username FROM plans WHERE kind = $1 ORDER BY username`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query usernames: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
