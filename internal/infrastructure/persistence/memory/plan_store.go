// Package memory is an in-process plan.Repository for the "memory" storage
// backend and for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/coursepath/planner/internal/domain/plan"
	"github.com/coursepath/planner/internal/domain/shared"
)

type key struct {
	username string
	kind     plan.RecordKind
}

// PlanStore keeps records in a map. It is safe for concurrent use.
type PlanStore struct {
	mu      sync.RWMutex
	records map[key][]plan.Record

	// FailSave makes every Save return this error when set.
	FailSave error
}

// NewPlanStore creates an empty store.
func NewPlanStore() *PlanStore {
	return &PlanStore{records: make(map[key][]plan.Record)}
}

// Save implements plan.Repository.
func (s *PlanStore) Save(_ context.Context, username string, kind plan.RecordKind, records []plan.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSave != nil {
		return s.FailSave
	}
	cp := make([]plan.Record, len(records))
	copy(cp, records)
	plan.SortRecords(cp)
	s.records[key{username, kind}] = cp
	return nil
}

// Load implements plan.Repository.
func (s *PlanStore) Load(_ context.Context, username string, kind plan.RecordKind) ([]plan.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[key{username, kind}]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlanNotFound, username)
	}
	cp := make([]plan.Record, len(r))
	copy(cp, r)
	return cp, nil
}
