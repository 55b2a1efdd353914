// Package filestore keeps plan records as JSON files, one file per student
// and record kind.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/coursepath/planner/internal/domain/plan"
	"github.com/coursepath/planner/internal/domain/shared"
	"github.com/coursepath/planner/internal/infrastructure/metrics"
	"github.com/coursepath/planner/pkg/retry"
)

const backend = "file"

// PlanStore implements plan.Repository on the local filesystem.
type PlanStore struct {
	dir     string
	retrier *retry.Retrier
}

// NewPlanStore creates the directory if needed.
func NewPlanStore(dir string) (*PlanStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plan dir: %w", err)
	}
	return &PlanStore{dir: dir, retrier: retry.StoreRetrier()}, nil
}

// Path returns the file holding records of kind for username.
func (s *PlanStore) Path(username string, kind plan.RecordKind) string {
	return filepath.Join(s.dir, fmt.Sprintf("recommended_course_%s_%s.json", kind, sanitize(username)))
}

// Save writes records atomically through a temp file.
func (s *PlanStore) Save(ctx context.Context, username string, kind plan.RecordKind, records []plan.Record) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: kind %q", shared.ErrInvalidInput, kind)
	}

	sorted := make([]plan.Record, len(records))
	copy(sorted, records)
	plan.SortRecords(sorted)

	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	path := s.Path(username, kind)
	err = s.retrier.Do(ctx, func(context.Context) error {
		return writeAtomic(path, data)
	})
	metrics.RecordStoreOperation(backend, "save", err)
	if err != nil {
		return fmt.Errorf("save plan %s: %w", path, err)
	}
	return nil
}

// Load reads the records of kind for username.
func (s *PlanStore) Load(ctx context.Context, username string, kind plan.RecordKind) ([]plan.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(username, kind)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		metrics.RecordStoreOperation(backend, "load", nil)
		return nil, fmt.Errorf("%w: %s", shared.ErrPlanNotFound, username)
	}
	if err != nil {
		metrics.RecordStoreOperation(backend, "load", err)
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var records []plan.Record
	if err := json.Unmarshal(data, &records); err != nil {
		metrics.RecordStoreOperation(backend, "load", err)
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrInvalidRecord, path, err)
	}
	metrics.RecordStoreOperation(backend, "load", nil)

	plan.SortRecords(records)
	return records, nil
}

// writeAtomic writes data to a uniquely named temp file beside path and
// renames it into place, so concurrent saves never share a temp file.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return retry.Retryable(fmt.Errorf("create temp file: %w", err))
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return retry.Retryable(fmt.Errorf("write temp file: %w", err))
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return retry.Retryable(fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return retry.Retryable(fmt.Errorf("rename temp file: %w", err))
	}
	return nil
}

// sanitize keeps usernames from escaping the plan directory.
func sanitize(username string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(username))
}
