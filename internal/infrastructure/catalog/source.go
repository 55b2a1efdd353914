// Package catalog loads course catalog rows from files. CSV and YAML are
// supported; a built-in catalog is embedded for local runs.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/shared"
)

//go:embed data/courses.yaml
var embedded []byte

// FileSource reads a catalog file. The format follows the extension.
type FileSource struct {
	Path string
}

// LoadCourses implements course.Source.
func (s FileSource) LoadCourses(ctx context.Context) ([]course.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".csv":
		return ParseCSV(f)
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownCatalogShape, s.Path)
	}
}

// EmbeddedSource serves the built-in catalog.
type EmbeddedSource struct{}

// LoadCourses implements course.Source.
func (EmbeddedSource) LoadCourses(context.Context) ([]course.Course, error) {
	return ParseYAML(bytes.NewReader(embedded))
}

// NewSource picks a source for path; an empty path means the built-in catalog.
func NewSource(path string) course.Source {
	if strings.TrimSpace(path) == "" {
		return EmbeddedSource{}
	}
	return FileSource{Path: path}
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return data, nil
}
