package catalog

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/shared"
)

// yamlCatalog accepts either a bare list of courses or {courses: [...]}.
type yamlCatalog struct {
	Courses []course.Course `yaml:"courses"`
}

// ParseYAML reads catalog rows from YAML.
func ParseYAML(r io.Reader) ([]course.Course, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	var list []course.Course
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnknownCatalogShape, err)
	}
	return doc.Courses, nil
}
