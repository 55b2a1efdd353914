package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/shared"
)

// column aliases accepted in the CSV header, lower-cased
var csvColumns = map[string][]string{
	"code":         {"code", "course code", "course_code"},
	"name":         {"name", "course name", "course_name"},
	"area":         {"area", "course area", "course_area"},
	"prerequisite": {"prerequisite", "prerequisites", "prereq"},
	"grade":        {"grade", "grade level", "grade_level"},
	"track":        {"track", "pathway"},
	"requirement":  {"requirement", "graduation requirement", "graduation_requirement"},
}

// ParseCSV reads catalog rows from CSV with a header row.
func ParseCSV(r io.Reader) ([]course.Course, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, shared.ErrEmptyCatalog
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []course.Course
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		grade, err := strconv.Atoi(field("grade"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: grade %q", shared.ErrInvalidCourse, line, field("grade"))
		}

		rows = append(rows, course.Course{
			Code:         field("code"),
			Name:         field("name"),
			Area:         field("area"),
			Prerequisite: field("prerequisite"),
			Grade:        grade,
			Track:        course.Track(field("track")),
			Requirement:  field("requirement"),
		})
	}
	return rows, nil
}

func mapHeader(header []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		for name, aliases := range csvColumns {
			for _, a := range aliases {
				if h == a {
					index[name] = i
				}
			}
		}
	}
	for _, required := range []string{"code", "grade", "track"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: csv header lacks %q", shared.ErrUnknownCatalogShape, required)
		}
	}
	return index, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
