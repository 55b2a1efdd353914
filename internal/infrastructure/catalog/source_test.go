package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepath/planner/internal/domain/course"
	"github.com/coursepath/planner/internal/domain/shared"
)

const sampleCSV = `Course Code,Course Name,Course Area,Prerequisite,Grade Level,Track,Graduation Requirement
ENL1W,English,English,none,9,Open,1.0
eng2d,English,English,ENL1W,10,university,1.0
,,,,,,
NBE3U,"English: Understanding Contemporary First Nations, Métis, and Inuit Voices",English,ENG2D,11,University,1.0
`

func TestParseCSV(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "eng2d", rows[1].Code)
	assert.Equal(t, 10, rows[1].Grade)
	assert.Equal(t, "English: Understanding Contemporary First Nations, Métis, and Inuit Voices", rows[2].Name)

	cat, err := course.Load(context.Background(), course.StaticSource(rows))
	require.NoError(t, err)
	c, ok := cat.Get("ENG2D")
	require.True(t, ok)
	assert.Equal(t, course.TrackUniversity, c.Track)
}

func TestParseCSV_PlainHeader(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader("code,name,area,prerequisite,grade,track,requirement\nAMU2O,Music,Arts,,10,Open,2.0\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2.0", rows[0].Requirement)
}

func TestParseCSV_ByteOrderMark(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader("\uFEFFCourse Code,Course Name,Grade Level,Track\nAMU2O,Music,10,Open\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AMU2O", rows[0].Code)
}

func TestParseCSV_Errors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, shared.ErrEmptyCatalog)

	_, err = ParseCSV(strings.NewReader("code,name\nA,B\n"))
	assert.ErrorIs(t, err, shared.ErrUnknownCatalogShape)

	_, err = ParseCSV(strings.NewReader("code,grade,track\nA,nine,Open\n"))
	assert.ErrorIs(t, err, shared.ErrInvalidCourse)
}

func TestParseYAML_BothShapes(t *testing.T) {
	list := "- code: AMU2O\n  name: Music\n  area: Arts\n  grade: 10\n  track: Open\n  requirement: \"2.0\"\n"
	rows, err := ParseYAML(strings.NewReader(list))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AMU2O", rows[0].Code)

	doc := "courses:\n" + indent(list)
	rows, err = ParseYAML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Grade)

	_, err = ParseYAML(strings.NewReader("courses: 7\n"))
	assert.ErrorIs(t, err, shared.ErrUnknownCatalogShape)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "courses.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o600))

	rows, err := NewSource(csvPath).LoadCourses(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	xlsx := filepath.Join(dir, "courses.xlsx")
	require.NoError(t, os.WriteFile(xlsx, []byte("x"), 0o600))
	_, err = FileSource{Path: xlsx}.LoadCourses(context.Background())
	assert.ErrorIs(t, err, shared.ErrUnknownCatalogShape)

	_, err = FileSource{Path: filepath.Join(dir, "missing.csv")}.LoadCourses(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEmbeddedCatalogIsValid(t *testing.T) {
	cat, err := course.Load(context.Background(), NewSource(""))
	require.NoError(t, err)
	assert.Greater(t, cat.Len(), 50)

	for _, code := range []string{"ENL1W", "MTH1W", "SNC1W", "CGC1W", "ENG2D", "MPM2D", "SNC2D", "CHC2D", "CHV2O",
		"NBE3U", "MCR3U", "ENG4U", "MHF4U", "MCV4U", "NBE3C", "MBF3C", "ENG4C"} {
		_, ok := cat.Get(code)
		assert.Truef(t, ok, "template course %s", code)
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
