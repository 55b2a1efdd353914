package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestLogger_WritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelInfo}).With(Component("http"))

	l.Debug("hidden")
	l.Info("plan assembled", Username("jdoe"), Grade(10), Track("University"), CourseCode("ICS3U"), Millis("duration_ms", 1500*time.Millisecond))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "plan assembled", entry["msg"])
	assert.Equal(t, "http", entry["component"])
	assert.Equal(t, "jdoe", entry["username"])
	assert.EqualValues(t, 10, entry["grade"])
	assert.Equal(t, "University", entry["track"])
	assert.Equal(t, "ICS3U", entry["course_code"])
	assert.EqualValues(t, 1500, entry["duration_ms"])

	_, err := time.Parse(time.RFC3339Nano, entry["time"].(string))
	assert.NoError(t, err)
}

func TestLogger_WithDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Options{Output: &buf})
	child := parent.With(SessionID("s-1"))

	child.Warn("child")
	parent.Warn("parent")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "s-1", lines[0]["session_id"])
	assert.NotContains(t, lines[1], "session_id")
}

func TestLogger_ErrorValues(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf})

	l.Error("failed", Err(errors.New("disk full")), Any("cause", errors.New("boom")), Err(nil))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "disk full", lines[0]["error"])
	assert.Equal(t, "boom", lines[0]["cause"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, "warn", LevelWarn.String())
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf}).WithRequestID("req-1")
	ctx := WithContext(context.Background(), l)

	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.NotNil(t, FromContext(context.Background()))
}
