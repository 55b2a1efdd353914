// Package logger writes the HTTP API's request log, one JSON object per line.
//
// A Logger is immutable. With and WithRequestID derive children whose fields
// are encoded once, up front, and shared by every line the child writes.
package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLevel maps a config value to a Level. Unknown values mean LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// Field is one key of a log line. Fields with an empty key are skipped.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Err records err under "error". A nil error adds nothing.
func Err(err error) Field {
	if err == nil {
		return Field{}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Millis records d as whole milliseconds.
func Millis(key string, d time.Duration) Field {
	return Field{Key: key, Value: d.Milliseconds()}
}

// Planner fields.
func Component(name string) Field  { return String("component", name) }
func Username(name string) Field   { return String("username", name) }
func SessionID(id string) Field    { return String("session_id", id) }
func Track(track string) Field     { return String("track", track) }
func Grade(g int) Field            { return Int("grade", g) }
func CourseCode(code string) Field { return String("course_code", code) }

// Options configures New.
type Options struct {
	// Output receives log lines. Defaults to os.Stderr.
	Output io.Writer
	// Level is the minimum level written.
	Level Level
}

// Logger writes leveled JSON lines to a shared writer.
type Logger struct {
	out    io.Writer
	mu     *sync.Mutex
	level  Level
	prefix []byte // pre-encoded `,"key":value` pairs from With
}

// New creates a Logger.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return &Logger{out: opts.Output, mu: &sync.Mutex{}, level: opts.Level}
}

// Default logs at info to stderr.
func Default() *Logger {
	return New(Options{Level: LevelInfo})
}

// With returns a child that adds fields to every line.
func (l *Logger) With(fields ...Field) *Logger {
	var buf bytes.Buffer
	buf.Write(l.prefix)
	for _, f := range fields {
		appendField(&buf, f)
	}
	child := *l
	child.prefix = buf.Bytes()
	return &child
}

// RequestIDKey is the field key carrying the request ID.
const RequestIDKey = "request_id"

// WithRequestID returns a child tagged with requestID.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With(String(RequestIDKey, requestID))
}

func (l *Logger) Debug(msg string, fields ...Field) { l.write(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.write(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.write(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.write(LevelError, msg, fields) }

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

func (l *Logger) write(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	buf.WriteString(`{"time":`)
	appendValue(buf, time.Now().UTC().Format(time.RFC3339Nano))
	buf.WriteString(`,"level":`)
	appendValue(buf, level.String())
	buf.WriteString(`,"msg":`)
	appendValue(buf, msg)
	buf.Write(l.prefix)
	for _, f := range fields {
		appendField(buf, f)
	}
	buf.WriteString("}\n")

	l.mu.Lock()
	_, _ = l.out.Write(buf.Bytes())
	l.mu.Unlock()
}

func appendField(buf *bytes.Buffer, f Field) {
	if f.Key == "" {
		return
	}
	buf.WriteByte(',')
	appendValue(buf, f.Key)
	buf.WriteByte(':')
	appendValue(buf, f.Value)
}

// appendValue encodes v as JSON. Errors become their message and values that
// cannot be encoded fall back to their fmt representation.
func appendValue(buf *bytes.Buffer, v any) {
	if err, ok := v.(error); ok {
		v = err.Error()
	}
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprint(v))
	}
	buf.Write(data)
}

type ctxKey struct{}

// WithContext attaches l to ctx.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the Logger attached to ctx, or Default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}
