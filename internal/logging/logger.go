// Package logging writes one JSON object per line.
//
// A Logger may carry base fields; ForContext derives a child that stamps the
// request id found in a context on every entry it writes.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps a level name to a Level, defaulting to INFO
func ParseLevel(level string) Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Entry is the JSON shape of a single log line
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// sink is shared by a logger and all of its children
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *sink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.Write(append(line, '\n'))
}

// Logger is safe for concurrent use. A nil *Logger discards everything.
type Logger struct {
	level     Level
	sink      *sink
	requestID string
	fields    map[string]interface{}
	now       func() time.Time
}

// New creates a logger that drops messages below level
func New(level string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level: ParseLevel(level),
		sink:  &sink{out: output},
		now:   time.Now,
	}
}

// Discard returns a logger that writes nowhere, for tests
func Discard() *Logger {
	return New("ERROR", io.Discard)
}

type requestIDKey struct{}

// ContextWithRequestID stores id for ForContext to pick up
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ForContext returns a child logger tagged with the request id in ctx.
// Without one the receiver is returned as is.
func (l *Logger) ForContext(ctx context.Context) *Logger {
	id := RequestIDFromContext(ctx)
	if l == nil || id == "" {
		return l
	}
	child := *l
	child.requestID = id
	return &child
}

// With returns a child logger that adds fields to every entry
func (l *Logger) With(fields map[string]interface{}) *Logger {
	if l == nil {
		return nil
	}
	child := *l
	child.fields = merge(l.fields, fields)
	return &child
}

// WithFields returns a builder carrying a copy of fields
func (l *Logger) WithFields(fields map[string]interface{}) *Builder {
	return &Builder{logger: l, fields: merge(nil, fields)}
}

// WithField returns a builder carrying a single field
func (l *Logger) WithField(key string, value interface{}) *Builder {
	return &Builder{logger: l, fields: map[string]interface{}{key: value}}
}

// WithError returns a builder carrying an error
func (l *Logger) WithError(err error) *Builder {
	return &Builder{logger: l, err: err}
}

func (l *Logger) Debug(message string) { (&Builder{logger: l}).write(LevelDebug, message) }
func (l *Logger) Info(message string)  { (&Builder{logger: l}).write(LevelInfo, message) }
func (l *Logger) Warn(message string)  { (&Builder{logger: l}).write(LevelWarn, message) }
func (l *Logger) Error(message string) { (&Builder{logger: l}).write(LevelError, message) }

// emit is always three frames below the logging call site
func (l *Logger) emit(level Level, message string, fields map[string]interface{}, err error) {
	entry := Entry{
		Timestamp: l.now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		RequestID: l.requestID,
		Fields:    merge(l.fields, fields),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if level >= LevelError {
		entry.Caller = caller(3)
	}

	line, jerr := json.Marshal(entry)
	if jerr != nil {
		// a field value json cannot encode; keep the message
		entry.Fields = map[string]interface{}{"fields_error": jerr.Error()}
		line, _ = json.Marshal(entry)
	}
	l.sink.write(line)
}

func caller(skip int) string {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		return fmt.Sprintf("%s:%d (%s)", file, line, fn.Name())
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// merge copies base and extra into a new map; nil when both are empty
func merge(base, extra map[string]interface{}) map[string]interface{} {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Builder accumulates fields and an error before the entry is written.
// It owns its field map; callers' maps are never modified.
type Builder struct {
	logger *Logger
	fields map[string]interface{}
	err    error
}

func (b *Builder) WithField(key string, value interface{}) *Builder {
	if b.fields == nil {
		b.fields = make(map[string]interface{})
	}
	b.fields[key] = value
	return b
}

func (b *Builder) WithFields(fields map[string]interface{}) *Builder {
	if b.fields == nil {
		b.fields = make(map[string]interface{}, len(fields))
	}
	for k, v := range fields {
		b.fields[k] = v
	}
	return b
}

func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

func (b *Builder) Debug(message string) { b.write(LevelDebug, message) }
func (b *Builder) Info(message string)  { b.write(LevelInfo, message) }
func (b *Builder) Warn(message string)  { b.write(LevelWarn, message) }
func (b *Builder) Error(message string) { b.write(LevelError, message) }

func (b *Builder) write(level Level, message string) {
	l := b.logger
	if l == nil || level < l.level {
		return
	}
	l.emit(level, message, b.fields, b.err)
}
