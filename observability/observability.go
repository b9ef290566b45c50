// Package observability is the logging and tracing seam of the library.
// Everything defaults to no-ops; NewSlogLogger and Recorder are the
// concrete loggers.
package observability

import (
	"context"
	"sync"
	"time"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field             { return Field{key, value} }
func Int(key string, value int) Field            { return Field{key, value} }
func Int64(key string, value int64) Field        { return Field{key, value} }
func Bool(key string, value bool) Field          { return Field{key, value} }
func Duration(key string, d time.Duration) Field { return Field{key, d} }
func Error(key string, err error) Field          { return Field{key, err} }

// Object names the PDF object a message is about.
func Object(num int) Field { return Field{"object", num} }

// Offset names the byte offset a message is about.
func Offset(off int64) Field { return Field{"offset", off} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Entry is one message captured by a Recorder.
type Entry struct {
	Level  string
	Msg    string
	Fields []Field
}

// Field returns the value of key, or nil.
func (e Entry) Field(key string) interface{} {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// Recorder keeps every message in memory. It is safe for concurrent use.
type Recorder struct {
	log  *entryLog
	with []Field
}

type entryLog struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder { return &Recorder{log: &entryLog{}} }

func (r *Recorder) Debug(msg string, fields ...Field) { r.add("debug", msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.add("info", msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.add("warn", msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.add("error", msg, fields) }

func (r *Recorder) With(fields ...Field) Logger {
	return &Recorder{log: r.log, with: append(append([]Field(nil), r.with...), fields...)}
}

func (r *Recorder) add(level, msg string, fields []Field) {
	e := Entry{Level: level, Msg: msg, Fields: append(append([]Field(nil), r.with...), fields...)}
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	r.log.entries = append(r.log.entries, e)
}

// Entries returns the messages logged so far, optionally only those with
// the given text.
func (r *Recorder) Entries(msg ...string) []Entry {
	r.log.mu.Lock()
	defer r.log.mu.Unlock()
	var out []Entry
	for _, e := range r.log.entries {
		if len(msg) == 0 || e.Msg == msg[0] {
			out = append(out, e)
		}
	}
	return out
}

// Tracer provides distributed tracing hooks for library operations.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

type Span interface {
	SetTag(key string, value interface{})
	SetError(err error)
	Finish()
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

// NopTracer returns a tracer that does nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopSpan struct{}

func (nopSpan) SetTag(string, interface{}) {}
func (nopSpan) SetError(error)             {}
func (nopSpan) Finish()                    {}

// Span names used by the parser.
const (
	SpanParse   = "pdf.parse"
	SpanXRef    = "pdf.xref"
	SpanObjects = "pdf.objects"
)
