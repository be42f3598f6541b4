// Package log provides logger adapters used by tests and embedding callers.
package log

import (
	"sync"

	pkglog "github.com/bft-labs/keyframer/pkg/log"
)

// Entry is one recorded log call.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// Recorder implements log.Logger by keeping every entry in memory.
// Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Debug records a debug-level message.
func (r *Recorder) Debug(msg string, fields ...pkglog.Field) { r.add("debug", msg, fields) }

// Info records an info-level message.
func (r *Recorder) Info(msg string, fields ...pkglog.Field) { r.add("info", msg, fields) }

// Warn records a warning-level message.
func (r *Recorder) Warn(msg string, fields ...pkglog.Field) { r.add("warn", msg, fields) }

// Error records an error-level message.
func (r *Recorder) Error(msg string, fields ...pkglog.Field) { r.add("error", msg, fields) }

func (r *Recorder) add(level, msg string, fields []pkglog.Field) {
	e := Entry{Level: level, Message: msg, Fields: make(map[string]interface{}, len(fields))}
	for _, f := range fields {
		e.Fields[f.Key] = f.Value
	}
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns the number of entries at level.
func (r *Recorder) Count(level string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
