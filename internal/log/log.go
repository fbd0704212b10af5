// Package log provides centralised side-channel logging for markview
// operations. The engine's load/save/render paths never propagate
// failures outward - swallowed errors land here instead. Entries are
// stored in ~/.markview/log/markview-log.db.
//
// # Fluent API
//
// Use the fluent builder API to construct and write log entries:
//
//	log.Event("document:save", "save").
//		Path(p).
//		Write(err)
//
//	log.Event("render:html", "render").
//		Path(p).
//		Detail("theme", theme).
//		Detail("markup", truncated).
//		Write(err)
//
// The source parameter follows the format "{component}:{operation}",
// e.g. "document:load", "document:autosave", "render:html".
package log

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	global *Logger
	mu     sync.Mutex
)

// Entry represents a single log entry.
type Entry struct {
	Source string // e.g., "document:save", "render:html"
	Action string // verb: load, save, backup, render, write, etc.
	Path   string // document or output path involved

	// Timing
	Start int64 // unix timestamp when Event() called
	End   int64 // unix timestamp when Write() called

	Success bool           // whether operation succeeded
	Error   string         // error message if failed
	Detail  map[string]any // additional operation-specific data
}

// Builder constructs a log entry using a fluent API.
// Create with [Event], chain methods to set fields, then call [Builder.Write]
// to write the entry.
type Builder struct {
	entry Entry
}

// Event creates a new log entry builder for an operation.
//
// The source identifies where the operation originated, in the format
// "{component}:{operation}" (e.g., "document:save", "render:html").
// The action describes what was performed: "load", "save", "backup",
// "render", "write", etc.
func Event(source, action string) *Builder {
	return &Builder{
		entry: Entry{
			Source: source,
			Action: action,
			Start:  time.Now().Unix(),
		},
	}
}

// Path sets the file path this operation affects.
func (b *Builder) Path(path string) *Builder {
	b.entry.Path = path
	return b
}

// Detail adds a key-value pair to the log entry's detail map.
//
// Use for operation-specific data that doesn't fit standard fields:
// theme names, byte counts, truncated failing markup, retry attempts.
// Can be called multiple times to add multiple details.
func (b *Builder) Detail(key string, value any) *Builder {
	if b.entry.Detail == nil {
		b.entry.Detail = make(map[string]any)
	}
	b.entry.Detail[key] = value
	return b
}

// Write writes the log entry to the database, deriving success/failure from err.
//
// If err is nil, the entry is logged as successful.
// If err is non-nil, the entry is logged as failed with the error message.
func (b *Builder) Write(err error) {
	b.entry.End = time.Now().Unix()
	b.entry.Success = err == nil
	if err != nil {
		b.entry.Error = err.Error()
	}
	Log(b.entry)
}

// Open initialises the global logger. Safe to call multiple times.
// Errors are returned but callers may choose to ignore them (best-effort logging).
func Open() error {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		return nil
	}

	p := dbPath()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return err
	}

	global = &Logger{db: db}
	return nil
}

// SetDocument sets the document identifier for subsequent log entries.
// The path should be the absolute path of the document's backing file;
// it is hashed before storage.
func SetDocument(path string) {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.document = hash(path)
	}
}

// Log writes an entry. Safe to call if logger not initialised (no-op).
func Log(e Entry) {
	mu.Lock()
	l := global
	mu.Unlock()

	if l == nil {
		return
	}
	l.log(e)
}

// Close closes the global logger.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.db.Close()
		global = nil
	}
}
