// Package document owns the in-memory text of a single editable document
// and keeps it synchronised with its backing file. It reconciles the
// independent mutation sources - user edits, external file changes,
// background autosave, encryption toggling - into one consistent state
// without losing data.
//
// A Document is constructed empty ("untitled"), populated by Load,
// mutated via SetText, persisted via Save/AutoSave, and finalised by
// Close. Nothing else may hold a second writable copy of the text;
// readers take an immutable snapshot via Text.
package document

import (
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpl-au/markview/internal/checksum"
	"github.com/jpl-au/markview/internal/config"
	"github.com/jpl-au/markview/internal/debounce"
	"github.com/jpl-au/markview/internal/secret"
	"github.com/jpl-au/markview/internal/textenc"
)

// Untitled is the filename sentinel for a document that has never been
// loaded or saved.
const Untitled = "untitled"

// AutoSaveMode selects what the debounced background action persists.
// The modes are mutually exclusive.
type AutoSaveMode int

const (
	// AutoSaveNone disables background persistence.
	AutoSaveNone AutoSaveMode = iota
	// AutoSaveDocument saves the real file on the debounce cycle.
	AutoSaveDocument
	// AutoSaveBackup writes raw text to a sidecar backup file instead.
	AutoSaveBackup
)

// Field identifies a Document field in change notifications.
type Field string

const (
	FieldFilename Field = "filename"
	FieldDirty    Field = "dirty"
	FieldEncoding Field = "encoding"
)

// Change describes one observed field transition.
type Change struct {
	Field Field
	Old   any
	New   any
}

// Dispatcher marshals UI-observable state changes onto an owning
// execution context. The default runs fn synchronously on the calling
// goroutine; a GUI embedding can substitute its event loop's enqueue.
type Dispatcher func(fn func())

// Document is the central entity: current and original text, dirty flag,
// filename, encoding, credential, and the persistence machinery.
type Document struct {
	mu sync.Mutex

	filename     string
	title        string
	syntax       string
	currentText  string
	originalText string
	encoding     textenc.Encoding
	dirty        bool

	credential   *secret.Secret
	lastSaveTime time.Time
	previewRoot  string
	renderTarget string

	autoSaveMode AutoSaveMode
	autoSaveWait time.Duration
	allowScripts bool

	dispatcher Dispatcher
	subs       []func(Change)
	lastErr    error

	tracker checksum.Tracker
	sched   debounce.Scheduler

	// saveMu serialises save operations; saving lets autosave cheaply
	// skip rather than queue behind an in-flight save.
	saveMu sync.Mutex
	saving atomic.Bool

	cfg *config.Config
}

// New constructs an empty untitled document. Autosave mode and the
// script policy derive from cfg; a nil cfg falls back to defaults.
func New(cfg *config.Config) *Document {
	if cfg == nil {
		cfg = &config.Config{}
	}
	d := &Document{
		filename: Untitled,
		encoding: textenc.UTF8,
		cfg:      cfg,
	}
	d.applyConfigLocked()
	return d
}

// applyConfigLocked re-derives autosave mode and the script policy from
// configuration. Called at construction and on every successful load.
func (d *Document) applyConfigLocked() {
	switch {
	case d.cfg.AutoSaveDocuments():
		d.autoSaveMode = AutoSaveDocument
	case d.cfg.AutoSaveBackups():
		d.autoSaveMode = AutoSaveBackup
	default:
		d.autoSaveMode = AutoSaveNone
	}
	d.autoSaveWait = d.cfg.AutoSaveDelay()
	d.allowScripts = d.cfg.AllowScripts()
}

// Filename returns the backing file path, or Untitled.
func (d *Document) Filename() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filename
}

// SetFilename renames the document and re-derives the display title and
// syntax name from the new extension.
func (d *Document) SetFilename(path string) {
	d.mu.Lock()
	old := d.filename
	if path == "" {
		path = Untitled
	}
	d.filename = path
	d.deriveDisplayLocked()
	d.mu.Unlock()

	if old != path {
		d.notify(Change{Field: FieldFilename, Old: old, New: path})
	}
}

// deriveDisplayLocked recomputes title and syntax. Caller holds d.mu.
func (d *Document) deriveDisplayLocked() {
	if d.filename == Untitled {
		d.title = Untitled
		d.syntax = "markdown"
		return
	}
	base := filepath.Base(d.filename)
	ext := filepath.Ext(base)
	d.title = strings.TrimSuffix(base, ext)
	d.syntax = d.cfg.SyntaxFor(ext)
}

// Title returns the display name derived from the filename.
func (d *Document) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.title == "" {
		return Untitled
	}
	return d.title
}

// Syntax returns the syntax name inferred from the file extension.
func (d *Document) Syntax() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.syntax == "" {
		return "markdown"
	}
	return d.syntax
}

// Text returns an immutable snapshot of the current text.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentText
}

// SetText replaces the live text, recomputes the dirty flag against the
// last loaded/saved snapshot, and - when the document became dirty and
// autosave is active - arms the debounce scheduler. Rapid successive
// calls within the window coalesce into a single autosave.
func (d *Document) SetText(text string) {
	d.mu.Lock()
	dirty := text != d.originalText
	transition := dirty != d.dirty
	d.currentText = text
	d.dirty = dirty
	mode := d.autoSaveMode
	wait := d.autoSaveWait
	d.mu.Unlock()

	if transition {
		d.notifyDirty(dirty)
	}
	if dirty && mode != AutoSaveNone {
		d.sched.Arm(wait, d.AutoSave)
	}
}

// IsDirty reports whether the current text differs from the last
// successfully loaded or saved text.
func (d *Document) IsDirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// Encoding returns the text encoding used for I/O.
func (d *Document) Encoding() textenc.Encoding {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.encoding
}

// SetEncoding overrides the encoding used for subsequent saves.
func (d *Document) SetEncoding(enc textenc.Encoding) {
	d.mu.Lock()
	old := d.encoding
	d.encoding = enc
	d.mu.Unlock()

	if old != enc {
		d.notify(Change{Field: FieldEncoding, Old: old, New: enc})
	}
}

// SetCredential assigns the encryption credential. The Document owns the
// secret exclusively; passing nil (or an unset secret) clears it and
// subsequent saves write plaintext.
func (d *Document) SetCredential(cred *secret.Secret) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.credential != nil && d.credential != cred {
		d.credential.Clear()
	}
	d.credential = cred
}

// IsEncrypted reports whether a credential is currently set - independent
// of whether the on-disk bytes are actually encrypted at this instant.
func (d *Document) IsEncrypted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.credential.IsSet()
}

// LastSaveTime returns the timestamp of the last successful save.
func (d *Document) LastSaveTime() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSaveTime
}

// PreviewRoot returns the optional override path used to rewrite
// root-relative links during rendering.
func (d *Document) PreviewRoot() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.previewRoot
}

// SetPreviewRoot sets or resets (with "") the preview root override.
func (d *Document) SetPreviewRoot(root string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.previewRoot = root
}

// RenderTargetPath returns the resolved output path for generated HTML.
// Computed lazily once per document unless explicitly overridden.
func (d *Document) RenderTargetPath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.renderTarget == "" {
		sum := checksum.Sum([]byte(d.filename))
		d.renderTarget = filepath.Join(previewDir(), sum[:16]+".html")
	}
	return d.renderTarget
}

// SetRenderTargetPath overrides the HTML output path.
func (d *Document) SetRenderTargetPath(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.renderTarget = path
}

// AutoSaveMode returns the active background persistence mode.
func (d *Document) AutoSaveMode() AutoSaveMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.autoSaveMode
}

// SetAutoSaveMode overrides the background persistence mode.
func (d *Document) SetAutoSaveMode(mode AutoSaveMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.autoSaveMode = mode
}

// AllowScripts reports the document's script-processing request, derived
// from configuration on load.
func (d *Document) AllowScripts() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allowScripts
}

// SetAllowScripts overrides the document's script-processing request.
func (d *Document) SetAllowScripts(allow bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allowScripts = allow
}

// FileChecksum returns the checksum of the file bytes as last observed
// on disk, or "" before the first successful load or save.
func (d *Document) FileChecksum() string {
	return d.tracker.Current()
}

// HasFileChanged recomputes the on-disk checksum and reports drift from
// the last observed value. False for untitled documents, missing files,
// and before any baseline exists.
func (d *Document) HasFileChanged() bool {
	fn := d.Filename()
	if fn == Untitled {
		return false
	}
	return d.tracker.HasChanged(fn)
}

// SetDispatcher installs the execution-context policy for UI-observable
// state changes (the dirty flag). Default is synchronous.
func (d *Document) SetDispatcher(dp Dispatcher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatcher = dp
}

// Subscribe registers an observer for field changes. Observers run on
// the notifying goroutine (or the dispatcher's context for dirty-flag
// changes) in registration order.
func (d *Document) Subscribe(fn func(Change)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, fn)
}

// LastError returns the reason for the most recent failed load or save,
// or nil. Failures are also written to the side-channel log.
func (d *Document) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// notify delivers a change to all subscribers on the calling goroutine.
func (d *Document) notify(c Change) {
	d.mu.Lock()
	subs := make([]func(Change), len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
}

// notifyDirty delivers a dirty-flag transition through the dispatcher so
// the change lands on the owning execution context when one is attached.
func (d *Document) notifyDirty(dirty bool) {
	d.mu.Lock()
	dp := d.dispatcher
	d.mu.Unlock()

	deliver := func() {
		d.notify(Change{Field: FieldDirty, Old: !dirty, New: dirty})
	}
	if dp != nil {
		dp(deliver)
		return
	}
	deliver()
}

// setErr records a swallowed failure for LastError.
func (d *Document) setErr(err error) {
	d.mu.Lock()
	d.lastErr = err
	d.mu.Unlock()
}
