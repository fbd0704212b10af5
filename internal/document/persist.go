// persist.go implements the disk lifecycle: load, save, low-level writes
// with bounded retry, debounced autosave, and the backup-file sidecar.
//
// Propagation policy: none of these operations fail outward. All I/O
// errors are converted to a false result, recorded for LastError, and
// written to the side-channel log. A failed save leaves the dirty flag
// set so the condition stays visible and is retried on the next debounce
// cycle or explicit save.

package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jpl-au/markview/internal/cryptotext"
	"github.com/jpl-au/markview/internal/log"
	"github.com/jpl-au/markview/internal/secret"
	"github.com/jpl-au/markview/internal/textenc"
)

// Write retry bounds for transient sharing violations. Exhausting the
// retries reports failure without touching prior on-disk content.
const (
	writeAttempts   = 4
	writeRetryDelay = 250 * time.Millisecond
)

// backupSuffix is appended to the filename to derive the backup path.
const backupSuffix = ".saved.bak"

// ErrEmptyDecryption is recorded when decryption succeeds but yields no
// text - treated as corrupt rather than loading an empty document over
// the user's content.
var ErrEmptyDecryption = errors.New("decryption produced empty text")

// previewDir returns the directory for generated preview HTML.
func previewDir() string {
	return filepath.Join(os.TempDir(), "markview-preview")
}

// untitledBackupPath is the fixed backup location for documents that
// have never been saved.
func untitledBackupPath() string {
	return filepath.Join(os.TempDir(), "markview-untitled"+backupSuffix)
}

// Load populates the document from path using the document's current
// credential for encrypted files. Returns false - with no content
// mutation - when the file is missing, unreadable, encrypted without a
// usable credential, or decrypts to nothing.
func (d *Document) Load(path string) bool {
	return d.LoadWithCredential(path, nil)
}

// LoadWithCredential is Load with an explicit credential. A credential
// that successfully decrypts the file is retained on the document for
// subsequent saves.
func (d *Document) LoadWithCredential(path string, cred *secret.Secret) bool {
	return d.loadFile(path, cred, nil)
}

// LoadWithEncoding is LoadWithCredential with BOM detection replaced by
// an explicit encoding, for files whose encoding carries no mark.
func (d *Document) LoadWithEncoding(path string, cred *secret.Secret, enc textenc.Encoding) bool {
	return d.loadFile(path, cred, &enc)
}

func (d *Document) loadFile(path string, cred *secret.Secret, override *textenc.Encoding) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		d.fail("document:load", "load", path, fmt.Errorf("reading file: %w", err))
		return false
	}

	enc := textenc.Detect(raw)
	if override != nil {
		enc = *override
	}
	text, err := enc.Decode(raw)
	if err != nil {
		d.fail("document:load", "load", path, err)
		return false
	}

	if cryptotext.IsEncrypted(text) {
		if !cred.IsSet() {
			d.mu.Lock()
			cred = d.credential
			d.mu.Unlock()
		}
		plain, err := cryptotext.TryLoad(text, cred)
		if err != nil {
			d.fail("document:load", "load", path, err)
			return false
		}
		if plain == "" {
			d.fail("document:load", "load", path, ErrEmptyDecryption)
			return false
		}
		text = plain
		d.SetCredential(cred)
	}

	d.tracker.Update(path)

	wasDirty := d.IsDirty()
	d.mu.Lock()
	d.filename = path
	d.deriveDisplayLocked()
	d.encoding = enc
	d.currentText = text
	d.originalText = text
	d.dirty = false
	d.lastErr = nil
	d.applyConfigLocked()
	d.mu.Unlock()

	if wasDirty {
		d.notifyDirty(false)
	}
	log.Event("document:load", "load").Path(path).Write(nil)
	return true
}

// Save persists the current text to the document's own filename.
func (d *Document) Save() bool {
	return d.SaveFile("", false, nil)
}

// SaveFile persists the current text. An empty path targets the
// document's filename. A newly supplied credential is retained on the
// document after a successful encrypted save. The backup sidecar is
// deleted on success unless skipBackupCleanup suppresses that.
//
// Exactly one save may be in flight per document: explicit saves
// serialise on the save-scope lock, and the in-flight flag lets a
// debounce-triggered autosave skip instead of stacking behind it.
func (d *Document) SaveFile(path string, skipBackupCleanup bool, cred *secret.Secret) bool {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	d.saving.Store(true)
	defer d.saving.Store(false)

	if path == "" {
		path = d.Filename()
	}
	if path == "" || path == Untitled {
		d.setErr(errors.New("cannot save untitled document without a path"))
		return false
	}

	// Snapshot state once; edits arriving mid-save keep the document
	// dirty relative to what actually reached disk.
	d.mu.Lock()
	text := d.currentText
	enc := d.encoding
	if !cred.IsSet() {
		cred = d.credential
	}
	d.mu.Unlock()

	wire, err := cryptotext.WrapForSave(text, cred)
	if err != nil {
		d.fail("document:save", "save", path, err)
		return false
	}
	raw, err := enc.Encode(wire)
	if err != nil {
		d.fail("document:save", "save", path, err)
		return false
	}

	if err := writeWithRetry(path, raw); err != nil {
		d.fail("document:save", "save", path, err)
		return false
	}

	d.tracker.Update(path)

	d.mu.Lock()
	if cred.IsSet() && d.credential != cred {
		if d.credential != nil {
			d.credential.Clear()
		}
		d.credential = cred
	}
	d.originalText = text
	stillDirty := d.currentText != d.originalText
	transition := stillDirty != d.dirty
	d.dirty = stillDirty
	d.lastSaveTime = time.Now()
	d.lastErr = nil
	if d.filename != path {
		d.filename = path
		d.deriveDisplayLocked()
	}
	d.mu.Unlock()

	if transition {
		d.notifyDirty(stillDirty)
	}
	if !skipBackupCleanup {
		d.removeBackup()
	}

	log.Event("document:save", "save").Path(path).Detail("bytes", len(raw)).Write(nil)
	return true
}

// WriteFile is the low-level writer used by the render pipeline: UTF-8
// bytes, bounded retry, never throws - exhausted retries log and report
// false.
func (d *Document) WriteFile(path, content string) bool {
	if err := writeWithRetry(path, []byte(content)); err != nil {
		d.fail("document:write", "write", path, err)
		return false
	}
	return true
}

// writeWithRetry writes data, retrying transient failures (sharing
// violations) a fixed number of times with a fixed delay. Writes go
// through a temp file in the same directory plus rename, so on-disk
// content is never left partial.
func writeWithRetry(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		if lastErr = writeAtomic(path, data); lastErr == nil {
			return nil
		}
		if attempt < writeAttempts {
			time.Sleep(writeRetryDelay)
		}
	}
	return fmt.Errorf("write failed after %d attempts: %w", writeAttempts, lastErr)
}

// writeAtomic writes data to a sibling temp file and renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// AutoSave is the debounce-triggered background action. In document mode
// it saves the real file, skipping when a save is already in flight or
// the document is untitled. In backup mode it writes raw current text to
// the backup sidecar - no encryption re-application, no dirty or
// checksum bookkeeping - and swallows failures; a failed backup simply
// retries on the next debounce cycle.
func (d *Document) AutoSave() {
	switch d.AutoSaveMode() {
	case AutoSaveDocument:
		if d.saving.Load() {
			return
		}
		fn := d.Filename()
		if fn == "" || fn == Untitled {
			return
		}
		d.SaveFile(fn, false, nil)
	case AutoSaveBackup:
		err := os.WriteFile(d.BackupPath(), []byte(d.Text()), 0644)
		log.Event("document:autosave", "backup").Path(d.BackupPath()).Write(err)
	}
}

// BackupPath returns the backup sidecar path: <filename>.saved.bak, or a
// fixed temp-directory location for untitled documents.
func (d *Document) BackupPath() string {
	fn := d.Filename()
	if fn == "" || fn == Untitled {
		return untitledBackupPath()
	}
	return fn + backupSuffix
}

// HasBackup reports whether a backup sidecar currently exists.
func (d *Document) HasBackup() bool {
	_, err := os.Stat(d.BackupPath())
	return err == nil
}

// CleanupBackup deletes the backup sidecar when backup mode is active.
// Missing-file errors are swallowed.
func (d *Document) CleanupBackup() {
	if d.AutoSaveMode() != AutoSaveBackup {
		return
	}
	d.removeBackup()
}

// removeBackup deletes the backup sidecar regardless of mode.
func (d *Document) removeBackup() {
	if err := os.Remove(d.BackupPath()); err != nil && !os.IsNotExist(err) {
		log.Event("document:backup", "cleanup").Path(d.BackupPath()).Write(err)
	}
}

// Close finalises the document: any backup sidecar is deleted. A pending
// debounce timer is allowed to fire; it re-checks the autosave mode and
// finds nothing to do.
func (d *Document) Close() {
	d.SetAutoSaveMode(AutoSaveNone)
	d.removeBackup()
	log.Event("document:close", "close").Path(d.Filename()).Write(nil)
}

// fail records and logs a swallowed failure.
func (d *Document) fail(source, action, path string, err error) {
	d.setErr(err)
	log.Event(source, action).Path(path).Write(err)
}
