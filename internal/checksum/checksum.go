// Package checksum tracks the checksum of a document's backing file so
// the engine can tell when another process has modified it on disk.
//
// The checksum is a drift signal only - the engine never attempts a merge
// or enforces integrity. It flags "someone else touched this file" and
// leaves reconciliation to the caller.
package checksum

import (
	"encoding/hex"
	"os"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Tracker remembers the last checksum observed for a file.
// The zero value is ready to use; it has no baseline until Update succeeds.
type Tracker struct {
	mu  sync.Mutex
	sum string
}

// Sum computes the hex-encoded BLAKE2b-256 checksum of data.
func Sum(data []byte) string {
	h := blake2b.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Update reads the file at path, computes its checksum and stores it as
// the new baseline. If the file cannot be read the prior baseline is
// kept and returned unchanged - a missing file is not a drift signal.
func (t *Tracker) Update(path string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return t.sum
	}
	t.sum = Sum(data)
	return t.sum
}

// HasChanged recomputes the file's checksum and compares it to the
// stored baseline. Returns false when path is empty, the file is absent,
// or no baseline has been recorded - without a baseline no change can
// be asserted.
func (t *Tracker) HasChanged(path string) bool {
	t.mu.Lock()
	baseline := t.sum
	t.mu.Unlock()

	if path == "" || baseline == "" {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return Sum(data) != baseline
}

// Current returns the stored baseline checksum, or "" when none has been
// recorded yet.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sum
}

// Reset discards the stored baseline.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sum = ""
}
