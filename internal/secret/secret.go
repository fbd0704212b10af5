// Package secret holds an encryption credential as an opaque in-memory
// byte buffer. The buffer is zeroed on replacement or clear, and the raw
// bytes are exposed only for the duration of a callback so key material
// never outlives the encrypt/decrypt call that needs it.
package secret

import "sync"

// Secret is an opaque credential. The zero value is an unset secret.
type Secret struct {
	mu  sync.Mutex
	buf []byte
}

// New returns a Secret holding a copy of passphrase.
// An empty passphrase yields an unset secret.
func New(passphrase string) *Secret {
	s := &Secret{}
	s.Set(passphrase)
	return s
}

// Set replaces the stored credential, zeroing the previous buffer.
// Setting an empty passphrase clears the secret.
func (s *Secret) Set(passphrase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipe()
	if passphrase != "" {
		s.buf = []byte(passphrase)
	}
}

// Clear zeroes and drops the stored credential.
func (s *Secret) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipe()
}

// IsSet reports whether a credential is currently held.
// A nil Secret is never set.
func (s *Secret) IsSet() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf) > 0
}

// WithBytes invokes fn with the raw credential bytes. The slice is only
// valid for the duration of the call and must not be retained. fn is not
// invoked when the secret is unset.
func (s *Secret) WithBytes(fn func(b []byte)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return
	}
	fn(s.buf)
}

// wipe zeroes the buffer. Caller must hold s.mu.
func (s *Secret) wipe() {
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.buf = nil
}
