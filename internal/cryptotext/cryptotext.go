// Package cryptotext encrypts document text at rest behind a fixed
// plaintext marker. The marker makes encrypted files recognisable without
// attempting decryption, so the loader can distinguish "needs a credential"
// from "wrong credential" and plain files pass through untouched.
//
// Wire format: Marker followed by base64(salt || nonce || ciphertext).
// The key is derived from the credential with argon2id and the payload is
// sealed with ChaCha20-Poly1305. A fresh salt and nonce are drawn for
// every save, so ciphertext is never stable across saves of identical text.
package cryptotext

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/jpl-au/markview/internal/secret"
)

// Marker is the literal prefix identifying an encrypted file.
const Marker = "encrypted::"

var (
	// ErrNeedsCredential is returned when the text carries the encryption
	// marker but no credential was supplied.
	ErrNeedsCredential = errors.New("file is encrypted and no credential was supplied")
	// ErrDecryptFailed is returned for a wrong credential or corrupt ciphertext.
	ErrDecryptFailed = errors.New("decryption failed: wrong credential or corrupt data")
)

// argon2id parameters. Moderate cost: encryption guards documents at
// rest, not a password database under offline attack.
const (
	saltLen      = 16
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
)

// IsEncrypted reports whether raw carries the encryption marker.
func IsEncrypted(raw string) bool {
	return strings.HasPrefix(raw, Marker)
}

// TryLoad decodes text read from disk. Plain text passes through
// unchanged. Marked text is decrypted with cred; a missing credential
// yields ErrNeedsCredential and a failed decrypt yields ErrDecryptFailed.
func TryLoad(raw string, cred *secret.Secret) (string, error) {
	if !IsEncrypted(raw) {
		return raw, nil
	}
	if !cred.IsSet() {
		return "", ErrNeedsCredential
	}
	plain, err := open(strings.TrimPrefix(raw, Marker), cred)
	if err != nil {
		return "", err
	}
	return plain, nil
}

// WrapForSave prepares text for disk. With a credential set the text is
// encrypted and prefixed with the marker; otherwise it passes through
// unchanged.
func WrapForSave(plain string, cred *secret.Secret) (string, error) {
	if !cred.IsSet() {
		return plain, nil
	}
	payload, err := seal(plain, cred)
	if err != nil {
		return "", err
	}
	return Marker + payload, nil
}

// deriveKey produces the AEAD key from the credential and salt. Key
// material exists only inside the seal/open call boundary.
func deriveKey(cred *secret.Secret, salt []byte) []byte {
	var key []byte
	cred.WithBytes(func(b []byte) {
		key = argon2.IDKey(b, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	})
	return key
}

func seal(plain string, cred *secret.Secret) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := deriveKey(cred, salt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", fmt.Errorf("initialising cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	blob := make([]byte, 0, saltLen+len(nonce)+len(plain)+aead.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, []byte(plain), nil)

	return base64.StdEncoding.EncodeToString(blob), nil
}

func open(payload string, cred *secret.Secret) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", ErrDecryptFailed
	}

	nonceLen := chacha20poly1305.NonceSize
	if len(blob) < saltLen+nonceLen {
		return "", ErrDecryptFailed
	}

	salt := blob[:saltLen]
	nonce := blob[saltLen : saltLen+nonceLen]
	ciphertext := blob[saltLen+nonceLen:]

	key := deriveKey(cred, salt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", ErrDecryptFailed
	}

	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plain), nil
}
