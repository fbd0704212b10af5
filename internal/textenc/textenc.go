// Package textenc handles text encoding detection and round-tripping for
// document I/O. Detection is BOM-based; the default is UTF-8 without a
// byte-order mark. Whatever encoding a file is loaded with is preserved
// on save so the on-disk representation survives an edit cycle.
package textenc

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// Encoding identifies a supported text encoding.
type Encoding int

const (
	// UTF8 is UTF-8 without a byte-order mark. The default.
	UTF8 Encoding = iota
	// UTF8BOM is UTF-8 with a leading byte-order mark.
	UTF8BOM
	// UTF16LE is little-endian UTF-16 with a byte-order mark.
	UTF16LE
	// UTF16BE is big-endian UTF-16 with a byte-order mark.
	UTF16BE
)

var names = map[Encoding]string{
	UTF8:    "utf-8",
	UTF8BOM: "utf-8-bom",
	UTF16LE: "utf-16le",
	UTF16BE: "utf-16be",
}

// String returns the canonical encoding name.
func (e Encoding) String() string {
	if n, ok := names[e]; ok {
		return n
	}
	return "utf-8"
}

// Parse resolves an encoding name as accepted on the command line.
func Parse(name string) (Encoding, error) {
	switch name {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "utf-8-bom", "utf8-bom":
		return UTF8BOM, nil
	case "utf-16le", "utf16le":
		return UTF16LE, nil
	case "utf-16be", "utf16be":
		return UTF16BE, nil
	}
	return UTF8, fmt.Errorf("unsupported encoding %q (supported: utf-8, utf-8-bom, utf-16le, utf-16be)", name)
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Detect sniffs the byte-order mark of raw file bytes.
// Without a recognised BOM the answer is UTF-8.
func Detect(raw []byte) Encoding {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return UTF8BOM
	case bytes.HasPrefix(raw, bomUTF16LE):
		return UTF16LE
	case bytes.HasPrefix(raw, bomUTF16BE):
		return UTF16BE
	default:
		return UTF8
	}
}

// Decode converts raw file bytes into a string, consuming any BOM.
func (e Encoding) Decode(raw []byte) (string, error) {
	switch e {
	case UTF8:
		return string(raw), nil
	case UTF8BOM:
		return string(bytes.TrimPrefix(raw, bomUTF8)), nil
	case UTF16LE:
		return decodeUTF16(raw, unicode.LittleEndian)
	case UTF16BE:
		return decodeUTF16(raw, unicode.BigEndian)
	}
	return "", fmt.Errorf("unsupported encoding %d", e)
}

// Encode converts text into file bytes, emitting a BOM where the
// encoding carries one.
func (e Encoding) Encode(text string) ([]byte, error) {
	switch e {
	case UTF8:
		return []byte(text), nil
	case UTF8BOM:
		out := make([]byte, 0, len(bomUTF8)+len(text))
		out = append(out, bomUTF8...)
		return append(out, text...), nil
	case UTF16LE:
		return encodeUTF16(text, unicode.LittleEndian)
	case UTF16BE:
		return encodeUTF16(text, unicode.BigEndian)
	}
	return nil, fmt.Errorf("unsupported encoding %d", e)
}

func decodeUTF16(raw []byte, endian unicode.Endianness) (string, error) {
	dec := unicode.UTF16(endian, unicode.UseBOM).NewDecoder()
	out, err := dec.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding utf-16: %w", err)
	}
	return string(out), nil
}

func encodeUTF16(text string, endian unicode.Endianness) ([]byte, error) {
	enc := unicode.UTF16(endian, unicode.UseBOM).NewEncoder()
	out, err := enc.Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encoding utf-16: %w", err)
	}
	return out, nil
}
