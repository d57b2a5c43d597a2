// Package id generates the opaque identity strings handed out when an
// account is registered.
//
// An identifier is the 16 random bytes of a UUIDv4 encoded as unpadded
// base32 (RFC 4648): 26 lowercase characters, safe to embed in URLs and
// JWT subjects.
package id

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// NewID returns a fresh 26-character lowercase identifier. It fails only
// when the system's randomness source does.
func NewID() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	// RFC 4122 variant and version bits for a v4 UUID.
	raw[6] = (raw[6] & 0x0f) | 0x40
	raw[8] = (raw[8] & 0x3f) | 0x80

	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw[:])
	return strings.ToLower(encoded), nil
}
