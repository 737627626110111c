// Package apikey mints and validates sitepulse API keys.
//
// Keys are "ak_" followed by 128 bits of crypto/rand rendered as 32
// lowercase hex characters. The random portion makes keys unpredictable;
// global uniqueness is enforced by the key store's unique index.
package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

const Prefix = "ak_"

var keyPattern = regexp.MustCompile(`^ak_[0-9a-f]{32}$`)

// New returns a fresh API key in the form ak_<32 hex chars>.
func New() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return Prefix + hex.EncodeToString(b)
}

// Valid reports whether s is a well-formed API key.
func Valid(s string) bool {
	return keyPattern.MatchString(s)
}
