// Package checksum hashes content for identity purposes, most notably the
// feed GUIDs, which key on content rather than location.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumString is Sum over a string.
func SumString(s string) string {
	return Sum([]byte(s))
}
