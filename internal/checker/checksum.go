package checker

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns the hex SHA-256 digest of content. Deterministic for
// identical bytes; always 64 hex characters.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
