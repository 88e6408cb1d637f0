package common

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint joins parts with "|" and returns the lowercase hex SHA-256 of the result.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
