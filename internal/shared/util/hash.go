package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the lowercase hex SHA-256 of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashUserKey hides a user ID in logs and storage keys.
func HashUserKey(userID string) string {
	return SHA256Hex([]byte(userID))
}
