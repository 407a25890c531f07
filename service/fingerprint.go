package service

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a short, stable BLAKE2b digest of text for cache keys
// and logs. It is not reversible.
func Fingerprint(text string) string {
	if text == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:8])
}
