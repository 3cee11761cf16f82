// internal/hasher/hasher.go
package hasher

import (
	"crypto/sha1"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-1 digest of content. Blob and commit
// identity are both derived from this digest.
func Sum(content []byte) string {
	h := sha1.Sum(content)
	return hex.EncodeToString(h[:])
}

// Valid reports whether hash looks like a digest produced by Sum.
func Valid(hash string) bool {
	if len(hash) != sha1.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
