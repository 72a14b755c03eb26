package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Digest returns the hex-encoded SHA-256 of plaintext. It is unsalted and
// fast, which keeps stored records compatible with existing deployments;
// it is a known weakness against offline guessing.
func Digest(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// CheckDigest reports whether plaintext hashes to digest, comparing in
// constant time.
func CheckDigest(digest, plaintext string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(Digest(plaintext))) == 1
}
