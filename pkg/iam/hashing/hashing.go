// Package hashing provides one-way credential hashing for passwords and
// API keys.
package hashing

// Service hashes plaintext credentials and verifies them against stored
// digests. Implementations must be safe for concurrent use and must treat a
// malformed digest as a verification failure, never a crash.
type Service interface {
	// Hash derives a salted one-way digest from the plaintext.
	Hash(plaintext string) (string, error)

	// Compare reports whether the plaintext matches the digest. The
	// comparison is timing-safe.
	Compare(plaintext, digest string) bool
}
