package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Hasher defines a public type used by gatekey APIs.
//
// Implementations must be safe for concurrent use.
type Hasher interface {
	// Hash derives a stored representation of plaintext.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches the stored representation.
	// A malformed stored value is an error, not a mismatch.
	Verify(plaintext, stored string) (bool, error)
}

// Digest defines a public type used by gatekey APIs.
//
// Digest is deterministic and unsalted: equal passwords always produce equal
// stored values. It exists for compatibility with records written by the
// original deployment.
type Digest struct{}

// NewDigest returns the SHA-256 digest hasher.
func NewDigest() *Digest {
	return &Digest{}
}

// Hash returns the base64 encoding of the SHA-256 digest of plaintext. It
// never fails.
func (*Digest) Hash(plaintext string) (string, error) {
	sum := sha256.Sum256([]byte(plaintext))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

// Verify recomputes the digest and compares in constant time.
func (*Digest) Verify(plaintext, stored string) (bool, error) {
	sum := sha256.Sum256([]byte(plaintext))
	computed := base64.StdEncoding.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1, nil
}
