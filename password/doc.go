// Package password hashes and verifies account credentials.
//
// Two hashers are provided. Digest is a deterministic SHA-256 digest encoded
// as base64 with no salt, kept for compatibility with records written by the
// original deployment; comparisons are constant time but the scheme offers no
// resistance to precomputation and should only be used where that record
// format is already in place. Argon2 produces salted argon2id hashes in PHC
// string format and is the recommended mode for new deployments.
package password
