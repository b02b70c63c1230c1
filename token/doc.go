// Package token issues and verifies the signed session tokens that carry an
// authenticated identity between requests.
//
// Tokens are JWTs signed with HMAC-SHA256 over a shared secret. The verifier
// pins the algorithm to HS256 before the signature is checked, so a token
// whose header claims any other method (including "none") is rejected
// outright. Expiry is evaluated with zero leeway: a token is valid strictly
// until its recorded expiry instant and not a moment longer.
package token
