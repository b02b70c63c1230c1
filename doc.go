// Package gatekey provides a cookie-session authentication engine for web
// applications: account registration, credential verification, signed JWT
// session tokens delivered as HTTP-only cookies, and token-bucket rate
// limiting in front of every flow.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// gatekey is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (AuthResult, UserRecord, MetricsSnapshot, etc.). The token
// codec, password hashing, cookie transport, and HTTP wiring live in
// subpackages; the rate-limiter bucket arena lives under internal/ and is
// never exported.
//
// # Trust model
//
// The session cookie is the single trusted credential channel. A token
// presented through any other channel (an Authorization header, a query
// parameter) is ignored outright: such a request is treated exactly like a
// request carrying no credential at all.
//
// # What this package must NOT do
//
//   - Expose store clients or bucket internals in its public API.
//   - Persist session state server-side; tokens are self-contained and
//     verified by signature and expiry alone.
//   - Distinguish "unknown email" from "wrong password" in any observable
//     way.
package gatekey
