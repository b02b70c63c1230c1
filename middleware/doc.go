// Package middleware provides the net/http interceptors that wrap the access
// endpoints.
//
// Each interceptor is a func(http.Handler) http.Handler so chains compose by
// plain nesting. The canonical order is RequestContext, then the global
// RateLimit, then per-route interceptors: Authenticate populates the request
// context from the session cookie, RateLimit charges a route policy, and
// RequireAuth turns a missing identity into a 401 before the handler runs.
package middleware
