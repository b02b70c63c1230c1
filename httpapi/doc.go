// Package httpapi exposes the access endpoints over net/http.
//
// The surface is four routes under /access: signup, login, logout, and
// validate. Every request first passes the global rate limit; login and
// signup additionally pass their route-specific limits. Session tokens move
// only in the HttpOnly cookie that login sets and logout clears; no response
// body ever contains a token. A failed login and an unknown email produce
// byte-identical responses.
package httpapi
