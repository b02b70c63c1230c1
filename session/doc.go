// Package session moves the signed session token between server and browser.
//
// The cookie is the only carrier. Tokens never appear in response bodies,
// Authorization headers, or URLs, and Read never consults anything but the
// configured cookie, so a credential presented any other way is
// indistinguishable from no credential at all. The cookie is HttpOnly
// unconditionally.
package session
