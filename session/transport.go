package session

import (
	"errors"
	"net/http"
	"time"
)

// Config defines a public type used by gatekey APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Name is the cookie name carrying the session token.
	Name string

	// Path scopes the cookie; "/" covers the whole surface.
	Path string

	// Secure restricts the cookie to TLS transports. Required when SameSite
	// is None.
	Secure bool

	// SameSite is the cookie's cross-site policy.
	SameSite http.SameSite

	// TTL is the cookie lifetime, aligned with the token lifetime so the
	// browser discards the cookie around the time the token stops verifying.
	TTL time.Duration
}

// Transport defines a public type used by gatekey APIs.
//
// Transport instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Transport struct {
	config Config

	// now is swapped in tests to pin cookie expiry instants.
	now func() time.Time
}

// NewTransport describes the newtransport operation and its observable behavior.
//
// NewTransport may return an error when input validation, dependency calls, or security checks fail.
// NewTransport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewTransport(cfg Config) (*Transport, error) {
	if cfg.Name == "" {
		return nil, errors.New("session: cookie name required")
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("session: cookie ttl must be positive")
	}
	if cfg.SameSite == http.SameSiteNoneMode && !cfg.Secure {
		return nil, errors.New("session: SameSite=None requires Secure")
	}

	return &Transport{
		config: cfg,
		now:    time.Now,
	}, nil
}

// Write attaches the session cookie to the response. HttpOnly is set
// unconditionally; script-visible session tokens are never produced.
func (t *Transport) Write(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.config.Name,
		Value:    token,
		Path:     t.config.Path,
		Expires:  t.now().Add(t.config.TTL),
		HttpOnly: true,
		Secure:   t.config.Secure,
		SameSite: t.config.SameSite,
	})
}

// Clear overwrites the session cookie with an empty value and an expiry in
// the past, instructing the browser to discard it. Idempotent whether or not
// a cookie was present.
func (t *Transport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     t.config.Name,
		Value:    "",
		Path:     t.config.Path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.config.Secure,
		SameSite: t.config.SameSite,
	})
}

// Read extracts the session token from the request cookie. Only the
// configured cookie is consulted; headers and URL parameters are ignored.
func (t *Transport) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(t.config.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
