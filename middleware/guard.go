package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/MrEthical07/gatekey"
	"github.com/MrEthical07/gatekey/internal/rate"
	"github.com/MrEthical07/gatekey/session"
)

type authResultContextKey struct{}

// KeyFunc selects the rate-limit partition key for a request.
type KeyFunc func(*http.Request) string

// ClientIP extracts the remote IP, dropping the port. It is the default
// partition key.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// AuthResultFromContext returns the identity Authenticate attached, if any.
func AuthResultFromContext(ctx context.Context) (*gatekey.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*gatekey.AuthResult)
	return res, ok
}

// RequestContext stamps the client IP into the request context so the engine
// can attribute audit events. It runs first in the chain.
func RequestContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := gatekey.WithClientIP(r.Context(), ClientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit charges one token under policy, partitioned by key, before the
// wrapped handler runs. A rejected request is answered 429 and never reaches
// the handler.
func RateLimit(engine *gatekey.Engine, limiter *rate.Limiter, policy string, key KeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := limiter.Allow(policy, key(r)); err != nil {
				engine.EmitRateLimit(r.Context(), policy)
				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"message": "too many requests, retry later",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate reads the session cookie and, when it verifies, attaches the
// resulting identity to the request context. Absence or failure is not an
// error here; the request continues unauthenticated and RequireAuth decides
// whether that matters.
func Authenticate(engine *gatekey.Engine, transport *session.Transport) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := transport.Read(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			res, err := engine.ValidateToken(r.Context(), tok)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			ctx = gatekey.WithAuthenticatedName(ctx, res.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that carry no verified identity with a 401.
// It must run after Authenticate.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := AuthResultFromContext(r.Context()); !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"isAuthenticated": false,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
