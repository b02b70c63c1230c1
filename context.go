package gatekey

import "context"

type clientIPContextKey struct{}
type authNameContextKey struct{}

// WithClientIP attaches the caller’s network address to ctx. The HTTP layer
// uses it as the rate-limit partition key and stamps it into audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithAuthenticatedName attaches the cookie-authenticated display name to
// ctx. When present it takes precedence over the client address as the
// login-policy partition key.
func WithAuthenticatedName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, authNameContextKey{}, name)
}

// ClientIPFromContext returns the address set by [WithClientIP], or "".
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// AuthenticatedNameFromContext returns the name set by
// [WithAuthenticatedName] and whether one was present.
func AuthenticatedNameFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	name, _ := ctx.Value(authNameContextKey{}).(string)
	if name == "" {
		return "", false
	}

	return name, true
}
