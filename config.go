package gatekey

import (
	"errors"
	"net/http"
	"time"
)

// Config defines a public type used by gatekey APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token     TokenConfig
	Cookie    CookieConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by gatekey APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	// Secret is the symmetric HS256 signing key. It is read once at
	// startup; rotating it invalidates every outstanding session token.
	Secret []byte
	// TTL bounds the token lifetime. Expiry is checked with zero leeway.
	TTL    time.Duration
	Issuer string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig defines a public type used by gatekey APIs.
//
// CookieConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CookieConfig struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordMode selects the credential hashing scheme.
type PasswordMode string

const (
	// PasswordModeDigest is the deterministic unsalted SHA-256 scheme kept
	// for compatibility with pre-existing identity records. It is a known
	// hardening gap, not an oversight; new deployments without legacy
	// records should use PasswordModeArgon2.
	PasswordModeDigest PasswordMode = "digest"
	// PasswordModeArgon2 is an exported constant or variable used by the authentication engine.
	PasswordModeArgon2 PasswordMode = "argon2id"
)

// PasswordConfig defines a public type used by gatekey APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Mode PasswordMode

	// Argon2 parameters, used only in PasswordModeArgon2.
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RatePolicy defines a public type used by gatekey APIs.
//
// RatePolicy instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RatePolicy struct {
	// Burst is the bucket capacity; a partition never holds more tokens.
	Burst int
	// Refill tokens are added every Interval, up to Burst. Replenishment is
	// computed from elapsed time, so an idle bucket is full again without
	// any request having to trigger it.
	Refill   int
	Interval time.Duration
}

// RateLimitConfig defines a public type used by gatekey APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	Global   RatePolicy
	Login    RatePolicy
	Register RatePolicy

	// IdleEviction is how long an untouched bucket survives before the
	// sweeper may reclaim it. Zero disables sweeping.
	IdleEviction time.Duration
}

// AuditConfig defines a public type used by gatekey APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by gatekey APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the stock configuration: one-hour HS256 tokens, the
// "jwt" cross-site cookie, digest-mode hashing, and the standard three-policy
// rate-limit table.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL: time.Hour,
		},
		Cookie: CookieConfig{
			Name:     "jwt",
			Path:     "/",
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
		},
		Password: PasswordConfig{
			Mode:        PasswordModeDigest,
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		RateLimit: RateLimitConfig{
			Global:       RatePolicy{Burst: 80, Refill: 80, Interval: 10 * time.Second},
			Login:        RatePolicy{Burst: 5, Refill: 5, Interval: 60 * time.Second},
			Register:     RatePolicy{Burst: 3, Refill: 3, Interval: 300 * time.Second},
			IdleEviction: 30 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) == 0 {
		return errors.New("Token Secret is required")
	}
	if len(c.Token.Secret) < 32 {
		return errors.New("Token Secret must be >= 256 bits")
	}
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be > 0")
	}

	// Cookie
	if c.Cookie.Name == "" {
		return errors.New("Cookie Name is required")
	}
	if c.Cookie.Path == "" {
		return errors.New("Cookie Path is required")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("SameSite=None requires Secure cookies")
	}

	// Password
	switch c.Password.Mode {
	case PasswordModeDigest:
		// no tunables
	case PasswordModeArgon2:
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
		if c.Password.SaltLength < 16 {
			return errors.New("Password SaltLength must be >= 16")
		}
		if c.Password.KeyLength < 32 {
			return errors.New("Password KeyLength must be >= 32")
		}
	default:
		return errors.New("unsupported password mode")
	}

	// Rate limit
	for _, p := range []struct {
		name   string
		policy RatePolicy
	}{
		{"Global", c.RateLimit.Global},
		{"Login", c.RateLimit.Login},
		{"Register", c.RateLimit.Register},
	} {
		if p.policy.Burst <= 0 {
			return errors.New("RateLimit " + p.name + " Burst must be > 0")
		}
		if p.policy.Refill <= 0 {
			return errors.New("RateLimit " + p.name + " Refill must be > 0")
		}
		if p.policy.Interval <= 0 {
			return errors.New("RateLimit " + p.name + " Interval must be > 0")
		}
	}
	if c.RateLimit.IdleEviction < 0 {
		return errors.New("RateLimit IdleEviction must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
