package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config defines a public type used by gatekey APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Secret is the HMAC-SHA256 signing key shared by issuer and verifier.
	Secret []byte

	// TTL is the token lifetime measured from issuance.
	TTL time.Duration

	// Issuer, when set, is stamped into the iss claim and enforced on parse.
	Issuer string
}

// Claims defines a public type used by gatekey APIs.
//
// Claims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Claims struct {
	// Name is the display name captured at login time.
	Name string `json:"name,omitempty"`

	jwt.RegisteredClaims
}

// Manager defines a public type used by gatekey APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config

	// now is swapped in tests to pin issuance and verification instants.
	now func() time.Time
}

// NewManager describes the newmanager operation and its observable behavior.
//
// NewManager may return an error when input validation, dependency calls, or security checks fail.
// NewManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: signing secret required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}

	return &Manager{
		config: cfg,
		now:    time.Now,
	}, nil
}

// Issue signs a token binding userID as the subject. The expiry is exactly
// issuance plus the configured TTL.
func (m *Manager) Issue(userID, name string) (string, error) {
	if userID == "" {
		return "", errors.New("token: subject required")
	}

	now := m.now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}

	return signed, nil
}

// Parse verifies signature, algorithm, and expiry, and returns the embedded
// claims. Verification runs with zero clock leeway.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, errors.New("token: empty token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("token: unexpected signing method %q", t.Method.Alg())
		}
		return m.config.Secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token: parse: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token: invalid claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token: missing subject")
	}

	return claims, nil
}
