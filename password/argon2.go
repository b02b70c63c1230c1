package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Config defines a public type used by gatekey APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Memory is the argon2id memory cost in KiB.
	Memory uint32

	// Time is the argon2id iteration count.
	Time uint32

	// Parallelism is the argon2id lane count.
	Parallelism uint8

	// SaltLength is the random salt size in bytes.
	SaltLength uint32

	// KeyLength is the derived key size in bytes.
	KeyLength uint32
}

// Argon2 defines a public type used by gatekey APIs.
//
// Argon2 instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Argon2 struct {
	config Config
}

// NewArgon2 describes the newargon2 operation and its observable behavior.
//
// NewArgon2 may return an error when input validation, dependency calls, or security checks fail.
// NewArgon2 does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewArgon2(cfg Config) (*Argon2, error) {
	if cfg.Memory < 8*1024 {
		return nil, errors.New("password: argon2 memory below 8 MiB")
	}
	if cfg.Time < 1 {
		return nil, errors.New("password: argon2 time cost must be at least 1")
	}
	if cfg.Parallelism < 1 {
		return nil, errors.New("password: argon2 parallelism must be at least 1")
	}
	if cfg.SaltLength < 16 {
		return nil, errors.New("password: argon2 salt below 16 bytes")
	}
	if cfg.KeyLength < 32 {
		return nil, errors.New("password: argon2 key below 32 bytes")
	}

	return &Argon2{config: cfg}, nil
}

// Hash derives a salted argon2id hash in PHC string format.
func (a *Argon2) Hash(plaintext string) (string, error) {
	salt := make([]byte, a.config.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: salt generation: %w", err)
	}

	key := argon2.IDKey(
		[]byte(plaintext),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify re-derives the key using the parameters recorded in the stored hash
// and compares in constant time. Parameters come from the stored value, not
// the receiver, so hashes written under older settings still verify.
func (a *Argon2) Verify(plaintext, stored string) (bool, error) {
	params, salt, key, err := parsePHC(stored)
	if err != nil {
		return false, err
	}

	derived := argon2.IDKey(
		[]byte(plaintext),
		salt,
		params.Time,
		params.Memory,
		params.Parallelism,
		uint32(len(key)),
	)

	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

func parsePHC(stored string) (Config, []byte, []byte, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Config{}, nil, nil, errors.New("password: malformed argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Config{}, nil, nil, errors.New("password: malformed argon2id version")
	}
	if version != argon2.Version {
		return Config{}, nil, nil, fmt.Errorf("password: unsupported argon2 version %d", version)
	}

	var params Config
	if _, err := fmt.Sscanf(
		parts[3],
		"m=%d,t=%d,p=%d",
		&params.Memory,
		&params.Time,
		&params.Parallelism,
	); err != nil {
		return Config{}, nil, nil, errors.New("password: malformed argon2id parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Config{}, nil, nil, errors.New("password: malformed argon2id salt")
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Config{}, nil, nil, errors.New("password: malformed argon2id key")
	}

	return params, salt, key, nil
}
