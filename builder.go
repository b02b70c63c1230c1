package gatekey

import (
	"errors"

	"github.com/MrEthical07/gatekey/password"
	"github.com/MrEthical07/gatekey/token"
)

// Builder defines a public type used by gatekey APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	store     UserStore
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore supplies the identity store the engine reads and writes.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.store = store
	return b
}

// WithAuditSink supplies the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithAuditEnabled toggles the audit pipeline.
func (b *Builder) WithAuditEnabled(enabled bool) *Builder {
	b.config.Audit.Enabled = enabled
	return b
}

// WithMetricsEnabled toggles counter recording.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("user store required")
	}

	engine := &Engine{
		config: cloneConfig(cfg),
		store:  b.store,
	}

	tm, err := token.NewManager(token.Config{
		Secret: cloneBytes(cfg.Token.Secret),
		TTL:    cfg.Token.TTL,
		Issuer: cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}
	engine.tokens = tm

	switch cfg.Password.Mode {
	case PasswordModeArgon2:
		ph, err := password.NewArgon2(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		engine.hasher = ph
	default:
		engine.hasher = password.NewDigest()
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
