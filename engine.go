package gatekey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/gatekey/password"
	"github.com/MrEthical07/gatekey/token"
)

// Engine defines a public type used by gatekey APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config  Config
	store   UserStore
	hasher  password.Hasher
	tokens  *token.Manager
	audit   *auditDispatcher
	metrics *Metrics
}

// Close flushes and stops the audit dispatcher. Safe on a nil receiver.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under buffer
// pressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a detached copy of all counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// TokenTTL returns the configured session token lifetime. The cookie
// transport uses it so cookie expiry and token expiry stay aligned.
func (e *Engine) TokenTTL() time.Duration {
	return e.config.Token.TTL
}

// SignUp describes the signup operation and its observable behavior.
//
// SignUp may return an error when input validation, dependency calls, or security checks fail.
// SignUp does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The returned bool mirrors whether the insert produced a persisted
// identifier. Blank fields yield ErrValidation; an email already present in
// the store (case-sensitive exact match) yields ErrAccountExists and leaves
// the stored identity untouched.
func (e *Engine) SignUp(ctx context.Context, name, email, plaintext string) (bool, error) {
	if e == nil || e.store == nil || e.hasher == nil {
		return false, ErrEngineNotReady
	}
	if name == "" || email == "" || plaintext == "" {
		e.metricInc(MetricSignUpFailure)
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", ErrValidation, func() map[string]string {
			return map[string]string{
				"reason": "blank_fields",
			}
		})
		return false, ErrValidation
	}

	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		e.metricInc(MetricSignUpFailure)
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"reason": "hash_failed",
			}
		})
		return false, err
	}

	record := UserRecord{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	persistedID, err := e.store.InsertIfAbsent(ctx, record)
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricSignUpDuplicate)
			e.emitAudit(ctx, auditEventSignUpDuplicate, false, "", ErrAccountExists, func() map[string]string {
				return map[string]string{
					"email": email,
				}
			})
			return false, ErrAccountExists
		}
		e.metricInc(MetricSignUpFailure)
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"reason": "store_insert_failed",
			}
		})
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricSignUpSuccess)
	e.emitAudit(ctx, auditEventSignUpSuccess, true, persistedID, nil, func() map[string]string {
		return map[string]string{
			"email": email,
		}
	})

	return persistedID != "", nil
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// An unknown email and a wrong password both return ErrInvalidCredentials
// through the same code path shape: the caller cannot tell which factor was
// wrong. Store connectivity faults are reported as ErrStoreUnavailable, never
// folded into the credential failure.
func (e *Engine) Login(ctx context.Context, email, plaintext string) (string, error) {
	if e == nil || e.store == nil || e.hasher == nil || e.tokens == nil {
		return "", ErrEngineNotReady
	}
	if email == "" || plaintext == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "blank_fields",
			}
		})
		return "", ErrInvalidCredentials
	}

	user, err := e.store.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", err, func() map[string]string {
				return map[string]string{
					"reason": "store_lookup_failed",
				}
			})
			return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "user_not_found",
			}
		})
		return "", ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": "password_mismatch",
			}
		})
		return "", ErrInvalidCredentials
	}

	signed, err := e.tokens.Issue(user.ID, user.Name)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, err, func() map[string]string {
			return map[string]string{
				"reason": "issue_token_failed",
			}
		})
		return "", err
	}

	e.metricInc(MetricTokenIssued)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, nil, func() map[string]string {
		return map[string]string{
			"email": email,
		}
	})

	return signed, nil
}

// ValidateToken describes the validatetoken operation and its observable behavior.
//
// ValidateToken may return an error when input validation, dependency calls, or security checks fail.
// ValidateToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Any signature, expiry, or claim defect yields ErrUnauthorized with no
// further detail. A missing token is the caller's concern: the request
// pipeline treats absence as "unauthenticated", never as an error, and does
// not reach this method.
func (e *Engine) ValidateToken(ctx context.Context, tokenStr string) (*AuthResult, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	claims, err := e.tokens.Parse(tokenStr)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		e.emitAudit(ctx, auditEventValidateFailure, false, "", ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}

	e.metricInc(MetricValidateSuccess)
	return &AuthResult{
		UserID: claims.Subject,
		Name:   claims.Name,
	}, nil
}

// Logout records a session close. There is no server-side session state to
// destroy — the cookie transport clears the client copy — so this always
// succeeds and is idempotent.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil {
		return nil
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", nil, nil)
	return nil
}
