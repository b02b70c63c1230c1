package gatekey

import (
	"context"
	"time"
)

const (
	auditEventSignUpSuccess      = "signup_success"
	auditEventSignUpFailure      = "signup_failure"
	auditEventSignUpDuplicate    = "signup_duplicate"
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLogout             = "logout"
	auditEventValidateFailure    = "validate_failure"
	auditEventRateLimitTriggered = "rate_limit_triggered"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	cause error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		IP:        ClientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}

// EmitRateLimit records a rate-limit rejection against the audit pipeline.
// The HTTP layer calls it because admission control runs before the engine
// ever sees the request.
func (e *Engine) EmitRateLimit(ctx context.Context, scope string) {
	if e == nil {
		return
	}
	e.metricInc(MetricRateLimitHit)
	switch scope {
	case "login":
		e.metricInc(MetricLoginRateLimited)
	case "register":
		e.metricInc(MetricSignUpRateLimited)
	}
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", ErrRateLimited, func() map[string]string {
		return map[string]string{
			"scope": scope,
		}
	})
}
