package tokenguard

import (
	"context"
	"errors"
)

const (
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLoginRateLimited = "login_rate_limited"
	auditEventLogout           = "logout"
	auditEventTokenRevoked     = "token_revoked"
	auditEventAuthRejected     = "auth_rejected"
	auditEventStoreUnavailable = "store_unavailable"
)

// AuditErrorCode is the stable, non-sensitive error label recorded on audit events.
type AuditErrorCode string

const (
	auditErrMissingHeader      AuditErrorCode = "missing_or_invalid_header"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrRevoked            AuditErrorCode = "revoked"
	auditErrMalformedSubject   AuditErrorCode = "malformed_subject"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	info := requestInfoFrom(ctx)
	event := AuditEvent{
		EventType: eventType,
		UserID:    userID,
		IP:        info.clientIP,
		UserAgent: info.userAgent,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMissingOrInvalidHeader):
		return auditErrMissingHeader
	case errors.Is(err, ErrInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrTokenRevoked):
		return auditErrRevoked
	case errors.Is(err, ErrMalformedSubject):
		return auditErrMalformedSubject
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
