package tokenguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/tokenguard/internal/audit"
	"github.com/MrEthical07/tokenguard/internal/flows"
	"github.com/MrEthical07/tokenguard/internal/rate"
	"github.com/MrEthical07/tokenguard/jwt"
	"github.com/MrEthical07/tokenguard/password"
	"github.com/MrEthical07/tokenguard/revocation"
)

// Engine issues, verifies and revokes session tokens and authenticates
// protected requests. It is immutable after Build and safe for concurrent use.
type Engine struct {
	config       Config
	jwtManager   *jwt.Manager
	revocations  revocation.Store
	rateLimiter  *rate.Limiter
	hasher       password.Hasher
	userProvider UserProvider
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	flow         flows.Service
}

// Close stops the audit dispatcher after draining queued events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the in-process counters.
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

func (e *Engine) ready() bool {
	return e != nil && e.jwtManager != nil && e.revocations != nil && e.flow.Initialized()
}

// AccessTTL returns the validity window applied to issued tokens.
func (e *Engine) AccessTTL() time.Duration {
	if e == nil || e.jwtManager == nil {
		return 0
	}
	return e.jwtManager.TTL()
}

// IssueToken signs a token for subject that expires after the configured TTL.
func (e *Engine) IssueToken(subject string) (string, error) {
	token, _, err := e.issue(subject)
	return token, err
}

func (e *Engine) issue(subject string) (string, time.Time, error) {
	if !e.ready() {
		return "", time.Time{}, ErrEngineNotReady
	}
	token, expiresAt, err := e.issueForLogin(subject)
	if err != nil {
		return "", time.Time{}, err
	}
	e.metricInc(MetricTokenIssued)
	return token, expiresAt, nil
}

// VerifyToken checks signature, algorithm and expiry and returns the subject.
// Every failure is [ErrInvalidToken]. It performs no store lookup; use
// [Engine.Authenticate] for protected requests.
func (e *Engine) VerifyToken(token string) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	claims, err := e.verify(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (e *Engine) verify(token string) (*jwt.Claims, error) {
	claims, err := e.jwtManager.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke adds the raw token string to the revocation set without verifying
// it. Revoking twice is a no-op.
//
//	Performance: 1 store round trip.
func (e *Engine) Revoke(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if token == "" {
		return ErrInvalidToken
	}
	if err := e.revocations.Revoke(ctx, token); err != nil {
		return e.storeFailure(ctx, "revoke", err)
	}
	e.metricInc(MetricRevoked)
	e.emitAudit(ctx, auditEventTokenRevoked, true, "", nil, nil)
	return nil
}

// IsRevoked reports whether token is in the revocation set.
//
//	Performance: 1 store round trip.
func (e *Engine) IsRevoked(ctx context.Context, token string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	if token == "" {
		return false, ErrInvalidToken
	}
	revoked, err := e.revocations.IsRevoked(ctx, token)
	if err != nil {
		return false, e.storeFailure(ctx, "is_revoked", err)
	}
	return revoked, nil
}

// AuthenticateHeader runs the full check on an Authorization header value:
// bearer extraction, verification, revocation lookup and identity parsing.
// Store failures return [ErrStoreUnavailable] and never authorize.
//
//	Performance: at most 1 store round trip; none for rejected headers or tokens.
func (e *Engine) AuthenticateHeader(ctx context.Context, header string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	res := e.flow.Authenticate(ctx, header)
	return e.finishAuthenticate(ctx, res, start)
}

// Authenticate is AuthenticateHeader for an already extracted token.
func (e *Engine) Authenticate(ctx context.Context, token string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	res := e.flow.AuthenticateToken(ctx, token)
	return e.finishAuthenticate(ctx, res, start)
}

func (e *Engine) finishAuthenticate(ctx context.Context, res flows.AuthenticateResult, start time.Time) (*AuthResult, error) {
	if e.metrics.LatencyEnabled() {
		defer func() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}()
	}

	var err error
	switch res.Failure {
	case flows.AuthenticateFailureNone:
		e.metricInc(MetricAuthorized)
		result := &AuthResult{
			Identity: Identity{UserID: res.Subject},
			TokenID:  res.Claims.ID,
		}
		if res.Claims.IssuedAt != nil {
			result.IssuedAt = res.Claims.IssuedAt.Time
		}
		result.ExpiresAt = res.Claims.Expiry()
		return result, nil
	case flows.AuthenticateFailureMissingOrInvalidHeader:
		e.metricInc(MetricRejectMissingHeader)
		err = ErrMissingOrInvalidHeader
	case flows.AuthenticateFailureInvalidToken:
		e.metricInc(MetricRejectInvalidToken)
		err = ErrInvalidToken
	case flows.AuthenticateFailureRevoked:
		e.metricInc(MetricRejectRevoked)
		err = ErrTokenRevoked
	case flows.AuthenticateFailureMalformedSubject:
		e.metricInc(MetricRejectMalformedSubject)
		err = ErrMalformedSubject
	case flows.AuthenticateFailureStoreUnavailable:
		e.metricInc(MetricRejectStoreUnavailable)
		err = e.storeFailure(ctx, "is_revoked", res.Err)
	default:
		return nil, ErrEngineNotReady
	}

	e.emitAudit(ctx, auditEventAuthRejected, false, rejectedSubject(res), err, func() map[string]string {
		return map[string]string{
			"reason": RejectReasonOf(err).String(),
			"stage":  res.Stage.String(),
		}
	})
	return nil, err
}

// rejectedSubject reports the subject only once the token has verified.
func rejectedSubject(res flows.AuthenticateResult) string {
	if res.Claims == nil {
		return ""
	}
	return res.Claims.Subject
}

// Login checks identifier and password against the [UserProvider] and issues
// a token for the user's id. Unknown users and wrong passwords both return
// [ErrInvalidCredentials].
func (e *Engine) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	res, err := e.flow.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		UserID:      res.UserID,
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
	}, nil
}

// Logout verifies token and then revokes it. Tokens that fail verification
// return [ErrInvalidToken] and never reach the store. Repeating a logout
// succeeds.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	res := e.flow.Logout(ctx, token)
	if !res.Verified {
		e.metricInc(MetricLogoutInvalidToken)
		return ErrInvalidToken
	}
	if res.Err != nil {
		return e.storeFailure(ctx, "revoke", res.Err)
	}

	e.metricInc(MetricRevoked)
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, res.Claims.Subject, nil, func() map[string]string {
		return map[string]string{"token_id": res.Claims.ID}
	})
	return nil
}

// HashPassword hashes plaintext with the configured algorithm for storage
// by a registration collaborator.
func (e *Engine) HashPassword(plaintext string) (string, error) {
	if e == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}
	return e.hasher.Hash(plaintext)
}

// Ping checks the revocation backend when it supports health checks.
func (e *Engine) Ping(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	p, ok := e.revocations.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// storeFailure logs a backend error and converts it to ErrStoreUnavailable.
func (e *Engine) storeFailure(ctx context.Context, op string, err error) error {
	e.metricInc(MetricStoreFailure)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		e.logger.WarnContext(ctx, "tokenguard: store call abandoned", "op", op, "error", err)
	} else {
		e.logger.ErrorContext(ctx, "tokenguard: store unavailable", "op", op, "error", err)
		e.emitAudit(ctx, auditEventStoreUnavailable, false, "", ErrStoreUnavailable, func() map[string]string {
			return map[string]string{"op": op}
		})
	}
	if err == nil {
		return ErrStoreUnavailable
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
