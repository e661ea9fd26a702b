package tokenguard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/tokenguard/internal/flows"
	"github.com/MrEthical07/tokenguard/internal/rate"
	"github.com/MrEthical07/tokenguard/jwt"
	"github.com/google/uuid"
)

// parseSubjectUUID accepts only the canonical hyphenated subject form.
func parseSubjectUUID(subject string) (uuid.UUID, error) {
	id, err := ParseIdentity(subject)
	return id.UserID, err
}

// canonicalUserID returns the subject form issued for a stored user id.
func canonicalUserID(userID string) (string, error) {
	id, err := ParseIdentity(userID)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// initFlowDeps wires the flow service once at Build time.
func (e *Engine) initFlowDeps() {
	deps := flows.Deps{
		Authenticate: flows.AuthenticateDeps{
			Verify:       e.jwtManager.Verify,
			IsRevoked:    e.revocations.IsRevoked,
			ParseSubject: parseSubjectUUID,
		},
		Logout: flows.LogoutDeps{
			Verify: e.jwtManager.Verify,
			Revoke: e.revocations.Revoke,
		},
		Login: flows.LoginDeps{
			ClientIPFromContext: clientIPFromContext,
			VerifyPassword:      e.hasher.Verify,
			IssueToken:          e.issueForLogin,
			CanonicalUserID:     canonicalUserID,
			UserLookupFailed: func(ctx context.Context, err error) error {
				return e.storeFailure(ctx, "user_lookup", err)
			},
			MetricInc: func(id int) {
				e.metricInc(MetricID(id))
			},
			EmitAudit: func(ctx context.Context, event string, success bool, userID string, err error, metadata func() map[string]string) {
				e.emitAudit(ctx, event, success, userID, err, metadata)
			},
			Warn: func(msg string, args ...any) {
				e.logger.Warn(msg, args...)
			},
			Metrics: flows.LoginMetrics{
				LoginSuccess:     int(MetricLoginSuccess),
				LoginFailure:     int(MetricLoginFailure),
				LoginRateLimited: int(MetricLoginRateLimited),
				TokenIssued:      int(MetricTokenIssued),
			},
			Events: flows.LoginEvents{
				LoginSuccess:     auditEventLoginSuccess,
				LoginFailure:     auditEventLoginFailure,
				LoginRateLimited: auditEventLoginRateLimited,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidCredentials: ErrInvalidCredentials,
				LoginRateLimited:   ErrLoginRateLimited,
				StoreUnavailable:   ErrStoreUnavailable,
				UserNotFound:       ErrUserNotFound,
				MalformedUserID:    ErrMalformedSubject,
			},
		},
	}

	if e.userProvider != nil {
		up := e.userProvider
		deps.Login.GetUserByIdentifier = func(ctx context.Context, identifier string) (flows.LoginUserRecord, error) {
			u, err := up.GetUserByIdentifier(ctx, identifier)
			if err != nil {
				return flows.LoginUserRecord{}, err
			}
			return flows.LoginUserRecord{
				UserID:       u.UserID,
				Identifier:   u.Identifier,
				PasswordHash: u.PasswordHash,
			}, nil
		}
	}

	if e.rateLimiter != nil {
		limiter := e.rateLimiter
		deps.Login.CheckLoginRate = func(ctx context.Context, identifier, ip string) error {
			return e.mapRateError(ctx, limiter.CheckLogin(ctx, identifier, ip))
		}
		deps.Login.IncrementLoginRate = func(ctx context.Context, identifier, ip string) error {
			return e.mapRateError(ctx, limiter.IncrementLogin(ctx, identifier, ip))
		}
		deps.Login.ResetLoginRate = func(ctx context.Context, identifier, ip string) error {
			return e.mapRateError(ctx, limiter.ResetLogin(ctx, identifier, ip))
		}
	}

	e.flow = flows.New(deps)
}

// issueForLogin is issue without the metric; the login flow counts it.
func (e *Engine) issueForLogin(subject string) (string, time.Time, error) {
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, ErrEmptySubject
	}
	token, claims, err := e.jwtManager.IssueWithClaims(subject)
	if errors.Is(err, jwt.ErrEmptySubject) {
		return "", time.Time{}, ErrEmptySubject
	}
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.Expiry(), nil
}

func (e *Engine) mapRateError(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrLoginRateLimited
	case errors.Is(err, rate.ErrRedisUnavailable):
		return e.storeFailure(ctx, "login_throttle", err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
