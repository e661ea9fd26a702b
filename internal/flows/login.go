package flows

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	UserID      string
	AccessToken string
	ExpiresAt   time.Time
}

// LoginUserRecord is a flow-local user model.
type LoginUserRecord struct {
	UserID       string
	Identifier   string
	PasswordHash string
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
	TokenIssued      int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	LoginRateLimited   error
	StoreUnavailable   error
	// UserNotFound is the only lookup error treated as a credential failure.
	UserNotFound error
	// MalformedUserID is returned when a stored user id cannot be a subject.
	MalformedUserID error
}

// LoginDeps captures login dependencies. The rate funcs are optional; when
// set they must return Errors.LoginRateLimited or Errors.StoreUnavailable.
type LoginDeps struct {
	ClientIPFromContext func(context.Context) string

	CheckLoginRate     func(context.Context, string, string) error
	IncrementLoginRate func(context.Context, string, string) error
	ResetLoginRate     func(context.Context, string, string) error

	GetUserByIdentifier func(context.Context, string) (LoginUserRecord, error)
	VerifyPassword      func(string, string) (bool, error)
	IssueToken          func(string) (string, time.Time, error)

	// UserLookupFailed converts a user backend error into the returned
	// error. Defaults to wrapping Errors.StoreUnavailable.
	UserLookupFailed func(context.Context, error) error
	// CanonicalUserID validates a stored user id and returns the subject
	// form to issue. Optional.
	CanonicalUserID func(string) (string, error)

	MetricInc func(int)
	EmitAudit func(context.Context, string, bool, string, error, func() map[string]string)
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin checks the credentials and issues a token for the user id.
// Unknown identifiers and wrong passwords are indistinguishable to the caller.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.UserLookupFailed == nil {
		deps.UserLookupFailed = func(_ context.Context, err error) error {
			return fmt.Errorf("%w: %v", deps.Errors.StoreUnavailable, err)
		}
	}
	if deps.GetUserByIdentifier == nil ||
		deps.VerifyPassword == nil ||
		deps.IssueToken == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)
	identity := func() map[string]string {
		return map[string]string{"identifier": identifier}
	}

	rateLimited := func(err error) error {
		if errors.Is(err, deps.Errors.LoginRateLimited) {
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, "", err, identity)
		}
		return err
	}

	fail := func(reason string) (*LoginResult, error) {
		if deps.IncrementLoginRate != nil {
			if err := deps.IncrementLoginRate(ctx, identifier, ip); err != nil {
				return nil, rateLimited(err)
			}
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     reason,
			}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, identifier, ip); err != nil {
			return nil, rateLimited(err)
		}
	}

	if identifier == "" || password == "" {
		return fail("empty_credentials")
	}

	user, err := deps.GetUserByIdentifier(ctx, identifier)
	switch {
	case err == nil:
	case deps.Errors.UserNotFound != nil && errors.Is(err, deps.Errors.UserNotFound):
		return fail("user_not_found")
	default:
		return nil, deps.UserLookupFailed(ctx, err)
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		deps.Warn("tokenguard: stored password digest unusable", "user_id", user.UserID, "error", err)
		return fail("malformed_digest")
	}
	if !ok {
		return fail("password_mismatch")
	}

	if deps.CanonicalUserID != nil {
		canonical, err := deps.CanonicalUserID(user.UserID)
		if err != nil {
			deps.Warn("tokenguard: stored user id is not a valid subject", "user_id", user.UserID)
			return nil, deps.Errors.MalformedUserID
		}
		user.UserID = canonical
	}

	token, expiresAt, err := deps.IssueToken(user.UserID)
	if err != nil {
		return nil, err
	}
	deps.MetricInc(deps.Metrics.TokenIssued)

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, identifier, ip); err != nil {
			deps.Warn("tokenguard: login throttle reset failed", "error", err)
		}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.UserID, nil, identity)

	return &LoginResult{
		UserID:      user.UserID,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}
