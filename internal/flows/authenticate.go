package flows

import (
	"context"
	"strings"

	"github.com/MrEthical07/tokenguard/jwt"
	"github.com/google/uuid"
)

// BearerPrefix is the only accepted Authorization scheme prefix.
const BearerPrefix = "Bearer "

// Stage is a state of the authenticate state machine.
type Stage uint8

const (
	StageExtractingToken Stage = iota
	StageVerifyingToken
	StageCheckingRevocation
	StageResolvingIdentity
	StageAuthorized
)

func (s Stage) String() string {
	switch s {
	case StageExtractingToken:
		return "extracting_token"
	case StageVerifyingToken:
		return "verifying_token"
	case StageCheckingRevocation:
		return "checking_revocation"
	case StageResolvingIdentity:
		return "resolving_identity"
	case StageAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// AuthenticateFailureKind classifies authenticate failures for root-level mapping.
type AuthenticateFailureKind uint8

const (
	AuthenticateFailureNone AuthenticateFailureKind = iota
	AuthenticateFailureMissingOrInvalidHeader
	AuthenticateFailureInvalidToken
	AuthenticateFailureRevoked
	AuthenticateFailureMalformedSubject
	AuthenticateFailureStoreUnavailable
	AuthenticateFailureNotReady
)

// AuthenticateResult carries either the authorized subject or the stage and
// kind of the failure that ended the flow.
type AuthenticateResult struct {
	Stage   Stage
	Failure AuthenticateFailureKind
	Err     error
	Claims  *jwt.Claims
	Subject uuid.UUID
}

// Authorized reports whether the flow reached StageAuthorized.
func (r AuthenticateResult) Authorized() bool {
	return r.Failure == AuthenticateFailureNone && r.Stage == StageAuthorized
}

// AuthenticateDeps captures verify/revocation/identity dependencies.
type AuthenticateDeps struct {
	Verify       func(string) (*jwt.Claims, error)
	IsRevoked    func(context.Context, string) (bool, error)
	ParseSubject func(string) (uuid.UUID, error)
}

// ExtractBearer returns the token carried by an Authorization header value.
// The scheme must be exactly "Bearer " and the token must be non-empty.
func ExtractBearer(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// RunAuthenticate executes the full state machine from a raw Authorization header value.
func RunAuthenticate(ctx context.Context, header string, deps AuthenticateDeps) AuthenticateResult {
	token, ok := ExtractBearer(header)
	if !ok {
		return AuthenticateResult{
			Stage:   StageExtractingToken,
			Failure: AuthenticateFailureMissingOrInvalidHeader,
		}
	}
	return RunAuthenticateToken(ctx, token, deps)
}

// RunAuthenticateToken executes the state machine for an already extracted token.
func RunAuthenticateToken(ctx context.Context, token string, deps AuthenticateDeps) AuthenticateResult {
	if deps.Verify == nil || deps.IsRevoked == nil {
		return AuthenticateResult{Stage: StageExtractingToken, Failure: AuthenticateFailureNotReady}
	}
	if deps.ParseSubject == nil {
		deps.ParseSubject = uuid.Parse
	}

	if token == "" {
		return AuthenticateResult{
			Stage:   StageExtractingToken,
			Failure: AuthenticateFailureMissingOrInvalidHeader,
		}
	}

	claims, err := deps.Verify(token)
	if err != nil {
		return AuthenticateResult{
			Stage:   StageVerifyingToken,
			Failure: AuthenticateFailureInvalidToken,
			Err:     err,
		}
	}

	// A canceled request must not be authorized on an unanswered lookup.
	if err := ctx.Err(); err != nil {
		return AuthenticateResult{
			Stage:   StageCheckingRevocation,
			Failure: AuthenticateFailureStoreUnavailable,
			Err:     err,
			Claims:  claims,
		}
	}

	revoked, err := deps.IsRevoked(ctx, token)
	if err != nil {
		return AuthenticateResult{
			Stage:   StageCheckingRevocation,
			Failure: AuthenticateFailureStoreUnavailable,
			Err:     err,
			Claims:  claims,
		}
	}
	if revoked {
		return AuthenticateResult{
			Stage:   StageCheckingRevocation,
			Failure: AuthenticateFailureRevoked,
			Claims:  claims,
		}
	}

	subject, err := deps.ParseSubject(claims.Subject)
	if err != nil || subject == uuid.Nil {
		return AuthenticateResult{
			Stage:   StageResolvingIdentity,
			Failure: AuthenticateFailureMalformedSubject,
			Err:     err,
			Claims:  claims,
		}
	}

	return AuthenticateResult{
		Stage:   StageAuthorized,
		Claims:  claims,
		Subject: subject,
	}
}
