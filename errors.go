package tokenguard

import (
	"errors"
	"net/http"
)

var (
	// ErrMissingOrInvalidHeader is returned when the Authorization header is
	// absent, uses a scheme other than "Bearer ", or carries an empty token.
	ErrMissingOrInvalidHeader = errors.New("missing or invalid authorization header")
	// ErrInvalidToken covers malformed encoding, bad signature, wrong algorithm
	// and expiry. The cause is never exposed.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked is returned for a token that verifies but has been revoked.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrMalformedSubject is returned when a verified subject is not a valid identity.
	ErrMalformedSubject = errors.New("malformed token subject")
	// ErrStoreUnavailable is returned when the revocation or throttle store cannot answer.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidCredentials is returned by Login for unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned by UserProvider implementations.
	ErrUserNotFound = errors.New("user not found")
	// ErrLoginRateLimited is returned by Login once the throttle budget is spent.
	ErrLoginRateLimited = errors.New("login rate limited")

	// ErrMissingSigningSecret is returned when no signing secret is configured.
	ErrMissingSigningSecret = errors.New("signing secret is required")
	// ErrWeakSigningSecret is returned when the signing secret is shorter than 32 bytes.
	ErrWeakSigningSecret = errors.New("signing secret must be at least 32 bytes")
	// ErrEmptySubject is returned by IssueToken for an empty subject.
	ErrEmptySubject = errors.New("subject must not be empty")
	// ErrEngineNotReady is returned by operations on a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not ready")
)

// RejectReason classifies why a protected request was not authorized.
type RejectReason uint8

const (
	RejectNone RejectReason = iota
	RejectMissingOrInvalidHeader
	RejectInvalidToken
	RejectRevoked
	RejectMalformedSubject
	RejectStoreUnavailable
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectMissingOrInvalidHeader:
		return "missing_or_invalid_header"
	case RejectInvalidToken:
		return "invalid_token"
	case RejectRevoked:
		return "revoked"
	case RejectMalformedSubject:
		return "malformed_subject"
	case RejectStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the reason to a response status. Every authentication
// rejection is 401; store unavailability is 503.
func (r RejectReason) HTTPStatus() int {
	switch r {
	case RejectNone:
		return http.StatusOK
	case RejectStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}

// RejectReasonOf classifies err. Errors that are not part of the
// authentication taxonomy are treated as store failures so that an
// unexpected error never authorizes a request.
func RejectReasonOf(err error) RejectReason {
	switch {
	case err == nil:
		return RejectNone
	case errors.Is(err, ErrMissingOrInvalidHeader):
		return RejectMissingOrInvalidHeader
	case errors.Is(err, ErrInvalidToken):
		return RejectInvalidToken
	case errors.Is(err, ErrTokenRevoked):
		return RejectRevoked
	case errors.Is(err, ErrMalformedSubject):
		return RejectMalformedSubject
	default:
		return RejectStoreUnavailable
	}
}
