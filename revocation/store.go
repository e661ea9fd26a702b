package revocation

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrStoreUnavailable wraps every backend failure.
	ErrStoreUnavailable = errors.New("revocation store unavailable")
	// ErrNotFound is returned by Lookup when the token was never revoked.
	ErrNotFound = errors.New("revocation record not found")
	// ErrEmptyToken is returned when an empty token string is supplied.
	ErrEmptyToken = errors.New("empty token")
)

// Store is the durable revocation set consumed by the engine.
type Store interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Record is the persisted fact about a revoked token.
type Record struct {
	Token     string
	RevokedAt time.Time
}

func nowFunc(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
