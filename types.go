package tokenguard

import (
	"context"
	"io"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/tokenguard/internal/audit"
	"github.com/google/uuid"
)

// Identity is the typed form of a verified token subject. It is valid only
// for the request it was resolved in.
type Identity struct {
	UserID uuid.UUID
}

// ParseIdentity parses a token subject in the 36-character hyphenated UUID
// form. Braced, urn and unhyphenated forms and the nil UUID are rejected.
func ParseIdentity(subject string) (Identity, error) {
	if len(subject) != 36 {
		return Identity{}, ErrMalformedSubject
	}
	id, err := uuid.Parse(subject)
	if err != nil || id == uuid.Nil {
		return Identity{}, ErrMalformedSubject
	}
	return Identity{UserID: id}, nil
}

// String returns the canonical subject form of the identity.
func (i Identity) String() string {
	return i.UserID.String()
}

// IsZero reports whether i was never resolved.
func (i Identity) IsZero() bool {
	return i.UserID == uuid.Nil
}

// AuthResult is the outcome of a successful authentication.
type AuthResult struct {
	Identity  Identity
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	UserID      string
	AccessToken string
	ExpiresAt   time.Time
}

// UserRecord is the credential record returned by [UserProvider].
// UserID becomes the token subject and must be a UUID.
type UserRecord struct {
	UserID       string
	Identifier   string
	PasswordHash string
}

// UserProvider resolves login identifiers to credential records.
// Implementations return [ErrUserNotFound] for unknown identifiers.
type UserProvider interface {
	GetUserByIdentifier(ctx context.Context, identifier string) (UserRecord, error)
}

// UserProviderFunc adapts a function to [UserProvider].
type UserProviderFunc func(ctx context.Context, identifier string) (UserRecord, error)

func (f UserProviderFunc) GetUserByIdentifier(ctx context.Context, identifier string) (UserRecord, error) {
	return f(ctx, identifier)
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink is an [AuditSink] that logs events through a [slog.Logger].
type SlogSink = internalaudit.SlogSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink creates a [SlogSink]. A nil logger uses slog.Default.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
