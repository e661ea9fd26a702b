// Package tokenguard provides stateless HS256 session tokens with a durable
// revocation set, and the request authentication built on them.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Request authentication
//
// [Engine.AuthenticateHeader] runs, in order: bearer extraction, signature and
// expiry verification, revocation lookup on the raw token string, and subject
// parsing into an [Identity]. A token that fails verification never reaches
// the store. A store failure returns [ErrStoreUnavailable] and never
// authorizes. [RejectReasonOf] and [RejectReason.HTTPStatus] map errors to
// 401 for authentication failures and 503 for store unavailability.
//
// # Architecture boundaries
//
// tokenguard is the public surface. It exposes [Engine], [Builder], [Config]
// and value types. Flow orchestration, throttling and audit dispatch live
// under internal/. Token signing lives in jwt/, storage backends in
// revocation/, and transport adapters in middleware/.
//
// # What this package must NOT do
//
//   - Read configuration from the environment after startup.
//   - Log or audit raw tokens or passwords.
//   - Import any sub-package that re-imports tokenguard (no import cycles).
//
// # Performance contract
//
// AuthenticateHeader is the hot path: at most one store round trip, none for
// rejected headers or tokens. Logout and Revoke are one round trip. Login is
// one provider call plus up to two throttle round trips.
package tokenguard
