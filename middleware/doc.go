// Package middleware adapts tokenguard request authentication to HTTP
// frameworks.
//
// # Adapters
//
//   - [Guard]: net/http middleware; the handler reads the identity with [IdentityFromContext].
//   - [Protect]: net/http adapter that passes the identity to an [IdentityHandler] explicitly.
//   - [FiberGuard]: Fiber middleware; the handler reads the identity with [FiberIdentity].
//
// Each adapter reads the Authorization header, calls
// Engine.AuthenticateHeader once, and on success attaches the resolved
// identity before invoking the next handler exactly once. Rejections
// short-circuit with 401 "unauthorized", or 503 "service unavailable" when
// the revocation store cannot answer.
//
// # What this package must NOT do
//
//   - Parse or verify tokens directly (delegates to the Engine).
//   - Access the revocation store.
//   - Reveal which check rejected a request.
package middleware
