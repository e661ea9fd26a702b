// Package flows contains the orchestrators behind every Engine operation.
//
// Each flow function (RunAuthenticate, RunLogin, RunLogout) accepts a typed
// dependency struct of plain funcs and returns its result without touching
// any resource directly. The Engine builds the dependency set once and keeps
// ownership of the JWT manager, revocation store, rate limiter, audit
// dispatcher and metrics.
//
// # Authenticate stages
//
//	ExtractingToken → VerifyingToken → CheckingRevocation → ResolvingIdentity → Authorized
//
// Any stage may end the flow with a failure kind. The store is consulted only
// after the token has verified.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root tokenguard package.
//   - Perform I/O except through dependency funcs.
package flows
