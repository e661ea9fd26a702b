// Package jwt issues and verifies the signed session tokens used by tokenguard.
//
// Tokens are compact HS256 JWS values carrying the registered claims sub, exp,
// iat, jti and (optionally) iss. A [Manager] is built once from an immutable
// [Config] and is safe for unlimited concurrent use.
//
// # Verification contract
//
// [Manager.Verify] reports every failure (malformed encoding, wrong algorithm,
// bad signature, missing or elapsed expiry, issuer mismatch) as the single
// sentinel [ErrInvalidToken]. Callers cannot tell the causes apart.
//
// # What this package must NOT do
//
//   - Read the signing secret from the environment or any global.
//   - Perform I/O or consult revocation state.
package jwt
