// Package revocation persists the set of session tokens that were explicitly
// invalidated before their natural expiry.
//
// The set is keyed by the raw token string. [Store.Revoke] is insert-if-absent
// and therefore idempotent: the first revocation time is kept and repeats do
// not error. [Store.IsRevoked] observes every acknowledged Revoke.
//
// Two backends are provided:
//
//   - [RedisStore]: one key per token written with SETNX, optional TTL.
//   - [SQLStore]: a revoked_tokens table written with
//     INSERT ... ON CONFLICT (token) DO NOTHING through bun.
//
// Backend failures are reported wrapped in [ErrStoreUnavailable]. Callers on
// the request path must treat that as "status unknown" and refuse the request.
//
// # What this package must NOT do
//
//   - Parse or verify tokens.
//   - Retry failed store calls.
package revocation
