// Package rate implements the Redis-backed login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + EXPIRE on the first hit of a window. Keys:
//   - <prefix>:u:<identifier>: failed logins per identifier
//   - <prefix>:ip:<ip>:        failed logins per client IP (optional)
//
// A window opens on the first failure and lasts Cooldown. Once the counter
// exceeds MaxAttempts every check in the window fails with [ErrRateLimited].
//
// # What this package must NOT do
//
//   - Decide whether credentials are valid.
//   - Be imported outside the tokenguard module.
package rate
