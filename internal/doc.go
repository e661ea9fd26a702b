// Package internal groups the packages that back the public tokenguard
// engine and are not part of its API.
//
//   - audit: buffered event dispatch and sinks
//   - flows: authenticate, login and logout orchestration over injected funcs
//   - rate: Redis-backed login throttle
package internal
