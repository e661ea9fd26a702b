package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/MrEthical07/tokenguard"
)

// Authenticator is the engine surface the adapters depend on.
type Authenticator interface {
	AuthenticateHeader(ctx context.Context, header string) (*tokenguard.AuthResult, error)
}

var _ Authenticator = (*tokenguard.Engine)(nil)

// IdentityHandler is a handler that receives the authenticated identity as
// an explicit argument.
type IdentityHandler func(w http.ResponseWriter, r *http.Request, id tokenguard.Identity)

type authResultContextKey struct{}

// AuthResultFromContext returns the result attached by Guard or Protect.
func AuthResultFromContext(ctx context.Context) (*tokenguard.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*tokenguard.AuthResult)
	return res, ok && res != nil
}

// IdentityFromContext returns the identity attached by Guard or Protect.
func IdentityFromContext(ctx context.Context) (tokenguard.Identity, bool) {
	res, ok := AuthResultFromContext(ctx)
	if !ok {
		return tokenguard.Identity{}, false
	}
	return res.Identity, true
}

func withAuthResult(ctx context.Context, res *tokenguard.AuthResult) context.Context {
	return context.WithValue(ctx, authResultContextKey{}, res)
}

// Guard rejects requests that fail authentication and otherwise serves next
// with the identity attached to the request context.
func Guard(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := authenticate(w, r, auth)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(withAuthResult(r.Context(), res)))
		})
	}
}

// Protect is Guard for handlers that take the identity as an argument.
func Protect(auth Authenticator, h IdentityHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := authenticate(w, r, auth)
		if !ok {
			return
		}
		h(w, r.WithContext(withAuthResult(r.Context(), res)), res.Identity)
	})
}

func authenticate(w http.ResponseWriter, r *http.Request, auth Authenticator) (*tokenguard.AuthResult, bool) {
	if auth == nil {
		writeReject(w, tokenguard.RejectStoreUnavailable)
		return nil, false
	}

	ctx := requestContext(r.Context(), clientIP(r), r.UserAgent())
	res, err := auth.AuthenticateHeader(ctx, r.Header.Get("Authorization"))
	if err != nil {
		writeReject(w, tokenguard.RejectReasonOf(err))
		return nil, false
	}
	return res, true
}

func requestContext(ctx context.Context, ip, userAgent string) context.Context {
	if ip != "" {
		ctx = tokenguard.WithClientIP(ctx, ip)
	}
	if userAgent != "" {
		ctx = tokenguard.WithUserAgent(ctx, userAgent)
	}
	return ctx
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rejectBody is the whole response body for a rejection.
func rejectBody(reason tokenguard.RejectReason) string {
	if reason == tokenguard.RejectStoreUnavailable {
		return "service unavailable"
	}
	return "unauthorized"
}

func writeReject(w http.ResponseWriter, reason tokenguard.RejectReason) {
	status := reason.HTTPStatus()
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	http.Error(w, rejectBody(reason), status)
}
