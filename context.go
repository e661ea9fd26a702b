package tokenguard

import "context"

type requestInfoKey struct{}

// requestInfo is the per-request caller metadata the Engine records in audit
// events and uses for the per-IP login throttle.
type requestInfo struct {
	clientIP  string
	userAgent string
}

func requestInfoFrom(ctx context.Context) requestInfo {
	if ctx == nil {
		return requestInfo{}
	}
	info, _ := ctx.Value(requestInfoKey{}).(requestInfo)
	return info
}

// WithClientIP attaches the caller's IP address to ctx.
func WithClientIP(ctx context.Context, ip string) context.Context {
	info := requestInfoFrom(ctx)
	info.clientIP = ip
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	info := requestInfoFrom(ctx)
	info.userAgent = userAgent
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func clientIPFromContext(ctx context.Context) string { return requestInfoFrom(ctx).clientIP }
