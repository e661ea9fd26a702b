package internaldefs

import (
	"time"

	"github.com/MrEthical07/tokenguard"
)

// Namespace prefixes every exported metric name.
const Namespace = "tokenguard_"

// Def names one exported series.
type Def struct {
	ID   tokenguard.MetricID
	Name string
	Help string
}

var CounterDefs = []Def{
	{tokenguard.MetricTokenIssued, Namespace + "token_issued_total", "Access tokens issued."},
	{tokenguard.MetricLoginSuccess, Namespace + "login_success_total", "Successful login attempts."},
	{tokenguard.MetricLoginFailure, Namespace + "login_failure_total", "Login attempts rejected for bad credentials."},
	{tokenguard.MetricLoginRateLimited, Namespace + "login_rate_limited_total", "Login attempts rejected by the throttle."},
	{tokenguard.MetricLogout, Namespace + "logout_total", "Tokens revoked through logout."},
	{tokenguard.MetricLogoutInvalidToken, Namespace + "logout_invalid_token_total", "Logout calls with a token that failed verification."},
	{tokenguard.MetricRevoked, Namespace + "revoked_total", "Revoke calls that reached the store."},
	{tokenguard.MetricAuthorized, Namespace + "authorized_total", "Requests that passed authentication."},
	{tokenguard.MetricRejectMissingHeader, Namespace + "reject_missing_header_total", "Requests rejected for a missing or malformed Authorization header."},
	{tokenguard.MetricRejectInvalidToken, Namespace + "reject_invalid_token_total", "Requests rejected for an invalid or expired token."},
	{tokenguard.MetricRejectRevoked, Namespace + "reject_revoked_total", "Requests rejected for a revoked token."},
	{tokenguard.MetricRejectMalformedSubject, Namespace + "reject_malformed_subject_total", "Requests rejected for a subject that is not a user id."},
	{tokenguard.MetricRejectStoreUnavailable, Namespace + "reject_store_unavailable_total", "Requests rejected because the revocation store could not answer."},
	{tokenguard.MetricStoreFailure, Namespace + "store_failure_total", "Revocation store operations that failed."},
}

var HistogramDefs = []Def{
	{tokenguard.MetricAuthenticateLatency, Namespace + "authenticate_latency_seconds", "Request authentication latency."},
}

// AuditDropped is the series for events dropped by the audit dispatcher.
var AuditDropped = Def{Name: Namespace + "audit_dropped_total", Help: "Audit events dropped under dispatcher backpressure."}

// UpperBounds are the histogram bucket bounds in the order the engine
// records them. The final bucket is unbounded.
var UpperBounds = []time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

// BucketCount includes the +Inf bucket.
var BucketCount = len(UpperBounds) + 1

// Cumulative converts per-bucket counts into running totals of length
// BucketCount. Missing trailing buckets count as zero.
func Cumulative(raw []uint64) []uint64 {
	out := make([]uint64, BucketCount)
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
