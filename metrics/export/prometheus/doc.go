// Package prometheus renders tokenguard metrics in the Prometheus text
// exposition format.
//
// The [Exporter] does not touch any global registry; mount [Exporter.Handler]
// on whatever route the service scrapes. Counters are named
// tokenguard_*_total and the latency histogram is
// tokenguard_authenticate_latency_seconds.
package prometheus
