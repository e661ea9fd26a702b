// Package otel publishes tokenguard metrics through an OpenTelemetry Meter.
//
// [Register] creates one observable counter per engine counter and, for the
// latency histogram, one observable gauge per cumulative bucket plus count
// and sum gauges. A single callback reads the engine snapshot on each
// collection. The caller owns the MeterProvider.
package otel
