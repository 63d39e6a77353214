// Package metrics turns cumulative request counters and process resource
// gauges into windowed metric rows.
//
// RequestMetrics is the instrumentation source: boundary operations are
// recorded into a Prometheus histogram and read back as lifetime totals.
// SnapshotEngine reads those totals on a fixed interval, converts them to
// per-window deltas through a Window it alone owns, samples the process
// gauges and appends six rows to the sink, each tagged source=scheduler.
package metrics
