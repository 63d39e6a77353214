// Package sink defines the persistence contract shared by the load
// generators and the metrics snapshot engine.
package sink

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Table names understood by QueryRecent.
const (
	TablePerformance  = "performance_data"
	TableComputations = "computation_results"
)

// DefaultQueryLimit is used when a Query carries no limit.
const DefaultQueryLimit = 10

var (
	ErrNonFinite    = errors.New("sink: metric value is not finite")
	ErrUnknownTable = errors.New("sink: unknown table")
	ErrEmptyName    = errors.New("sink: metric name is required")
)

// MetricRow is one row of performance_data.
type MetricRow struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"metric_name"`
	Value     float64   `json:"metric_value"`
	Tags      Tags      `json:"metadata"`
}

// ComputationResult is one row of computation_results.
type ComputationResult struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Type           string    `json:"computation_type"`
	InputSize      int       `json:"input_size"`
	Result         string    `json:"result"`
	DurationMillis int64     `json:"duration_ms"`
}

// Query selects the most recent rows of a table, newest first.
type Query struct {
	Table string
	// NamePrefix filters on metric_name for performance_data and on
	// computation_type for computation_results. Empty matches everything.
	NamePrefix string
	Limit      int
}

// Row is the projection returned by QueryRecent.
type Row struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
}

// Summary holds table row counts.
type Summary struct {
	PerformanceData    int64 `json:"performance_data_count"`
	ComputationResults int64 `json:"computation_results_count"`
}

// Sink durably stores result and metric rows. Implementations must accept
// concurrent appends.
type Sink interface {
	AppendMetricRow(ctx context.Context, name string, value float64, tags Tags) error
	AppendComputationResult(ctx context.Context, result ComputationResult) error
	QueryRecent(ctx context.Context, q Query) ([]Row, error)
}

// Inspector exposes read-only views of a sink.
type Inspector interface {
	Summary(ctx context.Context) (Summary, error)
	Now(ctx context.Context) (time.Time, error)
}

// ValidateMetric checks a metric row before it is written.
func ValidateMetric(name string, value float64) error {
	if name == "" {
		return ErrEmptyName
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s=%v", ErrNonFinite, name, value)
	}
	return nil
}

// Normalize fills defaults and validates the table name.
func (q Query) Normalize() (Query, error) {
	if q.Table != TablePerformance && q.Table != TableComputations {
		return q, fmt.Errorf("%w: %q", ErrUnknownTable, q.Table)
	}
	if q.Limit <= 0 {
		q.Limit = DefaultQueryLimit
	}
	return q, nil
}
