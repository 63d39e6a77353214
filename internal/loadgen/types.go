package loadgen

import (
	"fmt"
	"time"
)

// Kind identifies a load generator.
type Kind string

const (
	KindCPU     Kind = "cpu"
	KindMemory  Kind = "memory"
	KindStorage Kind = "storage"
)

// Kinds lists every generator in cycle order.
var Kinds = []Kind{KindCPU, KindMemory, KindStorage}

// ComputationType is the computation_results type recorded for the kind.
func (k Kind) ComputationType() string {
	switch k {
	case KindCPU:
		return "cpu_intensive"
	case KindMemory:
		return "memory_intensive"
	case KindStorage:
		return "database_intensive"
	default:
		return string(k)
	}
}

// Route is the boundary operation name reported to the Observer.
func (k Kind) Route() string {
	switch k {
	case KindCPU:
		return RouteCPU
	case KindMemory:
		return RouteMemory
	case KindStorage:
		return RouteStorage
	default:
		return "/api/" + string(k)
	}
}

// Boundary operation routes.
const (
	RouteCPU     = "/api/cpu-intensive"
	RouteMemory  = "/api/memory-intensive"
	RouteStorage = "/api/database-intensive"
	RouteStress  = "/api/combined-stress"
)

// LoadResult is produced by each generator invocation.
type LoadResult struct {
	Kind               Kind          `json:"kind"`
	Type               string        `json:"type"`
	RequestedMagnitude int           `json:"requested_magnitude"`
	ActualMagnitude    int           `json:"actual_magnitude"`
	Duration           time.Duration `json:"-"`
	DurationMillis     int64         `json:"duration_ms"`

	// Kind specific payload
	AccSample string `json:"acc_sample,omitempty"`
	Checksum  int64  `json:"checksum"`
	Reads     int    `json:"reads"`
}

func newResult(kind Kind, requested, actual int, elapsed time.Duration) *LoadResult {
	return &LoadResult{
		Kind:               kind,
		Type:               kind.ComputationType(),
		RequestedMagnitude: requested,
		ActualMagnitude:    actual,
		Duration:           elapsed,
		DurationMillis:     elapsed.Milliseconds(),
	}
}

// StressRun describes one combined stress invocation.
type StressRun struct {
	ID                       string         `json:"id"`
	RequestedDurationSeconds int            `json:"requested_duration_seconds"`
	ActualDurationSeconds    int            `json:"actual_duration_seconds"`
	WorkerCount              int            `json:"worker_count"`
	CallCounts               map[Kind]int64 `json:"call_counts"`
	Operations               int64          `json:"operations"`
	WorkerFailures           int            `json:"worker_failures"`
	TotalDuration            time.Duration  `json:"-"`
	TotalDurationMillis      int64          `json:"total_duration_ms"`
}

// SinkWriteError reports that a generator computed its result but could
// not persist some or all of its rows.
type SinkWriteError struct {
	Kind     Kind
	Failures int
	Err      error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("%s load: %d sink write(s) failed: %v", e.Kind, e.Failures, e.Err)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Err
}
