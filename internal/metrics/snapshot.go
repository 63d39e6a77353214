package metrics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/FairForge/harborwatch/internal/sink"
	"go.uber.org/zap"
)

// DefaultInterval is the fixed tick period.
const DefaultInterval = 5 * time.Second

// Metric row names written on every tick.
const (
	MetricWindowRequests = "http_requests_5s"
	MetricWindowErrors   = "http_5xx_5s"
	MetricErrorRatePct   = "http_error_rate_pct_5s"
	MetricMeanLatencyMs  = "http_mean_latency_ms"
	MetricCPUPctOfCore   = "proc_cpu_pct_of_core"
	MetricHeapUsedPct    = "heap_used_pct"
)

// SchedulerTags are attached to every snapshot row.
var SchedulerTags = sink.Tags{"source": "scheduler"}

// MetricWriter is the part of the sink the engine writes to.
type MetricWriter interface {
	AppendMetricRow(ctx context.Context, name string, value float64, tags sink.Tags) error
}

// Snapshot is the outcome of one tick.
type Snapshot struct {
	WindowRequests float64 `json:"http_requests_5s"`
	WindowErrors   float64 `json:"http_5xx_5s"`
	ErrorRatePct   float64 `json:"http_error_rate_pct_5s"`
	MeanLatencyMs  float64 `json:"http_mean_latency_ms"`
	CPUPctOfCore   float64 `json:"proc_cpu_pct_of_core"`
	HeapUsedPct    float64 `json:"heap_used_pct"`
}

// NamedValue is one metric row value.
type NamedValue struct {
	Name  string
	Value float64
}

// Rows returns the values in write order.
func (s *Snapshot) Rows() []NamedValue {
	return []NamedValue{
		{MetricWindowRequests, s.WindowRequests},
		{MetricWindowErrors, s.WindowErrors},
		{MetricErrorRatePct, s.ErrorRatePct},
		{MetricMeanLatencyMs, s.MeanLatencyMs},
		{MetricCPUPctOfCore, s.CPUPctOfCore},
		{MetricHeapUsedPct, s.HeapUsedPct},
	}
}

// EngineConfig configures a SnapshotEngine.
type EngineConfig struct {
	Interval time.Duration
}

// SnapshotEngine periodically converts instrumentation counters into
// persisted metric rows. Ticks never overlap.
type SnapshotEngine struct {
	instrumentation Instrumentation
	gauges          ProcessGauges
	writer          MetricWriter
	logger          *zap.Logger
	interval        time.Duration

	// mu is held for the whole tick and guards window.
	mu     sync.Mutex
	window Window
}

// NewSnapshotEngine wires an engine. A zero interval means DefaultInterval.
func NewSnapshotEngine(inst Instrumentation, gauges ProcessGauges, writer MetricWriter, logger *zap.Logger, cfg EngineConfig) *SnapshotEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &SnapshotEngine{
		instrumentation: inst,
		gauges:          gauges,
		writer:          writer,
		logger:          logger.Named("snapshot"),
		interval:        interval,
	}
}

// Interval returns the tick period.
func (e *SnapshotEngine) Interval() time.Duration {
	return e.interval
}

// Run ticks every interval until ctx is done. A tick that outlasts the
// interval delays the next one; failed ticks are logged and not retried.
func (e *SnapshotEngine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("snapshot scheduler started", zap.Duration("interval", e.interval))
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("snapshot scheduler stopped")
			return
		case <-ticker.C:
			if _, err := e.OnTick(ctx); err != nil {
				e.logger.Error("snapshot tick failed", zap.Error(err))
			}
		}
	}
}

// OnTick runs one snapshot. Concurrent callers are serialized. Rows that
// were written before a failure stay written.
func (e *SnapshotEngine) OnTick(ctx context.Context) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	totalRequests, err := readCounter(e.instrumentation.CumulativeRequestCount)
	if err != nil {
		return nil, fmt.Errorf("read request count: %w", err)
	}
	totalSeconds, err := readCounter(e.instrumentation.CumulativeRequestTime)
	if err != nil {
		return nil, fmt.Errorf("read request time: %w", err)
	}
	totalErrors, err := readCounter(e.instrumentation.CumulativeServerErrorCount)
	if err != nil {
		return nil, fmt.Errorf("read server error count: %w", err)
	}

	delta := e.window.Advance(totalRequests, totalErrors)

	snap := &Snapshot{
		WindowRequests: delta.Requests,
		WindowErrors:   delta.Errors,
		ErrorRatePct:   delta.ErrorRatePct,
	}
	if totalRequests > 0 {
		snap.MeanLatencyMs = totalSeconds / totalRequests * 1000
	}
	if cpu := e.gauges.ProcessCPUPercentOfCore(); cpu >= 0 {
		snap.CPUPctOfCore = cpu
	}
	maxHeap := e.gauges.HeapMaxBytes()
	if maxHeap < 1 {
		maxHeap = 1
	}
	snap.HeapUsedPct = float64(e.gauges.HeapUsedBytes()) / float64(maxHeap) * 100

	var errs []error
	for _, row := range snap.Rows() {
		if err := e.writer.AppendMetricRow(ctx, row.Name, finite(row.Value), SchedulerTags); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", row.Name, err))
		}
	}

	e.logger.Info("snapshot",
		zap.Int64("http_delta", int64(snap.WindowRequests)),
		zap.Int64("5xx_delta", int64(snap.WindowErrors)),
		zap.Float64("error_pct", round1(snap.ErrorRatePct)),
		zap.Float64("mean_ms", round1(snap.MeanLatencyMs)),
		zap.Float64("cpu_pct", round1(snap.CPUPctOfCore)),
		zap.Float64("heap_pct", round1(snap.HeapUsedPct)),
	)

	return snap, errors.Join(errs...)
}

// readCounter treats a counter without data as zero.
func readCounter(read func() (float64, error)) (float64, error) {
	v, err := read()
	if errors.Is(err, ErrNoData) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return finite(v), nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
