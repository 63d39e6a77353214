package loadgen

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FairForge/harborwatch/internal/limits"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnknownKind is returned by a Generator asked for an unsupported kind.
var ErrUnknownKind = errors.New("loadgen: unknown generator kind")

// Per-cycle magnitudes used by combined stress workers.
const (
	CycleCPUIterations = 100_000
	CycleMemoryMB      = 5
	CycleStorageOps    = 20
)

var cycleMagnitude = map[Kind]int{
	KindCPU:     CycleCPUIterations,
	KindMemory:  CycleMemoryMB,
	KindStorage: CycleStorageOps,
}

// Generator performs one generator call on behalf of a stress worker.
type Generator interface {
	Generate(ctx context.Context, kind Kind, magnitude int) error
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, kind Kind, magnitude int) error

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, kind Kind, magnitude int) error {
	return f(ctx, kind, magnitude)
}

// StressConfig configures a Stresser.
type StressConfig struct {
	Workers int              // 0 derives the count from GOMAXPROCS
	Now     func() time.Time // clock used for the reported duration
}

// Stresser runs the combined stress worker pool.
type Stresser struct {
	gen     Generator
	logger  *zap.Logger
	workers int
	now     func() time.Time
}

// NewStresser creates a Stresser driving gen.
func NewStresser(gen Generator, logger *zap.Logger, cfg StressConfig) *Stresser {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := limits.StressWorkers(runtime.GOMAXPROCS(0))
	if cfg.Workers > 0 {
		workers, _ = limits.Clamp(cfg.Workers, limits.MinMagnitude, limits.MaxStressWorkers)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Stresser{
		gen:     gen,
		logger:  logger,
		workers: workers,
		now:     now,
	}
}

// Workers returns the pool size.
func (st *Stresser) Workers() int {
	return st.workers
}

// Run executes cycles on every worker until the clamped duration elapses
// or ctx is cancelled, then waits for all workers to finish their current
// cycle. The returned error is non-nil only when ctx ended the run early.
func (st *Stresser) Run(ctx context.Context, durationSeconds int) (*StressRun, error) {
	actual, clamped := limits.StressSeconds(durationSeconds)
	if clamped {
		st.logger.Warn("requested stress duration out of range, clamping",
			zap.Int("requested", durationSeconds),
			zap.Int("actual", actual),
		)
	}

	run := &StressRun{
		ID:                       uuid.NewString(),
		RequestedDurationSeconds: durationSeconds,
		ActualDurationSeconds:    actual,
		WorkerCount:              st.workers,
	}
	log := st.logger.With(zap.String("run_id", run.ID))
	log.Info("combined stress start",
		zap.Int("duration_sec_requested", durationSeconds),
		zap.Int("duration_sec_actual", actual),
		zap.Int("workers", st.workers),
	)

	counts := make(map[Kind]*atomic.Int64, len(Kinds))
	for _, k := range Kinds {
		counts[k] = &atomic.Int64{}
	}
	var (
		cycles   atomic.Int64
		failures atomic.Int64
		wg       sync.WaitGroup
	)

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(actual)*time.Second)
	defer cancel()
	// Generator calls never observe the deadline so a started cycle completes.
	workCtx := context.WithoutCancel(ctx)

	start := st.now()
	for w := 0; w < st.workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := st.work(runCtx, workCtx, counts, &cycles); err != nil {
				failures.Add(1)
				log.Error("combined stress worker failed", zap.Int("worker", id), zap.Error(err))
			}
		}(w)
	}
	wg.Wait()

	run.TotalDuration = st.now().Sub(start)
	run.TotalDurationMillis = run.TotalDuration.Milliseconds()
	run.CallCounts = make(map[Kind]int64, len(Kinds))
	for k, c := range counts {
		run.CallCounts[k] = c.Load()
	}
	run.Operations = cycles.Load() * int64(len(Kinds))
	run.WorkerFailures = int(failures.Load())

	log.Info("combined stress done",
		zap.Int("duration_sec_actual", actual),
		zap.Int("workers", st.workers),
		zap.Int64("operations", run.Operations),
		zap.Int64("cpu_calls", run.CallCounts[KindCPU]),
		zap.Int64("mem_calls", run.CallCounts[KindMemory]),
		zap.Int64("db_calls", run.CallCounts[KindStorage]),
		zap.Int("worker_failures", run.WorkerFailures),
		zap.Int64("duration_ms", run.TotalDurationMillis),
	)

	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("combined stress interrupted: %w", err)
	}
	return run, nil
}

// work repeats cycles until runCtx is done. A generator error or panic
// ends this worker only.
func (st *Stresser) work(runCtx, workCtx context.Context, counts map[Kind]*atomic.Int64, cycles *atomic.Int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	for runCtx.Err() == nil {
		for _, kind := range Kinds {
			if err := st.gen.Generate(workCtx, kind, cycleMagnitude[kind]); err != nil {
				return fmt.Errorf("%s generator: %w", kind, err)
			}
			counts[kind].Add(1)
		}
		cycles.Add(1)
	}
	return nil
}
