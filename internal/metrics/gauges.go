package metrics

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"
)

// ProcessGauges samples resource usage of the current process.
type ProcessGauges interface {
	// ProcessCPUPercentOfCore returns recent CPU usage in [0, 100], or a
	// negative value when process CPU time is unavailable.
	ProcessCPUPercentOfCore() float64
	HeapUsedBytes() uint64
	HeapMaxBytes() uint64
}

// RuntimeGauges reads the Go runtime and the OS rusage counters.
// CPU usage is measured between consecutive calls, normalized by the
// number of CPUs.
type RuntimeGauges struct {
	mu       sync.Mutex
	lastCPU  time.Duration
	lastWall time.Time
	numCPU   int
	now      func() time.Time
	cpuTime  func() (time.Duration, bool)
}

var _ ProcessGauges = (*RuntimeGauges)(nil)

// NewRuntimeGauges creates gauges for the running process. The first
// CPU sample is taken here so the first reading covers the time since
// construction.
func NewRuntimeGauges() *RuntimeGauges {
	return newRuntimeGauges(runtime.NumCPU(), time.Now, processCPUTime)
}

func newRuntimeGauges(numCPU int, now func() time.Time, cpuTime func() (time.Duration, bool)) *RuntimeGauges {
	g := &RuntimeGauges{
		numCPU:  numCPU,
		now:     now,
		cpuTime: cpuTime,
	}
	if cpu, ok := cpuTime(); ok {
		g.lastCPU, g.lastWall = cpu, now()
	}
	return g
}

// ProcessCPUPercentOfCore implements ProcessGauges.
func (g *RuntimeGauges) ProcessCPUPercentOfCore() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	cpu, ok := g.cpuTime()
	if !ok {
		return -1
	}
	now := g.now()

	prevCPU, prevWall := g.lastCPU, g.lastWall
	g.lastCPU, g.lastWall = cpu, now
	if prevWall.IsZero() {
		return -1
	}

	wall := now.Sub(prevWall)
	if wall <= 0 || g.numCPU <= 0 {
		return -1
	}
	pct := float64(cpu-prevCPU) / float64(wall) / float64(g.numCPU) * 100
	return math.Max(0, math.Min(100, pct))
}

// HeapUsedBytes implements ProcessGauges.
func (g *RuntimeGauges) HeapUsedBytes() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}

// HeapMaxBytes returns the soft memory limit when one is set, otherwise
// the heap memory obtained from the OS.
func (g *RuntimeGauges) HeapMaxBytes() uint64 {
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit != math.MaxInt64 {
		return uint64(limit)
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapSys
}
