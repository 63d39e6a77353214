// Package limits clamps user-supplied load magnitudes to hard caps.
package limits

// Hard caps applied to every load generator entry point.
const (
	MaxCPUIterations = 50_000_000
	MaxMemoryMB      = 256
	MaxStorageOps    = 10_000

	MinStressSeconds = 1
	MaxStressSeconds = 60
	MaxStressWorkers = 12

	// MinMagnitude is the lower bound for every generator input.
	MinMagnitude = 1
)

// Clamp returns requested limited to [min, max] and whether it had to be changed.
func Clamp(requested, min, max int) (int, bool) {
	switch {
	case requested < min:
		return min, true
	case requested > max:
		return max, true
	default:
		return requested, false
	}
}

// CPUIterations clamps a CPU iteration count.
func CPUIterations(n int) (int, bool) {
	return Clamp(n, MinMagnitude, MaxCPUIterations)
}

// MemoryMB clamps a memory size in megabytes.
func MemoryMB(n int) (int, bool) {
	return Clamp(n, MinMagnitude, MaxMemoryMB)
}

// StorageOps clamps a storage operation count.
func StorageOps(n int) (int, bool) {
	return Clamp(n, MinMagnitude, MaxStorageOps)
}

// StressSeconds clamps a combined stress duration.
func StressSeconds(n int) (int, bool) {
	return Clamp(n, MinStressSeconds, MaxStressSeconds)
}

// StressWorkers derives the worker count for a combined stress run from
// the available parallelism: twice the parallelism, bounded to [1, 12].
func StressWorkers(parallelism int) int {
	n, _ := Clamp(2*parallelism, MinMagnitude, MaxStressWorkers)
	return n
}
