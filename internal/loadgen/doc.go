// Package loadgen deliberately consumes CPU, memory and storage I/O on
// demand.
//
// # Generators
//
// Three generators are exposed through Service, each clamped to a hard cap
// before it runs (see package limits):
//
//   - RunCPULoad: deterministic floating point busy loop, up to 50,000,000
//     iterations. Persists a "cpu_intensive" computation result.
//   - RunMemoryLoad: allocates and touches N one-megabyte blocks, up to
//     256 MB, then drops them. Nothing is persisted.
//   - RunStorageLoad: appends N metric rows to the sink with a read-back
//     query every 25th write, up to 10,000 operations. Persists a
//     "database_intensive" summary.
//
// # Combined stress
//
// RunCombinedStress runs a fixed pool of workers, each repeating the cycle
// CPU(100,000) -> Memory(5) -> Storage(20) until a deadline:
//
//	svc := loadgen.NewService(memSink, logger)
//	run, err := svc.RunCombinedStress(ctx, 15)
//	fmt.Println(run.CallCounts[loadgen.KindCPU])
//
// The deadline is checked between cycles only; an in-flight cycle always
// completes. A failing worker is logged and stops without affecting its
// siblings.
package loadgen
