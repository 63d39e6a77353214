package loadgen

import (
	"context"
	"math"
	"strconv"

	"github.com/FairForge/harborwatch/internal/limits"
	"github.com/FairForge/harborwatch/internal/sink"
	"go.uber.org/zap"
)

// dampMask selects every 8192nd iteration for the damping step.
const dampMask = 8191

// spin runs the deterministic floating point loop and returns the
// accumulator.
func spin(iterations int) float64 {
	acc := 0.0
	for i := 1; i <= iterations; i++ {
		acc += math.Sin(float64(i))*math.Cos(float64(i>>3)) + math.Sqrt(float64(i))
		if i&dampMask == 0 {
			acc = acc/1.000001 + float64(i%7)
		}
	}
	return acc
}

func formatAcc(acc float64) string {
	return strconv.FormatFloat(acc, 'f', 6, 64)
}

func (s *Service) cpuLoad(ctx context.Context, iterations int) (*LoadResult, error) {
	actual := s.clamp(KindCPU, iterations, limits.CPUIterations)
	s.logger.Info("cpu load start",
		zap.Int("iterations_requested", iterations),
		zap.Int("iterations_actual", actual),
	)

	start := s.now()
	acc := spin(actual)
	res := newResult(KindCPU, iterations, actual, s.now().Sub(start))
	res.AccSample = formatAcc(acc)

	err := s.sink.AppendComputationResult(ctx, sink.ComputationResult{
		Type:           res.Type,
		InputSize:      actual,
		Result:         "acc=" + res.AccSample,
		DurationMillis: res.DurationMillis,
	})

	s.logger.Info("cpu load done",
		zap.Int("iterations_actual", actual),
		zap.Int64("duration_ms", res.DurationMillis),
		zap.String("acc_sample", res.AccSample),
	)

	if err != nil {
		s.logger.Error("cpu load result not persisted", zap.Error(err))
		return res, &SinkWriteError{Kind: KindCPU, Failures: 1, Err: err}
	}
	return res, nil
}
