package loadgen

import (
	"context"
	"math/rand/v2"
	"strconv"

	"github.com/FairForge/harborwatch/internal/limits"
	"github.com/FairForge/harborwatch/internal/sink"
	"go.uber.org/zap"
)

const (
	storageMetricPrefix = "test_metric"
	readEvery           = 25
	readLimit           = 10
)

func (s *Service) storageLoad(ctx context.Context, ops int) (*LoadResult, error) {
	actual := s.clamp(KindStorage, ops, limits.StorageOps)
	s.logger.Info("storage load start",
		zap.Int("ops_requested", ops),
		zap.Int("ops_actual", actual),
	)

	var (
		reads    int
		failures int
		firstErr error
	)
	fail := func(err error) {
		failures++
		if firstErr == nil {
			firstErr = err
		}
	}

	start := s.now()
	for i := 0; i < actual; i++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				fail(err)
				break
			}
		}

		// A failed write does not stop the run.
		name := storageMetricPrefix + "_" + strconv.Itoa(i)
		if err := s.sink.AppendMetricRow(ctx, name, rand.Float64()*100, nil); err != nil {
			fail(err)
		}

		if i%readEvery == 0 {
			_, err := s.sink.QueryRecent(ctx, sink.Query{
				Table:      sink.TablePerformance,
				NamePrefix: storageMetricPrefix,
				Limit:      readLimit,
			})
			if err != nil {
				fail(err)
			} else {
				reads++
			}
		}
	}
	res := newResult(KindStorage, ops, actual, s.now().Sub(start))
	res.Reads = reads

	if err := s.sink.AppendComputationResult(ctx, sink.ComputationResult{
		Type:           res.Type,
		InputSize:      actual,
		Result:         "reads=" + strconv.Itoa(reads),
		DurationMillis: res.DurationMillis,
	}); err != nil {
		fail(err)
	}

	s.logger.Info("storage load done",
		zap.Int("ops_actual", actual),
		zap.Int("reads", reads),
		zap.Int64("duration_ms", res.DurationMillis),
	)

	if failures > 0 {
		s.logger.Error("storage load sink failures",
			zap.Int("failures", failures),
			zap.Error(firstErr),
		)
		return res, &SinkWriteError{Kind: KindStorage, Failures: failures, Err: firstErr}
	}
	return res, nil
}
