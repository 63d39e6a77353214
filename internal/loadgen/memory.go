package loadgen

import (
	"context"

	"github.com/FairForge/harborwatch/internal/limits"
	"go.uber.org/zap"
)

const (
	blockSize   = 1 << 20
	touchStride = 4096
)

// touchBlocks allocates sizeMB blocks, writes one byte per page so the
// pages are really committed, and returns the running checksum. The
// blocks are unreachable once it returns.
func touchBlocks(sizeMB int) int64 {
	blocks := make([][]byte, 0, sizeMB)
	for i := 0; i < sizeMB; i++ {
		blocks = append(blocks, make([]byte, blockSize))
	}

	var checksum int64
	for _, b := range blocks {
		for i := 0; i < len(b); i += touchStride {
			b[i] = byte(i & 0xFF)
			checksum += int64(b[i])
		}
	}

	clear(blocks)
	return checksum
}

func (s *Service) memoryLoad(_ context.Context, sizeMB int) (*LoadResult, error) {
	actual := s.clamp(KindMemory, sizeMB, limits.MemoryMB)
	s.logger.Info("memory load start",
		zap.Int("size_mb_requested", sizeMB),
		zap.Int("size_mb_actual", actual),
	)

	start := s.now()
	checksum := touchBlocks(actual)
	res := newResult(KindMemory, sizeMB, actual, s.now().Sub(start))
	res.Checksum = checksum

	s.logger.Info("memory load done",
		zap.Int("size_mb_actual", actual),
		zap.Int64("duration_ms", res.DurationMillis),
		zap.Int64("checksum", checksum),
	)
	return res, nil
}
