package loadgen

import (
	"context"
	"net/http"
	"time"

	"github.com/FairForge/harborwatch/internal/sink"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Observer receives one observation per boundary operation call.
type Observer interface {
	Observe(route string, status int, elapsed time.Duration)
}

// Config tunes the generators.
type Config struct {
	// StorageOpsPerSecond throttles storage writes; 0 disables throttling.
	StorageOpsPerSecond float64 `yaml:"storage_ops_per_second"`
	// StressWorkers overrides the derived combined stress worker count
	// when positive. It is still bounded to [1, 12].
	StressWorkers int `yaml:"stress_workers"`
}

// DefaultConfig returns the unthrottled, auto-sized configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// Option configures a Service.
type Option func(*Service)

// WithConfig replaces the default configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithObserver reports every boundary operation to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock replaces time.Now for duration measurement.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service exposes the load generators as boundary operations.
type Service struct {
	sink     sink.Sink
	logger   *zap.Logger
	config   *Config
	observer Observer
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewService creates a Service writing to s.
func NewService(s sink.Sink, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &Service{
		sink:   s,
		logger: logger.Named("loadgen"),
		config: DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.config.StorageOpsPerSecond > 0 {
		burst := int(svc.config.StorageOpsPerSecond)
		if burst < 1 {
			burst = 1
		}
		svc.limiter = rate.NewLimiter(rate.Limit(svc.config.StorageOpsPerSecond), burst)
	}
	return svc
}

// RunCPULoad runs the CPU generator for the given iteration count.
func (s *Service) RunCPULoad(ctx context.Context, iterations int) (*LoadResult, error) {
	start := s.now()
	res, err := s.cpuLoad(ctx, iterations)
	s.observe(KindCPU.Route(), start, err)
	return res, err
}

// RunMemoryLoad runs the memory generator for the given size in megabytes.
func (s *Service) RunMemoryLoad(ctx context.Context, sizeMB int) (*LoadResult, error) {
	start := s.now()
	res, err := s.memoryLoad(ctx, sizeMB)
	s.observe(KindMemory.Route(), start, err)
	return res, err
}

// RunStorageLoad runs the storage generator for the given operation count.
func (s *Service) RunStorageLoad(ctx context.Context, ops int) (*LoadResult, error) {
	start := s.now()
	res, err := s.storageLoad(ctx, ops)
	s.observe(KindStorage.Route(), start, err)
	return res, err
}

// RunCombinedStress runs every generator concurrently until the clamped
// duration elapses.
func (s *Service) RunCombinedStress(ctx context.Context, durationSeconds int) (*StressRun, error) {
	start := s.now()
	stresser := NewStresser(serviceGenerator{s}, s.logger, StressConfig{
		Workers: s.config.StressWorkers,
		Now:     s.now,
	})
	run, err := stresser.Run(ctx, durationSeconds)
	s.observe(RouteStress, start, err)
	return run, err
}

func (s *Service) observe(route string, start time.Time, err error) {
	if s.observer == nil {
		return
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
	}
	s.observer.Observe(route, status, s.now().Sub(start))
}

func (s *Service) clamp(kind Kind, requested int, clampFn func(int) (int, bool)) int {
	actual, clamped := clampFn(requested)
	if clamped {
		s.logger.Warn("requested magnitude out of range, clamping",
			zap.String("kind", string(kind)),
			zap.Int("requested", requested),
			zap.Int("actual", actual),
		)
	}
	return actual
}

// serviceGenerator runs generators without reporting to the Observer, so
// a combined stress run is observed once as a whole.
type serviceGenerator struct {
	s *Service
}

func (g serviceGenerator) Generate(ctx context.Context, kind Kind, magnitude int) error {
	var err error
	switch kind {
	case KindCPU:
		_, err = g.s.cpuLoad(ctx, magnitude)
	case KindMemory:
		_, err = g.s.memoryLoad(ctx, magnitude)
	case KindStorage:
		_, err = g.s.storageLoad(ctx, magnitude)
	default:
		err = ErrUnknownKind
	}
	return err
}
