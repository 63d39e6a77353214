package cli

import (
	"context"
	"fmt"

	"github.com/FairForge/harborwatch/internal/config"
	"github.com/FairForge/harborwatch/internal/database"
	"github.com/FairForge/harborwatch/internal/loadgen"
	"github.com/FairForge/harborwatch/internal/logging"
	"github.com/FairForge/harborwatch/internal/metrics"
	"github.com/FairForge/harborwatch/internal/sink"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Execute runs the harborwatch command tree.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Subcommands share the
// --config flag.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:          "harborwatch",
		Short:        "Synthetic load generator with periodic metrics snapshots",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); HARBORWATCH_* variables override it")

	configPath := func() string { return cfgFile }
	root.AddCommand(
		newServeCommand(configPath),
		newCPUCommand(configPath),
		newMemoryCommand(configPath),
		newStorageCommand(configPath),
		newStressCommand(configPath),
		newInspectCommand(configPath),
	)
	return root
}

// store is a sink that can also be inspected.
type store interface {
	sink.Sink
	sink.Inspector
}

// app holds the components a command runs against.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   store
	metrics *metrics.RequestMetrics
	service *loadgen.Service
	engine  *metrics.SnapshotEngine
	closers []func() error
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(&cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pg, err := database.NewPostgres(cfg.Database.Config)
		if err != nil {
			return nil, fmt.Errorf("open postgres sink: %w", err)
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("ping postgres sink: %w", err)
		}
		a.store = pg
		a.closers = append(a.closers, pg.Close)
		logger.Info("using postgres sink",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Database))
	default:
		a.store = sink.NewMemory()
		logger.Info("using in-memory sink")
	}

	a.metrics, err = metrics.NewRequestMetrics(nil)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.service = loadgen.NewService(a.store, logger,
		loadgen.WithConfig(&cfg.Load),
		loadgen.WithObserver(a.metrics),
	)
	a.engine = metrics.NewSnapshotEngine(a.metrics, metrics.NewRuntimeGauges(), a.store, logger,
		metrics.EngineConfig{Interval: cfg.Snapshot.Interval})

	return a, nil
}

// Close releases the sink and flushes the logger.
func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// withApp wraps a command body with app setup and teardown.
func withApp(configPath func() string, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), configPath())
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}
