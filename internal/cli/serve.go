package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the metrics snapshot scheduler until interrupted",
		Long: `Run the metrics snapshot scheduler until interrupted.

serve records process CPU and heap usage every interval. Request counters
are private to this process and nothing in serve issues requests, so the
http_requests_5s, http_5xx_5s, http_error_rate_pct_5s and
http_mean_latency_ms rows stay at 0. Load commands take their own snapshot
after running.`,
		RunE: withApp(configPath, func(cmd *cobra.Command, a *app, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.logger.Info("harborwatch started",
				zap.String("driver", a.cfg.Database.Driver),
				zap.Duration("snapshot_interval", a.engine.Interval()))
			a.engine.Run(ctx)
			a.logger.Info("shutting down...")
			return nil
		}),
	}
}
