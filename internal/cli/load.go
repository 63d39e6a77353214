package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/FairForge/harborwatch/internal/loadgen"
	"github.com/FairForge/harborwatch/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// report is what the load commands print.
type report struct {
	Result   any               `json:"result"`
	Error    string            `json:"error,omitempty"`
	Snapshot *metrics.Snapshot `json:"snapshot,omitempty"`
}

func newCPUCommand(configPath func() string) *cobra.Command {
	var iterations int
	cmd := &cobra.Command{
		Use:   "cpu",
		Short: "Run the CPU load generator",
		RunE: withApp(configPath, func(cmd *cobra.Command, a *app, _ []string) error {
			res, err := a.service.RunCPULoad(cmd.Context(), iterations)
			return a.report(cmd.Context(), cmd.OutOrStdout(), res, err)
		}),
	}
	cmd.Flags().IntVar(&iterations, "iterations", 1_000_000, "loop iterations (capped at 50,000,000)")
	return cmd
}

func newMemoryCommand(configPath func() string) *cobra.Command {
	var sizeMB int
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Run the memory load generator",
		RunE: withApp(configPath, func(cmd *cobra.Command, a *app, _ []string) error {
			res, err := a.service.RunMemoryLoad(cmd.Context(), sizeMB)
			return a.report(cmd.Context(), cmd.OutOrStdout(), res, err)
		}),
	}
	cmd.Flags().IntVar(&sizeMB, "mb", 64, "megabytes to allocate (capped at 256)")
	return cmd
}

func newStorageCommand(configPath func() string) *cobra.Command {
	var ops int
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Run the storage load generator",
		RunE: withApp(configPath, func(cmd *cobra.Command, a *app, _ []string) error {
			res, err := a.service.RunStorageLoad(cmd.Context(), ops)
			return a.report(cmd.Context(), cmd.OutOrStdout(), res, err)
		}),
	}
	cmd.Flags().IntVar(&ops, "ops", 100, "metric rows to write (capped at 10,000)")
	return cmd
}

func newStressCommand(configPath func() string) *cobra.Command {
	var seconds int
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run all generators concurrently for a duration",
		RunE: withApp(configPath, func(cmd *cobra.Command, a *app, _ []string) error {
			run, err := a.service.RunCombinedStress(cmd.Context(), seconds)
			return a.report(cmd.Context(), cmd.OutOrStdout(), run, err)
		}),
	}
	cmd.Flags().IntVar(&seconds, "seconds", 10, "run duration in seconds (1 to 60)")
	return cmd
}

// report takes one snapshot so the call shows up in the persisted
// metrics, then prints the result. A sink write error is printed with the
// result and returned.
func (a *app) report(ctx context.Context, out io.Writer, result any, runErr error) error {
	var sinkErr *loadgen.SinkWriteError
	if runErr != nil && !errors.As(runErr, &sinkErr) {
		return runErr
	}

	rep := report{Result: result}
	if runErr != nil {
		rep.Error = runErr.Error()
	}

	snap, err := a.engine.OnTick(ctx)
	if err != nil {
		a.logger.Warn("snapshot after load failed", zap.Error(err))
	}
	rep.Snapshot = snap

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return runErr
}
