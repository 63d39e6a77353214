package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/FairForge/harborwatch/internal/sink"
	"github.com/spf13/cobra"
)

func newInspectCommand(configPath func() string) *cobra.Command {
	var (
		table  string
		prefix string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show sink row counts, sink clock and recent rows",
		RunE: withApp(configPath, func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()

			summary, err := a.store.Summary(ctx)
			if err != nil {
				return fmt.Errorf("summary: %w", err)
			}
			now, err := a.store.Now(ctx)
			if err != nil {
				return fmt.Errorf("sink clock: %w", err)
			}
			rows, err := a.store.QueryRecent(ctx, sink.Query{Table: table, NamePrefix: prefix, Limit: limit})
			if err != nil {
				return fmt.Errorf("query %s: %w", table, err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "sink time:\t%s\n", now.Format(time.RFC3339))
			fmt.Fprintf(w, "%s:\t%d\n", sink.TablePerformance, summary.PerformanceData)
			fmt.Fprintf(w, "%s:\t%d\n", sink.TableComputations, summary.ComputationResults)
			fmt.Fprintf(w, "\nID\tTIMESTAMP\tNAME\n")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.Timestamp.Format(time.RFC3339), r.Name)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().StringVar(&table, "table", sink.TablePerformance, "table to list (performance_data or computation_results)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "name prefix filter")
	cmd.Flags().IntVar(&limit, "limit", sink.DefaultQueryLimit, "rows to list")
	return cmd
}
