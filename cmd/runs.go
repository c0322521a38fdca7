package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solarswarm/core/runlog"
)

var runsLsFlags struct {
	scenario string
	limit    int
	since    time.Duration
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Run log commands",
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List finished runs",
	RunE:  runRunsLs,
}

func init() {
	f := runsLsCmd.Flags()
	f.StringVar(&runsLsFlags.scenario, "scenario", "", "only list runs of this scenario")
	f.IntVar(&runsLsFlags.limit, "limit", 20, "number of most recent runs to list")
	f.DurationVar(&runsLsFlags.since, "since", 0, "only list runs finished within this duration")
	runsCmd.AddCommand(runsLsCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return fmt.Errorf("run log: %w", err)
	}
	defer func() { _ = store.Close() }()

	q := runlog.Query{Scenario: runsLsFlags.scenario, Limit: runsLsFlags.limit}
	if runsLsFlags.since > 0 {
		q.Start = time.Now().Add(-runsLsFlags.since)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	recs, err := store.Query(ctx, q)
	if err != nil {
		return err
	}
	return writeRuns(cmd, recs)
}

func writeRuns(cmd *cobra.Command, recs []runlog.Record) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tFINISHED\tSCENARIO\tAGENTS\tHOURS\tSOLAR_USED\tGRID_IMPORT\tSHARED\tCANCELLED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.2f\t%.2f\t%.2f\t%t\n",
			r.RunID, r.FinishedAt.Format(time.RFC3339), r.Scenario, r.Agents, r.Hours,
			r.Summary.TotalSolarUsed, r.Summary.TotalGridImport, r.Summary.TotalShared, r.Cancelled)
	}
	return tw.Flush()
}
