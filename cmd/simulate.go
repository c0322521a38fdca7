package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solarswarm/app"
	"github.com/kilianp07/solarswarm/core/events"
	"github.com/kilianp07/solarswarm/internal/eventbus"
)

var simulateFlags struct {
	agents   int
	hours    int
	seed     uint64
	scenario string
	progress bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one simulation and print its summary",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.IntVar(&simulateFlags.agents, "agents", 0, "number of agents (default from config)")
	f.IntVar(&simulateFlags.hours, "hours", 0, "simulated hours (default from config)")
	f.Uint64Var(&simulateFlags.seed, "seed", 0, "random seed, 0 included; when omitted the config seed is used, or a fresh one if that is unset")
	f.StringVar(&simulateFlags.scenario, "scenario", "", "preset name or scenario file")
	f.BoolVar(&simulateFlags.progress, "progress", false, "print a line per simulated hour")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close: %v\n", err)
		}
	}()

	req := app.Request{
		Agents:   simulateFlags.agents,
		Hours:    simulateFlags.hours,
		Scenario: simulateFlags.scenario,
	}
	if cmd.Flags().Changed("seed") {
		req.Seed = &simulateFlags.seed
	}

	out := cmd.OutOrStdout()
	done := make(chan struct{})
	if simulateFlags.progress {
		sub := svc.Events().Subscribe()
		go func() {
			defer close(done)
			printProgress(out, sub)
		}()
		defer func() {
			svc.Events().Unsubscribe(sub)
			<-done
		}()
	}

	rep, err := svc.Sessions.Run(ctx, req)
	if err != nil && rep.RunID == "" {
		return err
	}
	printReport(out, rep)
	return err
}

func printProgress(w io.Writer, sub <-chan eventbus.Event) {
	for ev := range sub {
		switch e := ev.(type) {
		case events.TickEvent:
			fmt.Fprintf(w, "[%3.0f%%] hour %d: solar_used=%.2f grid_import=%.2f shared=%.2f\n",
				100*e.Progress(), e.Tick, e.SolarUsed, e.GridImport, e.Shared)
		case events.RunEvent:
			if e.Err != nil {
				fmt.Fprintf(w, "run %s %s after %d hours: %v\n", e.RunID, e.State, e.Ticks, e.Err)
			}
		}
	}
}

func printReport(w io.Writer, rep app.Report) {
	s := rep.Summary
	fmt.Fprintf(w, "run %s (scenario %s, seed %d)\n", rep.RunID, rep.Scenario.Name, rep.Seed)
	if rep.Cancelled {
		fmt.Fprintln(w, "cancelled before the last hour")
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "hours:              %d\n", s.Hours)
	fmt.Fprintf(w, "solar used:         %.2f kWh\n", s.TotalSolarUsed)
	fmt.Fprintf(w, "grid import:        %.2f kWh\n", s.TotalGridImport)
	fmt.Fprintf(w, "energy shared:      %.2f kWh\n", s.TotalShared)
	fmt.Fprintf(w, "solar utilization:  %.1f %%\n", s.SolarUtilizationPct)
	fmt.Fprintf(w, "transfer hours:     %d\n", s.TransferHours)
	if k := rep.KPI; k != nil {
		fmt.Fprintln(w, strings.Repeat("-", 40))
		fmt.Fprintf(w, "self-sufficiency:   %.1f %%\n", k.SelfSufficiencyPct)
		fmt.Fprintf(w, "grid dependency:    %.1f %%\n", k.GridDependencyPct)
		fmt.Fprintf(w, "cost with swarm:    %.2f\n", k.CostWithSwarm)
		fmt.Fprintf(w, "baseline cost:      %.2f\n", k.CostBaseline)
		fmt.Fprintf(w, "annual savings:     %.2f (%.1f %%)\n", k.AnnualSavings, k.SavingsPct)
		fmt.Fprintf(w, "CO2 avoided:        %.2f kg/day, %.2f t/year\n", k.CO2AvoidedKg, k.AnnualCO2AvoidedTons)
		fmt.Fprintf(w, "trees equivalent:   %.1f\n", k.TreesEquivalent)
	}
}
