package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"hawkdove/internal/game"
	"hawkdove/internal/stats"
)

// runReport renders a run's artifacts as a human-readable summary. It reads
// only the artifact directory, so it works after the store was reset.
func runReport(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "report on the most recent run from run index")
	tolerance := fs.Float64("tolerance", 0.05, "deviation from the equilibrium flagged as drift")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("report requires --run-id or --latest")
	}
	if *latest {
		entries, err := stats.ListRunIndex(artifactsDir)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return errors.New("no runs available")
		}
		*runID = entries[0].RunID
	}

	cfg, ok, err := stats.ReadRunConfig(artifactsDir, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run config not found for run id: %s", *runID)
	}
	series, ok, err := stats.ReadHawkSeries(artifactsDir, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("hawk series not found for run id: %s", *runID)
	}
	if len(series) == 0 {
		return fmt.Errorf("hawk series is empty for run id: %s", *runID)
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	predicted := game.PayoffMatrix{Cost: cfg.Cost, Reward: cfg.Reward}.HawkEquilibrium()
	finalPortion := series[len(series)-1]
	deviation := math.Abs(finalPortion - predicted)
	agents := cfg.AgentCount()
	pairings := agents / 2
	encounters := int64(len(series)) * int64(pairings)

	bold.Fprintf(os.Stdout, "run %s\n", cfg.RunID)
	fmt.Printf("stage=%s rounds=%s agents=%s pairings_per_round=%s encounters=%s\n",
		cfg.Stage,
		humanize.Comma(int64(len(series))),
		humanize.Comma(int64(agents)),
		humanize.Comma(int64(pairings)),
		humanize.Comma(encounters),
	)
	fmt.Printf("seed=%d workers=%d cost=%s reward=%s\n", cfg.Seed, cfg.Workers, humanize.Ftoa(cfg.Cost), humanize.Ftoa(cfg.Reward))
	names := make([]string, 0, len(cfg.Colors))
	for name := range cfg.Colors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("color=%s population=%s\n", name, humanize.Comma(int64(cfg.Colors[name])))
	}
	fmt.Printf("predicted_hawk_portion=%.6f final_hawk_portion=%.6f deviation=%.6f\n", predicted, finalPortion, deviation)
	if deviation <= *tolerance {
		green.Fprintf(os.Stdout, "verdict=converged tolerance=%.6f\n", *tolerance)
	} else {
		yellow.Fprintf(os.Stdout, "verdict=drifted tolerance=%.6f\n", *tolerance)
	}
	return nil
}
