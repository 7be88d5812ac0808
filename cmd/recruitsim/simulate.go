package main

import (
	"github.com/panbanda/recruitsim/internal/output"
	"github.com/panbanda/recruitsim/internal/progress"
	"github.com/panbanda/recruitsim/internal/service/simulation"
	"github.com/urfave/cli/v2"
)

func simulateCmd() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Aliases:   []string{"sim"},
		Usage:     "Estimate the probability of reaching a recruitment goal",
		ArgsUsage: "[counts...]",
		Description: `Builds the empirical per-site distribution from the sample and runs
Monte Carlo trials of a study with --sites sites. Each trial draws one
outcome per site and sums them. Reports the expected total, the
probability that the total reaches --goal, and a histogram of totals.

Examples:
  recruitsim simulate --sites 10 --goal 100 8 9 10 11 12 10 10 10 10 8
  recruitsim simulate --sites 25 --goal 240 --counts-file sites.txt --seed 7
  recruitsim -f json simulate --counts "4,6,5,7" --sites 12 --goal 60`,
		Flags: append(countFlags(),
			&cli.IntFlag{
				Name:    "sites",
				Aliases: []string{"n"},
				Usage:   "Number of sites in the planned study (default from config)",
			},
			&cli.IntFlag{
				Name:    "goal",
				Aliases: []string{"g"},
				Usage:   "Target total patients to reach or exceed (default from config)",
			},
			&cli.IntFlag{
				Name:    "trials",
				Aliases: []string{"t"},
				Usage:   "Number of simulated studies (default from config)",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed for a reproducible run (0 picks one)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Maximum concurrent workers (0 uses all CPUs)",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Hide the progress bar",
			},
		),
		Action: runSimulateCmd,
	}
}

func runSimulateCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	if c.IsSet("workers") {
		cfg.Simulation.Workers = c.Int("workers")
	}

	counts, err := readCounts(c, cfg)
	if err != nil {
		return err
	}

	svc := simulation.New(
		simulation.WithConfig(cfg),
		simulation.WithLogger(newLogger(c, cfg)),
	)
	req := svc.NewRequest(counts)
	if c.IsSet("sites") {
		req.Sites = c.Int("sites")
	}
	if c.IsSet("goal") {
		req.Goal = c.Int("goal")
	}
	if c.IsSet("trials") {
		req.Trials = c.Int("trials")
	}
	if c.IsSet("seed") {
		req.Seed = c.Uint64("seed")
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	var tracker *progress.Tracker
	if !c.Bool("no-progress") && !formatter.Format().Structured() && req.Trials > 0 {
		tracker = progress.NewTracker("Simulating", req.Trials)
		req.OnProgress = func(current, total int) {
			tracker.Set(current)
		}
	}

	result, err := svc.Simulate(c.Context, req)
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
		}
	}
	if err != nil {
		return err
	}

	return formatter.Output(output.NewSimulationReport(result.Distribution, result, cfg.Output.HistogramWidth))
}
