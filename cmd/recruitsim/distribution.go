package main

import (
	"github.com/panbanda/recruitsim/internal/output"
	"github.com/panbanda/recruitsim/internal/service/simulation"
	"github.com/urfave/cli/v2"
)

func distributionCmd() *cli.Command {
	return &cli.Command{
		Name:      "distribution",
		Aliases:   []string{"dist"},
		Usage:     "Show the empirical per-site distribution of a sample",
		ArgsUsage: "[counts...]",
		Description: `Validates the per-site sample and prints each distinct patient count
with its relative frequency.

Examples:
  recruitsim distribution 8 9 10 11 12 10 10 10 10 8
  recruitsim -f json distribution --counts-file sites.txt`,
		Flags:  countFlags(),
		Action: runDistributionCmd,
	}
}

func runDistributionCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	counts, err := readCounts(c, cfg)
	if err != nil {
		return err
	}

	svc := simulation.New(
		simulation.WithConfig(cfg),
		simulation.WithLogger(newLogger(c, cfg)),
	)
	dist, err := svc.BuildDistribution(c.Context, counts)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(output.NewDistributionView(dist))
}
