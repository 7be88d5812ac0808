package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/panbanda/recruitsim/internal/logging"
	"github.com/panbanda/recruitsim/internal/output"
	"github.com/panbanda/recruitsim/pkg/config"
	"github.com/panbanda/recruitsim/pkg/input"
	"github.com/panbanda/recruitsim/pkg/models"
	"github.com/urfave/cli/v2"
)

// loadConfig loads the configuration named by --config, or the discovered one.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return result, nil
}

// newLogger writes diagnostics to stderr at --log-level, else the configured level.
func newLogger(c *cli.Context, cfg *config.Config) *slog.Logger {
	level := cfg.Log.Level
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	return logging.NewLogger(level, os.Stderr)
}

// newFormatter builds the formatter from the global flags, falling back to config.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := cfg.Output.Format
	if c.IsSet("format") {
		format = c.String("format")
	}
	colored := cfg.Output.Color && !c.Bool("no-color")
	return output.NewFormatter(output.ParseFormat(format), c.String("output"), colored)
}

// readCounts collects per-site counts from --counts, --counts-file and
// positional arguments, in that order. With none given the configured
// study counts are used.
func readCounts(c *cli.Context, cfg *config.Config) ([]int, error) {
	var counts []int

	if s := c.String("counts"); s != "" {
		parsed, err := input.ParseCounts(s)
		if err != nil {
			return nil, fmt.Errorf("--counts: %w", err)
		}
		counts = append(counts, parsed...)
	}

	if path := c.String("counts-file"); path != "" {
		var (
			parsed []int
			err    error
		)
		if path == "-" {
			parsed, err = input.ReadCounts(os.Stdin)
		} else {
			parsed, err = input.ReadCountsFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("--counts-file %s: %w", path, err)
		}
		counts = append(counts, parsed...)
	}

	parsed, err := input.ParseArgs(c.Args().Slice())
	if err != nil {
		return nil, err
	}
	counts = append(counts, parsed...)

	if len(counts) == 0 {
		counts = cfg.Study.Counts
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no per-site counts given (use --counts, --counts-file, arguments or study.counts in config)", models.ErrInvalidInput)
	}
	return counts, nil
}

// countFlags are shared by every command that takes a sample.
func countFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "counts",
			Usage: `Patients per site, e.g. "8,9,10,11,12"`,
		},
		&cli.StringFlag{
			Name:    "counts-file",
			Aliases: []string{"i"},
			Usage:   "Read patients per site from a file (one or more per line, # comments, - for stdin)",
		},
	}
}
