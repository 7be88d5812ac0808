package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/recruitsim/pkg/config"
	"github.com/panbanda/recruitsim/pkg/input"
	"github.com/panbanda/recruitsim/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

var exampleArgs = []string{"8", "9", "10", "11", "12", "10", "10", "10", "10", "8"}

// run executes the CLI with args and returns the command output written
// to the -o file plus anything written to the app writer.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	outPath := filepath.Join(t.TempDir(), "out.txt")

	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = &buf

	full := append([]string{"recruitsim", "--no-color", "-o", outPath}, args...)
	err := app.RunContext(context.Background(), full)

	data, readErr := os.ReadFile(outPath)
	if readErr != nil {
		data = nil
	}
	return string(data) + buf.String(), err
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid input", fmt.Errorf("%w: empty sample", models.ErrInvalidInput), "Error: invalid input: empty sample"},
		{"consistency", fmt.Errorf("build: %w", models.ErrDistributionConsistency), "Internal error: build: distribution probabilities are inconsistent"},
		{"interrupted", fmt.Errorf("simulation aborted: %w", context.Canceled), "Error: interrupted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.err))
		})
	}
}

func TestSimulateCommand_JSON(t *testing.T) {
	args := append([]string{"-f", "json", "simulate", "--sites", "1", "--goal", "10", "--trials", "20000", "--seed", "42"}, exampleArgs...)
	out, err := run(t, args...)
	require.NoError(t, err)

	var got struct {
		Distribution models.Distribution `json:"distribution"`
		Result       struct {
			Params             models.SimulationParams `json:"params"`
			Mean               float64                 `json:"mean"`
			SuccessProbability float64                 `json:"success_probability"`
			Seed               uint64                  `json:"seed"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)

	assert.Equal(t, []int{8, 9, 10, 11, 12}, got.Distribution.Support)
	assert.Equal(t, models.SimulationParams{Sites: 1, Trials: 20000, Goal: 10, Seed: 42}, got.Result.Params)
	assert.Equal(t, uint64(42), got.Result.Seed)
	assert.InDelta(t, 9.8, got.Result.Mean, 0.05)
	assert.InDelta(t, 0.7, got.Result.SuccessProbability, 0.02)
}

func TestSimulateCommand_Reproducible(t *testing.T) {
	args := []string{"-f", "json", "simulate", "--sites", "5", "--goal", "50", "--trials", "3000", "--seed", "9", "--counts", "8,9,10,11,12"}

	first, err := run(t, args...)
	require.NoError(t, err)
	second, err := run(t, append(args[:len(args):len(args)], "--workers", "1")...)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSimulateCommand_Text(t *testing.T) {
	args := append([]string{"simulate", "--no-progress", "--sites", "10", "--goal", "100", "--trials", "5000", "--seed", "1"}, exampleArgs...)
	out, err := run(t, args...)
	require.NoError(t, err)

	assert.Contains(t, out, "Recruitment simulation")
	assert.Contains(t, out, "Per-site distribution")
	assert.Contains(t, out, "Probability of reaching 100 patients")
	assert.Contains(t, out, "<- goal 100")
}

func TestSimulateCommand_CountsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.txt")
	require.NoError(t, os.WriteFile(path, []byte("# last study\n8 9 10\n11,12\n\n10 10 10 10 8\n"), 0o644))

	out, err := run(t, "-f", "json", "distribution", "--counts-file", path)
	require.NoError(t, err)

	var dist models.Distribution
	require.NoError(t, json.Unmarshal([]byte(out), &dist))
	assert.Equal(t, 10, dist.SampleSize)
	assert.Equal(t, 98, dist.SampleTotal)
	assert.InDeltaSlice(t, []float64{0.2, 0.1, 0.5, 0.1, 0.1}, dist.Probabilities, 1e-9)
}

func TestSimulateCommand_InvalidInput(t *testing.T) {
	t.Run("all zero", func(t *testing.T) {
		_, err := run(t, "simulate", "--no-progress", "--sites", "3", "--goal", "1", "0", "0")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := run(t, "simulate", "--no-progress", "--counts", "8,x,10")
		var perr *input.ParseError
		require.True(t, errors.As(err, &perr), "got %v", err)
		assert.Equal(t, "x", perr.Token)
		assert.Equal(t, 2, perr.Position)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("zero sites", func(t *testing.T) {
		_, err := run(t, "simulate", "--no-progress", "--sites", "0", "--goal", "1", "5")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("no counts", func(t *testing.T) {
		t.Chdir(t.TempDir())
		_, err := run(t, "distribution")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestSimulateCommand_ConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recruitsim.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[simulation]
trials = 400
seed = 5

[study]
sites = 2
goal = 8
counts = [4, 4]

[output]
format = "json"
`), 0o644))

	out, err := run(t, "-c", path, "simulate")
	require.NoError(t, err)

	var got struct {
		Result struct {
			Params             models.SimulationParams `json:"params"`
			SuccessProbability float64                 `json:"success_probability"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, models.SimulationParams{Sites: 2, Trials: 400, Goal: 8, Seed: 5}, got.Result.Params)
	assert.Equal(t, 1.0, got.Result.SuccessProbability)
}

func TestDistributionCommand_Markdown(t *testing.T) {
	out, err := run(t, append([]string{"-f", "markdown", "distribution"}, exampleArgs...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "## Per-site distribution")
	assert.Contains(t, out, "| 10 | 5 | 0.50 |")
}

func TestConfigShow(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# Default configuration")
	assert.Contains(t, out, "[study]")
	assert.Contains(t, out, "sites = 10")
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "recruitsim.yaml")
		require.NoError(t, os.WriteFile(path, []byte("study:\n  sites: 4\n  goal: 30\n"), 0o644))
		_, err := run(t, "-c", path, "config", "validate")
		assert.NoError(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "recruitsim.toml")
		require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"pdf\"\n"), 0o644))
		out, err := run(t, "-c", path, "config", "validate")
		assert.Error(t, err)
		assert.Contains(t, out, "  - ")
	})
}

func TestMCPManifestCommand(t *testing.T) {
	out, err := run(t, "mcp", "manifest")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, `"io.github.panbanda/recruitsim"`), out)
}

// TestReadCounts verifies sample collection from flags, args and config.
func TestReadCounts(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		cfg      []int
		expected []int
	}{
		{"positional", []string{"3", "4,5"}, nil, []int{3, 4, 5}},
		{"flag then args", []string{"--counts", "1;2", "3"}, nil, []int{1, 2, 3}},
		{"config fallback", nil, []int{7, 8}, []int{7, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Study.Counts = tt.cfg

			var got []int
			app := &cli.App{
				Flags: countFlags(),
				Action: func(c *cli.Context) error {
					var err error
					got, err = readCounts(c, cfg)
					return err
				},
			}
			require.NoError(t, app.Run(append([]string{"test"}, tt.args...)))
			assert.Equal(t, tt.expected, got)
		})
	}
}
