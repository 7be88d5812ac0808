package simulation

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/panbanda/recruitsim/pkg/analyzer"
	"github.com/panbanda/recruitsim/pkg/analyzer/distribution"
	"github.com/panbanda/recruitsim/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exampleCounts = []int{8, 9, 10, 11, 12, 10, 10, 10, 10, 8}

func mustBuild(t *testing.T, counts []int) *models.Distribution {
	t.Helper()
	dist, err := distribution.Build(counts)
	require.NoError(t, err)
	return dist
}

func TestSimulate_RecruitmentExample(t *testing.T) {
	dist := mustBuild(t, exampleCounts)

	result, err := New(WithSeed(42)).Simulate(context.Background(), dist, models.SimulationParams{
		Sites:  1,
		Trials: models.DefaultTrials,
		Goal:   10,
	})
	require.NoError(t, err)

	assert.Len(t, result.Totals, models.DefaultTrials)
	assert.InDelta(t, 9.8, result.Mean, 0.05)
	assert.InDelta(t, 0.7, result.SuccessProbability, 0.01)
	assert.Equal(t, uint64(42), result.Seed)
	assert.Equal(t, 8, result.Histogram.Min)
	assert.Equal(t, 12, result.Histogram.Max)
	assert.InDelta(t, 9.8, result.Summary.ExpectedPerSite, 1e-9)
}

func TestSimulate_DegenerateDistribution(t *testing.T) {
	tests := []struct {
		name        string
		value       int
		sites       int
		goal        int
		wantSuccess float64
	}{
		{"meets goal exactly", 10, 10, 100, 1.0},
		{"exceeds goal", 10, 10, 50, 1.0},
		{"misses goal", 10, 10, 101, 0.0},
		{"single site", 3, 1, 3, 1.0},
		{"zero goal", 7, 2, 0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist := mustBuild(t, []int{tt.value, tt.value, tt.value})

			result, err := New().Simulate(context.Background(), dist, models.SimulationParams{
				Sites:  tt.sites,
				Trials: 500,
				Goal:   tt.goal,
			})
			require.NoError(t, err)

			want := tt.sites * tt.value
			for i, total := range result.Totals {
				if total != want {
					t.Fatalf("totals[%d] = %d, want %d", i, total, want)
				}
			}
			assert.Equal(t, float64(want), result.Mean)
			assert.Equal(t, tt.wantSuccess, result.SuccessProbability)
			assert.Equal(t, []int{500}, result.Histogram.Counts)
			assert.Equal(t, want, result.Histogram.Min)
			assert.Equal(t, want, result.Histogram.Max)
			assert.InDelta(t, 0, result.Summary.StdDev, 1e-9)
		})
	}
}

func TestSimulate_InvalidParams(t *testing.T) {
	dist := mustBuild(t, exampleCounts)

	tests := []struct {
		name   string
		dist   *models.Distribution
		params models.SimulationParams
	}{
		{"zero sites", dist, models.SimulationParams{Sites: 0, Trials: 10, Goal: 1}},
		{"negative sites", dist, models.SimulationParams{Sites: -2, Trials: 10, Goal: 1}},
		{"zero trials", dist, models.SimulationParams{Sites: 1, Trials: 0, Goal: 1}},
		{"negative goal", dist, models.SimulationParams{Sites: 1, Trials: 10, Goal: -1}},
		{"nil distribution", nil, models.SimulationParams{Sites: 1, Trials: 10, Goal: 1}},
		{"empty distribution", &models.Distribution{}, models.SimulationParams{Sites: 1, Trials: 10, Goal: 1}},
		{"misaligned distribution", &models.Distribution{
			Support:       []int{1, 2},
			Probabilities: []float64{1},
		}, models.SimulationParams{Sites: 1, Trials: 10, Goal: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Simulate(context.Background(), tt.dist, tt.params)
			if !errors.Is(err, models.ErrInvalidInput) {
				t.Fatalf("error = %v, want ErrInvalidInput", err)
			}
			if result != nil {
				t.Error("expected nil result on invalid input")
			}
		})
	}
}

func TestSimulate_SeedIsReproducibleAcrossWorkerCounts(t *testing.T) {
	dist := mustBuild(t, exampleCounts)
	params := models.SimulationParams{Sites: 5, Trials: 20000, Goal: 50, Seed: 7}

	one, err := New(WithWorkers(1), WithChunkSize(1000)).Simulate(context.Background(), dist, params)
	require.NoError(t, err)
	many, err := New(WithWorkers(8), WithChunkSize(1000)).Simulate(context.Background(), dist, params)
	require.NoError(t, err)

	assert.Equal(t, one.Totals, many.Totals)
	assert.Equal(t, one.Mean, many.Mean)
	assert.Equal(t, one.SuccessProbability, many.SuccessProbability)
}

func TestSimulate_ParamSeedOverridesEngineSeed(t *testing.T) {
	dist := mustBuild(t, exampleCounts)

	result, err := New(WithSeed(1)).Simulate(context.Background(), dist, models.SimulationParams{
		Sites: 2, Trials: 100, Goal: 10, Seed: 99,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(99), result.Seed)
}

func TestSimulate_RandomSeedIsReported(t *testing.T) {
	dist := mustBuild(t, exampleCounts)

	first, err := New().Simulate(context.Background(), dist, models.SimulationParams{Sites: 3, Trials: 1000, Goal: 30})
	require.NoError(t, err)
	require.NotZero(t, first.Seed)

	replay, err := New(WithSeed(first.Seed)).Simulate(context.Background(), dist, models.SimulationParams{Sites: 3, Trials: 1000, Goal: 30})
	require.NoError(t, err)
	assert.Equal(t, first.Totals, replay.Totals)
}

type constSource uint64

func (s constSource) Uint64() uint64 { return uint64(s) }

func TestSimulate_InjectedSource(t *testing.T) {
	dist := mustBuild(t, exampleCounts)

	var chunks atomic.Int32
	engine := New(
		WithChunkSize(100),
		WithSourceFunc(func(chunk int) rand.Source {
			chunks.Add(1)
			return constSource(0)
		}),
	)

	result, err := engine.Simulate(context.Background(), dist, models.SimulationParams{Sites: 4, Trials: 1000, Goal: 33})
	require.NoError(t, err)

	// A source that always yields zero selects the smallest support value.
	for _, total := range result.Totals {
		require.Equal(t, 32, total)
	}
	assert.Equal(t, int32(10), chunks.Load())
	assert.Zero(t, result.Seed)
	assert.Zero(t, result.SuccessProbability)
}

func TestSimulate_Cancelled(t *testing.T) {
	dist := mustBuild(t, exampleCounts)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New().Simulate(ctx, dist, models.SimulationParams{Sites: 10, Trials: 100000, Goal: 100})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if result != nil {
		t.Error("a cancelled run must not return a result")
	}
}

func TestSimulate_CancelledMidRun(t *testing.T) {
	dist := mustBuild(t, exampleCounts)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := New(WithWorkers(1), WithChunkSize(10), WithProgress(func(done int) {
		cancel()
	}))
	result, err := engine.Simulate(ctx, dist, models.SimulationParams{Sites: 2, Trials: 10000, Goal: 10})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestSimulate_Progress(t *testing.T) {
	dist := mustBuild(t, exampleCounts)

	var reported atomic.Int64
	var trackerCalls atomic.Int32
	tracker := analyzer.NewTracker(func(current, total int) {
		trackerCalls.Add(1)
	})
	ctx := analyzer.WithTracker(context.Background(), tracker)

	engine := New(WithChunkSize(250), WithProgress(func(done int) {
		reported.Add(int64(done))
	}))
	_, err := engine.Simulate(ctx, dist, models.SimulationParams{Sites: 1, Trials: 1000, Goal: 10})
	require.NoError(t, err)

	assert.Equal(t, int64(1000), reported.Load())
	assert.Equal(t, 1000, tracker.Total())
	assert.Equal(t, 1000, tracker.Current())
	assert.Equal(t, int32(4), trackerCalls.Load())
}

func TestRun(t *testing.T) {
	dist := mustBuild(t, []int{1, 2, 3})

	result, err := Run(context.Background(), dist, 3, 2000, 6)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Params.Sites)
	assert.Equal(t, 2000, result.Params.Trials)
	assert.Equal(t, 6, result.Params.Goal)
	assert.Equal(t, 2000, result.Histogram.Total())
}

func TestSimulate_GoalMonotonicity(t *testing.T) {
	dist := mustBuild(t, exampleCounts)
	engine := New(WithSeed(2024))

	prev := 1.0
	for goal := 30; goal <= 70; goal += 2 {
		result, err := engine.Simulate(context.Background(), dist, models.SimulationParams{
			Sites: 5, Trials: 5000, Goal: goal,
		})
		require.NoError(t, err)
		if result.SuccessProbability > prev {
			t.Fatalf("goal %d: success %.4f increased from %.4f", goal, result.SuccessProbability, prev)
		}
		prev = result.SuccessProbability
	}
}

func TestSimulateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	countsGen := gen.SliceOfN(6, gen.IntRange(1, 25))

	properties.Property("totals stay within site bounds", prop.ForAll(
		func(counts []int, sites int, seed uint64) bool {
			dist, err := distribution.Build(counts)
			if err != nil {
				return false
			}
			result, err := New(WithSeed(seed|1)).Simulate(context.Background(), dist, models.SimulationParams{
				Sites: sites, Trials: 300, Goal: 0,
			})
			if err != nil {
				return false
			}
			lo, hi := sites*dist.Min(), sites*dist.Max()
			for _, total := range result.Totals {
				if total < lo || total > hi {
					return false
				}
			}
			return true
		},
		countsGen,
		gen.IntRange(1, 20),
		gen.UInt64(),
	))

	properties.Property("histogram conserves the trial count", prop.ForAll(
		func(counts []int, sites, trials int) bool {
			dist, err := distribution.Build(counts)
			if err != nil {
				return false
			}
			result, err := New(WithSeed(11)).Simulate(context.Background(), dist, models.SimulationParams{
				Sites: sites, Trials: trials, Goal: 0,
			})
			if err != nil {
				return false
			}
			h := result.Histogram
			return h.Total() == trials &&
				len(h.Counts) == h.Max-h.Min+1 &&
				h.Min == slices.Min(result.Totals) &&
				h.Max == slices.Max(result.Totals)
		},
		countsGen,
		gen.IntRange(1, 15),
		gen.IntRange(1, 2000),
	))

	properties.Property("raising the goal never raises success probability", prop.ForAll(
		func(counts []int, goal, delta int) bool {
			dist, err := distribution.Build(counts)
			if err != nil {
				return false
			}
			engine := New(WithSeed(5))
			params := models.SimulationParams{Sites: 4, Trials: 500, Goal: goal}
			low, err := engine.Simulate(context.Background(), dist, params)
			if err != nil {
				return false
			}
			params.Goal = goal + delta
			high, err := engine.Simulate(context.Background(), dist, params)
			if err != nil {
				return false
			}
			return high.SuccessProbability <= low.SuccessProbability
		},
		countsGen,
		gen.IntRange(0, 100),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}
