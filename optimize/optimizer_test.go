package optimize

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sentinelops/autopilot/executor"
	"github.com/sentinelops/autopilot/metrics"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/util"
	"github.com/stretchr/testify/require"
)

func newTestOptimizer() (*Optimizer, *executor.ActionRegistry, *metrics.Aggregator, *util.FakeClock) {
	registry := executor.NewDefaultRegistry()
	agg := metrics.NewAggregator()
	clock := util.NewFakeClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	return NewOptimizer(registry, agg, clock), registry, agg, clock
}

func TestPlanScoped(t *testing.T) {
	optimizer, _, _, _ := newTestOptimizer()

	plan := optimizer.Plan("database")
	require.Equal(t, "database", plan.Scope)
	require.Len(t, plan.Candidates, 2)
	for _, candidate := range plan.Candidates {
		require.Greater(t, candidate.EstimatedGain, 0.0)
	}

	require.Empty(t, optimizer.Plan("unknown").Candidates)
}

func TestPlanAll(t *testing.T) {
	optimizer, _, _, _ := newTestOptimizer()

	all := optimizer.Plan("all")
	require.Len(t, all.Candidates, 5)

	// empty scope means everything too
	require.Len(t, optimizer.Plan("").Candidates, 5)
}

func TestExecuteRecordsActualGain(t *testing.T) {
	optimizer, registry, _, _ := newTestOptimizer()
	registry.Register("clear_cache", func(ctx context.Context, req executor.ActionRequest) (map[string]any, error) {
		// measured gain differs from the estimate
		return map[string]any{"gain": 1.25}, nil
	})

	plan := optimizer.Plan("cache")
	result := optimizer.Execute(context.Background(), plan)
	require.Len(t, result.Outcomes, 1)
	require.Equal(t, model.STEP_COMPLETED, result.Outcomes[0].Status)
	require.Equal(t, 1.25, result.Outcomes[0].ActualGain)
	require.Equal(t, 3.0, result.Outcomes[0].Candidate.EstimatedGain)
	require.Equal(t, 1.25, result.TotalGain)
}

func TestExecuteFallsBackToEstimate(t *testing.T) {
	optimizer, _, _, _ := newTestOptimizer()

	// builtin handlers report no gain measurement
	plan := optimizer.Plan("cache")
	result := optimizer.Execute(context.Background(), plan)
	require.Equal(t, 3.0, result.Outcomes[0].ActualGain)
}

func TestExecuteFailureCountsZeroGain(t *testing.T) {
	optimizer, registry, agg, _ := newTestOptimizer()
	registry.Register("clear_cache", func(ctx context.Context, req executor.ActionRequest) (map[string]any, error) {
		return nil, fmt.Errorf("cache offline")
	})

	plan := optimizer.Plan("cache")
	result := optimizer.Execute(context.Background(), plan)
	require.Equal(t, model.STEP_FAILED, result.Outcomes[0].Status)
	require.Contains(t, result.Outcomes[0].Error, "cache offline")
	require.Zero(t, result.Outcomes[0].ActualGain)
	require.Zero(t, result.TotalGain)
	require.Zero(t, agg.Snapshot().AutomatedActions)
}

func TestEfficiencyAccumulatesAndCaps(t *testing.T) {
	optimizer, _, agg, clock := newTestOptimizer()

	plan := optimizer.Plan("resources")
	first := optimizer.Execute(context.Background(), plan)
	require.Equal(t, 5.0, first.TotalGain)
	require.Equal(t, 5.0, first.Efficiency)
	require.Equal(t, clock.Now(), agg.Snapshot().LastOptimization)

	var last float64
	for i := 0; i < 25; i++ {
		last = optimizer.Execute(context.Background(), optimizer.Plan("resources")).Efficiency
	}
	require.Equal(t, 100.0, last)
	require.Equal(t, 100.0, agg.Snapshot().EfficiencyPercent)
}
