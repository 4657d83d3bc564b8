package scaling

import (
	"context"
	"fmt"
	"testing"
	"time"

	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/config"
	"github.com/sentinelops/autopilot/executor"
	"github.com/sentinelops/autopilot/metrics"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/util"
	"github.com/stretchr/testify/require"
)

func testConfig() config.ScalingConfig {
	return config.ScalingConfig{
		ScaleUpThreshold:   80,
		ScaleDownThreshold: 30,
		Cooldown:           5 * time.Minute,
	}
}

func newTestAdvisor(t *testing.T) (*Advisor, *executor.ActionRegistry, *metrics.Aggregator) {
	t.Helper()
	registry := executor.NewDefaultRegistry()
	agg := metrics.NewAggregator()
	advisor, err := NewAdvisor(testConfig(), registry, agg, util.SystemClock{})
	require.NoError(t, err)
	return advisor, registry, agg
}

func TestAdvisorRejectsInvertedThresholds(t *testing.T) {
	conf := testConfig()
	conf.ScaleDownThreshold = 85
	_, err := NewAdvisor(conf, executor.NewDefaultRegistry(), metrics.NewAggregator(), util.SystemClock{})
	require.Error(t, err)
	require.True(t, api.IsValidation(err))
}

func TestDecide(t *testing.T) {
	advisor, _, _ := newTestAdvisor(t)

	scenarios := map[string]struct {
		metrics  model.ScalingMetrics
		expected model.ScalingDirection
	}{
		"cpu above upper":      {model.ScalingMetrics{Resource: "api", CpuPercent: 85, MemoryPercent: 50}, model.SCALE_UP},
		"memory above upper":   {model.ScalingMetrics{Resource: "api", CpuPercent: 50, MemoryPercent: 92}, model.SCALE_UP},
		"both below lower":     {model.ScalingMetrics{Resource: "api", CpuPercent: 10, MemoryPercent: 20}, model.SCALE_DOWN},
		"only cpu below lower": {model.ScalingMetrics{Resource: "api", CpuPercent: 10, MemoryPercent: 50}, model.SCALE_NONE},
		"both within":          {model.ScalingMetrics{Resource: "api", CpuPercent: 55, MemoryPercent: 60}, model.SCALE_NONE},
		"exactly at upper":     {model.ScalingMetrics{Resource: "api", CpuPercent: 80, MemoryPercent: 80}, model.SCALE_NONE},
		"exactly at lower":     {model.ScalingMetrics{Resource: "api", CpuPercent: 30, MemoryPercent: 30}, model.SCALE_NONE},
	}
	for name, scenario := range scenarios {
		t.Run(name, func(t *testing.T) {
			decision := advisor.Decide(scenario.metrics)
			require.Equal(t, scenario.expected, decision.Direction)
			require.NotEmpty(t, decision.Reason)
		})
	}
}

func TestExecuteAppliesCooldown(t *testing.T) {
	advisor, registry, agg := newTestAdvisor(t)
	executed := 0
	registry.Register("scale_resource", func(ctx context.Context, req executor.ActionRequest) (map[string]any, error) {
		executed++
		return map[string]any{"scaled": true}, nil
	})

	decision := advisor.Decide(model.ScalingMetrics{Resource: "api", CpuPercent: 95, MemoryPercent: 40})
	first := advisor.Execute(context.Background(), decision)
	require.True(t, first.Executed)
	require.Empty(t, first.Skipped)

	second := advisor.Execute(context.Background(), decision)
	require.False(t, second.Executed)
	require.Equal(t, "cooldown active", second.Skipped)

	require.Equal(t, 1, executed)
	require.Equal(t, int64(1), agg.Snapshot().ScalingActions)
}

func TestExecuteCooldownPerResource(t *testing.T) {
	advisor, registry, _ := newTestAdvisor(t)
	var targets []string
	registry.Register("scale_resource", func(ctx context.Context, req executor.ActionRequest) (map[string]any, error) {
		targets = append(targets, req.Target)
		return nil, nil
	})

	up := func(resource string) model.ScalingDecision {
		return advisor.Decide(model.ScalingMetrics{Resource: resource, CpuPercent: 95})
	}
	require.True(t, advisor.Execute(context.Background(), up("api")).Executed)
	require.True(t, advisor.Execute(context.Background(), up("worker")).Executed)
	require.Equal(t, []string{"api", "worker"}, targets)
}

func TestExecuteFailureLeavesNoCooldown(t *testing.T) {
	advisor, registry, agg := newTestAdvisor(t)
	fail := true
	registry.Register("scale_resource", func(ctx context.Context, req executor.ActionRequest) (map[string]any, error) {
		if fail {
			return nil, fmt.Errorf("provider unavailable")
		}
		return nil, nil
	})

	decision := advisor.Decide(model.ScalingMetrics{Resource: "api", CpuPercent: 95})
	first := advisor.Execute(context.Background(), decision)
	require.False(t, first.Executed)
	require.Contains(t, first.Error, "provider unavailable")

	// the retry is not blocked by a cooldown from the failed attempt
	fail = false
	second := advisor.Execute(context.Background(), decision)
	require.True(t, second.Executed)
	require.Equal(t, int64(1), agg.Snapshot().ScalingActions)
}

func TestExecuteNoneIsNoop(t *testing.T) {
	advisor, registry, _ := newTestAdvisor(t)
	registry.Register("scale_resource", func(ctx context.Context, req executor.ActionRequest) (map[string]any, error) {
		t.Fatal("scale action must not run for SCALE_NONE")
		return nil, nil
	})

	decision := advisor.Decide(model.ScalingMetrics{Resource: "api", CpuPercent: 50, MemoryPercent: 50})
	result := advisor.Execute(context.Background(), decision)
	require.False(t, result.Executed)
	require.Empty(t, result.Skipped)
}
