package alerting

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
	"github.com/sentinelops/autopilot/persistence/inmem"
	"github.com/sentinelops/autopilot/policy"
	"github.com/sentinelops/autopilot/util"
	"github.com/stretchr/testify/require"
)

func escalationConfig() config.EscalationConfig {
	return config.EscalationConfig{
		TeamDelay:     5 * time.Minute,
		ManagerDelay:  15 * time.Minute,
		DirectorDelay: 30 * time.Minute,
	}
}

func newTestProcessor(t *testing.T) (*TriageProcessor, *policy.Store, *executor.ActionRegistry, *metrics.Aggregator) {
	t.Helper()
	registry := executor.NewDefaultRegistry()
	agg := metrics.NewAggregator()
	policies := policy.NewStore(inmem.NewStorage(), util.SystemClock{})
	// nil timers, escalation side effects are not under test here
	processor, err := NewTriageProcessor(policies, registry, agg, util.SystemClock{}, escalationConfig(), nil)
	require.NoError(t, err)
	return processor, policies, registry, agg
}

func TestProcessorRejectsBadDelays(t *testing.T) {
	conf := escalationConfig()
	conf.ManagerDelay = conf.TeamDelay
	_, err := NewTriageProcessor(nil, nil, nil, util.SystemClock{}, conf, nil)
	require.Error(t, err)
	require.True(t, api.IsValidation(err))
}

func TestProcessRejectsEmptyAlert(t *testing.T) {
	processor, _, _, _ := newTestProcessor(t)

	_, err := processor.Process(context.Background(), model.RawAlert{Source: "monitoring"})
	require.Error(t, err)
	require.True(t, api.IsValidation(err))
}

func TestClassification(t *testing.T) {
	processor, _, _, _ := newTestProcessor(t)

	scenarios := map[string]struct {
		raw      model.RawAlert
		severity model.AlertSeverity
		category string
		priority string
	}{
		"explicit severity wins": {
			raw:      model.RawAlert{Message: "all good", Severity: "critical", Type: "deploy"},
			severity: model.SEVERITY_CRITICAL,
			category: "deployment",
			priority: "P1",
		},
		"outage keyword": {
			raw:      model.RawAlert{Message: "payment service outage detected", Type: "application"},
			severity: model.SEVERITY_CRITICAL,
			category: "application",
			priority: "P1",
		},
		"timeout keyword": {
			raw:      model.RawAlert{Message: "upstream request timeout", Type: "network probe"},
			severity: model.SEVERITY_HIGH,
			category: "network",
			priority: "P2",
		},
		"degraded keyword": {
			raw:      model.RawAlert{Message: "response times degraded", Type: "application"},
			severity: model.SEVERITY_MEDIUM,
			category: "application",
			priority: "P3",
		},
		"metric raises floor": {
			raw:      model.RawAlert{Message: "routine check", Type: "cpu monitor", Metrics: map[string]float64{"cpu_usage": 97}},
			severity: model.SEVERITY_HIGH,
			category: "resource",
			priority: "P1",
		},
		"security bump": {
			raw:      model.RawAlert{Message: "certificate renewal failed", Type: "security"},
			severity: model.SEVERITY_HIGH,
			category: "security",
			priority: "P1",
		},
		"quiet alert": {
			raw:      model.RawAlert{Message: "heartbeat received", Type: "application"},
			severity: model.SEVERITY_LOW,
			category: "application",
			priority: "P4",
		},
	}
	for name, scenario := range scenarios {
		t.Run(name, func(t *testing.T) {
			alert, err := processor.Process(context.Background(), scenario.raw)
			require.NoError(t, err)
			require.Equal(t, scenario.severity, alert.Severity)
			require.Equal(t, scenario.category, alert.Category)
			require.Equal(t, scenario.priority, alert.Priority)
		})
	}
}

func TestProcessEscalationLadder(t *testing.T) {
	processor, _, _, agg := newTestProcessor(t)

	alert, err := processor.Process(context.Background(), model.RawAlert{
		Source:  "monitoring",
		Type:    "application",
		Message: "checkout service down",
	})
	require.NoError(t, err)
	require.Equal(t, model.SEVERITY_CRITICAL, alert.Severity)
	require.False(t, alert.AutoResolutionEligible)
	require.Nil(t, alert.Resolution)

	require.Len(t, alert.EscalationPath, 3)
	require.Equal(t, "team", alert.EscalationPath[0].Level)
	require.Equal(t, "manager", alert.EscalationPath[1].Level)
	require.Equal(t, "director", alert.EscalationPath[2].Level)
	for i := 1; i < len(alert.EscalationPath); i++ {
		require.Greater(t, alert.EscalationPath[i].Delay, alert.EscalationPath[i-1].Delay)
	}
	require.Equal(t, []string{"pager", "slack", "email"}, alert.NotificationChannels)
	require.Equal(t, int64(1), agg.Snapshot().AlertsProcessed)
	require.Zero(t, agg.Snapshot().AlertsAutoResolved)
}

func TestProcessChannelsBySeverity(t *testing.T) {
	processor, _, _, _ := newTestProcessor(t)

	high, err := processor.Process(context.Background(), model.RawAlert{Message: "request failed", Type: "application"})
	require.NoError(t, err)
	require.Equal(t, []string{"slack", "email"}, high.NotificationChannels)

	low, err := processor.Process(context.Background(), model.RawAlert{Message: "heartbeat", Type: "application"})
	require.NoError(t, err)
	require.Equal(t, []string{"email"}, low.NotificationChannels)
}

func TestProcessAutoResolves(t *testing.T) {
	processor, policies, registry, agg := newTestProcessor(t)
	var cleared []string
	registry.Register("clear_cache", func(ctx context.Context, req executor.ActionRequest) (map[string]any, error) {
		cleared = append(cleared, req.Target)
		return nil, nil
	})
	reg, err := policies.Register(model.AutomationPolicy{
		Name:      "clear-cache-on-memory",
		Condition: `category == "resource" && memory_usage > 90`,
		Priority:  model.PRIORITY_HIGH,
		Enabled:   true,
		Actions:   []model.RuleAction{{Type: "clear_cache", Target: "api"}},
	})
	require.NoError(t, err)

	alert, err := processor.Process(context.Background(), model.RawAlert{
		Source:  "monitoring",
		Type:    "memory monitor",
		Message: "memory pressure on api",
		Metrics: map[string]float64{"memory_usage": 96},
	})
	require.NoError(t, err)
	require.True(t, alert.AutoResolutionEligible)
	require.NotNil(t, alert.Resolution)
	require.True(t, alert.Resolution.Resolved)
	require.Equal(t, "clear_cache", alert.Resolution.Action)
	require.Empty(t, alert.EscalationPath)
	require.Equal(t, []string{"api"}, cleared)

	p, err := policies.Get(reg.PolicyId)
	require.NoError(t, err)
	require.Equal(t, int64(1), p.TriggerCount)
	require.Equal(t, int64(1), agg.Snapshot().AlertsAutoResolved)
}

func TestProcessFailedResolutionEscalates(t *testing.T) {
	processor, policies, registry, agg := newTestProcessor(t)
	registry.Register("clear_cache", func(ctx context.Context, req executor.ActionRequest) (map[string]any, error) {
		return nil, fmt.Errorf("cache node unreachable")
	})
	_, err := policies.Register(model.AutomationPolicy{
		Name:      "clear-cache",
		Condition: `category == "resource"`,
		Priority:  model.PRIORITY_HIGH,
		Enabled:   true,
		Actions:   []model.RuleAction{{Type: "clear_cache", Target: "api"}},
	})
	require.NoError(t, err)

	alert, err := processor.Process(context.Background(), model.RawAlert{
		Source:  "monitoring",
		Type:    "disk monitor",
		Message: "disk filling up",
	})
	require.NoError(t, err)
	require.True(t, alert.AutoResolutionEligible)
	require.Nil(t, alert.Resolution)
	require.Len(t, alert.EscalationPath, 3)
	require.Zero(t, agg.Snapshot().AlertsAutoResolved)
}

func TestGetRecentAlert(t *testing.T) {
	processor, _, _, _ := newTestProcessor(t)

	alert, err := processor.Process(context.Background(), model.RawAlert{Message: "heartbeat", Type: "application"})
	require.NoError(t, err)

	got, err := processor.Get(alert.Id)
	require.NoError(t, err)
	require.Equal(t, alert.Id, got.Id)

	_, err = processor.Get("missing")
	require.Error(t, err)
	require.True(t, api.IsNotFound(err))
}
