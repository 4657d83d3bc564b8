package policy

import (
	"testing"
	"time"

	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/persistence/inmem"
	"github.com/sentinelops/autopilot/util"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*Store, *util.FakeClock) {
	clock := util.NewFakeClock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	return NewStore(inmem.NewStorage(), clock), clock
}

func validPolicy(name, condition string) model.AutomationPolicy {
	return model.AutomationPolicy{
		Name:      name,
		Condition: condition,
		Priority:  model.PRIORITY_HIGH,
		Enabled:   true,
		Actions:   []model.RuleAction{{Type: "restart_service", Target: "api"}},
	}
}

func TestRegisterPolicy(t *testing.T) {
	store, _ := newTestStore()

	reg, err := store.Register(validPolicy("restart-on-oom", "memory_usage > 95"))
	require.NoError(t, err)
	require.NotEmpty(t, reg.PolicyId)
	require.Equal(t, 1, reg.RulesCount)

	p, err := store.Get(reg.PolicyId)
	require.NoError(t, err)
	require.Equal(t, "restart-on-oom", p.Name)
	require.True(t, p.Enabled)
	require.Zero(t, p.TriggerCount)
}

func TestRegisterPolicyValidation(t *testing.T) {
	store, _ := newTestStore()

	scenarios := map[string]func(p *model.AutomationPolicy){
		"empty name":      func(p *model.AutomationPolicy) { p.Name = "" },
		"empty condition": func(p *model.AutomationPolicy) { p.Condition = "" },
		"no actions":      func(p *model.AutomationPolicy) { p.Actions = nil },
		"bad priority":    func(p *model.AutomationPolicy) { p.Priority = "SEVERE" },
	}
	for name, mutate := range scenarios {
		t.Run(name, func(t *testing.T) {
			p := validPolicy("p", "true")
			mutate(&p)
			_, err := store.Register(p)
			require.Error(t, err)
			require.True(t, api.IsValidation(err))
		})
	}
}

func TestEstimatedImpact(t *testing.T) {
	store, _ := newTestStore()

	low := validPolicy("low", "true")
	low.Priority = model.PRIORITY_LOW
	reg, err := store.Register(low)
	require.NoError(t, err)
	require.Equal(t, "low", reg.EstimatedImpact)

	high := validPolicy("high", "true")
	high.Priority = model.PRIORITY_CRITICAL
	high.Actions = append(high.Actions, model.RuleAction{Type: "clear_cache"})
	reg, err = store.Register(high)
	require.NoError(t, err)
	require.Equal(t, "high", reg.EstimatedImpact)
}

func TestMatchIncrementsTrigger(t *testing.T) {
	store, clock := newTestStore()
	reg, err := store.Register(validPolicy("cpu-policy", "cpu_usage > 80"))
	require.NoError(t, err)

	matched, err := store.Match(map[string]any{"cpu_usage": 91.0})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.Equal(t, "cpu-policy", matched[0].Name)

	matched, err = store.Match(map[string]any{"cpu_usage": 40.0})
	require.NoError(t, err)
	require.Empty(t, matched)

	p, err := store.Get(reg.PolicyId)
	require.NoError(t, err)
	require.Equal(t, int64(1), p.TriggerCount)
	require.Equal(t, clock.Now(), p.LastTriggered)
}

func TestMatchSkipsDisabled(t *testing.T) {
	store, _ := newTestStore()
	reg, err := store.Register(validPolicy("p", "cpu_usage > 10"))
	require.NoError(t, err)
	require.NoError(t, store.SetEnabled(reg.PolicyId, false))

	matched, err := store.Match(map[string]any{"cpu_usage": 99.0})
	require.NoError(t, err)
	require.Empty(t, matched)

	p, err := store.Get(reg.PolicyId)
	require.NoError(t, err)
	require.Zero(t, p.TriggerCount)
}

func TestDisabledPolicyRetained(t *testing.T) {
	store, _ := newTestStore()
	reg, err := store.Register(validPolicy("p", "true"))
	require.NoError(t, err)
	require.NoError(t, store.SetEnabled(reg.PolicyId, false))

	policies, err := store.List()
	require.NoError(t, err)
	require.Len(t, policies, 1)
	require.False(t, policies[0].Enabled)
}
