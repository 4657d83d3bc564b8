package scaling

import (
	"context"
	"fmt"

	c "github.com/patrickmn/go-cache"
	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/config"
	"github.com/sentinelops/autopilot/executor"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/metrics"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/util"
	"go.uber.org/zap"
)

// Advisor turns resource metrics into scale decisions and executes
// them. Decisions are a pure threshold function; execution is bounded
// by a per-resource cooldown so retried decisions stay safe.
type Advisor struct {
	conf     config.ScalingConfig
	registry *executor.ActionRegistry
	metrics  *metrics.Aggregator
	clock    util.Clock
	cooldown *c.Cache
}

func NewAdvisor(conf config.ScalingConfig, registry *executor.ActionRegistry, agg *metrics.Aggregator, clock util.Clock) (*Advisor, error) {
	if conf.ScaleDownThreshold >= conf.ScaleUpThreshold {
		return nil, api.ValidationError{Message: fmt.Sprintf(
			"scale down threshold %.1f must be below scale up threshold %.1f",
			conf.ScaleDownThreshold, conf.ScaleUpThreshold)}
	}
	return &Advisor{
		conf:     conf,
		registry: registry,
		metrics:  agg,
		clock:    clock,
		cooldown: c.New(conf.Cooldown, conf.Cooldown),
	}, nil
}

// Decide is pure: scale up when either cpu or memory breaches the
// upper bound, scale down when both sit below the lower bound.
// Threshold ordering makes the two conditions mutually exclusive.
func (a *Advisor) Decide(m model.ScalingMetrics) model.ScalingDecision {
	decision := model.ScalingDecision{
		Resource:  m.Resource,
		Timestamp: a.clock.Now(),
	}
	switch {
	case m.CpuPercent > a.conf.ScaleUpThreshold || m.MemoryPercent > a.conf.ScaleUpThreshold:
		decision.Direction = model.SCALE_UP
		decision.Reason = fmt.Sprintf("cpu %.1f%% or memory %.1f%% above %.1f%%", m.CpuPercent, m.MemoryPercent, a.conf.ScaleUpThreshold)
	case m.CpuPercent < a.conf.ScaleDownThreshold && m.MemoryPercent < a.conf.ScaleDownThreshold:
		decision.Direction = model.SCALE_DOWN
		decision.Reason = fmt.Sprintf("cpu %.1f%% and memory %.1f%% below %.1f%%", m.CpuPercent, m.MemoryPercent, a.conf.ScaleDownThreshold)
	default:
		decision.Direction = model.SCALE_NONE
		decision.Reason = "within thresholds"
	}
	return decision
}

func (a *Advisor) Execute(ctx context.Context, decision model.ScalingDecision) model.ScalingResult {
	result := model.ScalingResult{Decision: decision}
	if decision.Direction == model.SCALE_NONE {
		return result
	}
	if _, found := a.cooldown.Get(decision.Resource); found {
		result.Skipped = "cooldown active"
		logger.Info("scale action skipped", zap.String("resource", decision.Resource), zap.String("reason", result.Skipped))
		return result
	}
	_, err := a.registry.Execute(ctx, executor.ActionRequest{
		Type:   "scale_resource",
		Target: decision.Resource,
		Parameters: map[string]any{
			"direction": string(decision.Direction),
		},
	})
	if err != nil {
		// transient failure: no cooldown entry, the decision is safe
		// to retry
		result.Error = err.Error()
		logger.Error("scale action failed", zap.String("resource", decision.Resource), zap.Error(err))
		return result
	}
	a.cooldown.SetDefault(decision.Resource, decision.Direction)
	result.Executed = true
	a.metrics.IncScalingAction()
	a.metrics.AddAutomatedActions(1)
	return result
}
