package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sentinelops/autopilot/model"
)

type GaugeFunc func() int

// Aggregator holds the additive counters every engine increments and
// derives point-in-time gauges at snapshot time. Counter writes are
// atomic; reads never block writers.
type Aggregator struct {
	workflowsRegistered atomic.Int64
	runsCompleted       atomic.Int64
	runsFailed          atomic.Int64
	selfHealingEvents   atomic.Int64
	automatedActions    atomic.Int64
	alertsProcessed     atomic.Int64
	alertsAutoResolved  atomic.Int64
	scalingActions      atomic.Int64

	// hundredths of a percent, so CAS math stays integral
	efficiencyCents       atomic.Int64
	predictiveSumCents    atomic.Int64
	predictiveSamples     atomic.Int64
	lastOptimizationNanos atomic.Int64

	mu     sync.RWMutex
	gauges map[string]GaugeFunc

	registry          *prometheus.Registry
	promRuns          *prometheus.CounterVec
	promHealingEvents prometheus.Counter
	promActions       prometheus.Counter
	promAlerts        *prometheus.CounterVec
	promScaling       prometheus.Counter
	promEfficiency    prometheus.Gauge
}

func NewAggregator() *Aggregator {
	a := &Aggregator{
		gauges:   make(map[string]GaugeFunc),
		registry: prometheus.NewRegistry(),
		promRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autopilot_workflow_runs_total",
			Help: "Workflow runs by terminal status.",
		}, []string{"status"}),
		promHealingEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autopilot_self_healing_events_total",
			Help: "Issues processed by the self-healing rule engine.",
		}),
		promActions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autopilot_automated_actions_total",
			Help: "Remediation and optimization actions executed.",
		}),
		promAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autopilot_alerts_total",
			Help: "Alerts processed by the triage processor.",
		}, []string{"resolved"}),
		promScaling: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autopilot_scaling_actions_total",
			Help: "Scale actions executed by the scaling advisor.",
		}),
		promEfficiency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autopilot_efficiency_percent",
			Help: "Cumulative optimization efficiency, capped at 100.",
		}),
	}
	a.registry.MustRegister(a.promRuns, a.promHealingEvents, a.promActions, a.promAlerts, a.promScaling, a.promEfficiency)
	return a
}

func (a *Aggregator) Registry() *prometheus.Registry {
	return a.registry
}

// RegisterGauge binds a named derived gauge computed at snapshot time
// by scanning the owning registry.
func (a *Aggregator) RegisterGauge(name string, fn GaugeFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gauges[name] = fn
}

func (a *Aggregator) IncWorkflowsRegistered() {
	a.workflowsRegistered.Add(1)
}

func (a *Aggregator) IncRunCompleted() {
	a.runsCompleted.Add(1)
	a.promRuns.WithLabelValues("completed").Inc()
}

func (a *Aggregator) IncRunFailed() {
	a.runsFailed.Add(1)
	a.promRuns.WithLabelValues("failed").Inc()
}

func (a *Aggregator) IncSelfHealingEvent() {
	a.selfHealingEvents.Add(1)
	a.promHealingEvents.Inc()
}

func (a *Aggregator) AddAutomatedActions(n int) {
	if n <= 0 {
		return
	}
	a.automatedActions.Add(int64(n))
	a.promActions.Add(float64(n))
}

// IncAlertProcessed records one triaged alert under its final
// disposition, so the labeled series partition the processed total.
func (a *Aggregator) IncAlertProcessed(autoResolved bool) {
	a.alertsProcessed.Add(1)
	if autoResolved {
		a.alertsAutoResolved.Add(1)
		a.promAlerts.WithLabelValues("true").Inc()
		return
	}
	a.promAlerts.WithLabelValues("false").Inc()
}

func (a *Aggregator) IncScalingAction() {
	a.scalingActions.Add(1)
	a.promScaling.Inc()
}

// AddEfficiencyGain folds an optimization gain into the cumulative
// efficiency percentage, capped at 100. Returns the new value.
func (a *Aggregator) AddEfficiencyGain(gain float64) float64 {
	delta := int64(gain * 100)
	for {
		cur := a.efficiencyCents.Load()
		next := cur + delta
		if next > 10000 {
			next = 10000
		}
		if next < 0 {
			next = 0
		}
		if a.efficiencyCents.CompareAndSwap(cur, next) {
			a.promEfficiency.Set(float64(next) / 100)
			return float64(next) / 100
		}
	}
}

// RecordPredictiveConfidence folds one maintenance assessment's
// confidence into the running predictive accuracy average.
func (a *Aggregator) RecordPredictiveConfidence(percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	a.predictiveSumCents.Add(int64(percent * 100))
	a.predictiveSamples.Add(1)
}

func (a *Aggregator) MarkOptimization(at time.Time) {
	a.lastOptimizationNanos.Store(at.UnixNano())
}

func (a *Aggregator) Snapshot() model.AutomationMetrics {
	completed := a.runsCompleted.Load()
	failed := a.runsFailed.Load()
	uptime := 100.0
	if completed+failed > 0 {
		uptime = 100 * float64(completed) / float64(completed+failed)
	}
	predictive := 0.0
	if samples := a.predictiveSamples.Load(); samples > 0 {
		predictive = float64(a.predictiveSumCents.Load()) / float64(samples) / 100
	}
	m := model.AutomationMetrics{
		WorkflowsRegistered: a.workflowsRegistered.Load(),
		RunsCompleted:       completed,
		RunsFailed:          failed,
		SelfHealingEvents:   a.selfHealingEvents.Load(),
		AutomatedActions:    a.automatedActions.Load(),
		AlertsProcessed:     a.alertsProcessed.Load(),
		AlertsAutoResolved:  a.alertsAutoResolved.Load(),
		ScalingActions:      a.scalingActions.Load(),
		EfficiencyPercent:   float64(a.efficiencyCents.Load()) / 100,
		UptimePercent:       uptime,
		PredictiveAccuracy:  predictive,
	}
	if nanos := a.lastOptimizationNanos.Load(); nanos > 0 {
		m.LastOptimization = time.Unix(0, nanos)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if fn, ok := a.gauges["workflows"]; ok {
		m.ActiveWorkflows = fn()
	}
	if fn, ok := a.gauges["schedules"]; ok {
		m.ActiveSchedules = fn()
	}
	if fn, ok := a.gauges["rules"]; ok {
		m.ActiveRules = fn()
	}
	if fn, ok := a.gauges["policies"]; ok {
		m.ActivePolicies = fn()
	}
	return m
}
