package alerting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	c "github.com/patrickmn/go-cache"
	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/config"
	"github.com/sentinelops/autopilot/executor"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/metrics"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/policy"
	"github.com/sentinelops/autopilot/util"
	"go.uber.org/zap"
)

// TriageProcessor classifies raw alerts with deterministic, signal
// driven rules, resolves those a policy marks eligible and arms the
// escalation ladder for the rest.
type TriageProcessor struct {
	policies *policy.Store
	registry *executor.ActionRegistry
	metrics  *metrics.Aggregator
	clock    util.Clock
	conf     config.EscalationConfig
	timers   *EscalationTimers
	recent   *c.Cache
}

func NewTriageProcessor(policies *policy.Store, registry *executor.ActionRegistry, agg *metrics.Aggregator, clock util.Clock, conf config.EscalationConfig, timers *EscalationTimers) (*TriageProcessor, error) {
	if conf.TeamDelay <= 0 || conf.ManagerDelay <= conf.TeamDelay || conf.DirectorDelay <= conf.ManagerDelay {
		return nil, api.ValidationError{Message: "escalation delays must be strictly increasing"}
	}
	return &TriageProcessor{
		policies: policies,
		registry: registry,
		metrics:  agg,
		clock:    clock,
		conf:     conf,
		timers:   timers,
		recent:   c.New(24*time.Hour, time.Hour),
	}, nil
}

func (p *TriageProcessor) Process(ctx context.Context, raw model.RawAlert) (*model.ProcessedAlert, error) {
	if len(raw.Message) == 0 && len(raw.Type) == 0 {
		return nil, api.ValidationError{Message: "alert must carry a message or a type"}
	}

	severity := classifySeverity(raw)
	category := classifyCategory(raw)
	alert := &model.ProcessedAlert{
		Id:          uuid.New().String(),
		RawId:       raw.Id,
		Source:      raw.Source,
		Message:     raw.Message,
		Severity:    severity,
		Category:    category,
		Priority:    derivePriority(severity, category),
		ProcessedAt: p.clock.Now(),
	}

	matched, err := p.policies.Match(alertSignals(raw, severity, category))
	if err != nil {
		return nil, err
	}
	alert.AutoResolutionEligible = len(matched) > 0

	if alert.AutoResolutionEligible {
		p.autoResolve(ctx, alert, matched)
	}
	if alert.Resolution == nil {
		alert.EscalationPath = p.escalationPath()
		alert.NotificationChannels = notificationChannels(severity)
		p.armEscalation(alert)
	}

	p.metrics.IncAlertProcessed(alert.Resolution != nil)
	p.recent.SetDefault(alert.Id, *alert)
	logger.Info("alert processed",
		zap.String("id", alert.Id),
		zap.String("severity", string(alert.Severity)),
		zap.String("category", alert.Category),
		zap.Bool("autoResolved", alert.Resolution != nil))
	return alert, nil
}

func (p *TriageProcessor) Get(id string) (*model.ProcessedAlert, error) {
	if v, ok := p.recent.Get(id); ok {
		alert := v.(model.ProcessedAlert)
		return &alert, nil
	}
	return nil, api.NotFoundError{Kind: "alert", Id: id}
}

// autoResolve runs the matched policies' actions in order. Resolution
// is attached only when every action succeeded; failures are recorded
// and the alert falls through to escalation.
func (p *TriageProcessor) autoResolve(ctx context.Context, alert *model.ProcessedAlert, matched []model.AutomationPolicy) {
	resolved := true
	var lastAction string
	for _, pol := range matched {
		for _, action := range pol.Actions {
			lastAction = action.Type
			_, err := p.registry.Execute(ctx, executor.ActionRequest{
				Type:       action.Type,
				Target:     action.Target,
				Parameters: action.Parameters,
			})
			p.metrics.AddAutomatedActions(1)
			if err != nil {
				resolved = false
				logger.Error("auto resolution action failed",
					zap.String("alert", alert.Id),
					zap.String("policy", pol.Name),
					zap.String("action", action.Type),
					zap.Error(err))
			}
		}
	}
	if resolved {
		alert.Resolution = &model.AlertResolution{
			Action:   lastAction,
			Resolved: true,
			Time:     p.clock.Now(),
		}
	}
}

func (p *TriageProcessor) escalationPath() []model.EscalationRung {
	return []model.EscalationRung{
		{Level: "team", Delay: p.conf.TeamDelay},
		{Level: "manager", Delay: p.conf.ManagerDelay},
		{Level: "director", Delay: p.conf.DirectorDelay},
	}
}

func (p *TriageProcessor) armEscalation(alert *model.ProcessedAlert) {
	if p.timers == nil {
		return
	}
	for _, rung := range alert.EscalationPath {
		rung := rung
		id := alert.Id
		p.timers.AddTask(func() {
			_, err := p.registry.Execute(context.Background(), executor.ActionRequest{
				Type:   "send_notification",
				Target: rung.Level,
				Parameters: map[string]any{
					"channel": rung.Level,
					"message": fmt.Sprintf("alert %s escalated to %s", id, rung.Level),
				},
			})
			if err != nil {
				logger.Error("escalation notification failed", zap.String("alert", id), zap.String("level", rung.Level), zap.Error(err))
			}
		}, rung.Delay)
	}
}

func classifySeverity(raw model.RawAlert) model.AlertSeverity {
	switch strings.ToUpper(raw.Severity) {
	case "CRITICAL":
		return model.SEVERITY_CRITICAL
	case "HIGH":
		return model.SEVERITY_HIGH
	case "MEDIUM":
		return model.SEVERITY_MEDIUM
	case "LOW":
		return model.SEVERITY_LOW
	}

	msg := strings.ToLower(raw.Message)
	severity := model.SEVERITY_LOW
	switch {
	case containsAny(msg, "panic", "outage", "down", "unavailable", "data loss"):
		severity = model.SEVERITY_CRITICAL
	case containsAny(msg, "error", "failed", "failure", "timeout"):
		severity = model.SEVERITY_HIGH
	case containsAny(msg, "warn", "degraded", "slow", "latency"):
		severity = model.SEVERITY_MEDIUM
	}

	// a metric at or past 95% raises the floor to HIGH
	for _, v := range raw.Metrics {
		if v >= 95 && severity.Rank() < model.SEVERITY_HIGH.Rank() {
			severity = model.SEVERITY_HIGH
		}
	}
	return severity
}

func classifyCategory(raw model.RawAlert) string {
	key := strings.ToLower(raw.Type + " " + raw.Source)
	switch {
	case containsAny(key, "cpu", "memory", "disk", "capacity"):
		return "resource"
	case containsAny(key, "network", "connection", "dns", "socket"):
		return "network"
	case containsAny(key, "auth", "security", "certificate", "access"):
		return "security"
	case containsAny(key, "deploy", "release", "rollout"):
		return "deployment"
	}
	return "application"
}

// derivePriority applies the severity x category table: security and
// resource alerts sit one notch above application alerts of the same
// severity.
func derivePriority(severity model.AlertSeverity, category string) string {
	rank := severity.Rank()
	if category == "security" || category == "resource" {
		rank++
	}
	switch {
	case rank >= 4:
		return "P1"
	case rank == 3:
		return "P2"
	case rank == 2:
		return "P3"
	}
	return "P4"
}

func notificationChannels(severity model.AlertSeverity) []string {
	switch severity {
	case model.SEVERITY_CRITICAL:
		return []string{"pager", "slack", "email"}
	case model.SEVERITY_HIGH:
		return []string{"slack", "email"}
	}
	return []string{"email"}
}

func alertSignals(raw model.RawAlert, severity model.AlertSeverity, category string) map[string]any {
	signals := map[string]any{
		"severity": string(severity),
		"category": category,
		"source":   raw.Source,
		"type":     raw.Type,
		"message":  raw.Message,
	}
	for k, v := range raw.Metrics {
		signals[k] = v
	}
	return signals
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
