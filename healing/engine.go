package healing

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/executor"
	"github.com/sentinelops/autopilot/expr"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/metrics"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/persistence"
	"github.com/sentinelops/autopilot/util"
	"go.uber.org/zap"
)

// RuleEngine evaluates condition/action rules against reported issues
// and executes the matching remediations in priority order.
type RuleEngine struct {
	rules             persistence.RuleStorage
	registry          *executor.ActionRegistry
	metrics           *metrics.Aggregator
	clock             util.Clock
	perActionRecovery time.Duration
}

func NewRuleEngine(rules persistence.RuleStorage, registry *executor.ActionRegistry, agg *metrics.Aggregator, clock util.Clock, perActionRecovery time.Duration) *RuleEngine {
	return &RuleEngine{
		rules:             rules,
		registry:          registry,
		metrics:           agg,
		clock:             clock,
		perActionRecovery: perActionRecovery,
	}
}

func (e *RuleEngine) RegisterRule(rule model.SelfHealingRule) (*model.SelfHealingRule, error) {
	if len(rule.Name) == 0 {
		return nil, api.ValidationError{Message: "rule name can not be empty"}
	}
	if len(rule.Condition) == 0 {
		return nil, api.ValidationError{Message: "rule condition can not be empty"}
	}
	if len(rule.Actions) == 0 {
		return nil, api.ValidationError{Message: "rule must have at least one action"}
	}
	if !model.ValidPriority(rule.Priority) {
		return nil, api.ValidationError{Message: "rule priority must be one of LOW, MEDIUM, HIGH, CRITICAL"}
	}
	rule.Id = uuid.New().String()
	rule.CreatedAt = e.clock.Now()
	if err := e.rules.SaveRule(rule); err != nil {
		return nil, err
	}
	logger.Info("registered self healing rule", zap.String("id", rule.Id), zap.String("name", rule.Name), zap.String("priority", string(rule.Priority)))
	return &rule, nil
}

func (e *RuleEngine) SetEnabled(id string, enabled bool) error {
	rule, err := e.rules.GetRule(id)
	if err != nil {
		return err
	}
	rule.Enabled = enabled
	return e.rules.SaveRule(*rule)
}

func (e *RuleEngine) ListRules() ([]model.SelfHealingRule, error) {
	return e.rules.ListRules()
}

// React matches enabled rules against the issue signals and executes
// their actions. Matched rules run critical first; equal priorities
// keep registration order. One action failing never aborts the
// remaining actions or rules; every failure is recorded per action.
func (e *RuleEngine) React(ctx context.Context, issue model.IssueContext) (*model.HealingReport, error) {
	rules, err := e.rules.ListRules()
	if err != nil {
		return nil, err
	}

	var matched []model.SelfHealingRule
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		ok, err := expr.EvalBool(rule.Condition, issue.Signals)
		if err != nil {
			logger.Warn("rule condition evaluation failed, treating as no match",
				zap.String("rule", rule.Name), zap.Error(err))
			continue
		}
		if ok {
			matched = append(matched, rule)
		}
	}

	report := &model.HealingReport{
		Issue:          issue.Description,
		HealingActions: []model.HealingActionRecord{},
	}
	if len(report.Issue) == 0 {
		report.Issue = issue.Id
	}
	if len(matched) == 0 {
		report.Outcome = model.HEALING_NO_RULES_FOUND
		return report, nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority.Rank() > matched[j].Priority.Rank()
	})

	for _, rule := range matched {
		for _, action := range rule.Actions {
			record := model.HealingActionRecord{
				RuleId:    rule.Id,
				RuleName:  rule.Name,
				Type:      action.Type,
				Target:    action.Target,
				Timestamp: e.clock.Now(),
			}
			_, err := e.registry.Execute(ctx, executor.ActionRequest{
				Type:       action.Type,
				Target:     action.Target,
				Parameters: action.Parameters,
			})
			if err != nil {
				record.Status = model.STEP_FAILED
				record.Error = err.Error()
				logger.Error("healing action failed", zap.String("rule", rule.Name), zap.String("action", action.Type), zap.Error(err))
			} else {
				record.Status = model.STEP_COMPLETED
			}
			report.HealingActions = append(report.HealingActions, record)
			report.ActionsExecuted++
		}
		report.RulesApplied++
	}
	report.Outcome = model.HEALING_APPLIED
	report.EstimatedRecoveryTime = time.Duration(report.ActionsExecuted) * e.perActionRecovery

	e.metrics.IncSelfHealingEvent()
	e.metrics.AddAutomatedActions(report.ActionsExecuted)
	return report, nil
}
