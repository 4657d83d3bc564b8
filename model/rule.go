package model

import "time"

type Priority string

const PRIORITY_LOW Priority = "LOW"
const PRIORITY_MEDIUM Priority = "MEDIUM"
const PRIORITY_HIGH Priority = "HIGH"
const PRIORITY_CRITICAL Priority = "CRITICAL"

func (p Priority) Rank() int {
	switch p {
	case PRIORITY_CRITICAL:
		return 4
	case PRIORITY_HIGH:
		return 3
	case PRIORITY_MEDIUM:
		return 2
	case PRIORITY_LOW:
		return 1
	}
	return 0
}

func ValidPriority(p Priority) bool {
	return p.Rank() > 0
}

type RuleAction struct {
	Type       string         `json:"type"`
	Target     string         `json:"target"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// SelfHealingRule binds a condition predicate over issue signals to an
// ordered list of remediation actions. Disabled rules never match.
type SelfHealingRule struct {
	Id        string       `json:"id"`
	Name      string       `json:"name"`
	Condition string       `json:"condition"`
	Actions   []RuleAction `json:"actions"`
	Priority  Priority     `json:"priority"`
	Enabled   bool         `json:"enabled"`
	CreatedAt time.Time    `json:"createdAt"`
}

type IssueContext struct {
	Id          string         `json:"id,omitempty"`
	Description string         `json:"description,omitempty"`
	Signals     map[string]any `json:"signals"`
}

type HealingOutcome string

const HEALING_APPLIED HealingOutcome = "applied"
const HEALING_NO_RULES_FOUND HealingOutcome = "no_rules_found"

type HealingActionRecord struct {
	RuleId    string     `json:"ruleId"`
	RuleName  string     `json:"ruleName"`
	Type      string     `json:"type"`
	Target    string     `json:"target"`
	Status    StepStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

type HealingReport struct {
	Issue                 string                `json:"issue"`
	Outcome               HealingOutcome        `json:"outcome"`
	RulesApplied          int                   `json:"rulesApplied"`
	ActionsExecuted       int                   `json:"actionsExecuted"`
	HealingActions        []HealingActionRecord `json:"healingActions"`
	EstimatedRecoveryTime time.Duration         `json:"estimatedRecoveryTime"`
}
