package model

import "time"

// AutomationPolicy is a condition/action bundle. Policies are never
// deleted, disabling is the only retirement path. TriggerCount and
// LastTriggered are mutated only by the engine on each match.
type AutomationPolicy struct {
	Id            string       `json:"id"`
	Name          string       `json:"name"`
	Condition     string       `json:"condition"`
	Actions       []RuleAction `json:"actions"`
	Enabled       bool         `json:"enabled"`
	Priority      Priority     `json:"priority"`
	TriggerCount  int64        `json:"triggerCount"`
	LastTriggered time.Time    `json:"lastTriggered,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type PolicyRegistration struct {
	PolicyId        string `json:"policyId"`
	RulesCount      int    `json:"rulesCount"`
	EstimatedImpact string `json:"estimatedImpact"`
}
