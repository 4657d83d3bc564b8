package model

import "time"

// AutomationMetrics is the consolidated snapshot over every engine.
// Counters are cumulative since process start; gauges are point-in-time.
type AutomationMetrics struct {
	WorkflowsRegistered int64     `json:"workflowsRegistered"`
	RunsCompleted       int64     `json:"runsCompleted"`
	RunsFailed          int64     `json:"runsFailed"`
	SelfHealingEvents   int64     `json:"selfHealingEvents"`
	AutomatedActions    int64     `json:"automatedActions"`
	AlertsProcessed     int64     `json:"alertsProcessed"`
	AlertsAutoResolved  int64     `json:"alertsAutoResolved"`
	ScalingActions      int64     `json:"scalingActions"`
	EfficiencyPercent   float64   `json:"efficiencyPercent"`
	UptimePercent       float64   `json:"uptimePercent"`
	PredictiveAccuracy  float64   `json:"predictiveAccuracy"`
	LastOptimization    time.Time `json:"lastOptimization,omitempty"`
	ActiveWorkflows     int       `json:"activeWorkflows"`
	ActiveSchedules     int       `json:"activeSchedules"`
	ActiveRules         int       `json:"activeRules"`
	ActivePolicies      int       `json:"activePolicies"`
}
