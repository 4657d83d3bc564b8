package model

import "time"

type OptimizationCandidate struct {
	Type          string  `json:"type"`
	Action        string  `json:"action"`
	Target        string  `json:"target"`
	Impact        string  `json:"impact"`
	EstimatedGain float64 `json:"estimatedGain"`
}

type OptimizationPlan struct {
	Id         string                  `json:"id"`
	Scope      string                  `json:"scope"`
	Candidates []OptimizationCandidate `json:"candidates"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// OptimizationOutcome records both the estimated and actual gain; the
// two may legitimately differ.
type OptimizationOutcome struct {
	Candidate  OptimizationCandidate `json:"candidate"`
	ActualGain float64               `json:"actualGain"`
	Status     StepStatus            `json:"status"`
	Error      string                `json:"error,omitempty"`
}

type OptimizationResult struct {
	PlanId     string                `json:"planId"`
	Scope      string                `json:"scope"`
	Outcomes   []OptimizationOutcome `json:"outcomes"`
	TotalGain  float64               `json:"totalGain"`
	Efficiency float64               `json:"efficiency"`
}
