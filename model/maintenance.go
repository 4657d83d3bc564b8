package model

import "time"

// ResourceSignal carries the telemetry for one resource category.
// Utilization is a percentage, Trend is percentage points per hour,
// ErrorRate is errors per minute.
type ResourceSignal struct {
	Utilization float64 `json:"utilization"`
	Trend       float64 `json:"trend"`
	ErrorRate   float64 `json:"errorRate"`
}

type SystemSnapshot struct {
	Timestamp time.Time                 `json:"timestamp"`
	Resources map[string]ResourceSignal `json:"resources"`
}

type Recommendation struct {
	Type      string   `json:"type"`
	Priority  Priority `json:"priority"`
	Action    string   `json:"action"`
	Timeframe string   `json:"timeframe"`
}

// RiskAssessment is recomputed per analysis call, advisory only.
type RiskAssessment struct {
	Timestamp       time.Time          `json:"timestamp"`
	Scores          map[string]float64 `json:"scores"`
	Recommendations []Recommendation   `json:"recommendations"`
}
