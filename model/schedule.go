package model

import "time"

// Schedule binds a cron-like spec to a workflow definition. Disabled
// schedules are skipped by the scheduler loop but retained for audit.
type Schedule struct {
	Id         string         `json:"id"`
	WorkflowId string         `json:"workflowId"`
	Spec       string         `json:"spec"`
	Enabled    bool           `json:"enabled"`
	LastRun    time.Time      `json:"lastRun,omitempty"`
	NextRun    time.Time      `json:"nextRun"`
	MaxRetries int            `json:"maxRetries"`
	Overrides  map[string]any `json:"overrides,omitempty"`
}

type ScheduleResult struct {
	ScheduleId string    `json:"scheduleId"`
	NextRun    time.Time `json:"nextRun"`
}
