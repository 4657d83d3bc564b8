package model

import "time"

// StepSpec is one step of a workflow definition. Step order within the
// definition is execution order and is immutable once a run starts.
type StepSpec struct {
	Id            string         `json:"id"`
	Action        string         `json:"action"`
	Target        string         `json:"target,omitempty"`
	TimeoutMillis int64          `json:"timeoutMillis"`
	RetryCount    int            `json:"retryCount"`
	Parameters    map[string]any `json:"parameters,omitempty"`
}

func (s StepSpec) Timeout() time.Duration {
	return time.Duration(s.TimeoutMillis) * time.Millisecond
}

type WorkflowDefinition struct {
	Id          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Steps       []StepSpec     `json:"steps"`
	Schedule    string         `json:"schedule,omitempty"`
	Triggers    []string       `json:"triggers,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type RegistrationResult struct {
	WorkflowId        string        `json:"workflowId"`
	StepCount         int           `json:"stepsCount"`
	EstimatedDuration time.Duration `json:"estimatedDuration"`
}
