package model

import "time"

type RunStatus string

const RUN_RUNNING RunStatus = "RUNNING"
const RUN_COMPLETED RunStatus = "COMPLETED"
const RUN_FAILED RunStatus = "FAILED"

type StepStatus string

const STEP_COMPLETED StepStatus = "COMPLETED"
const STEP_FAILED StepStatus = "FAILED"

// StepResult is immutable once recorded. Either Output or Error is set.
type StepResult struct {
	StepId    string         `json:"stepId"`
	Action    string         `json:"action"`
	Status    StepStatus     `json:"status"`
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Duration  time.Duration  `json:"duration"`
	Output    map[string]any `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type LogLevel string

const LOG_INFO LogLevel = "INFO"
const LOG_ERROR LogLevel = "ERROR"

type RunLogEntry struct {
	Time    time.Time `json:"time"`
	Level   LogLevel  `json:"level"`
	Message string    `json:"message"`
}

// WorkflowRun tracks one execution instance of a workflow definition.
// Status only moves forward: RUNNING -> COMPLETED or RUNNING -> FAILED.
type WorkflowRun struct {
	Id           string         `json:"id"`
	DefinitionId string         `json:"definitionId"`
	Status       RunStatus      `json:"status"`
	StartTime    time.Time      `json:"startTime"`
	EndTime      time.Time      `json:"endTime,omitempty"`
	CurrentStep  int            `json:"currentStep"`
	StepResults  []StepResult   `json:"stepResults"`
	Logs         []RunLogEntry  `json:"logs"`
	Error        string         `json:"error,omitempty"`
	Variables    map[string]any `json:"variables,omitempty"`
}

func (r *WorkflowRun) AppendLog(now time.Time, level LogLevel, message string) {
	r.Logs = append(r.Logs, RunLogEntry{Time: now, Level: level, Message: message})
}

type RunResult struct {
	RunId        string        `json:"runId"`
	DefinitionId string        `json:"definitionId"`
	Status       RunStatus     `json:"status"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	Duration     time.Duration `json:"duration"`
	StepResults  []StepResult  `json:"stepResults"`
	Error        string        `json:"error,omitempty"`
}
