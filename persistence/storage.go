package persistence

import (
	"time"

	"github.com/sentinelops/autopilot/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	if len(e.Message) == 0 {
		return "error in underline storage layer"
	}
	return e.Message
}

// Each collection is stored and versioned independently, keyed by
// identity, so durability backends can migrate them separately.

type WorkflowStorage interface {
	SaveWorkflowDefinition(def model.WorkflowDefinition) error
	GetWorkflowDefinition(id string) (*model.WorkflowDefinition, error)
	ListWorkflowDefinitions() ([]model.WorkflowDefinition, error)
}

type RunStorage interface {
	SaveRun(run model.WorkflowRun) error
	GetRun(id string) (*model.WorkflowRun, error)
	ListRuns() ([]model.WorkflowRun, error)
}

type ScheduleStorage interface {
	SaveSchedule(sched model.Schedule) error
	GetSchedule(id string) (*model.Schedule, error)
	ListSchedules() ([]model.Schedule, error)
}

type RuleStorage interface {
	SaveRule(rule model.SelfHealingRule) error
	GetRule(id string) (*model.SelfHealingRule, error)
	ListRules() ([]model.SelfHealingRule, error)
}

type PolicyStorage interface {
	SavePolicy(policy model.AutomationPolicy) error
	GetPolicy(id string) (*model.AutomationPolicy, error)
	ListPolicies() ([]model.AutomationPolicy, error)
	// IncrementTrigger serializes the counter update per policy.
	IncrementTrigger(id string, at time.Time) error
}

type Storage interface {
	WorkflowStorage
	RunStorage
	ScheduleStorage
	RuleStorage
	PolicyStorage
}
