package metadata

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/metrics"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/persistence"
	"github.com/sentinelops/autopilot/util"
	"go.uber.org/zap"
)

type WorkflowRegistry interface {
	Register(def model.WorkflowDefinition) (*model.RegistrationResult, error)
	Get(id string) (*model.WorkflowDefinition, error)
	List() ([]model.WorkflowDefinition, error)
}

type WorkflowRegistryImpl struct {
	storage         persistence.WorkflowStorage
	metrics         *metrics.Aggregator
	clock           util.Clock
	avgStepDuration time.Duration
}

func NewWorkflowRegistry(storage persistence.WorkflowStorage, agg *metrics.Aggregator, clock util.Clock, avgStepDuration time.Duration) *WorkflowRegistryImpl {
	return &WorkflowRegistryImpl{
		storage:         storage,
		metrics:         agg,
		clock:           clock,
		avgStepDuration: avgStepDuration,
	}
}

var _ WorkflowRegistry = new(WorkflowRegistryImpl)

func (r *WorkflowRegistryImpl) Register(def model.WorkflowDefinition) (*model.RegistrationResult, error) {
	if err := validate(def); err != nil {
		return nil, err
	}
	def.Id = uuid.New().String()
	def.CreatedAt = r.clock.Now()
	if err := r.storage.SaveWorkflowDefinition(def); err != nil {
		return nil, err
	}
	r.metrics.IncWorkflowsRegistered()
	logger.Info("registered workflow", zap.String("id", def.Id), zap.String("name", def.Name), zap.Int("steps", len(def.Steps)))
	return &model.RegistrationResult{
		WorkflowId:        def.Id,
		StepCount:         len(def.Steps),
		EstimatedDuration: time.Duration(len(def.Steps)) * r.avgStepDuration,
	}, nil
}

func (r *WorkflowRegistryImpl) Get(id string) (*model.WorkflowDefinition, error) {
	return r.storage.GetWorkflowDefinition(id)
}

func (r *WorkflowRegistryImpl) List() ([]model.WorkflowDefinition, error) {
	return r.storage.ListWorkflowDefinitions()
}

func validate(def model.WorkflowDefinition) error {
	if len(def.Name) == 0 {
		return api.ValidationError{Message: "workflow name can not be empty"}
	}
	if len(def.Steps) == 0 {
		return api.ValidationError{Message: "workflow must have at least one step"}
	}
	seen := make(map[string]struct{}, len(def.Steps))
	for _, step := range def.Steps {
		if len(step.Id) == 0 {
			return api.ValidationError{Message: "step id can not be empty"}
		}
		if _, ok := seen[step.Id]; ok {
			return api.ValidationError{Message: fmt.Sprintf("duplicate step id %s", step.Id)}
		}
		seen[step.Id] = struct{}{}
		if len(step.Action) == 0 {
			return api.ValidationError{Message: fmt.Sprintf("step %s has no action", step.Id)}
		}
		if step.TimeoutMillis <= 0 {
			return api.ValidationError{Message: fmt.Sprintf("step %s timeout must be positive", step.Id)}
		}
		if step.RetryCount < 0 {
			return api.ValidationError{Message: fmt.Sprintf("step %s retry count can not be negative", step.Id)}
		}
	}
	return nil
}
