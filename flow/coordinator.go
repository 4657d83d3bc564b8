package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/executor"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/metrics"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/persistence"
	"github.com/sentinelops/autopilot/util"
	"go.uber.org/zap"
)

// RunCoordinator drives a workflow definition end to end through the
// step executor. Runs execute concurrently with each other; steps
// within one run execute strictly in order, fail fast on the first
// failed step. Cancellation is observed at step boundaries.
type RunCoordinator struct {
	workflows persistence.WorkflowStorage
	runs      persistence.RunStorage
	executor  *executor.StepExecutor
	metrics   *metrics.Aggregator
	clock     util.Clock

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

func NewRunCoordinator(workflows persistence.WorkflowStorage, runs persistence.RunStorage, exec *executor.StepExecutor, agg *metrics.Aggregator, clock util.Clock) *RunCoordinator {
	return &RunCoordinator{
		workflows: workflows,
		runs:      runs,
		executor:  exec,
		metrics:   agg,
		clock:     clock,
		active:    make(map[string]context.CancelFunc),
	}
}

func (c *RunCoordinator) Execute(ctx context.Context, definitionId string, input map[string]any) (*model.RunResult, error) {
	def, err := c.workflows.GetWorkflowDefinition(definitionId)
	if err != nil {
		return nil, err
	}

	run := &model.WorkflowRun{
		Id:           uuid.New().String(),
		DefinitionId: def.Id,
		Status:       model.RUN_RUNNING,
		StartTime:    c.clock.Now(),
		Variables:    buildVariables(def, input),
	}
	run.AppendLog(run.StartTime, model.LOG_INFO, fmt.Sprintf("run started for workflow %s", def.Name))
	if err := c.runs.SaveRun(*run); err != nil {
		logger.Error("error persisting run", zap.String("runId", run.Id), zap.Error(err))
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.active[run.Id] = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		c.mu.Lock()
		delete(c.active, run.Id)
		c.mu.Unlock()
	}()

	logger.Info("starting workflow run", zap.String("workflow", def.Name), zap.String("runId", run.Id))
	c.runSteps(runCtx, def, run)

	run.EndTime = c.clock.Now()
	if run.Status == model.RUN_COMPLETED {
		c.metrics.IncRunCompleted()
	} else {
		c.metrics.IncRunFailed()
	}
	if err := c.runs.SaveRun(*run); err != nil {
		logger.Error("error persisting run", zap.String("runId", run.Id), zap.Error(err))
	}

	return &model.RunResult{
		RunId:        run.Id,
		DefinitionId: run.DefinitionId,
		Status:       run.Status,
		StartTime:    run.StartTime,
		EndTime:      run.EndTime,
		Duration:     run.EndTime.Sub(run.StartTime),
		StepResults:  run.StepResults,
		Error:        run.Error,
	}, nil
}

func (c *RunCoordinator) runSteps(ctx context.Context, def *model.WorkflowDefinition, run *model.WorkflowRun) {
	defer func() {
		// a coordinator level fault marks the run failed, it never
		// corrupts sibling runs or the scheduler loop
		if rec := recover(); rec != nil {
			run.Status = model.RUN_FAILED
			run.Error = fmt.Sprintf("internal error: %v", rec)
			run.AppendLog(c.clock.Now(), model.LOG_ERROR, run.Error)
		}
	}()

	for i, step := range def.Steps {
		if ctx.Err() != nil {
			run.Status = model.RUN_FAILED
			run.Error = fmt.Sprintf("run cancelled before step %s", step.Id)
			run.AppendLog(c.clock.Now(), model.LOG_ERROR, run.Error)
			return
		}
		run.CurrentStep = i
		result := c.executor.Run(ctx, step, run)
		run.StepResults = append(run.StepResults, result)
		if result.Status == model.STEP_FAILED {
			run.Status = model.RUN_FAILED
			run.Error = fmt.Sprintf("step %s failed: %s", step.Id, result.Error)
			return
		}
		if result.Output != nil {
			run.Variables[step.Id] = result.Output
		}
	}
	run.Status = model.RUN_COMPLETED
	run.AppendLog(c.clock.Now(), model.LOG_INFO, "run completed")
}

// Cancel requests cancellation of an in-flight run. The step already
// executing runs to completion or its own timeout.
func (c *RunCoordinator) Cancel(runId string) error {
	c.mu.Lock()
	cancel, ok := c.active[runId]
	c.mu.Unlock()
	if !ok {
		return api.NotFoundError{Kind: "run", Id: runId}
	}
	cancel()
	logger.Info("run cancellation requested", zap.String("runId", runId))
	return nil
}

func (c *RunCoordinator) GetRun(id string) (*model.WorkflowRun, error) {
	return c.runs.GetRun(id)
}

func (c *RunCoordinator) ListRuns() ([]model.WorkflowRun, error) {
	return c.runs.ListRuns()
}

func buildVariables(def *model.WorkflowDefinition, input map[string]any) map[string]any {
	vars := make(map[string]any)
	for k, v := range def.Variables {
		vars[k] = v
	}
	vars["input"] = input
	return vars
}
