package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/util"
	"go.uber.org/zap"
)

// StepExecutor runs one workflow step with bounded time and retries.
// Failures never escape this boundary; they become a failed StepResult.
type StepExecutor struct {
	registry *ActionRegistry
	clock    util.Clock
}

func NewStepExecutor(registry *ActionRegistry, clock util.Clock) *StepExecutor {
	return &StepExecutor{
		registry: registry,
		clock:    clock,
	}
}

func (e *StepExecutor) Run(ctx context.Context, step model.StepSpec, run *model.WorkflowRun) model.StepResult {
	start := e.clock.Now()
	result := model.StepResult{
		StepId:    step.Id,
		Action:    step.Action,
		StartTime: start,
	}

	req := ActionRequest{
		Type:       step.Action,
		Target:     step.Target,
		Parameters: util.ResolveParams(run.Variables, step.Parameters),
	}

	var output map[string]any
	var lastErr error
	attempts := step.RetryCount + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		output, lastErr = e.attempt(ctx, req, step.Timeout())
		if lastErr == nil {
			run.AppendLog(e.clock.Now(), model.LOG_INFO,
				fmt.Sprintf("step %s action %s completed on attempt %d", step.Id, step.Action, attempt))
			break
		}
		run.AppendLog(e.clock.Now(), model.LOG_ERROR,
			fmt.Sprintf("step %s action %s attempt %d failed: %v", step.Id, step.Action, attempt, lastErr))
		if ctx.Err() != nil {
			break
		}
	}

	end := e.clock.Now()
	result.EndTime = end
	result.Duration = end.Sub(start)
	if lastErr != nil {
		logger.Error("step failed", zap.String("runId", run.Id), zap.String("stepId", step.Id), zap.Error(lastErr))
		result.Status = model.STEP_FAILED
		result.Error = lastErr.Error()
		return result
	}
	result.Status = model.STEP_COMPLETED
	result.Output = output
	return result
}

// attempt runs the handler once under the step deadline. The handler
// runs on its own goroutine so a stuck handler cannot stall the run
// past its timeout; it runs to completion on its own, per the
// cancellation contract.
func (e *StepExecutor) attempt(ctx context.Context, req ActionRequest, timeout time.Duration) (map[string]any, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		output map[string]any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		output, err := e.registry.Execute(actx, req)
		done <- outcome{output: output, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return nil, api.TimeoutError{Action: req.Type, Timeout: timeout}
		}
		return o.output, o.err
	case <-actx.Done():
		if errors.Is(actx.Err(), context.DeadlineExceeded) {
			return nil, api.TimeoutError{Action: req.Type, Timeout: timeout}
		}
		return nil, api.ExecutionError{Action: req.Type, Cause: actx.Err()}
	}
}
