package executor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/util"
	"github.com/stretchr/testify/require"
)

func newTestRun() *model.WorkflowRun {
	return &model.WorkflowRun{
		Id:        "run-1",
		Status:    model.RUN_RUNNING,
		Variables: map[string]any{"input": map[string]any{"service": "billing"}},
	}
}

func TestStepSuccess(t *testing.T) {
	exec := NewStepExecutor(NewDefaultRegistry(), util.SystemClock{})
	run := newTestRun()

	step := model.StepSpec{Id: "s1", Action: "noop", Target: "svc", TimeoutMillis: 5000}
	result := exec.Run(context.Background(), step, run)

	require.Equal(t, model.STEP_COMPLETED, result.Status)
	require.Equal(t, "s1", result.StepId)
	require.NotNil(t, result.Output)
	require.Len(t, run.Logs, 1)
	require.Equal(t, model.LOG_INFO, run.Logs[0].Level)
}

func TestStepFailureConvertedToResult(t *testing.T) {
	registry := NewActionRegistry()
	registry.Register("explode", func(ctx context.Context, req ActionRequest) (map[string]any, error) {
		return nil, fmt.Errorf("boom")
	})
	exec := NewStepExecutor(registry, util.SystemClock{})
	run := newTestRun()

	step := model.StepSpec{Id: "s1", Action: "explode", TimeoutMillis: 5000}
	result := exec.Run(context.Background(), step, run)

	require.Equal(t, model.STEP_FAILED, result.Status)
	require.Contains(t, result.Error, "boom")
	require.Len(t, run.Logs, 1)
	require.Equal(t, model.LOG_ERROR, run.Logs[0].Level)
}

func TestStepRetryThenSuccess(t *testing.T) {
	attempts := 0
	registry := NewActionRegistry()
	registry.Register("flaky", func(ctx context.Context, req ActionRequest) (map[string]any, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("transient")
		}
		return map[string]any{"ok": true}, nil
	})
	exec := NewStepExecutor(registry, util.SystemClock{})
	run := newTestRun()

	step := model.StepSpec{Id: "s1", Action: "flaky", TimeoutMillis: 5000, RetryCount: 2}
	result := exec.Run(context.Background(), step, run)

	require.Equal(t, model.STEP_COMPLETED, result.Status)
	require.Equal(t, 3, attempts)
	// one log entry per attempt: two failures then a success
	require.Len(t, run.Logs, 3)
	require.Equal(t, model.LOG_ERROR, run.Logs[0].Level)
	require.Equal(t, model.LOG_ERROR, run.Logs[1].Level)
	require.Equal(t, model.LOG_INFO, run.Logs[2].Level)
}

func TestStepTimeout(t *testing.T) {
	registry := NewActionRegistry()
	registry.Register("hang", func(ctx context.Context, req ActionRequest) (map[string]any, error) {
		select {
		case <-time.After(time.Second):
			return map[string]any{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	exec := NewStepExecutor(registry, util.SystemClock{})
	run := newTestRun()

	step := model.StepSpec{Id: "s1", Action: "hang", TimeoutMillis: 50, RetryCount: 1}
	result := exec.Run(context.Background(), step, run)

	require.Equal(t, model.STEP_FAILED, result.Status)
	require.Contains(t, result.Error, "timed out")
	require.Len(t, run.Logs, 2)
}

func TestStepUnknownAction(t *testing.T) {
	exec := NewStepExecutor(NewActionRegistry(), util.SystemClock{})
	run := newTestRun()

	step := model.StepSpec{Id: "s1", Action: "nope", TimeoutMillis: 1000}
	result := exec.Run(context.Background(), step, run)

	require.Equal(t, model.STEP_FAILED, result.Status)
	require.Contains(t, result.Error, "no handler registered")
}

func TestStepPanicContained(t *testing.T) {
	registry := NewActionRegistry()
	registry.Register("panics", func(ctx context.Context, req ActionRequest) (map[string]any, error) {
		panic("unexpected")
	})
	exec := NewStepExecutor(registry, util.SystemClock{})
	run := newTestRun()

	step := model.StepSpec{Id: "s1", Action: "panics", TimeoutMillis: 1000}
	result := exec.Run(context.Background(), step, run)

	require.Equal(t, model.STEP_FAILED, result.Status)
	require.Contains(t, result.Error, "panic")
}

func TestStepParamResolution(t *testing.T) {
	var seen string
	registry := NewActionRegistry()
	registry.Register("capture", func(ctx context.Context, req ActionRequest) (map[string]any, error) {
		seen, _ = req.Parameters["service"].(string)
		return map[string]any{}, nil
	})
	exec := NewStepExecutor(registry, util.SystemClock{})
	run := newTestRun()

	step := model.StepSpec{
		Id:            "s1",
		Action:        "capture",
		TimeoutMillis: 1000,
		Parameters:    map[string]any{"service": "{$.input.service}"},
	}
	result := exec.Run(context.Background(), step, run)

	require.Equal(t, model.STEP_COMPLETED, result.Status)
	require.Equal(t, "billing", seen)
}
