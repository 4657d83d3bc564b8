package scheduler

import (
	"context"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sentinelops/autopilot/config"
	"github.com/sentinelops/autopilot/flow"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/persistence"
	"github.com/sentinelops/autopilot/util"
	"go.uber.org/zap"
)

type ScheduleRequest struct {
	WorkflowId string         `json:"workflowId"`
	Spec       string         `json:"spec"`
	MaxRetries int            `json:"maxRetries,omitempty"`
	Overrides  map[string]any `json:"overrides,omitempty"`
}

type fireRequest struct {
	scheduleId string
	workflowId string
	overrides  map[string]any
	maxRetries int
}

// Scheduler owns the clock-driven loop. Each tick scans enabled
// schedules due now, fires each exactly once and recomputes nextRun
// from now; missed intervals are never backfilled.
type Scheduler struct {
	schedules   persistence.ScheduleStorage
	workflows   persistence.WorkflowStorage
	coordinator *flow.RunCoordinator
	clock       util.Clock
	conf        config.SchedulerConfig

	stopTick   chan struct{}
	tickWorker *util.TickWorker
	fireWorker *util.Worker
	wg         *sync.WaitGroup
}

func NewScheduler(schedules persistence.ScheduleStorage, workflows persistence.WorkflowStorage, coordinator *flow.RunCoordinator, clock util.Clock, conf config.SchedulerConfig, capacity int, wg *sync.WaitGroup) *Scheduler {
	s := &Scheduler{
		schedules:   schedules,
		workflows:   workflows,
		coordinator: coordinator,
		clock:       clock,
		conf:        conf,
		stopTick:    make(chan struct{}),
		wg:          wg,
	}
	s.tickWorker = util.NewTickWorker("scheduler", conf.PollInterval, s.stopTick, s.Tick, wg)
	s.fireWorker = util.NewWorker("schedule-fire", wg, s.fire, capacity)
	return s
}

func (s *Scheduler) Schedule(req ScheduleRequest) (*model.ScheduleResult, error) {
	if _, err := s.workflows.GetWorkflowDefinition(req.WorkflowId); err != nil {
		return nil, err
	}
	spec, err := parseSpec(req.Spec)
	if err != nil {
		return nil, err
	}
	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = s.conf.MaxRetries
	}
	sched := model.Schedule{
		Id:         uuid.New().String(),
		WorkflowId: req.WorkflowId,
		Spec:       req.Spec,
		Enabled:    true,
		NextRun:    spec.Next(s.clock.Now()),
		MaxRetries: maxRetries,
		Overrides:  req.Overrides,
	}
	if err := s.schedules.SaveSchedule(sched); err != nil {
		return nil, err
	}
	logger.Info("registered schedule", zap.String("id", sched.Id), zap.String("workflowId", sched.WorkflowId), zap.Time("nextRun", sched.NextRun))
	return &model.ScheduleResult{ScheduleId: sched.Id, NextRun: sched.NextRun}, nil
}

func (s *Scheduler) SetEnabled(id string, enabled bool) error {
	sched, err := s.schedules.GetSchedule(id)
	if err != nil {
		return err
	}
	sched.Enabled = enabled
	if enabled {
		// re-arm from now, a disabled period is never backfilled
		spec, err := parseSpec(sched.Spec)
		if err != nil {
			return err
		}
		sched.NextRun = spec.Next(s.clock.Now())
	}
	return s.schedules.SaveSchedule(*sched)
}

func (s *Scheduler) List() ([]model.Schedule, error) {
	return s.schedules.ListSchedules()
}

// Tick scans due schedules. Exported so tests can drive the loop with
// a fake clock instead of waiting on the ticker.
func (s *Scheduler) Tick() {
	now := s.clock.Now()
	scheds, err := s.schedules.ListSchedules()
	if err != nil {
		logger.Error("error listing schedules", zap.Error(err))
		return
	}
	for _, sched := range scheds {
		if !sched.Enabled || sched.NextRun.After(now) {
			continue
		}
		spec, err := parseSpec(sched.Spec)
		if err != nil {
			logger.Error("unparseable schedule spec", zap.String("id", sched.Id), zap.Error(err))
			continue
		}
		// an overdue schedule fires once; nextRun moves strictly
		// past now regardless of how many intervals were missed
		sched.LastRun = now
		sched.NextRun = spec.Next(now)
		if err := s.schedules.SaveSchedule(sched); err != nil {
			logger.Error("error updating schedule", zap.String("id", sched.Id), zap.Error(err))
			continue
		}
		s.fireWorker.Sender() <- fireRequest{
			scheduleId: sched.Id,
			workflowId: sched.WorkflowId,
			overrides:  sched.Overrides,
			maxRetries: sched.MaxRetries,
		}
	}
}

// fire triggers one workflow run, retrying failed triggers with
// exponential backoff. Exhausted retries are logged as a scheduling
// failure, never raised to the caller of Schedule.
func (s *Scheduler) fire(task util.Task) error {
	req, ok := task.(fireRequest)
	if !ok {
		logger.Error("can not handle task of type other than fireRequest", zap.Any("task", task))
		return nil
	}
	op := func() error {
		result, err := s.coordinator.Execute(context.Background(), req.workflowId, req.overrides)
		if err != nil {
			return err
		}
		logger.Info("scheduled run finished",
			zap.String("scheduleId", req.scheduleId),
			zap.String("runId", result.RunId),
			zap.String("status", string(result.Status)))
		return nil
	}
	err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(req.maxRetries)))
	if err != nil {
		logger.Error("scheduling failure, retries exhausted",
			zap.String("scheduleId", req.scheduleId),
			zap.String("workflowId", req.workflowId),
			zap.Error(err))
	}
	return nil
}

func (s *Scheduler) Start() {
	s.fireWorker.Start()
	s.tickWorker.Start()
}

func (s *Scheduler) Stop() error {
	s.tickWorker.Stop()
	s.fireWorker.Stop()
	return nil
}
