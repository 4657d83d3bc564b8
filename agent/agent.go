package agent

import (
	"net/http"
	"sync"

	"github.com/sentinelops/autopilot/alerting"
	"github.com/sentinelops/autopilot/config"
	"github.com/sentinelops/autopilot/executor"
	"github.com/sentinelops/autopilot/flow"
	"github.com/sentinelops/autopilot/healing"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/maintenance"
	"github.com/sentinelops/autopilot/metadata"
	"github.com/sentinelops/autopilot/metrics"
	"github.com/sentinelops/autopilot/optimize"
	"github.com/sentinelops/autopilot/persistence"
	"github.com/sentinelops/autopilot/persistence/inmem"
	rd "github.com/sentinelops/autopilot/persistence/redis"
	"github.com/sentinelops/autopilot/policy"
	"github.com/sentinelops/autopilot/rest"
	"github.com/sentinelops/autopilot/scaling"
	"github.com/sentinelops/autopilot/scheduler"
	"github.com/sentinelops/autopilot/util"
	"go.uber.org/zap"
)

// Agent wires every engine together and owns the process lifecycle.
type Agent struct {
	Config config.Config

	storage     persistence.Storage
	registry    *metadata.WorkflowRegistryImpl
	coordinator *flow.RunCoordinator
	scheduler   *scheduler.Scheduler
	healer      *healing.RuleEngine
	analyzer    *maintenance.Analyzer
	advisor     *scaling.Advisor
	triage      *alerting.TriageProcessor
	optimizer   *optimize.Optimizer
	policies    *policy.Store
	metrics     *metrics.Aggregator
	actions     *executor.ActionRegistry
	timers      *alerting.EscalationTimers
	httpServer  *rest.Server

	shutdown     bool
	shutdownLock sync.Mutex
	wg           sync.WaitGroup
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config: conf,
	}
	setup := []func() error{
		a.setupStorage,
		a.setupEngines,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		a.storage = rd.NewStorage(rd.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
		})
	default:
		a.storage = inmem.NewStorage()
	}
	return nil
}

func (a *Agent) setupEngines() error {
	clock := util.SystemClock{}
	a.metrics = metrics.NewAggregator()
	a.actions = executor.NewDefaultRegistry()
	stepExecutor := executor.NewStepExecutor(a.actions, clock)

	a.registry = metadata.NewWorkflowRegistry(a.storage, a.metrics, clock, a.Config.AvgStepDuration)
	a.coordinator = flow.NewRunCoordinator(a.storage, a.storage, stepExecutor, a.metrics, clock)
	a.scheduler = scheduler.NewScheduler(a.storage, a.storage, a.coordinator, clock, a.Config.Scheduler, a.Config.ExecutorCapacity, &a.wg)
	a.healer = healing.NewRuleEngine(a.storage, a.actions, a.metrics, clock, a.Config.Healing.PerActionRecoveryCost)
	a.analyzer = maintenance.NewAnalyzer(maintenance.DefaultRiskBands(), clock, a.metrics)
	a.policies = policy.NewStore(a.storage, clock)
	a.optimizer = optimize.NewOptimizer(a.actions, a.metrics, clock)
	a.timers = alerting.NewEscalationTimers(3600)

	advisor, err := scaling.NewAdvisor(a.Config.Scaling, a.actions, a.metrics, clock)
	if err != nil {
		return err
	}
	a.advisor = advisor

	triage, err := alerting.NewTriageProcessor(a.policies, a.actions, a.metrics, clock, a.Config.Escalation, a.timers)
	if err != nil {
		return err
	}
	a.triage = triage

	a.metrics.RegisterGauge("workflows", func() int {
		defs, err := a.storage.ListWorkflowDefinitions()
		if err != nil {
			logger.Error("error listing workflows for gauge", zap.Error(err))
			return 0
		}
		return len(defs)
	})
	a.metrics.RegisterGauge("schedules", func() int {
		return countEnabledSchedules(a.storage)
	})
	a.metrics.RegisterGauge("rules", func() int {
		return countEnabledRules(a.storage)
	})
	a.metrics.RegisterGauge("policies", func() int {
		return countEnabledPolicies(a.storage)
	})
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, rest.Services{
		Registry:    a.registry,
		Coordinator: a.coordinator,
		Scheduler:   a.scheduler,
		Healer:      a.healer,
		Analyzer:    a.analyzer,
		Advisor:     a.advisor,
		Triage:      a.triage,
		Optimizer:   a.optimizer,
		Policies:    a.policies,
		Metrics:     a.metrics,
	})
	return err
}

// ActionRegistry exposes the outbound action boundary so deployments
// can register handlers that touch real infrastructure.
func (a *Agent) ActionRegistry() *executor.ActionRegistry {
	return a.actions
}

func (a *Agent) Start() error {
	a.timers.Start()
	a.scheduler.Start()
	go func() {
		if err := a.httpServer.Start(); err != nil && err != http.ErrServerClosed {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	shutdown := []func() error{
		a.httpServer.Stop,
		a.scheduler.Stop,
		func() error {
			a.timers.Stop()
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	return nil
}

func countEnabledSchedules(storage persistence.ScheduleStorage) int {
	scheds, err := storage.ListSchedules()
	if err != nil {
		logger.Error("error listing schedules for gauge", zap.Error(err))
		return 0
	}
	n := 0
	for _, s := range scheds {
		if s.Enabled {
			n++
		}
	}
	return n
}

func countEnabledRules(storage persistence.RuleStorage) int {
	rules, err := storage.ListRules()
	if err != nil {
		logger.Error("error listing rules for gauge", zap.Error(err))
		return 0
	}
	n := 0
	for _, r := range rules {
		if r.Enabled {
			n++
		}
	}
	return n
}

func countEnabledPolicies(storage persistence.PolicyStorage) int {
	policies, err := storage.ListPolicies()
	if err != nil {
		logger.Error("error listing policies for gauge", zap.Error(err))
		return 0
	}
	n := 0
	for _, p := range policies {
		if p.Enabled {
			n++
		}
	}
	return n
}
