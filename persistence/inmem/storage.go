package inmem

import (
	"sync"
	"time"

	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/persistence"
)

// collection is a mutex-guarded map that keeps insertion order, so
// listings are stable across calls.
type collection[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{
		items: make(map[string]T),
	}
}

func (c *collection[T]) save(id string, item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		c.order = append(c.order, id)
	}
	c.items[id] = item
}

func (c *collection[T]) get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	return item, ok
}

func (c *collection[T]) list() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

func (c *collection[T]) update(id string, fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	if !ok {
		return false
	}
	c.items[id] = fn(item)
	return true
}

var _ persistence.Storage = new(Storage)

type Storage struct {
	workflows *collection[model.WorkflowDefinition]
	runs      *collection[model.WorkflowRun]
	schedules *collection[model.Schedule]
	rules     *collection[model.SelfHealingRule]
	policies  *collection[model.AutomationPolicy]
}

func NewStorage() *Storage {
	return &Storage{
		workflows: newCollection[model.WorkflowDefinition](),
		runs:      newCollection[model.WorkflowRun](),
		schedules: newCollection[model.Schedule](),
		rules:     newCollection[model.SelfHealingRule](),
		policies:  newCollection[model.AutomationPolicy](),
	}
}

func (s *Storage) SaveWorkflowDefinition(def model.WorkflowDefinition) error {
	s.workflows.save(def.Id, def)
	return nil
}

func (s *Storage) GetWorkflowDefinition(id string) (*model.WorkflowDefinition, error) {
	def, ok := s.workflows.get(id)
	if !ok {
		return nil, api.NotFoundError{Kind: "workflow", Id: id}
	}
	return &def, nil
}

func (s *Storage) ListWorkflowDefinitions() ([]model.WorkflowDefinition, error) {
	return s.workflows.list(), nil
}

func (s *Storage) SaveRun(run model.WorkflowRun) error {
	s.runs.save(run.Id, run)
	return nil
}

func (s *Storage) GetRun(id string) (*model.WorkflowRun, error) {
	run, ok := s.runs.get(id)
	if !ok {
		return nil, api.NotFoundError{Kind: "run", Id: id}
	}
	return &run, nil
}

func (s *Storage) ListRuns() ([]model.WorkflowRun, error) {
	return s.runs.list(), nil
}

func (s *Storage) SaveSchedule(sched model.Schedule) error {
	s.schedules.save(sched.Id, sched)
	return nil
}

func (s *Storage) GetSchedule(id string) (*model.Schedule, error) {
	sched, ok := s.schedules.get(id)
	if !ok {
		return nil, api.NotFoundError{Kind: "schedule", Id: id}
	}
	return &sched, nil
}

func (s *Storage) ListSchedules() ([]model.Schedule, error) {
	return s.schedules.list(), nil
}

func (s *Storage) SaveRule(rule model.SelfHealingRule) error {
	s.rules.save(rule.Id, rule)
	return nil
}

func (s *Storage) GetRule(id string) (*model.SelfHealingRule, error) {
	rule, ok := s.rules.get(id)
	if !ok {
		return nil, api.NotFoundError{Kind: "rule", Id: id}
	}
	return &rule, nil
}

func (s *Storage) ListRules() ([]model.SelfHealingRule, error) {
	return s.rules.list(), nil
}

func (s *Storage) SavePolicy(policy model.AutomationPolicy) error {
	s.policies.save(policy.Id, policy)
	return nil
}

func (s *Storage) GetPolicy(id string) (*model.AutomationPolicy, error) {
	policy, ok := s.policies.get(id)
	if !ok {
		return nil, api.NotFoundError{Kind: "policy", Id: id}
	}
	return &policy, nil
}

func (s *Storage) ListPolicies() ([]model.AutomationPolicy, error) {
	return s.policies.list(), nil
}

func (s *Storage) IncrementTrigger(id string, at time.Time) error {
	ok := s.policies.update(id, func(p model.AutomationPolicy) model.AutomationPolicy {
		p.TriggerCount++
		p.LastTriggered = at
		return p
	})
	if !ok {
		return api.NotFoundError{Kind: "policy", Id: id}
	}
	return nil
}
