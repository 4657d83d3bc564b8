package redis

import (
	"context"
	"sort"
	"sync"
	"time"

	rd "github.com/go-redis/redis/v9"
	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/persistence"
	"github.com/sentinelops/autopilot/util"
	"go.uber.org/zap"
)

const WORKFLOW_DEF string = "WORKFLOW"
const RUN_HISTORY string = "RUN"
const SCHEDULE_DEF string = "SCHEDULE"
const RULE_DEF string = "RULE"
const POLICY_DEF string = "POLICY"

var _ persistence.Storage = new(Storage)

// Storage keeps each collection in its own namespaced redis hash keyed
// by identity. Policy trigger increments are serialized through a
// process-local mutex; the engine is the single write authority.
type Storage struct {
	*baseDao
	workflowEncDec util.EncoderDecoder[model.WorkflowDefinition]
	runEncDec      util.EncoderDecoder[model.WorkflowRun]
	scheduleEncDec util.EncoderDecoder[model.Schedule]
	ruleEncDec     util.EncoderDecoder[model.SelfHealingRule]
	policyEncDec   util.EncoderDecoder[model.AutomationPolicy]
	policyMu       sync.Mutex
}

func NewStorage(conf Config) *Storage {
	return &Storage{
		baseDao:        newBaseDao(conf),
		workflowEncDec: util.NewJsonEncoderDecoder[model.WorkflowDefinition](),
		runEncDec:      util.NewJsonEncoderDecoder[model.WorkflowRun](),
		scheduleEncDec: util.NewJsonEncoderDecoder[model.Schedule](),
		ruleEncDec:     util.NewJsonEncoderDecoder[model.SelfHealingRule](),
		policyEncDec:   util.NewJsonEncoderDecoder[model.AutomationPolicy](),
	}
}

func save[T any](s *Storage, collection string, id string, encdec util.EncoderDecoder[T], value T) error {
	data, err := encdec.Encode(value)
	if err != nil {
		return err
	}
	key := s.getNamespaceKey(collection)
	ctx := context.Background()
	if err := s.redisClient.HSet(ctx, key, id, string(data)).Err(); err != nil {
		logger.Error("error saving entity", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return persistence.StorageLayerError{}
	}
	return nil
}

func get[T any](s *Storage, collection string, kind string, id string, encdec util.EncoderDecoder[T]) (*T, error) {
	key := s.getNamespaceKey(collection)
	ctx := context.Background()
	raw, err := s.redisClient.HGet(ctx, key, id).Result()
	if err != nil {
		if err == rd.Nil {
			return nil, api.NotFoundError{Kind: kind, Id: id}
		}
		logger.Error("error reading entity", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	return encdec.Decode([]byte(raw))
}

func list[T any](s *Storage, collection string, encdec util.EncoderDecoder[T]) ([]T, error) {
	key := s.getNamespaceKey(collection)
	ctx := context.Background()
	raw, err := s.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error listing entities", zap.String("collection", collection), zap.Error(err))
		return nil, persistence.StorageLayerError{}
	}
	out := make([]T, 0, len(raw))
	for _, v := range raw {
		item, err := encdec.Decode([]byte(v))
		if err != nil {
			logger.Error("can not decode entity", zap.String("collection", collection), zap.Error(err))
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (s *Storage) SaveWorkflowDefinition(def model.WorkflowDefinition) error {
	return save(s, WORKFLOW_DEF, def.Id, s.workflowEncDec, def)
}

func (s *Storage) GetWorkflowDefinition(id string) (*model.WorkflowDefinition, error) {
	return get(s, WORKFLOW_DEF, "workflow", id, s.workflowEncDec)
}

func (s *Storage) ListWorkflowDefinitions() ([]model.WorkflowDefinition, error) {
	defs, err := list(s, WORKFLOW_DEF, s.workflowEncDec)
	if err != nil {
		return nil, err
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].CreatedAt.Before(defs[j].CreatedAt) })
	return defs, nil
}

func (s *Storage) SaveRun(run model.WorkflowRun) error {
	return save(s, RUN_HISTORY, run.Id, s.runEncDec, run)
}

func (s *Storage) GetRun(id string) (*model.WorkflowRun, error) {
	return get(s, RUN_HISTORY, "run", id, s.runEncDec)
}

func (s *Storage) ListRuns() ([]model.WorkflowRun, error) {
	runs, err := list(s, RUN_HISTORY, s.runEncDec)
	if err != nil {
		return nil, err
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartTime.Before(runs[j].StartTime) })
	return runs, nil
}

func (s *Storage) SaveSchedule(sched model.Schedule) error {
	return save(s, SCHEDULE_DEF, sched.Id, s.scheduleEncDec, sched)
}

func (s *Storage) GetSchedule(id string) (*model.Schedule, error) {
	return get(s, SCHEDULE_DEF, "schedule", id, s.scheduleEncDec)
}

func (s *Storage) ListSchedules() ([]model.Schedule, error) {
	return list(s, SCHEDULE_DEF, s.scheduleEncDec)
}

func (s *Storage) SaveRule(rule model.SelfHealingRule) error {
	return save(s, RULE_DEF, rule.Id, s.ruleEncDec, rule)
}

func (s *Storage) GetRule(id string) (*model.SelfHealingRule, error) {
	return get(s, RULE_DEF, "rule", id, s.ruleEncDec)
}

func (s *Storage) ListRules() ([]model.SelfHealingRule, error) {
	rules, err := list(s, RULE_DEF, s.ruleEncDec)
	if err != nil {
		return nil, err
	}
	// redis hashes are unordered; creation time restores the
	// registration order the rule engine relies on for tie-breaks
	sort.Slice(rules, func(i, j int) bool { return rules[i].CreatedAt.Before(rules[j].CreatedAt) })
	return rules, nil
}

func (s *Storage) SavePolicy(policy model.AutomationPolicy) error {
	return save(s, POLICY_DEF, policy.Id, s.policyEncDec, policy)
}

func (s *Storage) GetPolicy(id string) (*model.AutomationPolicy, error) {
	return get(s, POLICY_DEF, "policy", id, s.policyEncDec)
}

func (s *Storage) ListPolicies() ([]model.AutomationPolicy, error) {
	policies, err := list(s, POLICY_DEF, s.policyEncDec)
	if err != nil {
		return nil, err
	}
	sort.Slice(policies, func(i, j int) bool { return policies[i].CreatedAt.Before(policies[j].CreatedAt) })
	return policies, nil
}

func (s *Storage) IncrementTrigger(id string, at time.Time) error {
	s.policyMu.Lock()
	defer s.policyMu.Unlock()
	policy, err := s.GetPolicy(id)
	if err != nil {
		return err
	}
	policy.TriggerCount++
	policy.LastTriggered = at
	return s.SavePolicy(*policy)
}
