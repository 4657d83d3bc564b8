package policy

import (
	"github.com/google/uuid"
	api "github.com/sentinelops/autopilot/api/v1"
	"github.com/sentinelops/autopilot/expr"
	"github.com/sentinelops/autopilot/logger"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/persistence"
	"github.com/sentinelops/autopilot/util"
	"go.uber.org/zap"
)

// Store owns the automation policy collection. Policies are never
// deleted; disabling is the only retirement path.
type Store struct {
	storage persistence.PolicyStorage
	clock   util.Clock
}

func NewStore(storage persistence.PolicyStorage, clock util.Clock) *Store {
	return &Store{
		storage: storage,
		clock:   clock,
	}
}

func (s *Store) Register(p model.AutomationPolicy) (*model.PolicyRegistration, error) {
	if len(p.Name) == 0 {
		return nil, api.ValidationError{Message: "policy name can not be empty"}
	}
	if len(p.Condition) == 0 {
		return nil, api.ValidationError{Message: "policy condition can not be empty"}
	}
	if len(p.Actions) == 0 {
		return nil, api.ValidationError{Message: "policy must have at least one action"}
	}
	if !model.ValidPriority(p.Priority) {
		return nil, api.ValidationError{Message: "policy priority must be one of LOW, MEDIUM, HIGH, CRITICAL"}
	}
	p.Id = uuid.New().String()
	p.TriggerCount = 0
	p.CreatedAt = s.clock.Now()
	if err := s.storage.SavePolicy(p); err != nil {
		return nil, err
	}
	logger.Info("registered automation policy", zap.String("id", p.Id), zap.String("name", p.Name))
	return &model.PolicyRegistration{
		PolicyId:        p.Id,
		RulesCount:      len(p.Actions),
		EstimatedImpact: estimateImpact(p),
	}, nil
}

func (s *Store) Get(id string) (*model.AutomationPolicy, error) {
	return s.storage.GetPolicy(id)
}

func (s *Store) List() ([]model.AutomationPolicy, error) {
	return s.storage.ListPolicies()
}

func (s *Store) SetEnabled(id string, enabled bool) error {
	p, err := s.storage.GetPolicy(id)
	if err != nil {
		return err
	}
	p.Enabled = enabled
	return s.storage.SavePolicy(*p)
}

// Match returns the enabled policies whose condition holds for the
// event signals, incrementing each match's trigger counter.
func (s *Store) Match(signals map[string]any) ([]model.AutomationPolicy, error) {
	policies, err := s.storage.ListPolicies()
	if err != nil {
		return nil, err
	}
	var matched []model.AutomationPolicy
	for _, p := range policies {
		if !p.Enabled {
			continue
		}
		ok, err := expr.EvalBool(p.Condition, signals)
		if err != nil {
			logger.Warn("policy condition evaluation failed, treating as no match",
				zap.String("policy", p.Name), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		if err := s.storage.IncrementTrigger(p.Id, s.clock.Now()); err != nil {
			logger.Error("error incrementing policy trigger count", zap.String("policy", p.Id), zap.Error(err))
		}
		matched = append(matched, p)
	}
	return matched, nil
}

func estimateImpact(p model.AutomationPolicy) string {
	weight := len(p.Actions) * p.Priority.Rank()
	switch {
	case weight >= 8:
		return "high"
	case weight >= 4:
		return "medium"
	}
	return "low"
}
