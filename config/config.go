package config

import "time"

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	HttpPort    int
	StorageType StorageType
	RedisConfig RedisStorageConfig

	ExecutorCapacity int
	AvgStepDuration  time.Duration

	Scheduler  SchedulerConfig
	Healing    HealingConfig
	Scaling    ScalingConfig
	Escalation EscalationConfig
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
}

type SchedulerConfig struct {
	PollInterval time.Duration
	MaxRetries   int
}

type HealingConfig struct {
	// PerActionRecoveryCost is the fixed recovery time charged per
	// executed remediation action.
	PerActionRecoveryCost time.Duration
}

type ScalingConfig struct {
	ScaleUpThreshold   float64
	ScaleDownThreshold float64
	Cooldown           time.Duration
}

type EscalationConfig struct {
	TeamDelay     time.Duration
	ManagerDelay  time.Duration
	DirectorDelay time.Duration
}

func Default() Config {
	return Config{
		HttpPort:         8080,
		StorageType:      STORAGE_TYPE_INMEM,
		ExecutorCapacity: 512,
		AvgStepDuration:  30 * time.Second,
		Scheduler: SchedulerConfig{
			PollInterval: time.Second,
			MaxRetries:   3,
		},
		Healing: HealingConfig{
			PerActionRecoveryCost: 30 * time.Second,
		},
		Scaling: ScalingConfig{
			ScaleUpThreshold:   80,
			ScaleDownThreshold: 30,
			Cooldown:           5 * time.Minute,
		},
		Escalation: EscalationConfig{
			TeamDelay:     5 * time.Minute,
			ManagerDelay:  15 * time.Minute,
			DirectorDelay: 30 * time.Minute,
		},
	}
}
