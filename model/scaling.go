package model

import "time"

type ScalingMetrics struct {
	Resource      string  `json:"resource"`
	CpuPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	Instances     int     `json:"instances,omitempty"`
}

type ScalingDirection string

const SCALE_UP ScalingDirection = "SCALE_UP"
const SCALE_DOWN ScalingDirection = "SCALE_DOWN"
const SCALE_NONE ScalingDirection = "SCALE_NONE"

type ScalingDecision struct {
	Resource  string           `json:"resource"`
	Direction ScalingDirection `json:"direction"`
	Reason    string           `json:"reason"`
	Timestamp time.Time        `json:"timestamp"`
}

type ScalingResult struct {
	Decision ScalingDecision `json:"decision"`
	Executed bool            `json:"executed"`
	Skipped  string          `json:"skipped,omitempty"`
	Error    string          `json:"error,omitempty"`
}
