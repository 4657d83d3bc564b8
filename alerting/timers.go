package alerting

import (
	"time"

	"github.com/RussellLuo/timingwheel"
)

// EscalationTimers arms delayed escalation notifications on a shared
// timing wheel with one second resolution.
type EscalationTimers struct {
	wheel *timingwheel.TimingWheel
}

func NewEscalationTimers(wheelSize int64) *EscalationTimers {
	return &EscalationTimers{
		wheel: timingwheel.NewTimingWheel(time.Second, wheelSize),
	}
}

func (t *EscalationTimers) AddTask(task func(), delay time.Duration) {
	t.wheel.AfterFunc(delay, task)
}

func (t *EscalationTimers) Start() {
	t.wheel.Start()
}

func (t *EscalationTimers) Stop() {
	t.wheel.Stop()
}
