package model

import "time"

type RawAlert struct {
	Id       string             `json:"id,omitempty"`
	Source   string             `json:"source"`
	Type     string             `json:"type,omitempty"`
	Message  string             `json:"message"`
	Severity string             `json:"severity,omitempty"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

type AlertSeverity string

const SEVERITY_CRITICAL AlertSeverity = "CRITICAL"
const SEVERITY_HIGH AlertSeverity = "HIGH"
const SEVERITY_MEDIUM AlertSeverity = "MEDIUM"
const SEVERITY_LOW AlertSeverity = "LOW"

func (s AlertSeverity) Rank() int {
	switch s {
	case SEVERITY_CRITICAL:
		return 4
	case SEVERITY_HIGH:
		return 3
	case SEVERITY_MEDIUM:
		return 2
	case SEVERITY_LOW:
		return 1
	}
	return 0
}

type EscalationRung struct {
	Level string        `json:"level"`
	Delay time.Duration `json:"delay"`
}

type AlertResolution struct {
	Action   string    `json:"action"`
	Resolved bool      `json:"resolved"`
	Error    string    `json:"error,omitempty"`
	Time     time.Time `json:"time"`
}

// ProcessedAlert carries the derived classification for a raw alert.
// Resolution is present only when auto resolution was eligible and the
// resolution action succeeded.
type ProcessedAlert struct {
	Id                     string           `json:"id"`
	RawId                  string           `json:"rawId,omitempty"`
	Source                 string           `json:"source"`
	Message                string           `json:"message"`
	Severity               AlertSeverity    `json:"severity"`
	Category               string           `json:"category"`
	Priority               string           `json:"priority"`
	AutoResolutionEligible bool             `json:"autoResolutionEligible"`
	EscalationPath         []EscalationRung `json:"escalationPath,omitempty"`
	NotificationChannels   []string         `json:"notificationChannels,omitempty"`
	Resolution             *AlertResolution `json:"resolution,omitempty"`
	ProcessedAt            time.Time        `json:"processedAt"`
}
