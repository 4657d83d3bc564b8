package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	api "github.com/sentinelops/autopilot/api/v1"
)

// parseSpec understands standard 5-field cron expressions, the
// "@every <duration>" form, and the "daily@HH:MM" shorthand.
func parseSpec(spec string) (cron.Schedule, error) {
	if strings.HasPrefix(spec, "daily@") {
		at, err := time.Parse("15:04", strings.TrimPrefix(spec, "daily@"))
		if err != nil {
			return nil, api.ValidationError{Message: fmt.Sprintf("invalid daily schedule %q, expected daily@HH:MM", spec)}
		}
		return dailySchedule{hour: at.Hour(), minute: at.Minute()}, nil
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, api.ValidationError{Message: fmt.Sprintf("invalid schedule spec %q: %v", spec, err)}
	}
	return sched, nil
}

type dailySchedule struct {
	hour   int
	minute int
}

func (d dailySchedule) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), d.hour, d.minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
