package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

type TriggerType string

const (
	// TriggerTypeSchedule is the only trigger type; each enabled schedule
	// trigger of an enabled workflow maps to exactly one active timer.
	TriggerTypeSchedule TriggerType = "schedule"
)

// ScheduleKind selects how a schedule trigger recurs.
type ScheduleKind string

const (
	ScheduleKindInterval ScheduleKind = "interval"
	ScheduleKindDaily    ScheduleKind = "daily"
	ScheduleKindWeekly   ScheduleKind = "weekly"
	ScheduleKindMonthly  ScheduleKind = "monthly"
	ScheduleKindCron     ScheduleKind = "cron"
)

var (
	ErrUnknownScheduleKind = errors.New("unknown schedule kind")
	ErrScheduleNotInterval = errors.New("schedule kind has no fixed interval")
	ErrScheduleInterval    = errors.New("schedule interval must be positive")
)

// ScheduleConfig is the type-specific configuration of a schedule trigger.
// Seconds is used by the interval kind, Expression by the cron kind.
type ScheduleConfig struct {
	Kind       ScheduleKind `json:"kind"                 validate:"required,oneof=interval daily weekly monthly cron"`
	Seconds    int          `json:"seconds,omitempty"`
	Expression string       `json:"expression,omitempty"`
}

// Interval returns the tick period for the recurrence kind. Monthly is a
// fixed 30-day approximation, not calendar-aware; calendar-aware schedules
// use the cron kind instead.
func (c ScheduleConfig) Interval() (time.Duration, error) {
	switch c.Kind {
	case ScheduleKindInterval:
		if c.Seconds <= 0 {
			return 0, ErrScheduleInterval
		}

		return time.Duration(c.Seconds) * time.Second, nil
	case ScheduleKindDaily:
		return 24 * time.Hour, nil
	case ScheduleKindWeekly:
		return 7 * 24 * time.Hour, nil
	case ScheduleKindMonthly:
		return 30 * 24 * time.Hour, nil
	case ScheduleKindCron:
		return 0, ErrScheduleNotInterval
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScheduleKind, c.Kind)
	}
}

// Validate checks the schedule configuration without arming a timer.
func (c ScheduleConfig) Validate() error {
	if c.Kind == ScheduleKindCron {
		if c.Expression == "" {
			return errors.New("cron schedule requires an expression")
		}

		if _, err := cron.ParseStandard(c.Expression); err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}

		return nil
	}

	_, err := c.Interval()

	return err
}

// Trigger is a condition attached to a workflow that causes automatic
// execution. A workflow may carry many triggers.
type Trigger struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"     validate:"required"`
	Enabled  bool            `json:"enabled"`
	Type     TriggerType     `json:"type"     validate:"required,oneof=schedule"`
	Schedule *ScheduleConfig `json:"schedule,omitempty"`
}

// Validate checks the trigger and its type-specific configuration.
func (t *Trigger) Validate() error {
	if t.Type != TriggerTypeSchedule {
		return fmt.Errorf("unsupported trigger type %q", t.Type)
	}

	if t.Schedule == nil {
		return errors.New("schedule trigger requires a schedule configuration")
	}

	return t.Schedule.Validate()
}
