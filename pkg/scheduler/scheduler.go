// Package scheduler arms recurring timers for schedule triggers.
package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"github.com/yanyucloud/flowd/pkg/models"
)

// TickFunc runs one workflow execution on behalf of a trigger. Ticks are
// invoked on their own goroutine; the scheduler never waits for them.
type TickFunc func(ctx context.Context, workflowID, triggerID, triggerName string)

type entry struct {
	cancel func()
}

// Scheduler owns one timer per enabled schedule trigger of an enabled
// workflow, keyed by workflowID/triggerID. Cancellation is idempotent and
// keyed by workflow prefix, so unscheduling drops every timer the workflow
// owns regardless of trigger state.
type Scheduler struct {
	clock  clockwork.Clock
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

func New(clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		clock:   clock,
		logger:  logger.With("module", "scheduler"),
		entries: make(map[string]*entry),
	}
}

func entryKey(workflowID, triggerID string) string {
	return workflowID + "/" + triggerID
}

// Schedule arms a timer for every enabled schedule trigger of the workflow.
// Callers re-scheduling an updated workflow must Unschedule first; Schedule
// itself does so to guarantee no duplicate timers.
func (s *Scheduler) Schedule(workflow *models.Workflow, tick TickFunc) {
	s.Unschedule(workflow.ID)

	if !workflow.Enabled {
		return
	}

	for _, trigger := range workflow.Triggers {
		if !trigger.Enabled || trigger.Type != models.TriggerTypeSchedule || trigger.Schedule == nil {
			continue
		}

		logger := s.logger.With(
			"workflow_id", workflow.ID,
			"trigger_id", trigger.ID,
			"trigger_name", trigger.Name,
		)

		cancel, err := s.arm(workflow.ID, trigger, tick)
		if err != nil {
			logger.Warn("Trigger not scheduled", "error", err)

			continue
		}

		s.mu.Lock()
		s.entries[entryKey(workflow.ID, trigger.ID)] = &entry{cancel: cancel}
		s.mu.Unlock()

		logger.Info("Scheduled trigger", "kind", trigger.Schedule.Kind)
	}
}

func (s *Scheduler) arm(workflowID string, trigger *models.Trigger, tick TickFunc) (func(), error) {
	if trigger.Schedule.Kind == models.ScheduleKindCron {
		return s.armCron(workflowID, trigger, tick)
	}

	interval, err := trigger.Schedule.Interval()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	ticker := s.clock.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				go tick(context.Background(), workflowID, trigger.ID, trigger.Name)
			}
		}
	}()

	return cancel, nil
}

func (s *Scheduler) armCron(workflowID string, trigger *models.Trigger, tick TickFunc) (func(), error) {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := c.AddFunc(trigger.Schedule.Expression, func() {
		tick(context.Background(), workflowID, trigger.ID, trigger.Name)
	})
	if err != nil {
		return nil, err
	}

	c.Start()

	return func() { c.Stop() }, nil
}

// Unschedule cancels every timer owned by the workflow. Idempotent.
func (s *Scheduler) Unschedule(workflowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := workflowID + "/"
	for key, e := range s.entries {
		if strings.HasPrefix(key, prefix) {
			e.cancel()
			delete(s.entries, key)
		}
	}
}

// ActiveTimers reports how many timers are currently armed.
func (s *Scheduler) ActiveTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Stop cancels every timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		e.cancel()
		delete(s.entries, key)
	}
}
