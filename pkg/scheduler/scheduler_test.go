package scheduler

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanyucloud/flowd/pkg/models"
)

type tickRecord struct {
	workflowID  string
	triggerID   string
	triggerName string
}

func intervalWorkflow(id string, seconds int) *models.Workflow {
	return &models.Workflow{
		ID:      id,
		Name:    "Interval workflow",
		Enabled: true,
		Triggers: []*models.Trigger{
			{
				ID:      "trig-1",
				Name:    "Every few seconds",
				Enabled: true,
				Type:    models.TriggerTypeSchedule,
				Schedule: &models.ScheduleConfig{
					Kind:    models.ScheduleKindInterval,
					Seconds: seconds,
				},
			},
		},
	}
}

func collectTicks() (TickFunc, chan tickRecord) {
	ticks := make(chan tickRecord, 16)

	return func(_ context.Context, workflowID, triggerID, triggerName string) {
		ticks <- tickRecord{workflowID: workflowID, triggerID: triggerID, triggerName: triggerName}
	}, ticks
}

func waitForTick(t *testing.T, ticks chan tickRecord) tickRecord {
	t.Helper()

	select {
	case tick := <-ticks:
		return tick
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")

		return tickRecord{}
	}
}

func TestScheduler_IntervalTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, slog.Default())

	defer s.Stop()

	tick, ticks := collectTicks()
	s.Schedule(intervalWorkflow("wf-1", 5), tick)

	require.Equal(t, 1, s.ActiveTimers())

	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)

	got := waitForTick(t, ticks)
	assert.Equal(t, "wf-1", got.workflowID)
	assert.Equal(t, "trig-1", got.triggerID)
	assert.Equal(t, "Every few seconds", got.triggerName)

	clock.Advance(5 * time.Second)
	got = waitForTick(t, ticks)
	assert.Equal(t, "wf-1", got.workflowID)
}

func TestScheduler_UnscheduleStopsTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, slog.Default())

	defer s.Stop()

	tick, ticks := collectTicks()
	s.Schedule(intervalWorkflow("wf-1", 5), tick)

	clock.BlockUntil(1)
	s.Unschedule("wf-1")
	assert.Equal(t, 0, s.ActiveTimers())

	clock.Advance(30 * time.Second)

	select {
	case tick := <-ticks:
		t.Fatalf("unexpected tick after unschedule: %+v", tick)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScheduler_UnscheduleIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, slog.Default())

	s.Unschedule("wf-unknown")
	s.Unschedule("wf-unknown")

	assert.Equal(t, 0, s.ActiveTimers())
}

func TestScheduler_DisabledWorkflowNotScheduled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, slog.Default())

	workflow := intervalWorkflow("wf-1", 5)
	workflow.Enabled = false

	tick, _ := collectTicks()
	s.Schedule(workflow, tick)

	assert.Equal(t, 0, s.ActiveTimers())
}

func TestScheduler_DisabledTriggerSkipped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, slog.Default())

	workflow := intervalWorkflow("wf-1", 5)
	workflow.Triggers[0].Enabled = false

	tick, _ := collectTicks()
	s.Schedule(workflow, tick)

	assert.Equal(t, 0, s.ActiveTimers())
}

func TestScheduler_InvalidIntervalSkipped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, slog.Default())

	workflow := intervalWorkflow("wf-1", 0)

	tick, _ := collectTicks()
	s.Schedule(workflow, tick)

	assert.Equal(t, 0, s.ActiveTimers())
}

func TestScheduler_RescheduleReplacesTimers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, slog.Default())

	defer s.Stop()

	tick, _ := collectTicks()
	s.Schedule(intervalWorkflow("wf-1", 5), tick)
	s.Schedule(intervalWorkflow("wf-1", 10), tick)

	// No duplicate timers for the same workflow and trigger.
	assert.Equal(t, 1, s.ActiveTimers())
}

func TestScheduler_CronTrigger(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, slog.Default())

	defer s.Stop()

	workflow := &models.Workflow{
		ID:      "wf-1",
		Name:    "Cron workflow",
		Enabled: true,
		Triggers: []*models.Trigger{
			{
				ID:      "trig-cron",
				Name:    "Every five minutes",
				Enabled: true,
				Type:    models.TriggerTypeSchedule,
				Schedule: &models.ScheduleConfig{
					Kind:       models.ScheduleKindCron,
					Expression: "*/5 * * * *",
				},
			},
		},
	}

	tick, _ := collectTicks()
	s.Schedule(workflow, tick)

	assert.Equal(t, 1, s.ActiveTimers())
}

func TestScheduler_MalformedCronSkipped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, slog.Default())

	workflow := &models.Workflow{
		ID:      "wf-1",
		Name:    "Cron workflow",
		Enabled: true,
		Triggers: []*models.Trigger{
			{
				ID:      "trig-cron",
				Name:    "Broken",
				Enabled: true,
				Type:    models.TriggerTypeSchedule,
				Schedule: &models.ScheduleConfig{
					Kind:       models.ScheduleKindCron,
					Expression: "not a cron",
				},
			},
		},
	}

	tick, _ := collectTicks()
	s.Schedule(workflow, tick)

	assert.Equal(t, 0, s.ActiveTimers())
}

func TestScheduler_StopCancelsEverything(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, slog.Default())

	tick, _ := collectTicks()
	s.Schedule(intervalWorkflow("wf-1", 5), tick)
	s.Schedule(intervalWorkflow("wf-2", 10), tick)

	require.Equal(t, 2, s.ActiveTimers())

	s.Stop()
	assert.Equal(t, 0, s.ActiveTimers())
}
