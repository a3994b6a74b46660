package delay

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

func delayAction(config *models.DelayConfig) *models.Action {
	return &models.Action{
		ID:      "act-wait",
		Name:    "Wait",
		Enabled: true,
		Type:    models.ActionTypeDelay,
		Delay:   config,
	}
}

func newExecutionContext() *models.ExecutionContext {
	workflow := &models.Workflow{ID: "wf-1", Name: "Test workflow"}

	return &models.ExecutionContext{
		Workflow:  workflow,
		Execution: models.NewWorkflowExecution(workflow.ID, "manual", nil, time.Now().UTC()),
	}
}

func TestNewExecutor_RejectsUnknownUnit(t *testing.T) {
	_, err := NewExecutor(delayAction(&models.DelayConfig{Duration: 5, Unit: "fortnights"}), clockwork.NewFakeClock())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownDelayUnit)
}

func TestNewExecutor_MissingConfig(t *testing.T) {
	_, err := NewExecutor(&models.Action{ID: "act-1", Name: "Wait", Type: models.ActionTypeDelay}, clockwork.NewFakeClock())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMissingConfig)
}

func TestExecutor_Execute_WaitsOnClock(t *testing.T) {
	clock := clockwork.NewFakeClock()

	executor, err := NewExecutor(delayAction(&models.DelayConfig{Duration: 10, Unit: models.DelayUnitSeconds}), clock)
	require.NoError(t, err)

	execCtx := newExecutionContext()
	done := make(chan error, 1)

	go func() {
		done <- executor.Execute(context.Background(), execCtx, slog.Default())
	}()

	clock.BlockUntil(1)

	select {
	case <-done:
		t.Fatal("delay returned before the clock advanced")
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(10 * time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("delay did not return after the clock advanced")
	}

	require.Len(t, execCtx.Execution.Logs, 1)
	assert.Contains(t, execCtx.Execution.Logs[0].Message, "Delaying for 10s")
}

func TestExecutor_Execute_CancelledContext(t *testing.T) {
	clock := clockwork.NewFakeClock()

	executor, err := NewExecutor(delayAction(&models.DelayConfig{Duration: 1, Unit: models.DelayUnitHours}), clock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- executor.Execute(ctx, newExecutionContext(), slog.Default())
	}()

	clock.BlockUntil(1)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("delay did not observe cancellation")
	}
}

func TestFactory(t *testing.T) {
	factory := NewFactory(clockwork.NewFakeClock())

	assert.Equal(t, models.ActionTypeDelay, factory.Type())
	assert.NotEmpty(t, factory.Schema())

	executor, err := factory.Create(delayAction(&models.DelayConfig{Duration: 5, Unit: models.DelayUnitMinutes}))
	require.NoError(t, err)
	assert.NotNil(t, executor)
}
