// Package delay provides the delay action executor.
package delay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/yanyucloud/flowd/pkg/models"
	"github.com/yanyucloud/flowd/pkg/protocol"
)

// Executor suspends the execution runner for the configured duration. The
// wait runs on the injected clock and honors context cancellation.
type Executor struct {
	action *models.Action
	config *models.DelayConfig
	clock  clockwork.Clock
}

func NewExecutor(action *models.Action, clock clockwork.Clock) (*Executor, error) {
	if action.Delay == nil {
		return nil, fmt.Errorf("%w for delay action %q", models.ErrMissingConfig, action.ID)
	}

	if _, err := action.Delay.Wait(); err != nil {
		return nil, fmt.Errorf("delay action %q: %w", action.ID, err)
	}

	return &Executor{action: action, config: action.Delay, clock: clock}, nil
}

func (e *Executor) Execute(ctx context.Context, execCtx *models.ExecutionContext, logger *slog.Logger) error {
	wait, err := e.config.Wait()
	if err != nil {
		return err
	}

	logger.With("action_type", "delay").DebugContext(ctx, "Delaying execution", "duration", wait)
	execCtx.Execution.AppendLog(models.LogLevelInfo,
		fmt.Sprintf("Delaying for %s", wait), e.action.ID, nil)

	select {
	case <-e.clock.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Factory creates delay executors on a shared clock.
type Factory struct {
	clock clockwork.Clock
}

func NewFactory(clock clockwork.Clock) *Factory {
	return &Factory{clock: clock}
}

func (f *Factory) Type() models.ActionType {
	return models.ActionTypeDelay
}

func (f *Factory) Create(action *models.Action) (protocol.Executor, error) {
	return NewExecutor(action, f.clock)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "How long to wait, scaled by unit.",
			},
			"unit": map[string]any{
				"type":        "string",
				"enum":        []string{"seconds", "minutes", "hours", "days"},
				"description": "Scale of the duration.",
			},
		},
		"required":             []string{"duration", "unit"},
		"additionalProperties": false,
	}
}
