// Package condition provides the conditional-branch action executor.
package condition

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yanyucloud/flowd/pkg/models"
	"github.com/yanyucloud/flowd/pkg/protocol"
	"github.com/yanyucloud/flowd/pkg/template"
)

// Executor evaluates a boolean expression against the current variables and
// dispatches the matching branch of referenced action IDs.
//
// An expression that fails to evaluate logs at error level and takes the
// false branch; it does not fail the execution. Callers rely on conditions
// acting as soft guards, so the behavior is kept deliberately lenient while
// every other executor propagates its errors.
type Executor struct {
	action *models.Action
	config *models.ConditionConfig
}

func NewExecutor(action *models.Action) (*Executor, error) {
	if action.Condition == nil {
		return nil, fmt.Errorf("%w for condition action %q", models.ErrMissingConfig, action.ID)
	}

	if action.Condition.Expression == "" {
		return nil, fmt.Errorf("condition action %q has no expression", action.ID)
	}

	return &Executor{action: action, config: action.Condition}, nil
}

func (e *Executor) Execute(ctx context.Context, execCtx *models.ExecutionContext, logger *slog.Logger) error {
	logger = logger.With("action_type", "condition")

	result, err := template.RenderBool(e.config.Expression, execCtx.Variables)
	if err != nil {
		logger.ErrorContext(ctx, "Condition evaluation failed, taking false branch", "error", err)
		execCtx.Execution.AppendLog(models.LogLevelError,
			fmt.Sprintf("Condition evaluation failed: %v", err), e.action.ID, nil)

		result = false
	}

	execCtx.Execution.AppendLog(models.LogLevelInfo,
		fmt.Sprintf("Condition evaluated to %t", result), e.action.ID, nil)

	branch := e.config.OnFalse
	if result {
		branch = e.config.OnTrue
	}

	for _, actionID := range branch {
		referenced, found := execCtx.Workflow.ActionByID(actionID)
		if !found {
			logger.WarnContext(ctx, "Branch references unknown action, skipping", "action_id", actionID)
			execCtx.Execution.AppendLog(models.LogLevelWarn,
				fmt.Sprintf("Branch references unknown action %q", actionID), e.action.ID, nil)

			continue
		}

		if err := execCtx.Dispatch(ctx, referenced); err != nil {
			return err
		}
	}

	return nil
}

// Factory creates condition executors.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Type() models.ActionType {
	return models.ActionTypeCondition
}

func (f *Factory) Create(action *models.Action) (protocol.Executor, error) {
	return NewExecutor(action)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Boolean template expression evaluated against execution variables, e.g. {{gt .vars.count 3.0}}.",
			},
			"on_true": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Action IDs dispatched when the expression is true.",
			},
			"on_false": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Action IDs dispatched when the expression is false.",
			},
		},
		"required":             []string{"expression"},
		"additionalProperties": false,
	}
}
