package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yanyucloud/flowd/pkg/events"
	"github.com/yanyucloud/flowd/pkg/models"
	"github.com/yanyucloud/flowd/pkg/persistence"
)

// ExecuteWorkflow performs one complete run: it records a running execution,
// dispatches enabled actions strictly in ascending order, and finalizes
// status, duration and the workflow's counters.
//
// Unknown workflow IDs fail immediately and record no execution. Nothing
// prevents two concurrent executions of the same workflow; each run gets its
// own record and they proceed independently. Failure is not transactional:
// effects of actions that ran before the failing one are not rolled back.
func (e *Engine) ExecuteWorkflow(ctx context.Context, workflowID, triggeredBy string, overrides map[string]any) (*models.WorkflowExecution, error) {
	e.mu.RLock()
	workflow, ok := e.workflows[workflowID]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("workflow %s: %w", workflowID, persistence.ErrWorkflowNotFound)
	}

	variables := workflow.VariableDefaults()
	for name, value := range overrides {
		variables[name] = value
	}

	execution := models.NewWorkflowExecution(workflow.ID, triggeredBy, variables, e.clock.Now().UTC())

	logger := e.logger.With(
		"workflow_id", workflow.ID,
		"execution_id", execution.ID,
		"triggered_by", triggeredBy,
	)
	logger.InfoContext(ctx, "Starting workflow execution")

	e.appendExecution(execution)

	e.publish(ctx, events.WorkflowExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionStartedEvent, workflow.ID),
		ExecutionID: execution.ID,
		TriggeredBy: triggeredBy,
	})

	execCtx := &models.ExecutionContext{
		Workflow:  workflow,
		Execution: execution,
		Variables: variables,
	}
	execCtx.Dispatch = func(ctx context.Context, action *models.Action) error {
		return e.dispatchAction(ctx, execCtx, action, logger)
	}

	var runErr error

	for _, action := range workflow.SortedActions() {
		if err := execCtx.Dispatch(ctx, action); err != nil {
			runErr = err

			break
		}
	}

	now := e.clock.Now().UTC()

	// Record the final variable state; scripts may have mutated the map.
	execution.SetVariables(variables)

	if runErr != nil {
		execution.Fail(now, runErr)
		logger.ErrorContext(ctx, "Workflow execution failed", "error", runErr)
	} else {
		execution.Complete(now)
		logger.InfoContext(ctx, "Workflow execution completed", "duration_ms", execution.DurationMS)
	}

	e.finalizeExecution(ctx, workflow.ID, execution)

	return execution.Snapshot(), nil
}

// dispatchAction runs one action with full skip and logging semantics.
// Condition branches re-enter through the execution context's Dispatch.
func (e *Engine) dispatchAction(ctx context.Context, execCtx *models.ExecutionContext, action *models.Action, logger *slog.Logger) error {
	if !action.Enabled {
		execCtx.Execution.AppendLog(models.LogLevelInfo,
			fmt.Sprintf("Action skipped (disabled): %s", action.Name), action.ID, nil)

		return nil
	}

	executor, err := e.registry.CreateExecutor(action)
	if err != nil {
		execCtx.Execution.AppendLog(models.LogLevelError,
			fmt.Sprintf("Action %s could not be constructed: %v", action.Name, err), action.ID, nil)

		return err
	}

	actionLogger := logger.With("action_id", action.ID, "action_name", action.Name)

	execCtx.Execution.AppendLog(models.LogLevelInfo,
		fmt.Sprintf("Executing action: %s", action.Name), action.ID, nil)

	if err := executor.Execute(ctx, execCtx, actionLogger); err != nil {
		execCtx.Execution.AppendLog(models.LogLevelError,
			fmt.Sprintf("Action failed: %v", err), action.ID, nil)

		return err
	}

	return nil
}

// appendExecution records the execution in history, evicting the oldest
// record beyond the cap.
func (e *Engine) appendExecution(execution *models.WorkflowExecution) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, execution)
	e.executions[execution.ID] = execution

	for len(e.history) > persistence.ExecutionHistoryLimit {
		oldest := e.history[0]
		e.history = e.history[1:]
		delete(e.executions, oldest.ID)
	}
}

// finalizeExecution updates the owning workflow's counters and persists both
// snapshots. The counters keep ExecutionCount == SuccessCount + FailureCount.
func (e *Engine) finalizeExecution(ctx context.Context, workflowID string, execution *models.WorkflowExecution) {
	e.mu.Lock()

	if workflow, ok := e.workflows[workflowID]; ok {
		workflow.ExecutionCount++

		if execution.Status == models.ExecutionStatusCompleted {
			workflow.SuccessCount++
		} else {
			workflow.FailureCount++
		}

		lastExecuted := execution.StartedAt
		workflow.LastExecuted = &lastExecuted
	}

	e.mu.Unlock()

	if execution.Status == models.ExecutionStatusCompleted {
		e.publish(ctx, events.WorkflowExecutionCompleted{
			BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, workflowID),
			ExecutionID: execution.ID,
			DurationMS:  execution.DurationMS,
		})
	} else {
		e.publish(ctx, events.WorkflowExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.WorkflowExecutionFailedEvent, workflowID),
			ExecutionID: execution.ID,
			Error:       execution.Error,
		})
	}

	if err := e.persistWorkflows(ctx); err != nil {
		e.logger.ErrorContext(ctx, "Failed to persist workflows after execution", "error", err)
	}

	if err := e.persistExecutions(ctx); err != nil {
		e.logger.ErrorContext(ctx, "Failed to persist executions", "error", err)
	}
}
